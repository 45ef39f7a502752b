package chat

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultReplyText is the canned stylist reply. There is no provider-side
// intelligence behind it; it stands in for a future real messaging
// transport.
const DefaultReplyText = "ありがとうございます！確認して、改めてご連絡しますね。"

// ReplySimulator arms one cancellable timer per sent user message and
// appends a fixed stylist reply to the timeline when it fires. All
// outstanding timers can be cancelled together on session teardown, after
// which no reply ever reaches the discarded timeline.
type ReplySimulator struct {
	timeline *Timeline
	text     string
	logger   *slog.Logger

	mu      sync.Mutex
	timers  map[int]*time.Timer
	nextID  int
	stopped bool

	// onReply, when set, runs after each delivered reply. Used by the
	// session to publish the append to its event bus.
	onReply func(index int, text string)
}

// NewReplySimulator creates a simulator bound to one timeline.
func NewReplySimulator(timeline *Timeline, replyText string, logger *slog.Logger) *ReplySimulator {
	if replyText == "" {
		replyText = DefaultReplyText
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReplySimulator{
		timeline: timeline,
		text:     replyText,
		logger:   logger,
		timers:   make(map[int]*time.Timer),
	}
}

// ScheduleReply arms a timer that appends the canned reply after delay.
// Multiple outstanding timers are independent. After CancelAll this is a
// no-op.
func (r *ReplySimulator) ScheduleReply(delay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return
	}

	id := r.nextID
	r.nextID++

	r.timers[id] = time.AfterFunc(delay, func() {
		r.deliver(id)
	})
}

func (r *ReplySimulator) deliver(id int) {
	// The append happens under the simulator lock so a concurrent
	// CancelAll either stops this timer entirely or observes the reply
	// already in the timeline. Nothing lands in between.
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	delete(r.timers, id)
	cb := r.onReply
	index := r.timeline.AppendStylistMessage(r.text)
	r.mu.Unlock()

	r.logger.Debug("simulated reply delivered", "index", index)

	if cb != nil {
		cb(index, r.text)
	}
}

// Pending returns the number of armed timers.
func (r *ReplySimulator) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// CancelAll stops every outstanding timer and refuses new ones. A timer
// whose callback has not yet taken the lock is turned away by the stopped
// flag, so no reply fires after CancelAll returns. Safe to call twice.
func (r *ReplySimulator) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return
	}
	r.stopped = true

	for id, timer := range r.timers {
		timer.Stop()
		delete(r.timers, id)
	}
}
