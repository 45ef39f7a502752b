package chat

import (
	"iter"
	"strings"
	"sync"

	"github.com/ee1922/selecty/internal/domain"
)

// Timeline is the append-only message log for one consultation. Messages
// are never edited, deleted, or reordered; insertion order is chronological
// and is the render order. Appends may come from the user-facing caller or
// from a reply timer, so the log is guarded.
type Timeline struct {
	mu       sync.RWMutex
	messages []domain.Message
}

// NewTimeline creates an empty timeline.
func NewTimeline() *Timeline {
	return &Timeline{}
}

// AppendUserMessage appends a user message carrying text, an image, or
// both. Text with surrounding whitespace is trimmed first. Fails with
// domain.ErrEmptyMessage when neither trimmed text nor an image is present;
// nothing is appended in that case. Returns the index of the new message.
func (t *Timeline) AppendUserMessage(text string, image *domain.ImageRef) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" && image == nil {
		return 0, domain.ErrEmptyMessage
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, domain.NewMessage(domain.SenderUser, text, image))
	return len(t.messages) - 1, nil
}

// AppendStylistMessage appends a stylist message at the tail. Stylist
// replies are system-generated and never empty, so this cannot fail.
func (t *Timeline) AppendStylistMessage(text string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, domain.NewMessage(domain.SenderStylist, text, nil))
	return len(t.messages) - 1
}

// Len returns the number of messages so far.
func (t *Timeline) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Snapshot returns a frozen copy of the log at this instant. The copy is
// independent: later appends do not show up in it.
func (t *Timeline) Snapshot() []domain.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// All returns a lazy, restartable view over the log. Each ranging of the
// sequence re-reads the tail, so re-iterating after further appends yields
// the new messages too.
func (t *Timeline) All() iter.Seq2[int, domain.Message] {
	return func(yield func(int, domain.Message) bool) {
		for i, msg := range t.Snapshot() {
			if !yield(i, msg) {
				return
			}
		}
	}
}
