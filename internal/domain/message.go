package domain

import (
	"time"

	"github.com/google/uuid"
)

// Sender identifies which side of the conversation produced a message.
type Sender string

const (
	SenderUser    Sender = "user"
	SenderStylist Sender = "stylist"
)

// Message is a single entry in a consultation timeline. Immutable once
// created; the owning timeline never edits or reorders it.
type Message struct {
	ID        string
	Sender    Sender
	Text      string
	Image     *ImageRef // optional attached still image
	Timestamp time.Time
}

// NewMessage creates a message with a fresh ID and the current time.
func NewMessage(sender Sender, text string, image *ImageRef) Message {
	return Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Text:      text,
		Image:     image,
		Timestamp: time.Now(),
	}
}

// HasImage reports whether the message carries an attachment.
func (m Message) HasImage() bool { return m.Image != nil }
