package chat

import (
	"time"

	"github.com/google/uuid"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// TimestampLayout is the display format used for message timestamps.
const TimestampLayout = "Jan 2, 2006 3:04:05 PM"

// Label returns the display name shown in front of a message.
func (s Sender) Label() string {
	if s == SenderUser {
		return "You"
	}
	return "AI Assistant"
}

// Message is a single transcript entry. It is never mutated after creation.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp string    `json:"timestamp"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewMessage stamps a message with an identifier and a display timestamp.
func NewMessage(text string, sender Sender, now time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    sender,
		Timestamp: now.Format(TimestampLayout),
		CreatedAt: now.UTC(),
	}
}

// FromUser reports whether the message was typed by the user.
func (m Message) FromUser() bool {
	return m.Sender == SenderUser
}
