package chat

import "time"

// Conversation is the backend's transient context bucket for one client.
type Conversation struct {
	ID        string    `json:"id"`
	Key       string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}
