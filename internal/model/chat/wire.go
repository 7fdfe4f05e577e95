package chat

import "encoding/json"

// SendRequest is the body posted to the send endpoint.
type SendRequest struct {
	Message string `json:"message"`
}

// SendResponse is the JSON envelope returned by the send endpoint.
type SendResponse struct {
	Success         bool            `json:"success"`
	AIResponse      string          `json:"ai_response,omitempty"`
	Error           string          `json:"error,omitempty"`
	Debug           json.RawMessage `json:"debug,omitempty"`
	IsAuthenticated *bool           `json:"is_authenticated,omitempty"`
	UserMessageID   string          `json:"user_message_id,omitempty"`
	AIMessageID     string          `json:"ai_message_id,omitempty"`
}
