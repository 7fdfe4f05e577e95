package ai

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/carechat/internal/model/chat"
)

// FallbackReply is returned when no chat model is configured or the model fails.
const FallbackReply = "I apologize, but I'm having trouble connecting to my AI service right now. Please try again later or contact support if the issue persists."

// Fallback answers every message with FallbackReply.
type Fallback struct{}

// Reply returns FallbackReply.
func (Fallback) Reply(context.Context, []chat.Message, string) (string, error) {
	return FallbackReply, nil
}

type fallbackOnError struct {
	next Responder
}

// WithFallback wraps next so that a model failure is logged and answered
// with FallbackReply instead of an error.
func WithFallback(next Responder) Responder {
	return fallbackOnError{next: next}
}

func (f fallbackOnError) Reply(ctx context.Context, history []chat.Message, message string) (string, error) {
	reply, err := f.next.Reply(ctx, history, message)
	if err != nil {
		log.Error().Err(err).Msg("[ai] model reply failed, answering with fallback")
		return FallbackReply, nil
	}
	return reply, nil
}
