package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/carechat/internal/model/chat"
)

var (
	ErrKeyRequired          = errors.New("conversation key is required")
	ErrConversationNotFound = errors.New("conversation not found")
)

// Service keeps per-client conversation context in memory. Nothing survives
// a restart.
type Service struct {
	mu            sync.RWMutex
	conversations map[string]chat.Conversation
	messages      map[string][]chat.Message
	limit         int
}

// NewService returns an empty service that keeps at most limit messages per
// conversation (0 keeps everything).
func NewService(limit int) *Service {
	return &Service{
		conversations: make(map[string]chat.Conversation),
		messages:      make(map[string][]chat.Message),
		limit:         limit,
	}
}

// GetOrCreate returns the conversation bound to key, creating it on first use.
func (s *Service) GetOrCreate(_ context.Context, key string) (chat.Conversation, error) {
	if key == "" {
		return chat.Conversation{}, ErrKeyRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if conv, ok := s.conversations[key]; ok {
		return conv, nil
	}
	conv := chat.Conversation{
		ID:        uuid.NewString(),
		Key:       key,
		CreatedAt: time.Now().UTC(),
	}
	s.conversations[key] = conv
	s.messages[key] = make([]chat.Message, 0, 16)
	return conv, nil
}

// Append adds a message to the conversation bound to key.
func (s *Service) Append(_ context.Context, key string, message chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[key]; !ok {
		return ErrConversationNotFound
	}

	msgs := append(s.messages[key], message)
	if s.limit > 0 && len(msgs) > s.limit {
		msgs = append([]chat.Message(nil), msgs[len(msgs)-s.limit:]...)
	}
	s.messages[key] = msgs
	return nil
}

// Recent returns up to n of the latest messages, oldest first. n <= 0 returns all.
func (s *Service) Recent(_ context.Context, key string, n int) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs, ok := s.messages[key]
	if !ok {
		return nil, ErrConversationNotFound
	}
	if n > 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}

	copied := make([]chat.Message, len(msgs))
	copy(copied, msgs)
	return copied, nil
}
