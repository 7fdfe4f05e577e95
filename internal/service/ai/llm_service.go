package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/carechat/internal/config"
	"github.com/zhouzirui/carechat/internal/model/chat"
)

// historyLimit is how many earlier messages are sent to the model as context.
const historyLimit = 5

// Responder produces the assistant reply for a user message.
type Responder interface {
	Reply(ctx context.Context, history []chat.Message, message string) (string, error)
}

// Service answers through an eino chain: system prompt, recent history and
// the user query fed to a chat model.
type Service struct {
	template PromptTemplate
	chain    compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates the model described by cfg and compiles the chain.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(ctx, chatModel, DefaultTemplate)
}

// NewServiceWithModel compiles the chain around an existing chat model.
func NewServiceWithModel(ctx context.Context, chatModel model.ChatModel, template PromptTemplate) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		template: template,
		chain:    runnable,
	}, nil
}

// Reply runs the chain for message with the given history as context.
func (s *Service) Reply(ctx context.Context, history []chat.Message, message string) (string, error) {
	response, err := s.chain.Invoke(ctx, buildChainInput(s.template, history, message))
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}

	content := strings.TrimSpace(response.Content)
	if content == "" {
		return "", fmt.Errorf("model returned an empty response")
	}

	log.Debug().Int("length", len(content)).Int("history", len(history)).Msg("[ai] generated response")
	return content, nil
}

func buildChainInput(template PromptTemplate, history []chat.Message, message string) map[string]any {
	return map[string]any{
		"system":  template.BuildSystemPrompt(),
		"history": buildHistoryMessages(history),
		"query":   message,
	}
}

func buildHistoryMessages(messages []chat.Message) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	startIdx := 0
	if len(messages) > historyLimit {
		startIdx = len(messages) - historyLimit
	}

	history := make([]*schema.Message, 0, len(messages)-startIdx)
	for _, msg := range messages[startIdx:] {
		switch msg.Sender {
		case chat.SenderUser:
			history = append(history, schema.UserMessage(msg.Text))
		case chat.SenderAssistant:
			history = append(history, schema.AssistantMessage(msg.Text, nil))
		}
	}

	return history
}
