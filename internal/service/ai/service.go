package ai

import (
	"context"
	"fmt"
	"log"

	"github.com/pocketchat-app/pocketchat/backend/internal/config"
)

// Service binds the completion client to the startup configuration: the
// fixed system prompt plus optional sampling overrides.
type Service struct {
	client *Client
	cfg    config.AIConfig
}

// NewService 创建 AI 回复服务。
func NewService(cfg config.AIConfig) (*Service, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create completion client: %w", err)
	}

	return &Service{client: client, cfg: cfg}, nil
}

// GenerateReply produces the assistant answer for a single user utterance.
// Conversation history is not threaded into the request.
func (s *Service) GenerateReply(ctx context.Context, userMessage string) (string, error) {
	reply, err := s.client.Complete(ctx, Request{
		SystemPrompt: s.cfg.SystemPrompt,
		UserMessage:  userMessage,
		Temperature:  s.cfg.Temperature,
		MaxTokens:    s.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}

	log.Printf("[ai] generated reply model=%s length=%d", s.cfg.Model, len(reply))
	return reply, nil
}
