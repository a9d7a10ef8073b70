package service

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/apiclient"
	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// chatService implements ChatService.
type chatService struct {
	chat   apiclient.ChatAPI
	logger zerolog.Logger
}

// NewChatService creates a new chat service.
func NewChatService(chat apiclient.ChatAPI, logger zerolog.Logger) ChatService {
	return &chatService{
		chat:   chat,
		logger: logger.With().Str("service", "chat").Logger(),
	}
}

func (s *chatService) Messages(ctx context.Context, orderID int64) ([]model.ChatMessage, error) {
	messages, err := s.chat.ChatMessages(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat messages: %w", err)
	}
	return messages, nil
}

func (s *chatService) Send(ctx context.Context, orderID int64, text string) (*model.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, model.ErrEmptyMessage
	}

	msg, err := s.chat.SendChatMessage(ctx, orderID, text)
	if err != nil {
		return nil, fmt.Errorf("failed to send chat message: %w", err)
	}
	return msg, nil
}

func (s *chatService) MarkRead(ctx context.Context, orderID int64) error {
	if err := s.chat.MarkChatRead(ctx, orderID); err != nil {
		return fmt.Errorf("failed to mark chat read: %w", err)
	}
	return nil
}
