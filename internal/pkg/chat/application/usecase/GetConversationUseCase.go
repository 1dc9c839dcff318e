package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "github.com/pborgesjr/chat-message-node/internal/pkg/chat/application/domain"
	repository "github.com/pborgesjr/chat-message-node/internal/pkg/chat/persistence/repository/port"
)

// GetConversationInput wraps the conversation identifier to fetch.
type GetConversationInput struct {
	ConversationID string
}

// GetConversationUseCase fetches a single conversation with its full history.
// A lookup miss is returned as (nil, nil) so the caller can answer with an
// empty body instead of an error.
type GetConversationUseCase struct {
	Repo repository.ConversationRepository
}

func NewGetConversationUseCase(repo repository.ConversationRepository) *GetConversationUseCase {
	return &GetConversationUseCase{Repo: repo}
}

func (uc *GetConversationUseCase) Execute(ctx context.Context, in GetConversationInput) (*chat.Conversation, error) {
	if in.ConversationID == "" {
		return nil, fmt.Errorf("conversation id is required")
	}
	conv, err := uc.Repo.GetConversationByID(ctx, in.ConversationID)
	if errors.Is(err, repository.ErrConversationNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return conv, nil
}
