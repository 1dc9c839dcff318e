package usecase

import (
	"context"
	"fmt"

	chat "github.com/pborgesjr/chat-message-node/internal/pkg/chat/application/domain"
	repository "github.com/pborgesjr/chat-message-node/internal/pkg/chat/persistence/repository/port"
)

// ListConversationsInput wraps the identity whose conversations are listed.
type ListConversationsInput struct {
	Identity string
}

// ListConversationsUseCase returns every conversation the identity appears in,
// as origin or destination.
type ListConversationsUseCase struct {
	Repo repository.ConversationRepository
}

func NewListConversationsUseCase(repo repository.ConversationRepository) *ListConversationsUseCase {
	return &ListConversationsUseCase{Repo: repo}
}

func (uc *ListConversationsUseCase) Execute(ctx context.Context, in ListConversationsInput) ([]chat.Conversation, error) {
	if in.Identity == "" {
		return nil, fmt.Errorf("identity is required")
	}
	convs, err := uc.Repo.FindConversationsByParticipant(ctx, in.Identity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return convs, nil
}
