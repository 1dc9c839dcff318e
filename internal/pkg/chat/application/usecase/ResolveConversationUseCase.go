package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/pborgesjr/chat-message-node/internal/metrics"
	chat "github.com/pborgesjr/chat-message-node/internal/pkg/chat/application/domain"
	repository "github.com/pborgesjr/chat-message-node/internal/pkg/chat/persistence/repository/port"
)

// ResolveConversationInput carries the unordered identity pair to resolve.
// Order is not significant: (A,B) and (B,A) resolve to the same conversation.
type ResolveConversationInput struct {
	Origin      string
	Destination string
}

// ResolveConversationUseCase finds or creates the canonical conversation for
// an identity pair. Two connections racing on first contact are reconciled by
// the store's pair uniqueness: the losing insert comes back as
// ErrConversationExists and is retried as a lookup, so both callers converge
// on the same record.
type ResolveConversationUseCase struct {
	Repo repository.ConversationRepository
}

func NewResolveConversationUseCase(repo repository.ConversationRepository) *ResolveConversationUseCase {
	return &ResolveConversationUseCase{Repo: repo}
}

func (uc *ResolveConversationUseCase) Execute(ctx context.Context, in ResolveConversationInput) (*chat.Conversation, error) {
	if in.Origin == "" || in.Destination == "" {
		return nil, fmt.Errorf("origin and destination are required")
	}

	conv, err := uc.Repo.FindConversation(ctx, in.Origin, in.Destination)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, repository.ErrConversationNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	conv, err = uc.Repo.InsertConversation(ctx, in.Origin, in.Destination)
	if err == nil {
		metrics.ConversationsCreated.Inc()
		return conv, nil
	}
	if errors.Is(err, repository.ErrConversationExists) {
		// Lost the first-contact race; the winner's record is now visible.
		conv, err = uc.Repo.FindConversation(ctx, in.Origin, in.Destination)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		return conv, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
}
