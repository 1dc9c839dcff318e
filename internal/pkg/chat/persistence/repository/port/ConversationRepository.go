package repository

import (
	"context"
	"errors"

	chat "github.com/pborgesjr/chat-message-node/internal/pkg/chat/application/domain"
)

// Sentinel errors adapters must return so use cases can branch without
// depending on driver error types.
var (
	// ErrConversationNotFound signals a lookup miss.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrConversationExists signals an insert rejected by the unordered-pair
	// uniqueness constraint; the caller lost a first-contact race and should
	// re-run the lookup.
	ErrConversationExists = errors.New("conversation already exists for pair")
	// ErrMessageExists signals an append rejected by the message primary key;
	// the message is already part of the history.
	ErrMessageExists = errors.New("message already appended")
)

// ConversationRepository defines persistence operations for conversations and
// their append-only message history.
type ConversationRepository interface {
	// FindConversation matches the unordered pair (a,b)/(b,a).
	FindConversation(ctx context.Context, a, b string) (*chat.Conversation, error)
	// InsertConversation creates a conversation with an empty history.
	InsertConversation(ctx context.Context, a, b string) (*chat.Conversation, error)
	// GetConversationByID returns the conversation with its full history.
	GetConversationByID(ctx context.Context, id string) (*chat.Conversation, error)
	// AppendMessage appends one message to the conversation history.
	AppendMessage(ctx context.Context, conversationID string, m chat.Message) error
	// FindConversationsByParticipant returns every conversation the identity
	// appears in, as origin or destination.
	FindConversationsByParticipant(ctx context.Context, identity string) ([]chat.Conversation, error)
}
