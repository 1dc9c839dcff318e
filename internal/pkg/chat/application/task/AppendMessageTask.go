package task

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	qport "github.com/pborgesjr/chat-message-node/internal/infrastructure/queue/port"
	"github.com/pborgesjr/chat-message-node/internal/metrics"
	chat "github.com/pborgesjr/chat-message-node/internal/pkg/chat/application/domain"
	repository "github.com/pborgesjr/chat-message-node/internal/pkg/chat/persistence/repository/port"
)

// AppendMessageTaskType is the queue task name for appending a message to a
// conversation history.
const AppendMessageTaskType = "chat:append_message"

// AppendMessagePayload is the JSON payload transported via the queue.
type AppendMessagePayload struct {
	ConversationID string       `json:"conversationId"`
	Message        chat.Message `json:"message"`
}

// NewAppendMessageTask builds the queue task for a history append.
func NewAppendMessageTask(conversationID string, m chat.Message) (qport.Task, error) {
	payload, err := json.Marshal(AppendMessagePayload{ConversationID: conversationID, Message: m})
	if err != nil {
		return qport.Task{}, err
	}
	return qport.Task{Type: AppendMessageTaskType, Payload: payload}, nil
}

// RegisterAppendMessageTask binds the append handler to the provided server.
// The message ID makes the insert idempotent under queue retries: a repeated
// delivery hits the primary key, comes back as ErrMessageExists, and is
// treated as success so the retry loop terminates.
func RegisterAppendMessageTask(srv qport.Server, repo repository.ConversationRepository) {
	srv.Register(AppendMessageTaskType, func(ctx context.Context, t qport.Task) error {
		var p AppendMessagePayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: retrying will not help
			return err
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		err := repo.AppendMessage(ctx, p.ConversationID, p.Message)
		if errors.Is(err, repository.ErrMessageExists) {
			return nil
		}
		if err != nil {
			metrics.PersistenceFailures.Inc()
			return err
		}
		metrics.MessagesPersisted.Inc()
		return nil
	})
}
