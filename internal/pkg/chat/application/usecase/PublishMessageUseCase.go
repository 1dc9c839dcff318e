package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	qport "github.com/pborgesjr/chat-message-node/internal/infrastructure/queue/port"
	"github.com/pborgesjr/chat-message-node/internal/metrics"
	chat "github.com/pborgesjr/chat-message-node/internal/pkg/chat/application/domain"
	"github.com/pborgesjr/chat-message-node/internal/pkg/chat/application/task"
	repository "github.com/pborgesjr/chat-message-node/internal/pkg/chat/persistence/repository/port"
)

// RoomBroadcaster delivers a payload to every current member of a room,
// sender included, and reports how many connections were reached.
type RoomBroadcaster interface {
	Broadcast(roomID string, payload []byte) int
}

// PeerPublisher forwards a broadcast to room members connected on other nodes.
type PeerPublisher interface {
	Publish(ctx context.Context, roomID string, payload []byte) error
}

// PublishMessageInput carries one message bound for a room. SkipPersist marks
// a message already appended by another path (the upload pipeline writes the
// history entry at upload time); such messages are broadcast only.
type PublishMessageInput struct {
	RoomID         string
	ConversationID string
	Message        chat.Message
	SkipPersist    bool
}

// PublishMessageUseCase is the broadcast path: it appends the message to the
// conversation history unless SkipPersist is set, and emits it to every room
// member. The append is never awaited; the broadcast goes out regardless of
// how the persistence attempt ends.
type PublishMessageUseCase struct {
	Repo   repository.ConversationRepository
	Rooms  RoomBroadcaster
	Queue  qport.Client  // optional; nil falls back to an in-process append
	Peers  PeerPublisher // optional
	Logger zerolog.Logger

	appendTimeout time.Duration
}

func NewPublishMessageUseCase(repo repository.ConversationRepository, rooms RoomBroadcaster, queue qport.Client, peers PeerPublisher, logger zerolog.Logger) *PublishMessageUseCase {
	return &PublishMessageUseCase{
		Repo:          repo,
		Rooms:         rooms,
		Queue:         queue,
		Peers:         peers,
		Logger:        logger,
		appendTimeout: 10 * time.Second,
	}
}

// messageFrame is the wire envelope delivered to room members.
type messageFrame struct {
	Type    string       `json:"type"`
	Message chat.Message `json:"message"`
}

func (uc *PublishMessageUseCase) Execute(ctx context.Context, in PublishMessageInput) (*chat.Message, error) {
	if in.RoomID == "" {
		return nil, fmt.Errorf("room id is required")
	}
	msg, err := chat.NewMessage(in.Message)
	if err != nil {
		return nil, err
	}

	if !in.SkipPersist {
		if in.ConversationID == "" {
			return nil, fmt.Errorf("conversationId is required")
		}
		uc.appendAsync(in.ConversationID, *msg)
	}

	payload, err := json.Marshal(messageFrame{Type: "message", Message: *msg})
	if err != nil {
		return nil, err
	}

	delivered := uc.Rooms.Broadcast(in.RoomID, payload)
	metrics.MessagesBroadcast.WithLabelValues(roomType(in.RoomID)).Inc()
	metrics.BroadcastFanout.Observe(float64(delivered))

	if uc.Peers != nil {
		if err := uc.Peers.Publish(ctx, in.RoomID, payload); err != nil {
			uc.Logger.Error().Err(err).Str("room", in.RoomID).Msg("peer publish failed")
		}
	}

	return msg, nil
}

// appendAsync issues the history append without blocking the broadcast.
// With a queue wired the append rides asynq and inherits its retry policy;
// otherwise it runs on a goroutine and failures are only logged.
func (uc *PublishMessageUseCase) appendAsync(conversationID string, msg chat.Message) {
	if uc.Queue != nil {
		t, err := task.NewAppendMessageTask(conversationID, msg)
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), uc.appendTimeout)
			defer cancel()
			if _, err = uc.Queue.Enqueue(ctx, t, qport.EnqueueOption{Queue: "chat", MaxRetry: 5}); err == nil {
				return
			}
		}
		uc.Logger.Error().Err(err).Str("conversation", conversationID).Msg("append enqueue failed, falling back to direct append")
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), uc.appendTimeout)
		defer cancel()
		if err := uc.Repo.AppendMessage(ctx, conversationID, msg); err != nil {
			metrics.PersistenceFailures.Inc()
			uc.Logger.Error().Err(err).Str("conversation", conversationID).Str("message", msg.ID).Msg("history append failed")
			return
		}
		metrics.MessagesPersisted.Inc()
	}()
}

func roomType(roomID string) string {
	if strings.HasSuffix(roomID, "-chats") {
		return "aggregate"
	}
	return "conversation"
}
