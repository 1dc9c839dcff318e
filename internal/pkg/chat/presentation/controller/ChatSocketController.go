package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	qport "github.com/pborgesjr/chat-message-node/internal/infrastructure/queue/port"
	"github.com/pborgesjr/chat-message-node/internal/infrastructure/realtime"
	chat "github.com/pborgesjr/chat-message-node/internal/pkg/chat/application/domain"
	"github.com/pborgesjr/chat-message-node/internal/pkg/chat/application/usecase"
	repository "github.com/pborgesjr/chat-message-node/internal/pkg/chat/persistence/repository/port"
)

// ChatSocketController is the per-connection session coordinator. It wires
// conversation resolution, room membership, and the broadcast path into one
// websocket endpoint.
type ChatSocketController struct {
	router          *realtime.Router
	resolveUC       *usecase.ResolveConversationUseCase
	listUC          *usecase.ListConversationsUseCase
	publishUC       *usecase.PublishMessageUseCase
	logger          zerolog.Logger
	inflightTimeout time.Duration
}

func NewChatSocketController(repo repository.ConversationRepository, router *realtime.Router, queue qport.Client, peers usecase.PeerPublisher, logger zerolog.Logger) *ChatSocketController {
	return &ChatSocketController{
		router:          router,
		resolveUC:       usecase.NewResolveConversationUseCase(repo),
		listUC:          usecase.NewListConversationsUseCase(repo),
		publishUC:       usecase.NewPublishMessageUseCase(repo, router, queue, peers, logger),
		logger:          logger,
		inflightTimeout: 5 * time.Second,
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Mirrors the permissive CORS policy of the HTTP surface.
		return true
	},
}

type inboundFrame struct {
	Type           string        `json:"type"`
	Origin         string        `json:"origin,omitempty"`
	Destination    string        `json:"destination,omitempty"`
	RoomID         string        `json:"room_id,omitempty"`
	Identity       string        `json:"identity,omitempty"`
	ConversationID string        `json:"conversation_id,omitempty"`
	SkipPersist    bool          `json:"skip_persist,omitempty"`
	Message        *chat.Message `json:"message,omitempty"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type joinAckFrame struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

type allChatsAckFrame struct {
	Type          string              `json:"type"`
	Conversations []chat.Conversation `json:"conversations"`
}

const defaultReadTimeout = 60 * time.Second

// Handle upgrades HTTP connections to websocket and processes frames until
// the client disconnects.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; just return.
			return
		}

		conn := realtime.NewConnection(ws)
		ctl.router.Attach(conn)
		conn.Start()
		ctl.logger.Info().Str("session", conn.ID).Msg("connected")
		defer func() {
			ctl.router.Detach(conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
			ctl.logger.Info().Str("session", conn.ID).Msg("disconnected")
		}()

		ws.SetReadLimit(1 << 20) // 1MB payload cap
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) &&
					!errors.Is(err, websocket.ErrCloseSent) {
					ctl.logger.Warn().Err(err).Str("session", conn.ID).Msg("read failed")
				}
				return
			}

			var frame inboundFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				ctl.replyError(conn, "invalid payload")
				continue
			}

			switch frame.Type {
			case "join-conversation":
				ctl.handleJoinConversation(c, conn, frame)
			case "leave-room":
				ctl.handleLeaveRoom(conn, frame)
			case "join-all-chats":
				ctl.handleJoinAllChats(c, conn, frame)
			case "message":
				ctl.handleMessage(c, conn, frame)
			default:
				ctl.replyError(conn, "unknown frame type")
			}
		}
	}
}

func (ctl *ChatSocketController) handleJoinConversation(c *gin.Context, conn *realtime.Connection, frame inboundFrame) {
	if frame.Origin == "" || frame.Destination == "" {
		ctl.replyError(conn, "origin and destination are required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
	defer cancel()

	conv, err := ctl.resolveUC.Execute(ctx, usecase.ResolveConversationInput{
		Origin:      frame.Origin,
		Destination: frame.Destination,
	})
	if err != nil {
		ctl.logger.Error().Err(err).Str("origin", frame.Origin).Str("destination", frame.Destination).Msg("join-conversation failed")
		ctl.replyError(conn, err.Error())
		return
	}

	ctl.router.Join(conv.ID, conn)
	ctl.logger.Info().
		Str("session", conn.ID).
		Str("origin", frame.Origin).
		Str("destination", frame.Destination).
		Str("room", conv.ID).
		Msg("joined conversation")

	ctl.reply(conn, joinAckFrame{Type: "join-conversation", RoomID: conv.ID})
}

func (ctl *ChatSocketController) handleLeaveRoom(conn *realtime.Connection, frame inboundFrame) {
	if frame.RoomID == "" {
		ctl.replyError(conn, "room_id is required")
		return
	}
	ctl.logger.Info().Str("session", conn.ID).Str("room", frame.RoomID).Msg("leaving room")
	ctl.router.Leave(frame.RoomID, conn)
}

func (ctl *ChatSocketController) handleJoinAllChats(c *gin.Context, conn *realtime.Connection, frame inboundFrame) {
	if frame.Identity == "" {
		ctl.replyError(conn, "identity is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
	defer cancel()

	convs, err := ctl.listUC.Execute(ctx, usecase.ListConversationsInput{Identity: frame.Identity})
	if err != nil {
		ctl.logger.Error().Err(err).Str("identity", frame.Identity).Msg("join-all-chats failed")
		ctl.replyError(conn, err.Error())
		return
	}

	ctl.router.Join(chat.AggregateRoomID(frame.Identity), conn)

	if convs == nil {
		convs = []chat.Conversation{}
	}
	ctl.reply(conn, allChatsAckFrame{Type: "join-all-chats", Conversations: convs})
}

func (ctl *ChatSocketController) handleMessage(c *gin.Context, conn *realtime.Connection, frame inboundFrame) {
	if frame.Message == nil {
		ctl.replyError(conn, "message is required")
		return
	}
	roomID, ok := ctl.router.ActiveRoom(conn)
	if !ok {
		ctl.replyError(conn, "no active room; join a conversation first")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
	defer cancel()

	_, err := ctl.publishUC.Execute(ctx, usecase.PublishMessageInput{
		RoomID:         roomID,
		ConversationID: frame.ConversationID,
		Message:        *frame.Message,
		SkipPersist:    frame.SkipPersist,
	})
	if err != nil {
		ctl.replyError(conn, err.Error())
	}
}

func (ctl *ChatSocketController) replyError(conn *realtime.Connection, message string) {
	ctl.reply(conn, errorFrame{Type: "error", Message: message})
}

func (ctl *ChatSocketController) reply(conn *realtime.Connection, frame any) {
	if payload, err := json.Marshal(frame); err == nil {
		_ = conn.Send(payload)
	}
}
