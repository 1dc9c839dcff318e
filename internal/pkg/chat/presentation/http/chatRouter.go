package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	blobport "github.com/pborgesjr/chat-message-node/internal/infrastructure/blob/port"
	qport "github.com/pborgesjr/chat-message-node/internal/infrastructure/queue/port"
	"github.com/pborgesjr/chat-message-node/internal/infrastructure/realtime"
	"github.com/pborgesjr/chat-message-node/internal/pkg/chat/application/usecase"
	"github.com/pborgesjr/chat-message-node/internal/pkg/chat/presentation/controller"
	repository "github.com/pborgesjr/chat-message-node/internal/pkg/chat/persistence/repository/port"
)

// RegisterRoutes registers the relay's HTTP and websocket endpoints.
// It constructs per-endpoint controllers and binds them directly to routes.
func RegisterRoutes(r *gin.Engine, repo repository.ConversationRepository, router *realtime.Router, queue qport.Client, peers usecase.PeerPublisher, blob blobport.Uploader, logger zerolog.Logger) {
	getCtl := controller.NewGetConversationController(repo)
	listCtl := controller.NewListConversationsController(repo)
	uploadCtl := controller.NewUploadController(repo, blob)
	socketCtl := controller.NewChatSocketController(repo, router, queue, peers, logger)

	// GET /status -> liveness
	r.GET("/status", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte("<h1>API is running</h1>"))
	})

	// GET /conversation?roomID= -> single conversation with history
	r.GET("/conversation", getCtl.Handle())

	// GET /conversations?origin= -> all conversations involving the identity
	r.GET("/conversations", listCtl.Handle())

	// POST /upload -> attachment upload pipeline
	r.POST("/upload", uploadCtl.Handle())

	// GET /ws -> websocket endpoint for realtime chat
	r.GET("/ws", socketCtl.Handle())
}
