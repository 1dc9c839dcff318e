package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	chat "github.com/pborgesjr/chat-message-node/internal/pkg/chat/application/domain"
	"github.com/pborgesjr/chat-message-node/internal/pkg/chat/application/usecase"
	repository "github.com/pborgesjr/chat-message-node/internal/pkg/chat/persistence/repository/port"
)

// ListConversationsController handles the participant rollup endpoint
// (one controller per endpoint)
type ListConversationsController struct {
	UC *usecase.ListConversationsUseCase
}

func NewListConversationsController(repo repository.ConversationRepository) *ListConversationsController {
	return &ListConversationsController{UC: usecase.NewListConversationsUseCase(repo)}
}

// Handle returns a gin handler serving GET /conversations?origin=
func (h *ListConversationsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Query("origin")
		if origin == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "origin is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		convs, err := h.UC.Execute(ctx, usecase.ListConversationsInput{Identity: origin})
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, usecase.ErrPersistence) {
				status = http.StatusInternalServerError
			}
			c.JSON(status, gin.H{"message": err.Error()})
			return
		}

		if convs == nil {
			convs = []chat.Conversation{}
		}
		c.JSON(http.StatusOK, convs)
	}
}
