package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pborgesjr/chat-message-node/internal/pkg/chat/application/usecase"
	repository "github.com/pborgesjr/chat-message-node/internal/pkg/chat/persistence/repository/port"
)

// GetConversationController handles the single-conversation lookup endpoint
// (one controller per endpoint)
type GetConversationController struct {
	UC *usecase.GetConversationUseCase
}

func NewGetConversationController(repo repository.ConversationRepository) *GetConversationController {
	return &GetConversationController{UC: usecase.NewGetConversationUseCase(repo)}
}

// Handle returns a gin handler serving GET /conversation?roomID=
func (h *GetConversationController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Query("roomID")
		if roomID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "roomID is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		conv, err := h.UC.Execute(ctx, usecase.GetConversationInput{ConversationID: roomID})
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, usecase.ErrPersistence) {
				status = http.StatusInternalServerError
			}
			c.JSON(status, gin.H{"message": err.Error()})
			return
		}

		// A miss answers 200 with a null body, like the lookup it replaces.
		c.JSON(http.StatusOK, conv)
	}
}
