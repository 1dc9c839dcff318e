package controller

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	blobport "github.com/pborgesjr/chat-message-node/internal/infrastructure/blob/port"
	"github.com/pborgesjr/chat-message-node/internal/pkg/chat/application/usecase"
	repository "github.com/pborgesjr/chat-message-node/internal/pkg/chat/persistence/repository/port"
)

// maxUploadBytes caps attachment size at 10MB.
const maxUploadBytes = 10 << 20

// UploadController handles the attachment upload endpoint (one controller per
// endpoint). The returned message is already appended to the history, so the
// client broadcasts it over the socket with skip_persist set.
type UploadController struct {
	UC *usecase.UploadAttachmentUseCase
}

func NewUploadController(repo repository.ConversationRepository, blob blobport.Uploader) *UploadController {
	return &UploadController{UC: usecase.NewUploadAttachmentUseCase(repo, blob)}
}

// Handle returns a gin handler serving POST /upload (multipart: image file,
// conversationId, senderId).
func (h *UploadController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID := c.PostForm("conversationId")
		senderID := c.PostForm("senderId")
		if conversationID == "" || senderID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "conversationId and senderId are required"})
			return
		}

		fileHeader, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "image file is required"})
			return
		}
		if fileHeader.Size > maxUploadBytes {
			c.JSON(http.StatusBadRequest, gin.H{"message": "image exceeds the 10MB limit"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()
		msg, err := h.UC.Execute(ctx, usecase.UploadAttachmentInput{
			ConversationID: conversationID,
			Sender:         senderID,
			Filename:       fileHeader.Filename,
			ContentType:    fileHeader.Header.Get("Content-Type"),
			Data:           data,
		})
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, usecase.ErrPersistence) || errors.Is(err, usecase.ErrUpload) {
				status = http.StatusInternalServerError
			}
			c.JSON(status, gin.H{"message": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, msg)
	}
}
