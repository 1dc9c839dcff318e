package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	blobport "github.com/pborgesjr/chat-message-node/internal/infrastructure/blob/port"
	"github.com/pborgesjr/chat-message-node/internal/metrics"
	chat "github.com/pborgesjr/chat-message-node/internal/pkg/chat/application/domain"
	repository "github.com/pborgesjr/chat-message-node/internal/pkg/chat/persistence/repository/port"
)

// UploadAttachmentInput carries the raw attachment bytes and their target
// conversation.
type UploadAttachmentInput struct {
	ConversationID string
	Sender         string
	Filename       string
	ContentType    string
	Data           []byte
}

// UploadAttachmentUseCase runs the upload pipeline: store the bytes under a
// collision-resistant name, build an image message pointing at the resulting
// URL, and append it to the history. The append happens here, at upload time,
// so the caller must broadcast the returned message with skip_persist set or
// the history gains a duplicate.
type UploadAttachmentUseCase struct {
	Repo repository.ConversationRepository
	Blob blobport.Uploader
}

func NewUploadAttachmentUseCase(repo repository.ConversationRepository, blob blobport.Uploader) *UploadAttachmentUseCase {
	return &UploadAttachmentUseCase{Repo: repo, Blob: blob}
}

func (uc *UploadAttachmentUseCase) Execute(ctx context.Context, in UploadAttachmentInput) (*chat.Message, error) {
	if in.ConversationID == "" || in.Sender == "" {
		return nil, fmt.Errorf("conversationId and senderId are required")
	}
	if len(in.Data) == 0 {
		return nil, fmt.Errorf("attachment is empty")
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(in.Filename))
	url, err := uc.Blob.Upload(ctx, in.Data, name, in.ContentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpload, err)
	}

	msg, err := chat.NewMessage(chat.Message{
		Sender:    in.Sender,
		Image:     &url,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	if err := uc.Repo.AppendMessage(ctx, in.ConversationID, *msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	metrics.AttachmentsUploaded.Inc()
	metrics.MessagesPersisted.Inc()
	return msg, nil
}
