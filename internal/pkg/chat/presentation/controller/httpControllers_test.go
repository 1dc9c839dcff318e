package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chat "github.com/pborgesjr/chat-message-node/internal/pkg/chat/application/domain"
)

// brokenRepo fails every store call, exercising the persistence error paths.
type brokenRepo struct {
	*socketTestRepo
}

func (r *brokenRepo) GetConversationByID(ctx context.Context, id string) (*chat.Conversation, error) {
	return nil, errors.New("connection refused")
}

func (r *brokenRepo) FindConversationsByParticipant(ctx context.Context, identity string) ([]chat.Conversation, error) {
	return nil, errors.New("connection refused")
}

type recordingBlob struct {
	mu        sync.Mutex
	filenames []string
	err       error
}

func (b *recordingBlob) Upload(ctx context.Context, data []byte, filename string, contentType string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return "", b.err
	}
	b.filenames = append(b.filenames, filename)
	return "https://blob.example/" + filename, nil
}

func seedRepo(t *testing.T) (*socketTestRepo, *chat.Conversation) {
	t.Helper()
	repo := newSocketTestRepo()
	conv, err := repo.InsertConversation(context.Background(), "u1", "u2")
	require.NoError(t, err)
	return repo, conv
}

func performRequest(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestGetConversationEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo, conv := seedRepo(t)
	engine := gin.New()
	engine.GET("/conversation", NewGetConversationController(repo).Handle())

	t.Run("found", func(t *testing.T) {
		rec := performRequest(engine, httptest.NewRequest(http.MethodGet, "/conversation?roomID="+conv.ID, nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var got chat.Conversation
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, conv.ID, got.ID)
		assert.Equal(t, "u1", got.Origin)
	})

	t.Run("miss answers null", func(t *testing.T) {
		rec := performRequest(engine, httptest.NewRequest(http.MethodGet, "/conversation?roomID=missing", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))
	})

	t.Run("missing param", func(t *testing.T) {
		rec := performRequest(engine, httptest.NewRequest(http.MethodGet, "/conversation", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		broken := gin.New()
		broken.GET("/conversation", NewGetConversationController(&brokenRepo{repo}).Handle())
		rec := performRequest(broken, httptest.NewRequest(http.MethodGet, "/conversation?roomID="+conv.ID, nil))
		require.Equal(t, http.StatusInternalServerError, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.NotEmpty(t, body["message"])
	})
}

func TestListConversationsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo, _ := seedRepo(t)
	engine := gin.New()
	engine.GET("/conversations", NewListConversationsController(repo).Handle())

	t.Run("participant match", func(t *testing.T) {
		rec := performRequest(engine, httptest.NewRequest(http.MethodGet, "/conversations?origin=u1", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var got []chat.Conversation
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.True(t, got[0].Involves("u1"))
	})

	t.Run("no matches answers empty array", func(t *testing.T) {
		rec := performRequest(engine, httptest.NewRequest(http.MethodGet, "/conversations?origin=stranger", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
	})

	t.Run("missing param", func(t *testing.T) {
		rec := performRequest(engine, httptest.NewRequest(http.MethodGet, "/conversations", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		broken := gin.New()
		broken.GET("/conversations", NewListConversationsController(&brokenRepo{repo}).Handle())
		rec := performRequest(broken, httptest.NewRequest(http.MethodGet, "/conversations?origin=u1", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func multipartUpload(t *testing.T, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUploadEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("uploads and appends", func(t *testing.T) {
		repo, conv := seedRepo(t)
		blob := &recordingBlob{}
		engine := gin.New()
		engine.POST("/upload", NewUploadController(repo, blob).Handle())

		req := multipartUpload(t, map[string]string{
			"conversationId": conv.ID,
			"senderId":       "u1",
		}, "photo.png", []byte{0x89, 0x50, 0x4e, 0x47})
		rec := performRequest(engine, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		var msg chat.Message
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
		require.NotNil(t, msg.Image)
		assert.True(t, strings.HasPrefix(*msg.Image, "https://blob.example/"))
		assert.Equal(t, "u1", msg.Sender)

		assert.Equal(t, 1, repo.messageCount(conv.ID))
		require.Len(t, blob.filenames, 1)
	})

	t.Run("missing form fields", func(t *testing.T) {
		repo, _ := seedRepo(t)
		engine := gin.New()
		engine.POST("/upload", NewUploadController(repo, &recordingBlob{}).Handle())

		rec := performRequest(engine, multipartUpload(t, map[string]string{"senderId": "u1"}, "photo.png", []byte{1}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing file", func(t *testing.T) {
		repo, conv := seedRepo(t)
		engine := gin.New()
		engine.POST("/upload", NewUploadController(repo, &recordingBlob{}).Handle())

		rec := performRequest(engine, multipartUpload(t, map[string]string{
			"conversationId": conv.ID,
			"senderId":       "u1",
		}, "", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("blob failure", func(t *testing.T) {
		repo, conv := seedRepo(t)
		engine := gin.New()
		engine.POST("/upload", NewUploadController(repo, &recordingBlob{err: errors.New("bucket unreachable")}).Handle())

		rec := performRequest(engine, multipartUpload(t, map[string]string{
			"conversationId": conv.ID,
			"senderId":       "u1",
		}, "photo.png", []byte{1}))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, 0, repo.messageCount(conv.ID))
	})
}
