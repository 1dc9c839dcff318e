package usecase

import (
	"context"
	"fmt"
	"sync"

	qport "github.com/pborgesjr/chat-message-node/internal/infrastructure/queue/port"
	chat "github.com/pborgesjr/chat-message-node/internal/pkg/chat/application/domain"
	repository "github.com/pborgesjr/chat-message-node/internal/pkg/chat/persistence/repository/port"
)

// memRepo is an in-memory ConversationRepository mirroring the store-level
// pair uniqueness of the Postgres adapter.
type memRepo struct {
	mu     sync.Mutex
	byID   map[string]*chat.Conversation
	byPair map[string]string

	appended chan struct{}

	findCalls   int
	insertCalls int

	findErr   error
	insertErr error
	appendErr error
	// existsOnce simulates losing a first-contact race: the next insert
	// creates the record (the winner's) but reports ErrConversationExists.
	existsOnce bool
}

func newMemRepo() *memRepo {
	return &memRepo{
		byID:     make(map[string]*chat.Conversation),
		byPair:   make(map[string]string),
		appended: make(chan struct{}, 16),
	}
}

var _ repository.ConversationRepository = (*memRepo)(nil)

func (r *memRepo) FindConversation(ctx context.Context, a, b string) (*chat.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findCalls++
	if r.findErr != nil {
		return nil, r.findErr
	}
	id, ok := r.byPair[chat.PairKey(a, b)]
	if !ok {
		return nil, repository.ErrConversationNotFound
	}
	c := *r.byID[id]
	return &c, nil
}

func (r *memRepo) InsertConversation(ctx context.Context, a, b string) (*chat.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insertCalls++
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	key := chat.PairKey(a, b)
	if _, ok := r.byPair[key]; ok {
		return nil, repository.ErrConversationExists
	}
	c := &chat.Conversation{
		ID:          fmt.Sprintf("conv-%d", len(r.byID)+1),
		Origin:      a,
		Destination: b,
		Messages:    []chat.Message{},
	}
	r.byID[c.ID] = c
	r.byPair[key] = c.ID
	if r.existsOnce {
		r.existsOnce = false
		return nil, repository.ErrConversationExists
	}
	out := *c
	return &out, nil
}

func (r *memRepo) GetConversationByID(ctx context.Context, id string) (*chat.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrConversationNotFound
	}
	out := *c
	return &out, nil
}

func (r *memRepo) AppendMessage(ctx context.Context, conversationID string, m chat.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	c, ok := r.byID[conversationID]
	if !ok {
		return repository.ErrConversationNotFound
	}
	c.Messages = append(c.Messages, m)
	select {
	case r.appended <- struct{}{}:
	default:
	}
	return nil
}

func (r *memRepo) FindConversationsByParticipant(ctx context.Context, identity string) ([]chat.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []chat.Conversation
	for _, c := range r.byID {
		if c.Involves(identity) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *memRepo) messageCount(conversationID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[conversationID]
	if !ok {
		return 0
	}
	return len(c.Messages)
}

// fakeRooms records broadcasts and reports a fixed fan-out.
type fakeRooms struct {
	mu       sync.Mutex
	rooms    []string
	payloads [][]byte
}

func (f *fakeRooms) Broadcast(roomID string, payload []byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms = append(f.rooms, roomID)
	f.payloads = append(f.payloads, payload)
	return 2
}

// fakeQueue records enqueued tasks.
type fakeQueue struct {
	mu    sync.Mutex
	tasks []qport.Task
	err   error
}

var _ qport.Client = (*fakeQueue)(nil)

func (f *fakeQueue) Enqueue(ctx context.Context, t qport.Task, opts ...qport.EnqueueOption) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.tasks = append(f.tasks, t)
	return fmt.Sprintf("task-%d", len(f.tasks)), nil
}

func (f *fakeQueue) Close() error { return nil }

// fakePeers records peer-node publishes.
type fakePeers struct {
	mu       sync.Mutex
	rooms    []string
	payloads [][]byte
	err      error
}

func (f *fakePeers) Publish(ctx context.Context, roomID string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.rooms = append(f.rooms, roomID)
	f.payloads = append(f.payloads, payload)
	return nil
}

// fakeBlob records uploads and returns deterministic URLs.
type fakeBlob struct {
	mu           sync.Mutex
	filenames    []string
	contentTypes []string
	sizes        []int
	err          error
}

func (f *fakeBlob) Upload(ctx context.Context, data []byte, filename string, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.filenames = append(f.filenames, filename)
	f.contentTypes = append(f.contentTypes, contentType)
	f.sizes = append(f.sizes, len(data))
	return "https://blob.example/" + filename, nil
}
