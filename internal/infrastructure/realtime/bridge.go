package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// broadcastChannel is the redis pub/sub channel carrying room broadcasts
// between nodes.
const broadcastChannel = "chat:broadcast"

// envelope is the wire format exchanged between nodes.
type envelope struct {
	NodeID  string `json:"node_id"`
	Room    string `json:"room"`
	Payload []byte `json:"payload"`
}

// Bridge fans broadcasts out to peer nodes over redis pub/sub. A member of a
// room connected to another process receives messages through its local
// Router when that node's Bridge replays the envelope.
type Bridge struct {
	client *redis.Client
	nodeID string
	router *Router
	logger zerolog.Logger
}

// NewBridge constructs a Bridge from a redis URL and verifies connectivity.
func NewBridge(redisURL string, router *Router, logger zerolog.Logger) (*Bridge, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("bridge: parse redis url: %w", err)
	}
	c := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("bridge: ping: %w", err)
	}
	return &Bridge{
		client: c,
		nodeID: uuid.NewString(),
		router: router,
		logger: logger,
	}, nil
}

// Publish forwards a local broadcast to peer nodes.
func (b *Bridge) Publish(ctx context.Context, roomID string, payload []byte) error {
	data, err := json.Marshal(envelope{NodeID: b.nodeID, Room: roomID, Payload: payload})
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, broadcastChannel, data).Err()
}

// Run subscribes to the broadcast channel and replays remote envelopes into
// the local router. It blocks until the context is canceled.
func (b *Bridge) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, broadcastChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handleEnvelope([]byte(msg.Payload))
		}
	}
}

// handleEnvelope replays a pub/sub message into the local router. Envelopes
// published by this node are skipped so locally delivered broadcasts do not
// echo back; malformed envelopes are dropped.
func (b *Bridge) handleEnvelope(raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		b.logger.Warn().Err(err).Msg("bridge: dropping malformed envelope")
		return
	}
	if env.NodeID == b.nodeID {
		return
	}
	b.router.Broadcast(env.Room, env.Payload)
}

// Close releases the redis client.
func (b *Bridge) Close() error {
	return b.client.Close()
}
