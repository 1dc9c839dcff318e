package adapter

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "github.com/pborgesjr/chat-message-node/internal/pkg/chat/application/domain"
	repository "github.com/pborgesjr/chat-message-node/internal/pkg/chat/persistence/repository/port"
)

// uniqueViolation is the SQLSTATE pgx reports when the pair_key constraint
// rejects a duplicate conversation insert.
const uniqueViolation = "23505"

type PgConversationRepository struct {
	pool *pgxpool.Pool
}

func NewPgConversationRepository(pool *pgxpool.Pool) *PgConversationRepository {
	return &PgConversationRepository{pool: pool}
}

// Ensure interface compliance at compile time
var _ repository.ConversationRepository = (*PgConversationRepository)(nil)

// Migrate creates the chat schema if it does not exist yet. The UNIQUE
// pair_key converts concurrent first-contact inserts for the same pair into a
// constraint violation the resolver retries as a lookup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS conversation (
			id          uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			pair_key    text NOT NULL UNIQUE,
			origin      text NOT NULL,
			destination text NOT NULL,
			created_at  timestamptz NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS message (
			id              uuid PRIMARY KEY,
			conversation_id uuid NOT NULL REFERENCES conversation (id),
			sender          text NOT NULL,
			body            text,
			image_url       text,
			created_at      timestamptz NOT NULL
		);
		CREATE INDEX IF NOT EXISTS message_conversation_idx ON message (conversation_id, created_at);
		CREATE INDEX IF NOT EXISTS conversation_origin_idx ON conversation (origin);
		CREATE INDEX IF NOT EXISTS conversation_destination_idx ON conversation (destination);
	`)
	return err
}

func (r *PgConversationRepository) FindConversation(ctx context.Context, a, b string) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgConversationRepository: nil pool")
	}
	var c chat.Conversation
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, origin, destination, created_at
		FROM conversation
		WHERE pair_key = $1
	`, chat.PairKey(a, b)).Scan(&c.ID, &c.Origin, &c.Destination, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadMessages(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PgConversationRepository) InsertConversation(ctx context.Context, a, b string) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgConversationRepository: nil pool")
	}
	c := chat.Conversation{Origin: a, Destination: b, Messages: []chat.Message{}}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO conversation (pair_key, origin, destination, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text, created_at
	`, chat.PairKey(a, b), a, b, time.Now().UTC()).Scan(&c.ID, &c.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return nil, repository.ErrConversationExists
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PgConversationRepository) GetConversationByID(ctx context.Context, id string) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgConversationRepository: nil pool")
	}
	var c chat.Conversation
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, origin, destination, created_at
		FROM conversation
		WHERE id = $1::uuid
	`, id).Scan(&c.ID, &c.Origin, &c.Destination, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadMessages(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PgConversationRepository) AppendMessage(ctx context.Context, conversationID string, m chat.Message) error {
	if r == nil || r.pool == nil {
		return errors.New("PgConversationRepository: nil pool")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO message (id, conversation_id, sender, body, image_url, created_at)
		VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6)
	`, m.ID, conversationID, m.Sender, m.Text, m.Image, m.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repository.ErrMessageExists
	}
	return err
}

func (r *PgConversationRepository) FindConversationsByParticipant(ctx context.Context, identity string) ([]chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgConversationRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, origin, destination, created_at
		FROM conversation
		WHERE origin = $1 OR destination = $1
		ORDER BY created_at
	`, identity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []chat.Conversation
	for rows.Next() {
		var c chat.Conversation
		if err := rows.Scan(&c.ID, &c.Origin, &c.Destination, &c.CreatedAt); err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	for i := range convs {
		if err := r.loadMessages(ctx, &convs[i]); err != nil {
			return nil, err
		}
	}
	return convs, nil
}

// loadMessages hydrates the history in insertion order.
func (r *PgConversationRepository) loadMessages(ctx context.Context, c *chat.Conversation) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, sender, body, image_url, created_at
		FROM message
		WHERE conversation_id = $1::uuid
		ORDER BY created_at, id
	`, c.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	c.Messages = []chat.Message{}
	for rows.Next() {
		var m chat.Message
		if err := rows.Scan(&m.ID, &m.Sender, &m.Text, &m.Image, &m.CreatedAt); err != nil {
			return err
		}
		c.Messages = append(c.Messages, m)
	}
	return rows.Err()
}
