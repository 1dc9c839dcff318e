package chat

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is an immutable log entry in a conversation. A message carries text,
// an attachment URL, or both; once appended it is never mutated or deleted.
type Message struct {
	ID        string    `json:"id" db:"id"`
	Sender    string    `json:"sender" db:"sender"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Text      *string   `json:"text,omitempty" db:"body"`
	Image     *string   `json:"image,omitempty" db:"image_url"`
}

// NewMessage validates and completes a message. The ID and CreatedAt are
// assigned here when the caller did not supply them (image messages built by
// the upload pipeline arrive with both already set).
func NewMessage(m Message) (*Message, error) {
	if m.Sender == "" {
		return nil, errors.New("sender is required")
	}

	if m.Text != nil {
		trimmed := strings.TrimSpace(*m.Text)
		if trimmed == "" {
			m.Text = nil
		} else {
			m.Text = &trimmed
		}
	}

	if m.Text == nil && m.Image == nil {
		return nil, errors.New("message must contain either text or image")
	}

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	return &m, nil
}
