package chat

import (
	"strings"
	"time"
)

// Conversation is the durable record of an unordered participant pair and its
// message history. (A,B) and (B,A) denote the same conversation; the store
// enforces at most one record per pair via the derived PairKey.
type Conversation struct {
	ID          string    `json:"id" db:"id"`
	Origin      string    `json:"origin" db:"origin"`
	Destination string    `json:"destination" db:"destination"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	Messages    []Message `json:"messages"`
}

// Involves tells whether identity is one of the two participants.
// Matching is exact-string; no casing or whitespace normalization is applied.
func (c *Conversation) Involves(identity string) bool {
	if c == nil {
		return false
	}
	return c.Origin == identity || c.Destination == identity
}

// PairKey derives the canonical key for an unordered identity pair by sorting
// the two identities lexicographically. PairKey(a, b) == PairKey(b, a).
func PairKey(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + "|" + b
}

// AggregateRoomID returns the rollup room key that receives traffic from every
// conversation the identity participates in.
func AggregateRoomID(identity string) string {
	return identity + "-chats"
}
