// Package memory holds chat history as an explicit value. Nothing here keeps
// state between calls: callers pass a Conversation in and get a new one back.
package memory

import (
	"time"

	"github.com/google/uuid"
)

// Entry is a single item in conversation memory.
type Entry struct {
	Role      string            `json:"role"` // user or assistant
	Content   string            `json:"content"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Conversation is the full state of one chat. The zero value is an empty
// conversation without an ID.
type Conversation struct {
	ID        string    `json:"id"`
	Summary   string    `json:"summary,omitempty"` // digest of entries dropped by Compact
	Entries   []Entry   `json:"entries"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewConversation starts an empty conversation with a fresh ID.
func NewConversation() Conversation {
	return Conversation{ID: uuid.NewString(), UpdatedAt: time.Now().UTC()}
}

// Append returns a copy of c with the entries added. c itself is unchanged,
// including its backing array.
func (c Conversation) Append(entries ...Entry) Conversation {
	out := c
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	out.Entries = make([]Entry, len(c.Entries), len(c.Entries)+len(entries))
	copy(out.Entries, c.Entries)
	for _, e := range entries {
		if e.Timestamp.IsZero() {
			e.Timestamp = now
		}
		out.Entries = append(out.Entries, e)
	}
	out.UpdatedAt = now
	return out
}

// Window returns up to n of the most recent entries. n <= 0 returns all.
func (c Conversation) Window(n int) []Entry {
	if n <= 0 || n > len(c.Entries) {
		n = len(c.Entries)
	}
	out := make([]Entry, n)
	copy(out, c.Entries[len(c.Entries)-n:])
	return out
}

// Len is the number of entries.
func (c Conversation) Len() int { return len(c.Entries) }
