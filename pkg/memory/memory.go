// Package memory stores per-agent conversation history and finalized call
// transcripts. Each agent keeps only its most recent messages; audio is never
// persisted, only text.
package memory

import (
	"context"
	"errors"
	"time"
)

// MaxMessages is the per-agent chat history cap. Appends beyond it drop the
// oldest messages.
const MaxMessages = 50

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("memory: not found")

// Message is one chat turn. Role is "user" or "model".
type Message struct {
	Role    string    `msgpack:"role"`
	Content string    `msgpack:"content"`
	At      time.Time `msgpack:"at"`
}

// CallLine is one finalized transcript line from a voice call.
type CallLine struct {
	Speaker string    `msgpack:"speaker"`
	Text    string    `msgpack:"text"`
	At      time.Time `msgpack:"at"`
}

// CallRecord is the text transcript of one completed voice call.
type CallRecord struct {
	ID        string        `msgpack:"id"`
	StartedAt time.Time     `msgpack:"started_at"`
	Duration  time.Duration `msgpack:"duration"`
	Lines     []CallLine    `msgpack:"lines"`
}

// Store persists agent conversation state.
type Store interface {
	// Append adds messages to an agent's chat history, trimming to the most
	// recent MaxMessages.
	Append(ctx context.Context, agentID string, msgs ...Message) error

	// History returns an agent's chat history, oldest first. An agent with no
	// history yields an empty slice, not an error.
	History(ctx context.Context, agentID string) ([]Message, error)

	// Clear removes an agent's chat history. No error if absent.
	Clear(ctx context.Context, agentID string) error

	// SaveCall stores one finished call transcript.
	SaveCall(ctx context.Context, agentID string, rec CallRecord) error

	// Calls returns an agent's call transcripts, oldest first.
	Calls(ctx context.Context, agentID string) ([]CallRecord, error)

	// Close releases the underlying storage.
	Close() error
}

// trim keeps the most recent MaxMessages entries.
func trim(msgs []Message) []Message {
	if len(msgs) <= MaxMessages {
		return msgs
	}
	return msgs[len(msgs)-MaxMessages:]
}
