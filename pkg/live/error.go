package live

import (
	"fmt"
	"strings"
)

// Error represents a session-level error from the live endpoint.
type Error struct {
	// Code is a short machine-readable code (e.g. "handshake_timeout").
	Code string

	// Message is the human-readable error message.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("live: %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("live: %s", e.Message)
}

// Attempt records one failed connect attempt against one candidate model.
type Attempt struct {
	Model string
	Err   error
}

// HandshakeError aggregates the per-model failures of an exhausted fallback
// loop. It is returned by Connect only when every candidate failed.
type HandshakeError struct {
	Attempts []Attempt
}

// Error implements the error interface.
func (e *HandshakeError) Error() string {
	var b strings.Builder
	b.WriteString("live: all models failed to connect")
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "; %s: %v", a.Model, a.Err)
	}
	return b.String()
}

// Unwrap returns the last attempt's error, the one surfaced to the caller
// when the whole list is exhausted.
func (e *HandshakeError) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}
