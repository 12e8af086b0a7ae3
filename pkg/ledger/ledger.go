// Package ledger is the client boundary to the on-chain agent registry. The
// program itself is an opaque remote service; every operation submits a
// transaction and returns its signature.
package ledger

import (
	"context"
	"fmt"
	"time"
)

// Agent is the on-chain agent record payload.
type Agent struct {
	Name            string `json:"name"`
	Bio             string `json:"bio"`
	PersonalityHash string `json:"personalityHash"`
	AvatarURI       string `json:"avatarUri"`
}

// Delegation grants another authority scoped access to an agent.
type Delegation struct {
	Delegate     string    `json:"delegate"`
	Scope        string    `json:"scope"`
	ExpiresAt    time.Time `json:"expiresAt"`
	Restrictions string    `json:"restrictions"`
}

// Client is the remote registry boundary. Implementations return the
// transaction signature for each submitted operation.
type Client interface {
	// Create registers an agent record for the owner.
	Create(ctx context.Context, owner string, agent Agent) (string, error)

	// Verify marks the owner's agent as verified.
	Verify(ctx context.Context, owner string) (string, error)

	// Delegate grants scoped access to the owner's agent.
	Delegate(ctx context.Context, owner string, d Delegation) (string, error)

	// Revoke deactivates the owner's agent.
	Revoke(ctx context.Context, owner string) (string, error)

	// RevokeDelegation removes a previously granted delegation.
	RevokeDelegation(ctx context.Context, owner, delegate string) (string, error)
}

// Error is a registry-level failure with the remote error code preserved.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("ledger: %d: %s", e.Code, e.Message)
}

// Well-known error codes mirrored from the remote program.
const (
	CodeNotFound      = -32001
	CodeAlreadyExists = -32002
	CodeUnauthorized  = -32003
)
