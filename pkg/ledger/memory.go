package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
)

// MemoryLedger is an in-process registry for tests and offline use. It
// enforces the same invariants as the remote program: one agent per owner,
// one delegation per delegate, operations only by the owning authority.
type MemoryLedger struct {
	mu      sync.Mutex
	agents  map[string]*agentRecord
	txCount int
}

type agentRecord struct {
	agent       Agent
	verified    bool
	active      bool
	delegations map[string]Delegation
}

// NewMemoryLedger creates an empty in-process registry.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{agents: map[string]*agentRecord{}}
}

// signature derives a deterministic pseudo-signature from the operation and a
// monotonic counter, so repeated runs are stable and assertable.
func (m *MemoryLedger) signature(op, owner string) string {
	m.txCount++
	sum := sha256.Sum256(fmt.Appendf(nil, "%s:%s:%d", op, owner, m.txCount))
	return hex.EncodeToString(sum[:])
}

func (m *MemoryLedger) Create(_ context.Context, owner string, agent Agent) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.agents[owner]; ok && rec.active {
		return "", &Error{Code: CodeAlreadyExists, Message: "agent already exists"}
	}
	m.agents[owner] = &agentRecord{agent: agent, active: true, delegations: map[string]Delegation{}}
	return m.signature("create", owner), nil
}

func (m *MemoryLedger) Verify(_ context.Context, owner string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.agents[owner]
	if !ok || !rec.active {
		return "", &Error{Code: CodeNotFound, Message: "agent not found"}
	}
	rec.verified = true
	return m.signature("verify", owner), nil
}

func (m *MemoryLedger) Delegate(_ context.Context, owner string, d Delegation) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.agents[owner]
	if !ok || !rec.active {
		return "", &Error{Code: CodeNotFound, Message: "agent not found"}
	}
	rec.delegations[d.Delegate] = d
	return m.signature("delegate", owner), nil
}

func (m *MemoryLedger) Revoke(_ context.Context, owner string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.agents[owner]
	if !ok || !rec.active {
		return "", &Error{Code: CodeNotFound, Message: "agent not found"}
	}
	rec.active = false
	return m.signature("revoke", owner), nil
}

func (m *MemoryLedger) RevokeDelegation(_ context.Context, owner, delegate string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.agents[owner]
	if !ok || !rec.active {
		return "", &Error{Code: CodeNotFound, Message: "agent not found"}
	}
	if _, ok := rec.delegations[delegate]; !ok {
		return "", &Error{Code: CodeNotFound, Message: "delegation not found"}
	}
	delete(rec.delegations, delegate)
	return m.signature("revokeDelegation", owner), nil
}

// Agent returns the stored record and whether it is verified. Test helper.
func (m *MemoryLedger) Agent(owner string) (Agent, bool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.agents[owner]
	if !ok || !rec.active {
		return Agent{}, false, false
	}
	return rec.agent, rec.verified, true
}

var _ Client = (*MemoryLedger)(nil)
