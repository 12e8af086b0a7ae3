package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMemoryLedgerLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryLedger()

	sig, err := m.Create(ctx, "owner-1", Agent{Name: "Ada", PersonalityHash: "abc"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(sig) != 64 {
		t.Errorf("signature=%q, want 64 hex chars", sig)
	}

	if _, err := m.Create(ctx, "owner-1", Agent{}); err == nil {
		t.Error("duplicate create should fail")
	} else {
		var lerr *Error
		if !errors.As(err, &lerr) || lerr.Code != CodeAlreadyExists {
			t.Errorf("err=%v, want code %d", err, CodeAlreadyExists)
		}
	}

	if _, err := m.Verify(ctx, "owner-1"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if _, verified, ok := m.Agent("owner-1"); !ok || !verified {
		t.Error("agent should exist and be verified")
	}

	if _, err := m.Delegate(ctx, "owner-1", Delegation{Delegate: "bob", Scope: "chat"}); err != nil {
		t.Fatalf("delegate: %v", err)
	}
	if _, err := m.RevokeDelegation(ctx, "owner-1", "bob"); err != nil {
		t.Fatalf("revoke delegation: %v", err)
	}
	if _, err := m.RevokeDelegation(ctx, "owner-1", "bob"); err == nil {
		t.Error("revoking a missing delegation should fail")
	}

	if _, err := m.Revoke(ctx, "owner-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, _, ok := m.Agent("owner-1"); ok {
		t.Error("revoked agent should be gone")
	}
	if _, err := m.Verify(ctx, "owner-1"); err == nil {
		t.Error("verify after revoke should fail")
	}
}

func TestMemoryLedgerSignaturesStableAndDistinct(t *testing.T) {
	ctx := context.Background()
	run := func() []string {
		m := NewMemoryLedger()
		var sigs []string
		s, _ := m.Create(ctx, "o", Agent{})
		sigs = append(sigs, s)
		s, _ = m.Verify(ctx, "o")
		sigs = append(sigs, s)
		return sigs
	}
	a, b := run(), run()
	if a[0] == a[1] {
		t.Error("operations should yield distinct signatures")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Error("signatures should be stable across runs")
		}
	}
}

func TestRPCClientCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			JSONRPC string          `json:"jsonrpc"`
			Method  string          `json:"method"`
			Params  json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.JSONRPC != "2.0" || req.Method != "createAgent" {
			t.Errorf("request=%+v", req)
		}
		var params createParams
		if err := json.Unmarshal(req.Params, &params); err != nil || params.Agent.Name != "Ada" {
			t.Errorf("params=%s", req.Params)
		}
		json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": 1, "result": "sig-123"})
	}))
	defer srv.Close()

	c := NewRPCClient(srv.URL)
	sig, err := c.Create(context.Background(), "owner-1", Agent{Name: "Ada"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sig != "sig-123" {
		t.Errorf("sig=%q, want sig-123", sig)
	}
}

func TestRPCClientRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0", "id": 1,
			"error": map[string]any{"code": CodeUnauthorized, "message": "not the owner"},
		})
	}))
	defer srv.Close()

	c := NewRPCClient(srv.URL)
	_, err := c.Verify(context.Background(), "owner-1")
	var lerr *Error
	if !errors.As(err, &lerr) || lerr.Code != CodeUnauthorized {
		t.Fatalf("err=%v, want ledger error %d", err, CodeUnauthorized)
	}
}
