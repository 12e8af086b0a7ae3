package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// DefaultEndpoint is the development registry endpoint.
const DefaultEndpoint = "https://api.devnet.solana.com"

// RPCClient talks JSON-RPC 2.0 to the registry endpoint.
type RPCClient struct {
	endpoint   string
	httpClient *http.Client
	nextID     atomic.Int64
}

// RPCOption configures an RPCClient.
type RPCOption func(*RPCClient)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) RPCOption {
	return func(c *RPCClient) { c.httpClient = hc }
}

// NewRPCClient creates a registry client for the given endpoint. An empty
// endpoint selects the development default.
func NewRPCClient(endpoint string, opts ...RPCOption) *RPCClient {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &RPCClient{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitzero"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// call submits one operation and decodes the transaction signature result.
func (c *RPCClient) call(ctx context.Context, method string, params any) (string, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return "", fmt.Errorf("ledger: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ledger: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ledger: %s: %w", method, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &Error{Code: resp.StatusCode, Message: "unexpected HTTP status"}
	}

	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ledger: decode response: %w", err)
	}
	if out.Error != nil {
		return "", &Error{Code: out.Error.Code, Message: out.Error.Message}
	}

	var sig string
	if err := json.Unmarshal(out.Result, &sig); err != nil {
		return "", fmt.Errorf("ledger: decode signature: %w", err)
	}
	return sig, nil
}

type createParams struct {
	Owner string `json:"owner"`
	Agent Agent  `json:"agent"`
}

type ownerParams struct {
	Owner string `json:"owner"`
}

type delegateParams struct {
	Owner      string     `json:"owner"`
	Delegation Delegation `json:"delegation"`
}

type revokeDelegationParams struct {
	Owner    string `json:"owner"`
	Delegate string `json:"delegate"`
}

func (c *RPCClient) Create(ctx context.Context, owner string, agent Agent) (string, error) {
	return c.call(ctx, "createAgent", createParams{Owner: owner, Agent: agent})
}

func (c *RPCClient) Verify(ctx context.Context, owner string) (string, error) {
	return c.call(ctx, "verifyAgent", ownerParams{Owner: owner})
}

func (c *RPCClient) Delegate(ctx context.Context, owner string, d Delegation) (string, error) {
	return c.call(ctx, "delegate", delegateParams{Owner: owner, Delegation: d})
}

func (c *RPCClient) Revoke(ctx context.Context, owner string) (string, error) {
	return c.call(ctx, "revokeAgent", ownerParams{Owner: owner})
}

func (c *RPCClient) RevokeDelegation(ctx context.Context, owner, delegate string) (string, error) {
	return c.call(ctx, "revokeDelegation", revokeDelegationParams{Owner: owner, Delegate: delegate})
}

var _ Client = (*RPCClient)(nil)
