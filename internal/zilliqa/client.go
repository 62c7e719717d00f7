// Package zilliqa provides the external chain-state source: a JSON-RPC
// client for the Zilliqa public API and a poller that keeps a snapshot of
// the current epoch state.
package zilliqa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// Client handles communication with one Zilliqa API endpoint
type Client struct {
	url       string
	client    *http.Client
	requestID uint64
}

// NewClient creates a new Zilliqa RPC client
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// URL returns the endpoint this client talks to
func (c *Client) URL() string {
	return c.url
}

// rpcRequest represents a JSON-RPC request
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      uint64        `json:"id"`
}

// rpcResponse represents a JSON-RPC response
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      uint64          `json:"id"`
}

// RPCError represents a JSON-RPC error
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call makes an RPC call. The Zilliqa API expects a single empty-string
// parameter on the epoch queries.
func (c *Client) call(ctx context.Context, method string) (json.RawMessage, error) {
	id := atomic.AddUint64(&c.requestID, 1)

	req := rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  []interface{}{""},
		ID:      id,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, err
	}

	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}

	return rpcResp.Result, nil
}

// callUint parses a method result that arrives as a quoted decimal string
func (c *Client) callUint(ctx context.Context, method string) (uint64, error) {
	raw, err := c.call(ctx, method)
	if err != nil {
		return 0, err
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		// some deployments return a bare number
		var n uint64
		if err2 := json.Unmarshal(raw, &n); err2 == nil {
			return n, nil
		}
		return 0, fmt.Errorf("%s: unexpected result %s", method, raw)
	}

	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: non-numeric result %q", method, s)
	}
	return n, nil
}

// GetCurrentDSEpoch returns the current DS block number
func (c *Client) GetCurrentDSEpoch(ctx context.Context) (uint64, error) {
	return c.callUint(ctx, "GetCurrentDSEpoch")
}

// GetCurrentMiniEpoch returns the current transaction block number
func (c *Client) GetCurrentMiniEpoch(ctx context.Context) (uint64, error) {
	return c.callUint(ctx, "GetCurrentMiniEpoch")
}

// GetPrevDifficulty returns the shard difficulty of the previous epoch
func (c *Client) GetPrevDifficulty(ctx context.Context) (uint64, error) {
	raw, err := c.call(ctx, "GetPrevDifficulty")
	if err != nil {
		return 0, err
	}
	var n uint64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("GetPrevDifficulty: unexpected result %s", raw)
	}
	return n, nil
}

// GetPrevDSDifficulty returns the DS difficulty of the previous epoch
func (c *Client) GetPrevDSDifficulty(ctx context.Context) (uint64, error) {
	raw, err := c.call(ctx, "GetPrevDSDifficulty")
	if err != nil {
		return 0, err
	}
	var n uint64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("GetPrevDSDifficulty: unexpected result %s", raw)
	}
	return n, nil
}

// GetTxBlockRate returns the observed transaction-block rate in blocks
// per second
func (c *Client) GetTxBlockRate(ctx context.Context) (float64, error) {
	raw, err := c.call(ctx, "GetTxBlockRate")
	if err != nil {
		return 0, err
	}
	var rate float64
	if err := json.Unmarshal(raw, &rate); err != nil {
		return 0, fmt.Errorf("GetTxBlockRate: unexpected result %s", raw)
	}
	return rate, nil
}
