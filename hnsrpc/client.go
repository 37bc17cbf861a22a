// Copyright (c) 2024 The FireWallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package hnsrpc implements thin HTTP clients for the hsd node and hsw
// wallet daemons.  The clients only construct requests and surface the
// daemon's structured errors; no wallet or auction logic lives here.
package hnsrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// defaultTimeout bounds every daemon request so a stalled upstream
// cannot hang a caller indefinitely.
const defaultTimeout = 10 * time.Second

// ErrNotFound is returned when the daemon reports that the requested
// resource does not exist.
var ErrNotFound = errors.New("hnsrpc: not found")

// RPCError is a structured error returned by the daemon, either from its
// JSON-RPC endpoint or from a non-success REST response.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error satisfies the error interface.
func (e *RPCError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
	}
	return "rpc error: " + e.Message
}

// ClientConfig holds the connection parameters shared by the node and
// wallet clients.
type ClientConfig struct {
	// Host is the daemon host, without a port.
	Host string

	// Port is the daemon HTTP port.
	Port string

	// APIKey authenticates requests when the daemon requires one.
	APIKey string

	// Timeout bounds each request.  Zero selects defaultTimeout.
	Timeout time.Duration
}

// httpAPI is the request plumbing shared by the node and wallet clients.
type httpAPI struct {
	base   string
	apiKey string
	client *http.Client
}

func newHTTPAPI(cfg *ClientConfig) *httpAPI {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &httpAPI{
		base:   fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port),
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
	}
}

// errorEnvelope is the error body the daemon attaches to non-success
// REST responses.
type errorEnvelope struct {
	Error *RPCError `json:"error"`
}

func (a *httpAPI) do(ctx context.Context, method, path string,
	body interface{}, result interface{}) error {

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s %s request: %w",
				method, path, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.base+path,
		reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.apiKey != "" {
		req.SetBasicAuth("x", a.apiKey)
	}

	log.Tracef("%s %s", method, path)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: reading response: %w", method,
			path, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		var envelope errorEnvelope
		if err := json.Unmarshal(payload, &envelope); err == nil &&
			envelope.Error != nil {

			return envelope.Error
		}
		return &RPCError{
			Code:    resp.StatusCode,
			Message: http.StatusText(resp.StatusCode),
		}
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(payload, result); err != nil {
		return fmt.Errorf("%s %s: decoding response: %w", method,
			path, err)
	}
	return nil
}

func (a *httpAPI) get(ctx context.Context, path string,
	result interface{}) error {

	return a.do(ctx, http.MethodGet, path, nil, result)
}

func (a *httpAPI) post(ctx context.Context, path string,
	body, result interface{}) error {

	return a.do(ctx, http.MethodPost, path, body, result)
}

func (a *httpAPI) put(ctx context.Context, path string,
	body, result interface{}) error {

	return a.do(ctx, http.MethodPut, path, body, result)
}

// rpcRequest and rpcResponse are the JSON-RPC wire envelopes understood
// by the daemon's legacy RPC endpoint.
type rpcRequest struct {
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// call performs a JSON-RPC call against the daemon's root endpoint and
// returns the raw result payload.
func (a *httpAPI) call(ctx context.Context, method string,
	params []interface{}) (json.RawMessage, error) {

	if params == nil {
		params = []interface{}{}
	}

	var resp rpcResponse
	err := a.post(ctx, "/", &rpcRequest{Method: method, Params: params},
		&resp)
	if err != nil {
		return nil, fmt.Errorf("rpc %s: %w", method, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("rpc %s: %w", method, resp.Error)
	}
	return resp.Result, nil
}

// isNullResult reports whether a JSON-RPC result payload is empty or the
// JSON null value.
func isNullResult(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
