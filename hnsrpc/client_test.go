// Copyright (c) 2024 The FireWallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package hnsrpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestNode starts a stub daemon and returns a Node pointed at it.
func newTestNode(t *testing.T, handler http.Handler) *Node {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	parsed, err := url.Parse(server.URL)
	require.NoError(t, err)

	return NewNode(&ClientConfig{
		Host:   parsed.Hostname(),
		Port:   parsed.Port(),
		APIKey: "testkey",
	})
}

func TestGetInfo(t *testing.T) {
	node := newTestNode(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			// The api key travels as basic auth.
			_, pass, ok := r.BasicAuth()
			require.True(t, ok)
			require.Equal(t, "testkey", pass)

			_, _ = w.Write([]byte(`{
				"version": "6.1.1",
				"network": "main",
				"chain": {"height": 200000, "progress": 0.9999}
			}`))
		},
	))

	info, err := node.GetInfo(context.Background())
	require.NoError(t, err)
	require.Equal(t, "6.1.1", info.Version)
	require.Equal(t, int32(200000), info.Chain.Height)
}

func TestRESTErrorSurfacing(t *testing.T) {
	node := newTestNode(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(
				`{"error": {"message": "invalid request"}}`))
		},
	))

	_, err := node.GetInfo(context.Background())
	require.Error(t, err)

	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, "invalid request", rpcErr.Message)
}

func TestRESTNotFound(t *testing.T) {
	node := newTestNode(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		},
	))

	_, err := node.GetTx(context.Background(), "deadbeef")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRPCError(t *testing.T) {
	node := newTestNode(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			var req rpcRequest
			require.NoError(t,
				json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, "getnameinfo", req.Method)

			_, _ = w.Write([]byte(`{
				"result": null,
				"error": {"code": -8, "message": "Invalid name."}
			}`))
		},
	))

	_, err := node.GetNameInfo(context.Background(), "BAD NAME")
	require.Error(t, err)

	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, -8, rpcErr.Code)
}

func TestGetNameByHashNotFound(t *testing.T) {
	node := newTestNode(t, http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"result": null, "error": null}`))
		},
	))

	_, err := node.GetNameByHash(context.Background(), "00")
	require.ErrorIs(t, err, ErrNotFound)
}
