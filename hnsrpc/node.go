// Copyright (c) 2024 The FireWallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package hnsrpc

import (
	"context"
	"encoding/json"
	"fmt"
)

// Node is a client for the hsd full node HTTP and JSON-RPC API.
type Node struct {
	api *httpAPI
}

// A compile-time check to ensure that Node satisfies the NodeClient
// interface.
var _ NodeClient = (*Node)(nil)

// NewNode creates a node client from the given connection config.
func NewNode(cfg *ClientConfig) *Node {
	return &Node{api: newHTTPAPI(cfg)}
}

// GetInfo returns the node's chain state and version.
func (n *Node) GetInfo(ctx context.Context) (*NodeInfo, error) {
	var info NodeInfo
	if err := n.api.get(ctx, "/", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// nameInfoResult is the envelope returned by the getnameinfo RPC.
type nameInfoResult struct {
	Info *NameInfo `json:"info"`
}

// GetNameInfo returns the protocol state of a name.  ErrNotFound is
// returned when the name has never been seen on chain.
func (n *Node) GetNameInfo(ctx context.Context, name string) (*NameInfo, error) {
	raw, err := n.api.call(ctx, "getnameinfo", []interface{}{name})
	if err != nil {
		return nil, err
	}

	var result nameInfoResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decoding getnameinfo result: %w", err)
	}
	if result.Info == nil {
		return nil, ErrNotFound
	}
	return result.Info, nil
}

// GetNameByHash resolves a name hash back to its plaintext name.  This
// is best effort: ErrNotFound is returned when the node does not know
// the preimage.
func (n *Node) GetNameByHash(ctx context.Context, hash string) (string, error) {
	raw, err := n.api.call(ctx, "getnamebyhash", []interface{}{hash})
	if err != nil {
		return "", err
	}
	if isNullResult(raw) {
		return "", ErrNotFound
	}

	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return "", fmt.Errorf("decoding getnamebyhash result: %w", err)
	}
	return name, nil
}

// nameResourceResult is the envelope returned by the getnameresource
// RPC.
type nameResourceResult struct {
	Records json.RawMessage `json:"records"`
}

// GetNameResource returns a name's raw resource records.  Translating
// them to DNS text is a presentation concern left to the caller.
func (n *Node) GetNameResource(ctx context.Context, name string) (json.RawMessage, error) {
	raw, err := n.api.call(ctx, "getnameresource", []interface{}{name})
	if err != nil {
		return nil, err
	}
	if isNullResult(raw) {
		return nil, ErrNotFound
	}

	var result nameResourceResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decoding getnameresource result: %w",
			err)
	}
	return result.Records, nil
}

// GetMempool returns the txids of all transactions currently in the
// node's mempool.
func (n *Node) GetMempool(ctx context.Context) ([]string, error) {
	var txids []string
	if err := n.api.get(ctx, "/mempool", &txids); err != nil {
		return nil, err
	}
	return txids, nil
}

// GetTx returns a transaction by hash, including the coins its inputs
// spend when the node knows them.
func (n *Node) GetTx(ctx context.Context, txid string) (*Tx, error) {
	var tx Tx
	if err := n.api.get(ctx, "/tx/"+txid, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}
