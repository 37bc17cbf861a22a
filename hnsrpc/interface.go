// Copyright (c) 2024 The FireWallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package hnsrpc

import (
	"context"
	"encoding/json"

	"github.com/Nathanwoodburn/firewalletbrowser/hnsutil"
)

// NodeClient is the node daemon surface consumed by the upper layers.
// It is satisfied by Node and by test fakes.
type NodeClient interface {
	GetInfo(ctx context.Context) (*NodeInfo, error)
	GetNameInfo(ctx context.Context, name string) (*NameInfo, error)
	GetNameByHash(ctx context.Context, hash string) (string, error)
	GetNameResource(ctx context.Context, name string) (json.RawMessage, error)
	GetMempool(ctx context.Context) ([]string, error)
	GetTx(ctx context.Context, txid string) (*Tx, error)
}

// WalletClient is the wallet daemon surface consumed by the upper
// layers.  It is satisfied by Wallet and by test fakes.
type WalletClient interface {
	CreateWallet(ctx context.Context, id, passphrase string) error
	ListWallets(ctx context.Context) ([]string, error)
	AccountInfo(ctx context.Context, id string) (*AccountInfo, error)
	AccountKey(ctx context.Context, id string) (string, error)
	Balance(ctx context.Context, id string) (*Balance, error)
	Names(ctx context.Context, id string) ([]*NameInfo, error)
	History(ctx context.Context, id string, limit int, after string) ([]*Tx, error)
	FullHistory(ctx context.Context, id string) ([]*Tx, error)

	SendOpen(ctx context.Context, id, passphrase, name string) (*Tx, error)
	SendBid(ctx context.Context, id, passphrase, name string, bid, lockup hnsutil.Amount) (*Tx, error)
	SendReveal(ctx context.Context, id, passphrase, name string) (*Tx, error)
	SendRedeem(ctx context.Context, id, passphrase, name string) (*Tx, error)
	SendRenewal(ctx context.Context, id, passphrase, name string) (*Tx, error)
	SendTransfer(ctx context.Context, id, passphrase, name, address string) (*Tx, error)
	SendFinalize(ctx context.Context, id, passphrase, name string) (*Tx, error)
	SendCancel(ctx context.Context, id, passphrase, name string) (*Tx, error)
	SendRevoke(ctx context.Context, id, passphrase, name string) (*Tx, error)
	SendUpdate(ctx context.Context, id, passphrase, name string, records json.RawMessage) (*Tx, error)
	Send(ctx context.Context, id, passphrase, address string, amount hnsutil.Amount) (*Tx, error)

	Zap(ctx context.Context, id string, age int) error
	Rescan(ctx context.Context, height int32) error
	SelectWallet(ctx context.Context, id string) error
	WalletPassphrase(ctx context.Context, passphrase string, timeout int) error
	ImportName(ctx context.Context, name string, height int32) error
}
