// Copyright (c) 2024 The FireWallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package hnsrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Nathanwoodburn/firewalletbrowser/hnsutil"
)

// defaultAccount is the account every hsw wallet is created with.  The
// wallet layer operates on it exclusively.
const defaultAccount = "default"

// Wallet is a client for the hsw wallet daemon HTTP and JSON-RPC API.
// All methods take the wallet identifier so one client can serve any
// number of wallets.
type Wallet struct {
	api *httpAPI
}

// A compile-time check to ensure that Wallet satisfies the WalletClient
// interface.
var _ WalletClient = (*Wallet)(nil)

// NewWallet creates a wallet client from the given connection config.
func NewWallet(cfg *ClientConfig) *Wallet {
	return &Wallet{api: newHTTPAPI(cfg)}
}

func walletPath(id, suffix string) string {
	return "/wallet/" + url.PathEscape(id) + suffix
}

// CreateWallet creates a new wallet with the given identifier and
// encrypts it with the passphrase.
func (w *Wallet) CreateWallet(ctx context.Context, id, passphrase string) error {
	err := w.api.put(ctx, walletPath(id, ""), struct{}{}, nil)
	if err != nil {
		return err
	}
	return w.api.post(ctx, walletPath(id, "/passphrase"), map[string]string{
		"passphrase": passphrase,
	}, nil)
}

// ListWallets returns the identifiers of all wallets known to the
// daemon.
func (w *Wallet) ListWallets(ctx context.Context) ([]string, error) {
	var ids []string
	if err := w.api.get(ctx, "/wallet", &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// AccountInfo returns the wallet's default account, including its
// extended public key and current receive address.
func (w *Wallet) AccountInfo(ctx context.Context, id string) (*AccountInfo, error) {
	var info AccountInfo
	path := walletPath(id, "/account/"+defaultAccount)
	if err := w.api.get(ctx, path, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// AccountKey returns the default account's extended public key.  The
// key is a stable identity for the wallet, independent of session
// material, which makes it suitable for cache keys.
func (w *Wallet) AccountKey(ctx context.Context, id string) (string, error) {
	info, err := w.AccountInfo(ctx, id)
	if err != nil {
		return "", err
	}
	if info.AccountKey == "" {
		return "", fmt.Errorf("wallet %q has no account key", id)
	}
	return info.AccountKey, nil
}

// Balance returns the wallet's balance summary.
func (w *Wallet) Balance(ctx context.Context, id string) (*Balance, error) {
	var balance Balance
	path := walletPath(id, "/balance?account="+defaultAccount)
	if err := w.api.get(ctx, path, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

// Names returns the names owned by the wallet.
func (w *Wallet) Names(ctx context.Context, id string) ([]*NameInfo, error) {
	var names []*NameInfo
	path := walletPath(id, "/name?own=true")
	if err := w.api.get(ctx, path, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// History returns up to limit wallet transactions, newest first.  A
// non-empty after txid continues the listing from (exclusive of) that
// transaction, which is how backward pagination is expressed on the
// wire.
func (w *Wallet) History(ctx context.Context, id string, limit int,
	after string) ([]*Tx, error) {

	query := url.Values{}
	query.Set("account", defaultAccount)
	query.Set("reverse", "true")
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if after != "" {
		query.Set("after", after)
	}

	var txs []*Tx
	path := walletPath(id, "/tx/history?"+query.Encode())
	if err := w.api.get(ctx, path, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// FullHistory returns the wallet's entire transaction history in the
// daemon's native oldest-first order.  Only used against daemons too
// old to support cursor pagination.
func (w *Wallet) FullHistory(ctx context.Context, id string) ([]*Tx, error) {
	var txs []*Tx
	path := walletPath(id, "/tx/history?account="+defaultAccount)
	if err := w.api.get(ctx, path, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// sendRequest is the shared body of the covenant-sending wallet
// endpoints.
type sendRequest struct {
	Passphrase string `json:"passphrase"`
	Name       string `json:"name,omitempty"`
	Bid        int64  `json:"bid,omitempty"`
	Lockup     int64  `json:"lockup,omitempty"`
	Address    string `json:"address,omitempty"`
	Broadcast  bool   `json:"broadcast"`
	Sign       bool   `json:"sign"`
}

func (w *Wallet) sendCovenant(ctx context.Context, id, endpoint string,
	req *sendRequest) (*Tx, error) {

	req.Broadcast = true
	req.Sign = true

	var tx Tx
	err := w.api.post(ctx, walletPath(id, endpoint), req, &tx)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// SendOpen broadcasts an OPEN for the given name.
func (w *Wallet) SendOpen(ctx context.Context, id, passphrase,
	name string) (*Tx, error) {

	return w.sendCovenant(ctx, id, "/open", &sendRequest{
		Passphrase: passphrase,
		Name:       name,
	})
}

// SendBid broadcasts a blind BID on the given name.  The lockup is the
// full committed value: the true bid plus the blind.
func (w *Wallet) SendBid(ctx context.Context, id, passphrase, name string,
	bid, lockup hnsutil.Amount) (*Tx, error) {

	return w.sendCovenant(ctx, id, "/bid", &sendRequest{
		Passphrase: passphrase,
		Name:       name,
		Bid:        int64(bid),
		Lockup:     int64(lockup),
	})
}

// SendReveal broadcasts REVEALs for the wallet's bids on the given name,
// or for all revealable bids when name is empty.
func (w *Wallet) SendReveal(ctx context.Context, id, passphrase,
	name string) (*Tx, error) {

	return w.sendCovenant(ctx, id, "/reveal", &sendRequest{
		Passphrase: passphrase,
		Name:       name,
	})
}

// SendRedeem broadcasts REDEEMs for the wallet's losing bids on the
// given name.
func (w *Wallet) SendRedeem(ctx context.Context, id, passphrase,
	name string) (*Tx, error) {

	return w.sendCovenant(ctx, id, "/redeem", &sendRequest{
		Passphrase: passphrase,
		Name:       name,
	})
}

// SendRenewal broadcasts a RENEW for the given name.
func (w *Wallet) SendRenewal(ctx context.Context, id, passphrase,
	name string) (*Tx, error) {

	return w.sendCovenant(ctx, id, "/renewal", &sendRequest{
		Passphrase: passphrase,
		Name:       name,
	})
}

// SendTransfer broadcasts a TRANSFER of the given name to the address.
func (w *Wallet) SendTransfer(ctx context.Context, id, passphrase, name,
	address string) (*Tx, error) {

	return w.sendCovenant(ctx, id, "/transfer", &sendRequest{
		Passphrase: passphrase,
		Name:       name,
		Address:    address,
	})
}

// SendFinalize broadcasts the FINALIZE completing a transfer of the
// given name.
func (w *Wallet) SendFinalize(ctx context.Context, id, passphrase,
	name string) (*Tx, error) {

	return w.sendCovenant(ctx, id, "/finalize", &sendRequest{
		Passphrase: passphrase,
		Name:       name,
	})
}

// SendCancel broadcasts the cancellation of a pending transfer of the
// given name.
func (w *Wallet) SendCancel(ctx context.Context, id, passphrase,
	name string) (*Tx, error) {

	return w.sendCovenant(ctx, id, "/cancel", &sendRequest{
		Passphrase: passphrase,
		Name:       name,
	})
}

// SendRevoke broadcasts a REVOKE of the given name.
func (w *Wallet) SendRevoke(ctx context.Context, id, passphrase,
	name string) (*Tx, error) {

	return w.sendCovenant(ctx, id, "/revoke", &sendRequest{
		Passphrase: passphrase,
		Name:       name,
	})
}

// updateRequest carries the resource records of an UPDATE.
type updateRequest struct {
	Passphrase string `json:"passphrase"`
	Name       string `json:"name"`
	Broadcast  bool   `json:"broadcast"`
	Sign       bool   `json:"sign"`
	Data       struct {
		Records json.RawMessage `json:"records"`
	} `json:"data"`
}

// SendUpdate broadcasts an UPDATE replacing the name's resource records.
// The records payload is passed through untranslated.
func (w *Wallet) SendUpdate(ctx context.Context, id, passphrase, name string,
	records json.RawMessage) (*Tx, error) {

	req := &updateRequest{
		Passphrase: passphrase,
		Name:       name,
		Broadcast:  true,
		Sign:       true,
	}
	req.Data.Records = records

	var tx Tx
	err := w.api.post(ctx, walletPath(id, "/update"), req, &tx)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// sendOutput is a single destination of a plain send.
type sendOutput struct {
	Address string `json:"address"`
	Value   int64  `json:"value"`
}

// Send broadcasts a plain payment of the given amount to the address.
func (w *Wallet) Send(ctx context.Context, id, passphrase, address string,
	amount hnsutil.Amount) (*Tx, error) {

	body := struct {
		Passphrase string       `json:"passphrase"`
		Outputs    []sendOutput `json:"outputs"`
	}{
		Passphrase: passphrase,
		Outputs: []sendOutput{
			{Address: address, Value: int64(amount)},
		},
	}

	var tx Tx
	err := w.api.post(ctx, walletPath(id, "/send"), body, &tx)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// Zap removes unconfirmed wallet transactions older than age seconds.
func (w *Wallet) Zap(ctx context.Context, id string, age int) error {
	return w.api.post(ctx, walletPath(id, "/zap"), map[string]interface{}{
		"age":     age,
		"account": defaultAccount,
	}, nil)
}

// Rescan replays the chain for wallet transactions from the given
// height.
func (w *Wallet) Rescan(ctx context.Context, height int32) error {
	return w.api.post(ctx, "/rescan", map[string]interface{}{
		"height": height,
	}, nil)
}

// SelectWallet points the daemon's JSON-RPC endpoint at the given
// wallet.  Required before passphrase-scoped RPC calls.
func (w *Wallet) SelectWallet(ctx context.Context, id string) error {
	_, err := w.api.call(ctx, "selectwallet", []interface{}{id})
	return err
}

// WalletPassphrase unlocks the selected wallet for timeout seconds.
func (w *Wallet) WalletPassphrase(ctx context.Context, passphrase string,
	timeout int) error {

	_, err := w.api.call(ctx, "walletpassphrase",
		[]interface{}{passphrase, timeout})
	return err
}

// ImportName begins rescanning an auction from the given height without
// taking ownership of the name.
func (w *Wallet) ImportName(ctx context.Context, name string,
	height int32) error {

	_, err := w.api.call(ctx, "importname", []interface{}{name, height})
	return err
}
