// Copyright (c) 2024 The FireWallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wallet is the service layer sitting between the HTTP/UI
// surface and the hsd/hsw daemons.  It assembles balances, owned domain
// listings, display states and history pages from the lower level
// clients and caches, and passes auction operations through to the
// wallet daemon.
package wallet

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Nathanwoodburn/firewalletbrowser/hnsrpc"
	"github.com/Nathanwoodburn/firewalletbrowser/hnsutil"
	"github.com/Nathanwoodburn/firewalletbrowser/mempool"
	"github.com/Nathanwoodburn/firewalletbrowser/namecache"
	"github.com/Nathanwoodburn/firewalletbrowser/txhistory"
)

const (
	// DefaultPageSize is the history page size used when the caller
	// does not specify one.
	DefaultPageSize = 100

	// pendingPageSize is the page size used when draining history to
	// count unconfirmed transactions.
	pendingPageSize = 200
)

// Config supplies the collaborators of a Service.
type Config struct {
	// Node talks to the hsd node daemon.
	Node hnsrpc.NodeClient

	// Wallet talks to the hsw wallet daemon.
	Wallet hnsrpc.WalletClient

	// History serves cursor-paginated wallet history.
	History *txhistory.Paginator

	// Names is the domain snapshot cache.  It is only set for light
	// (SPV) deployments, where the node cannot answer name queries
	// locally; when nil, name queries go straight to the node.
	Names *namecache.Cache

	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Service is the wallet-facing API of the process.  It is safe for
// concurrent use.
type Service struct {
	node    hnsrpc.NodeClient
	wallet  hnsrpc.WalletClient
	history *txhistory.Paginator
	names   *namecache.Cache
	bids    *mempool.Reconstructor
	now     func() time.Time
}

// New creates a Service from its collaborators.
func New(cfg *Config) *Service {
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	return &Service{
		node:    cfg.Node,
		wallet:  cfg.Wallet,
		history: cfg.History,
		names:   cfg.Names,
		bids:    mempool.NewReconstructor(cfg.Node),
		now:     now,
	}
}

// SPV reports whether the service runs against a light node and serves
// name queries from the snapshot cache.
func (s *Service) SPV() bool {
	return s.names != nil
}

// Balance is a wallet balance summary.  Total is the confirmed balance;
// Available is the confirmed balance minus the value locked in bids and
// owned names.
type Balance struct {
	Available hnsutil.Amount
	Total     hnsutil.Amount
}

// Balance returns the wallet's balance.  Against a light node the
// daemon's locked figure includes the winning value of registered
// names, which is not really locked; fresh CLOSED snapshots from the
// domain cache are deducted from it, and stale or missing snapshots are
// queued for a background refresh rather than blocked on.  A cold cache
// therefore undercounts the deduction until the refresh lands.
func (s *Service) Balance(ctx context.Context, account string) (*Balance, error) {
	bal, err := s.wallet.Balance(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("fetching balance: %w", err)
	}

	locked := bal.LockedConfirmed
	if s.names != nil {
		deduction, err := s.lockedDeduction(ctx, account)
		if err != nil {
			return nil, err
		}
		locked -= deduction
		if locked < 0 {
			locked = 0
		}
	}

	return &Balance{
		Available: hnsutil.Amount(bal.Confirmed - locked),
		Total:     hnsutil.Amount(bal.Confirmed),
	}, nil
}

// lockedDeduction sums the winning value of the account's CLOSED
// domains, using only fresh cache snapshots.  Names without a fresh
// snapshot are handed to the cache for a detached batch refresh.
func (s *Service) lockedDeduction(ctx context.Context,
	account string) (int64, error) {

	names, err := s.wallet.Names(ctx, account)
	if err != nil {
		return 0, fmt.Errorf("listing names: %w", err)
	}

	var (
		deduction int64
		stale     []string
	)
	for _, name := range names {
		info, fresh := s.names.Snapshot(name.Name)
		if !fresh {
			stale = append(stale, name.Name)
			continue
		}
		if info.State == "CLOSED" {
			deduction += info.Value
		}
	}

	if len(stale) > 0 {
		log.Debugf("Balance deferring %d unsnapshotted domains to "+
			"background refresh", len(stale))
		s.names.RefreshBatch(stale)
	}
	return deduction, nil
}

// PendingCount returns the number of unconfirmed transactions in the
// account's history.
func (s *Service) PendingCount(ctx context.Context, account string) (int, error) {
	txs, err := s.history.All(ctx, account, pendingPageSize)
	if err != nil {
		return 0, fmt.Errorf("draining history: %w", err)
	}

	pending := 0
	for _, tx := range txs {
		if tx.Confirmations < 1 {
			pending++
		}
	}
	return pending, nil
}

// HistoryPage returns one page of the account's transaction history,
// newest first.
func (s *Service) HistoryPage(ctx context.Context, account string, page,
	pageSize int) ([]*hnsrpc.Tx, error) {

	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return s.history.Page(ctx, account, page, pageSize)
}

// MempoolBids reconstructs the per-domain bid view from the node's
// current mempool.
func (s *Service) MempoolBids(ctx context.Context) (map[string][]mempool.Bid, error) {
	return s.bids.Bids(ctx)
}

// BlockHeight returns the node's current chain height.
func (s *Service) BlockHeight(ctx context.Context) (int32, error) {
	info, err := s.node.GetInfo(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching node info: %w", err)
	}
	return info.Chain.Height, nil
}

// SyncProgress returns the node's chain sync progress as a percentage
// rounded to two decimal places.
func (s *Service) SyncProgress(ctx context.Context) (float64, error) {
	info, err := s.node.GetInfo(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching node info: %w", err)
	}
	return math.Round(info.Chain.Progress*100*100) / 100, nil
}

// AccountKey returns the account's extended public key.  It is the
// stable identity used for cache keys, surviving wallet renames.
func (s *Service) AccountKey(ctx context.Context, account string) (string, error) {
	return s.wallet.AccountKey(ctx, account)
}

// ReceiveAddress returns the account's current receive address.
func (s *Service) ReceiveAddress(ctx context.Context, account string) (string, error) {
	info, err := s.wallet.AccountInfo(ctx, account)
	if err != nil {
		return "", fmt.Errorf("fetching account info: %w", err)
	}
	return info.ReceiveAddress, nil
}
