// Copyright (c) 2024 The FireWallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"fmt"
	"time"
)

const (
	// zapAge is how old an unconfirmed transaction must be before Zap
	// drops it from the wallet.
	zapAge = 20 * time.Minute

	// unlockSeconds is how long Unlock keeps the wallet decrypted for
	// follow-up RPC calls.
	unlockSeconds = 10
)

// Wallets lists the identifiers of all wallets known to the daemon.
func (s *Service) Wallets(ctx context.Context) ([]string, error) {
	return s.wallet.ListWallets(ctx)
}

// CreateWallet creates a new wallet on the daemon and encrypts it with
// the given passphrase.
func (s *Service) CreateWallet(ctx context.Context, account,
	passphrase string) error {

	return s.wallet.CreateWallet(ctx, account, passphrase)
}

// Unlock selects the wallet on the daemon's RPC session and decrypts it
// for a short window.  RPC-side operations such as RescanAuction act on
// the selected wallet.
func (s *Service) Unlock(ctx context.Context, account, passphrase string) error {
	if err := s.wallet.SelectWallet(ctx, account); err != nil {
		return err
	}
	return s.wallet.WalletPassphrase(ctx, passphrase, unlockSeconds)
}

// Zap drops the wallet's unconfirmed transactions older than twenty
// minutes, freeing coins stuck behind them.
func (s *Service) Zap(ctx context.Context, account string) error {
	return s.wallet.Zap(ctx, account, int(zapAge/time.Second))
}

// Rescan replays the whole chain for wallet transactions.
func (s *Service) Rescan(ctx context.Context) error {
	return s.wallet.Rescan(ctx, 0)
}

// RescanAuction re-imports a name from just before its auction opened
// so the wallet picks up bids placed under a previous seed.  The name
// must currently be in its bidding period.
func (s *Service) RescanAuction(ctx context.Context, account,
	name string) error {

	if err := s.wallet.SelectWallet(ctx, account); err != nil {
		return err
	}
	info, err := s.node.GetNameInfo(ctx, name)
	if err != nil {
		return fmt.Errorf("looking up %q: %w", name, err)
	}
	if info.Stats == nil || info.Stats.BidPeriodStart == 0 {
		return fmt.Errorf("%q is not in auction", name)
	}
	return s.wallet.ImportName(ctx, name, info.Height-1)
}
