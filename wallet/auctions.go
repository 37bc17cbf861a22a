// Copyright (c) 2024 The FireWallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"fmt"

	"github.com/Nathanwoodburn/firewalletbrowser/hnsrpc"
	"github.com/Nathanwoodburn/firewalletbrowser/hnsutil"
)

// Open broadcasts an OPEN, starting the auction for a name.
func (s *Service) Open(ctx context.Context, account, passphrase,
	name string) (*hnsrpc.Tx, error) {

	return s.wallet.SendOpen(ctx, account, passphrase, name)
}

// Bid broadcasts a blind BID.  The amount visible on chain is the
// lockup, bid plus blind; the true bid stays hidden until reveal.
func (s *Service) Bid(ctx context.Context, account, passphrase, name string,
	bid, blind hnsutil.Amount) (*hnsrpc.Tx, error) {

	if bid < 0 || blind < 0 {
		return nil, fmt.Errorf("negative bid or blind")
	}
	return s.wallet.SendBid(ctx, account, passphrase, name, bid,
		bid+blind)
}

// Reveal broadcasts REVEALs for the wallet's bids on a name, or for all
// revealable bids when name is empty.
func (s *Service) Reveal(ctx context.Context, account, passphrase,
	name string) (*hnsrpc.Tx, error) {

	return s.wallet.SendReveal(ctx, account, passphrase, name)
}

// Redeem reclaims the lockup of the wallet's losing bids on a name.
func (s *Service) Redeem(ctx context.Context, account, passphrase,
	name string) (*hnsrpc.Tx, error) {

	return s.wallet.SendRedeem(ctx, account, passphrase, name)
}

// Renew broadcasts a RENEW, pushing out the name's expiry.
func (s *Service) Renew(ctx context.Context, account, passphrase,
	name string) (*hnsrpc.Tx, error) {

	return s.wallet.SendRenewal(ctx, account, passphrase, name)
}

// Transfer starts transferring a name to the given address.  The
// transfer can be finalized after the lockup window passes, or cancelled
// before that.
func (s *Service) Transfer(ctx context.Context, account, passphrase, name,
	address string) (*hnsrpc.Tx, error) {

	return s.wallet.SendTransfer(ctx, account, passphrase, name, address)
}

// Finalize completes a transfer whose lockup window has passed.
func (s *Service) Finalize(ctx context.Context, account, passphrase,
	name string) (*hnsrpc.Tx, error) {

	return s.wallet.SendFinalize(ctx, account, passphrase, name)
}

// CancelTransfer aborts an in-progress transfer, keeping the name.
func (s *Service) CancelTransfer(ctx context.Context, account, passphrase,
	name string) (*hnsrpc.Tx, error) {

	return s.wallet.SendCancel(ctx, account, passphrase, name)
}

// Revoke burns the name, releasing it back to auction.  This is
// irreversible and exists as a last resort after a key compromise.
func (s *Service) Revoke(ctx context.Context, account, passphrase,
	name string) (*hnsrpc.Tx, error) {

	return s.wallet.SendRevoke(ctx, account, passphrase, name)
}

// UpdateRecords replaces the name's resource records, folding UI form
// records into the daemon's wire shape first.
func (s *Service) UpdateRecords(ctx context.Context, account, passphrase,
	name string, records []Record) (*hnsrpc.Tx, error) {

	folded, err := FoldRecords(records)
	if err != nil {
		return nil, err
	}
	return s.wallet.SendUpdate(ctx, account, passphrase, name, folded)
}

// Send broadcasts a plain payment.
func (s *Service) Send(ctx context.Context, account, passphrase,
	address string, amount hnsutil.Amount) (*hnsrpc.Tx, error) {

	if amount <= 0 {
		return nil, fmt.Errorf("invalid amount %v", amount)
	}
	return s.wallet.Send(ctx, account, passphrase, address, amount)
}
