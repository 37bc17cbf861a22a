// Copyright (c) 2024 The FireWallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package mempool reconstructs the wallet's view of unconfirmed auction
// activity.  Pending BID outputs carry their domain name in plaintext,
// while pending REVEAL outputs only carry a name hash and must be
// correlated back to the BID coin they spend.  The view is rebuilt from
// scratch on every call; mempool content is inherently transient and is
// never persisted.
package mempool

import (
	"bytes"
	"context"
	"errors"
	"sort"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/davecgh/go-spew/spew"

	"github.com/Nathanwoodburn/firewalletbrowser/covenant"
	"github.com/Nathanwoodburn/firewalletbrowser/hnsrpc"
	"github.com/Nathanwoodburn/firewalletbrowser/hnsutil"
)

// UnknownValue is the sentinel bid value of a blind bid whose true value
// has not been revealed yet.
const UnknownValue = hnsutil.Amount(-1)

// Bid is an unconfirmed bid or reveal reconstructed from the mempool.
type Bid struct {
	// TxID is the pending transaction carrying the bid or reveal.
	TxID chainhash.Hash

	// Name is the domain name the bid is for.
	Name string

	// Lockup is the total value committed by the bid, combining the
	// true bid and its blind.
	Lockup hnsutil.Amount

	// Value is the true bid value, or UnknownValue while the bid is
	// still blind.
	Value hnsutil.Amount

	// Revealed reports whether the true value is known.
	Revealed bool

	// SortValue ranks the bid: the lockup while blind, the true value
	// once revealed.
	SortValue hnsutil.Amount
}

// Reconstruct rebuilds the per-domain view of unconfirmed bids and
// reveals from the given mempool transactions.  Malformed covenant
// records are logged and skipped individually; a REVEAL whose BID coin
// is not among the transaction's own inputs is an orphan and is dropped
// silently.
func Reconstruct(txs []*hnsrpc.Tx) map[string][]Bid {
	bids := make(map[string][]Bid)

	for _, tx := range txs {
		txid, err := chainhash.NewHashFromStr(tx.Hash)
		if err != nil {
			log.Warnf("Skipping mempool tx with bad hash %q: %v",
				tx.Hash, err)
			continue
		}

		for i, out := range tx.Outputs {
			switch out.Covenant.Action {
			case "BID":
				bid, err := bidFromOutput(*txid, out)
				if err != nil {
					log.Warnf("Skipping bid output %v:%d: %v",
						txid, i, err)
					continue
				}
				bids[bid.Name] = append(bids[bid.Name], bid)

			case "REVEAL":
				bid, err := bidFromReveal(*txid, out, tx.Inputs)
				if err != nil {
					if errors.Is(err, errOrphanReveal) {
						log.Debugf("Dropping orphaned "+
							"reveal %v:%d", txid, i)
					} else {
						log.Warnf("Skipping reveal "+
							"output %v:%d: %v",
							txid, i, err)
					}
					continue
				}
				bids[bid.Name] = append(bids[bid.Name], bid)
			}
		}
	}

	for _, domainBids := range bids {
		sort.SliceStable(domainBids, func(i, j int) bool {
			return domainBids[i].SortValue > domainBids[j].SortValue
		})
	}

	log.Tracef("Reconstructed mempool bids: %v",
		newLogClosure(func() string {
			return spew.Sdump(bids)
		}))

	return bids
}

// errOrphanReveal marks a reveal whose originating bid is no longer in
// the mempool.  This legitimately happens when the bid's mempool entry
// was already evicted and is not an error condition.
var errOrphanReveal = errors.New("reveal has no matching bid input")

func bidFromOutput(txid chainhash.Hash, out *hnsrpc.TxOutput) (Bid, error) {
	cov, err := covenant.Parse(out.Covenant.Action, out.Covenant.Items,
		out.Value, out.Address)
	if err != nil {
		return Bid{}, err
	}

	name, err := cov.BidName()
	if err != nil {
		return Bid{}, err
	}

	return Bid{
		TxID:      txid,
		Name:      name,
		Lockup:    cov.Value,
		Value:     UnknownValue,
		Revealed:  false,
		SortValue: cov.Value,
	}, nil
}

func bidFromReveal(txid chainhash.Hash, out *hnsrpc.TxOutput,
	inputs []*hnsrpc.TxInput) (Bid, error) {

	cov, err := covenant.Parse(out.Covenant.Action, out.Covenant.Items,
		out.Value, out.Address)
	if err != nil {
		return Bid{}, err
	}

	nameHash, err := cov.NameHash()
	if err != nil {
		return Bid{}, err
	}

	// The reveal spends the bid it discloses, so the originating BID
	// coin must be among this transaction's own inputs.
	for _, in := range inputs {
		if in.Coin == nil || in.Coin.Covenant.Action != "BID" {
			continue
		}

		coinCov, err := covenant.Parse(in.Coin.Covenant.Action,
			in.Coin.Covenant.Items, in.Coin.Value, in.Coin.Address)
		if err != nil {
			log.Warnf("Skipping bid coin spent by %v: %v", txid, err)
			continue
		}

		coinHash, err := coinCov.NameHash()
		if err != nil || !bytes.Equal(coinHash, nameHash) {
			continue
		}

		name, err := coinCov.BidName()
		if err != nil {
			return Bid{}, err
		}

		return Bid{
			TxID:      txid,
			Name:      name,
			Lockup:    coinCov.Value,
			Value:     cov.Value,
			Revealed:  true,
			SortValue: cov.Value,
		}, nil
	}

	return Bid{}, errOrphanReveal
}

// Reconstructor fetches the current mempool from the node and rebuilds
// the unconfirmed bid view on demand.
type Reconstructor struct {
	node hnsrpc.NodeClient
}

// NewReconstructor creates a Reconstructor backed by the given node
// client.
func NewReconstructor(node hnsrpc.NodeClient) *Reconstructor {
	return &Reconstructor{node: node}
}

// Bids fetches every pending transaction and returns the reconstructed
// per-domain bid view.  A transaction evicted between the txid listing
// and its fetch is skipped; any other upstream error aborts the call.
func (r *Reconstructor) Bids(ctx context.Context) (map[string][]Bid, error) {
	txids, err := r.node.GetMempool(ctx)
	if err != nil {
		return nil, err
	}

	txs := make([]*hnsrpc.Tx, 0, len(txids))
	for _, txid := range txids {
		tx, err := r.node.GetTx(ctx, txid)
		if err != nil {
			if errors.Is(err, hnsrpc.ErrNotFound) {
				log.Debugf("Mempool tx %s evicted during scan",
					txid)
				continue
			}
			return nil, err
		}
		txs = append(txs, tx)
	}

	return Reconstruct(txs), nil
}
