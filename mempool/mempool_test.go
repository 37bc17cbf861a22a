// Copyright (c) 2024 The FireWallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"context"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Nathanwoodburn/firewalletbrowser/hnsrpc"
	"github.com/Nathanwoodburn/firewalletbrowser/hnsutil"
)

var (
	exampleHash = strings.Repeat("ab", 32)
	otherHash   = strings.Repeat("cd", 32)

	bidTxID    = strings.Repeat("11", 32)
	revealTxID = strings.Repeat("22", 32)
)

// bidItems builds the covenant items of a BID on the given name.
func bidItems(nameHash, name string) []string {
	return []string{
		nameHash,
		"01000000",
		hex.EncodeToString([]byte(name)),
		strings.Repeat("ee", 32),
	}
}

// revealItems builds the covenant items of a REVEAL for the given name
// hash.
func revealItems(nameHash string) []string {
	return []string{nameHash, "01000000", strings.Repeat("ff", 32)}
}

func bidTx(txid, name, nameHash string, lockup int64) *hnsrpc.Tx {
	return &hnsrpc.Tx{
		Hash: txid,
		Outputs: []*hnsrpc.TxOutput{
			{
				Value: lockup,
				Covenant: hnsrpc.Covenant{
					Action: "BID",
					Items:  bidItems(nameHash, name),
				},
			},
		},
	}
}

// revealTx builds a REVEAL spending the given bid coin.
func revealTx(txid, name, nameHash string, lockup, value int64) *hnsrpc.Tx {
	return &hnsrpc.Tx{
		Hash: txid,
		Inputs: []*hnsrpc.TxInput{
			{
				Prevout: hnsrpc.Outpoint{Hash: bidTxID},
				Coin: &hnsrpc.Coin{
					Value: lockup,
					Covenant: hnsrpc.Covenant{
						Action: "BID",
						Items:  bidItems(nameHash, name),
					},
				},
			},
		},
		Outputs: []*hnsrpc.TxOutput{
			{
				Value: value,
				Covenant: hnsrpc.Covenant{
					Action: "REVEAL",
					Items:  revealItems(nameHash),
				},
			},
		},
	}
}

func TestReconstructBlindBid(t *testing.T) {
	bids := Reconstruct([]*hnsrpc.Tx{
		bidTx(bidTxID, "example", exampleHash, 1000000),
	})

	require.Len(t, bids, 1)
	require.Len(t, bids["example"], 1)

	bid := bids["example"][0]
	require.Equal(t, "example", bid.Name)
	require.False(t, bid.Revealed)
	require.Equal(t, hnsutil.Amount(1000000), bid.Lockup)
	require.Equal(t, UnknownValue, bid.Value)
	require.Equal(t, hnsutil.Amount(1000000), bid.SortValue)
}

func TestReconstructRevealCorrelation(t *testing.T) {
	bids := Reconstruct([]*hnsrpc.Tx{
		revealTx(revealTxID, "example", exampleHash, 1000000, 600000),
	})

	require.Len(t, bids["example"], 1)

	bid := bids["example"][0]
	require.True(t, bid.Revealed)
	require.Equal(t, hnsutil.Amount(600000), bid.Value)
	require.Equal(t, hnsutil.Amount(1000000), bid.Lockup)
	require.Equal(t, hnsutil.Amount(600000), bid.SortValue)
	require.Equal(t, revealTxID, bid.TxID.String())
}

// TestReconstructOrphanReveal ensures a reveal whose inputs do not spend
// a matching bid coin is excluded entirely.
func TestReconstructOrphanReveal(t *testing.T) {
	// The reveal's only bid input is for a different name hash.
	tx := revealTx(revealTxID, "other", otherHash, 1000000, 600000)
	tx.Outputs[0].Covenant.Items = revealItems(exampleHash)

	bids := Reconstruct([]*hnsrpc.Tx{tx})
	require.Empty(t, bids)

	// A reveal with no coin data at all is likewise dropped.
	tx = revealTx(revealTxID, "example", exampleHash, 1000000, 600000)
	tx.Inputs[0].Coin = nil

	bids = Reconstruct([]*hnsrpc.Tx{tx})
	require.Empty(t, bids)
}

// TestReconstructSkipsBadRecords ensures one malformed covenant does not
// abort the rest of the batch.
func TestReconstructSkipsBadRecords(t *testing.T) {
	bad := bidTx(strings.Repeat("33", 32), "bad", exampleHash, 500000)
	bad.Outputs[0].Covenant.Items[2] = "c3a9" // non-ASCII name bytes

	good := bidTx(bidTxID, "example", exampleHash, 1000000)

	bids := Reconstruct([]*hnsrpc.Tx{bad, good})
	require.Len(t, bids, 1)
	require.Len(t, bids["example"], 1)
}

func TestReconstructRanksBySortValue(t *testing.T) {
	low := bidTx(bidTxID, "example", exampleHash, 400000)
	high := bidTx(strings.Repeat("44", 32), "example", exampleHash, 900000)

	bids := Reconstruct([]*hnsrpc.Tx{low, high})
	require.Len(t, bids["example"], 2)
	require.Equal(t, hnsutil.Amount(900000), bids["example"][0].SortValue)
	require.Equal(t, hnsutil.Amount(400000), bids["example"][1].SortValue)
}

// fakeNode serves a fixed mempool to the Reconstructor.
type fakeNode struct {
	hnsrpc.NodeClient

	txs map[string]*hnsrpc.Tx
}

func (f *fakeNode) GetMempool(ctx context.Context) ([]string, error) {
	txids := make([]string, 0, len(f.txs))
	for txid := range f.txs {
		txids = append(txids, txid)
	}
	// An evicted tx shows up in the listing but 404s on fetch.
	txids = append(txids, strings.Repeat("99", 32))
	return txids, nil
}

func (f *fakeNode) GetTx(ctx context.Context, txid string) (*hnsrpc.Tx, error) {
	tx, ok := f.txs[txid]
	if !ok {
		return nil, hnsrpc.ErrNotFound
	}
	return tx, nil
}

func TestReconstructorBids(t *testing.T) {
	node := &fakeNode{txs: map[string]*hnsrpc.Tx{
		bidTxID: bidTx(bidTxID, "example", exampleHash, 1000000),
	}}

	r := NewReconstructor(node)
	bids, err := r.Bids(context.Background())
	require.NoError(t, err)
	require.Len(t, bids["example"], 1)
}
