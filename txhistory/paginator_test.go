// Copyright (c) 2024 The FireWallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txhistory

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/btcsuite/btcwallet/walletdb"
	_ "github.com/btcsuite/btcwallet/walletdb/bdb"
	"github.com/stretchr/testify/require"

	"github.com/Nathanwoodburn/firewalletbrowser/hnsrpc"
)

// fakeWallet serves a fixed newest-first history and counts upstream
// fetches.
type fakeWallet struct {
	hnsrpc.WalletClient

	txs     []*hnsrpc.Tx
	fetches int
}

func (f *fakeWallet) AccountKey(ctx context.Context, id string) (string, error) {
	return "xpub-" + id, nil
}

func (f *fakeWallet) History(ctx context.Context, id string, limit int,
	after string) ([]*hnsrpc.Tx, error) {

	f.fetches++

	start := 0
	if after != "" {
		start = len(f.txs)
		for i, tx := range f.txs {
			if tx.Hash == after {
				start = i + 1
				break
			}
		}
	}

	end := start + limit
	if end > len(f.txs) {
		end = len(f.txs)
	}
	if start >= len(f.txs) {
		return nil, nil
	}
	return f.txs[start:end], nil
}

func (f *fakeWallet) FullHistory(ctx context.Context, id string) ([]*hnsrpc.Tx, error) {
	f.fetches++

	// The legacy endpoint returns oldest first.
	reversed := make([]*hnsrpc.Tx, len(f.txs))
	for i, tx := range f.txs {
		reversed[len(f.txs)-1-i] = tx
	}
	return reversed, nil
}

// fakeNode reports a fixed daemon version.
type fakeNode struct {
	hnsrpc.NodeClient

	version string
}

func (f *fakeNode) GetInfo(ctx context.Context) (*hnsrpc.NodeInfo, error) {
	return &hnsrpc.NodeInfo{Version: f.version}, nil
}

func makeTxs(n int) []*hnsrpc.Tx {
	txs := make([]*hnsrpc.Tx, n)
	for i := range txs {
		// tx-1 is the newest.
		txs[i] = &hnsrpc.Tx{Hash: fmt.Sprintf("tx-%d", i+1)}
	}
	return txs
}

// testClock is a settable clock for TTL tests.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func newTestPaginator(t *testing.T, wallet *fakeWallet,
	node *fakeNode, clock *testClock) *Paginator {

	db, err := walletdb.Create("bdb",
		filepath.Join(t.TempDir(), "cache.db"), true, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	p, err := New(&Config{
		DB:     db,
		Wallet: wallet,
		Node:   node,
		Clock:  clock.Now,
	})
	require.NoError(t, err)
	return p
}

func TestPageOneSkipsCursorCache(t *testing.T) {
	wallet := &fakeWallet{txs: makeTxs(25)}
	clock := &testClock{now: time.Unix(1700000000, 0)}
	p := newTestPaginator(t, wallet, &fakeNode{version: "7.0.0"}, clock)

	txs, err := p.Page(context.Background(), "hot", 1, 10)
	require.NoError(t, err)
	require.Len(t, txs, 10)
	require.Equal(t, "tx-1", txs[0].Hash)
	require.Equal(t, 1, wallet.fetches)

	// No cursor record may exist for any page.
	count := 0
	err = walletdb.View(p.db, func(tx walletdb.ReadTx) error {
		return tx.ReadBucket(cursorBucket).ForEach(
			func(k, v []byte) error {
				count++
				return nil
			})
	})
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestDeepPageResolvesRecursively(t *testing.T) {
	wallet := &fakeWallet{txs: makeTxs(25)}
	clock := &testClock{now: time.Unix(1700000000, 0)}
	p := newTestPaginator(t, wallet, &fakeNode{version: "7.0.0"}, clock)

	txs, err := p.Page(context.Background(), "hot", 3, 10)
	require.NoError(t, err)
	require.Len(t, txs, 5)
	require.Equal(t, "tx-21", txs[0].Hash)
	require.Equal(t, "tx-25", txs[4].Hash)

	// Cold cache: pages 1 and 2 were fetched to derive cursors, then
	// page 3 itself.
	require.Equal(t, 3, wallet.fetches)

	// Both intermediate cursors must now be cached.
	cursor, ok := p.readCursor("xpub-hot", 1, 10)
	require.True(t, ok)
	require.Equal(t, "tx-10", cursor)

	cursor, ok = p.readCursor("xpub-hot", 2, 10)
	require.True(t, ok)
	require.Equal(t, "tx-20", cursor)

	// A warm cache serves the same page with a single fetch.
	_, err = p.Page(context.Background(), "hot", 3, 10)
	require.NoError(t, err)
	require.Equal(t, 4, wallet.fetches)
}

func TestStaleCursorOverwritten(t *testing.T) {
	wallet := &fakeWallet{txs: makeTxs(30)}
	clock := &testClock{now: time.Unix(1700000000, 0)}
	p := newTestPaginator(t, wallet, &fakeNode{version: "7.0.0"}, clock)

	_, err := p.Page(context.Background(), "hot", 2, 10)
	require.NoError(t, err)

	cursor, ok := p.readCursorRaw("xpub-hot", 2, 10)
	require.True(t, ok)
	require.Equal(t, "tx-20", cursor)

	// A fresh incoming transaction shifts every page boundary.  Let
	// the cached cursors age out so page 1 is re-derived from the new
	// head on the next fetch.
	wallet.txs = append([]*hnsrpc.Tx{{Hash: "tx-0"}}, wallet.txs...)
	clock.now = clock.now.Add(DefaultTTL + time.Minute)

	// Re-fetching page 2 observes a different tail than the record
	// still sitting in the cache and overwrites it.
	_, err = p.Page(context.Background(), "hot", 2, 10)
	require.NoError(t, err)

	cursor, ok = p.readCursorRaw("xpub-hot", 1, 10)
	require.True(t, ok)
	require.Equal(t, "tx-9", cursor)

	cursor, ok = p.readCursorRaw("xpub-hot", 2, 10)
	require.True(t, ok)
	require.Equal(t, "tx-19", cursor)
}

func TestCursorTTLExpiry(t *testing.T) {
	wallet := &fakeWallet{txs: makeTxs(25)}
	clock := &testClock{now: time.Unix(1700000000, 0)}
	p := newTestPaginator(t, wallet, &fakeNode{version: "7.0.0"}, clock)

	_, err := p.Page(context.Background(), "hot", 2, 10)
	require.NoError(t, err)

	_, ok := p.readCursor("xpub-hot", 1, 10)
	require.True(t, ok)

	clock.now = clock.now.Add(DefaultTTL + time.Minute)

	_, ok = p.readCursor("xpub-hot", 1, 10)
	require.False(t, ok)
}

func TestLegacyDaemonFallback(t *testing.T) {
	wallet := &fakeWallet{txs: makeTxs(25)}
	clock := &testClock{now: time.Unix(1700000000, 0)}
	p := newTestPaginator(t, wallet, &fakeNode{version: "6.1.1"}, clock)

	txs, err := p.Page(context.Background(), "hot", 1, 10)
	require.NoError(t, err)
	require.Len(t, txs, 10)
	require.Equal(t, "tx-1", txs[0].Hash)

	// Deeper pages signal "no more data" rather than an error.
	txs, err = p.Page(context.Background(), "hot", 2, 10)
	require.NoError(t, err)
	require.Empty(t, txs)
}

func TestAllDrainsEveryPage(t *testing.T) {
	wallet := &fakeWallet{txs: makeTxs(25)}
	clock := &testClock{now: time.Unix(1700000000, 0)}
	p := newTestPaginator(t, wallet, &fakeNode{version: "7.0.0"}, clock)

	txs, err := p.All(context.Background(), "hot", 10)
	require.NoError(t, err)
	require.Len(t, txs, 25)
	require.Equal(t, "tx-1", txs[0].Hash)
	require.Equal(t, "tx-25", txs[24].Hash)
}

// gatedNode blocks GetInfo on a gate so tests can observe in-flight
// probes.
type gatedNode struct {
	hnsrpc.NodeClient

	gate    chan struct{}
	probes  atomic.Int32
	version string
}

func (n *gatedNode) GetInfo(ctx context.Context) (*hnsrpc.NodeInfo, error) {
	n.probes.Add(1)
	<-n.gate
	return &hnsrpc.NodeInfo{Version: n.version}, nil
}

// TestCapabilityProbeDoesNotSerialize checks that a slow version probe
// only blocks its own caller.  Concurrent first requests must each
// reach the daemon instead of queueing behind a lock held across the
// network call.
func TestCapabilityProbeDoesNotSerialize(t *testing.T) {
	wallet := &fakeWallet{txs: makeTxs(5)}
	node := &gatedNode{gate: make(chan struct{}), version: "7.0.0"}
	clock := &testClock{now: time.Unix(1700000000, 0)}

	db, err := walletdb.Create("bdb",
		filepath.Join(t.TempDir(), "cache.db"), true, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	p, err := New(&Config{
		DB:     db,
		Wallet: wallet,
		Node:   node,
		Clock:  clock.Now,
	})
	require.NoError(t, err)

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := p.cursorSupported(context.Background())
			results <- err
		}()
	}

	// Both callers are inside the probe while the daemon stalls.
	require.Eventually(t, func() bool {
		return node.probes.Load() == 2
	}, 5*time.Second, 10*time.Millisecond)

	close(node.gate)
	require.NoError(t, <-results)
	require.NoError(t, <-results)

	// The answer is cached; later callers never probe again.
	supported, err := p.cursorSupported(context.Background())
	require.NoError(t, err)
	require.True(t, supported)
	require.Equal(t, int32(2), node.probes.Load())
}

func TestVersionMajor(t *testing.T) {
	tests := []struct {
		version string
		want    int
	}{
		{version: "6.1.1", want: 6},
		{version: "7.0.0", want: 7},
		{version: "v8.0.0", want: 8},
		{version: "10.2", want: 10},
		{version: "garbage", want: minPaginationMajor},
	}

	for _, test := range tests {
		require.Equal(t, test.want, versionMajor(test.version),
			test.version)
	}
}
