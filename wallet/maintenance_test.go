// Copyright (c) 2024 The FireWallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Nathanwoodburn/firewalletbrowser/hnsrpc"
)

// maintWallet records the maintenance calls the service forwards to the
// wallet daemon.
type maintWallet struct {
	fakeWallet

	wallets []string

	created     string
	createdPass string

	selected  string
	selectErr error

	passphrase  string
	passTimeout int

	zapID  string
	zapAge int

	rescanned    bool
	rescanHeight int32

	importedName   string
	importedHeight int32
}

func (w *maintWallet) ListWallets(ctx context.Context) ([]string, error) {
	return w.wallets, nil
}

func (w *maintWallet) CreateWallet(ctx context.Context, id,
	passphrase string) error {

	w.created = id
	w.createdPass = passphrase
	return nil
}

func (w *maintWallet) SelectWallet(ctx context.Context, id string) error {
	if w.selectErr != nil {
		return w.selectErr
	}
	w.selected = id
	return nil
}

func (w *maintWallet) WalletPassphrase(ctx context.Context,
	passphrase string, timeout int) error {

	w.passphrase = passphrase
	w.passTimeout = timeout
	return nil
}

func (w *maintWallet) Zap(ctx context.Context, id string, age int) error {
	w.zapID = id
	w.zapAge = age
	return nil
}

func (w *maintWallet) Rescan(ctx context.Context, height int32) error {
	w.rescanned = true
	w.rescanHeight = height
	return nil
}

func (w *maintWallet) ImportName(ctx context.Context, name string,
	height int32) error {

	w.importedName = name
	w.importedHeight = height
	return nil
}

func TestWallets(t *testing.T) {
	w := &maintWallet{wallets: []string{"default", "cold"}}
	s := newTestService(t, &fakeNode{}, w, nil)

	ids, err := s.Wallets(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"default", "cold"}, ids)
}

func TestCreateWallet(t *testing.T) {
	w := &maintWallet{}
	s := newTestService(t, &fakeNode{}, w, nil)

	require.NoError(t, s.CreateWallet(context.Background(), "hot", "pass"))
	require.Equal(t, "hot", w.created)
	require.Equal(t, "pass", w.createdPass)
}

func TestUnlock(t *testing.T) {
	w := &maintWallet{}
	s := newTestService(t, &fakeNode{}, w, nil)

	require.NoError(t, s.Unlock(context.Background(), "default", "pass"))
	require.Equal(t, "default", w.selected)
	require.Equal(t, "pass", w.passphrase)
	require.Equal(t, 10, w.passTimeout)
}

// TestUnlockSelectFailure checks that a failed wallet selection stops
// the sequence before the passphrase is sent.
func TestUnlockSelectFailure(t *testing.T) {
	w := &maintWallet{selectErr: errors.New("no such wallet")}
	s := newTestService(t, &fakeNode{}, w, nil)

	require.Error(t, s.Unlock(context.Background(), "missing", "pass"))
	require.Empty(t, w.passphrase)
}

func TestZap(t *testing.T) {
	w := &maintWallet{}
	s := newTestService(t, &fakeNode{}, w, nil)

	require.NoError(t, s.Zap(context.Background(), "default"))
	require.Equal(t, "default", w.zapID)
	require.Equal(t, 1200, w.zapAge)
}

func TestRescan(t *testing.T) {
	w := &maintWallet{}
	s := newTestService(t, &fakeNode{}, w, nil)

	require.NoError(t, s.Rescan(context.Background()))
	require.True(t, w.rescanned)
	require.Equal(t, int32(0), w.rescanHeight)
}

func TestRescanAuction(t *testing.T) {
	bidding := &hnsrpc.NameInfo{
		Name:   "alpha",
		State:  "BIDDING",
		Height: 1000,
		Stats:  &hnsrpc.NameStats{BidPeriodStart: 1000, BidPeriodEnd: 1720},
	}
	node := &fakeNode{infos: map[string]*hnsrpc.NameInfo{
		"alpha": bidding,
		"beta":  ownedName("beta", 2_000_000),
	}}

	w := &maintWallet{}
	s := newTestService(t, node, w, nil)

	// The import starts one block before the auction's first bid so
	// none of them are missed.
	require.NoError(t, s.RescanAuction(context.Background(), "default",
		"alpha"))
	require.Equal(t, "default", w.selected)
	require.Equal(t, "alpha", w.importedName)
	require.Equal(t, int32(999), w.importedHeight)

	// A closed name has no bid period and cannot be rescanned.
	err := s.RescanAuction(context.Background(), "default", "beta")
	require.ErrorContains(t, err, "not in auction")

	// Unknown names surface the lookup failure.
	err = s.RescanAuction(context.Background(), "default", "gamma")
	require.ErrorIs(t, err, hnsrpc.ErrNotFound)
	require.Equal(t, "alpha", w.importedName)
}
