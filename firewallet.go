// Copyright (c) 2024 The FireWallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/btcsuite/btcwallet/walletdb"
	_ "github.com/btcsuite/btcwallet/walletdb/bdb"
	"github.com/lightningnetwork/lnd/ticker"

	"github.com/Nathanwoodburn/firewalletbrowser/hnsrpc"
	"github.com/Nathanwoodburn/firewalletbrowser/namecache"
	"github.com/Nathanwoodburn/firewalletbrowser/txhistory"
	"github.com/Nathanwoodburn/firewalletbrowser/wallet"
)

const (
	// dbTimeout is how long opening the cache database may block on a
	// stale file lock before giving up.
	dbTimeout = 10 * time.Second

	// sweepInterval is how often the domain snapshot cache looks for
	// stale entries to refresh in the background.
	sweepInterval = 6 * time.Hour

	// startupTimeout bounds the initial daemon probes.
	startupTimeout = 30 * time.Second
)

func main() {
	// Work around defer not working after os.Exit.
	if err := walletMain(); err != nil {
		os.Exit(1)
	}
}

// walletMain is a work-around main function that is required since
// deferred functions (such as log flushing) are not called with calls to
// os.Exit.  Instead, main runs this function and checks for a non-nil
// error, at which point any defers have already run, and if the error is
// non-nil, the program can be exited with an error exit status.
func walletMain() error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	initLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename))
	defer logRotator.Close()

	log.Infof("Version %s (Go version %s)", version(), runtime.Version())

	db, err := openCacheDB(filepath.Join(cfg.DataDir, cacheDbName))
	if err != nil {
		log.Errorf("%v", err)
		return err
	}
	defer db.Close()

	node := hnsrpc.NewNode(&hnsrpc.ClientConfig{
		Host:   cfg.Host,
		Port:   cfg.NodePort,
		APIKey: cfg.APIKey,
	})
	walletClient := hnsrpc.NewWallet(&hnsrpc.ClientConfig{
		Host:   cfg.Host,
		Port:   cfg.WalletPort,
		APIKey: cfg.APIKey,
	})

	history, err := txhistory.New(&txhistory.Config{
		DB:     db,
		Wallet: walletClient,
		Node:   node,
		TTL:    cfg.CursorTTL,
	})
	if err != nil {
		log.Errorf("Unable to create the history paginator: %v", err)
		return err
	}

	var names *namecache.Cache
	if cfg.SPV {
		names, err = namecache.New(&namecache.Config{
			DB:      db,
			Fetcher: namecache.NewClient(cfg.SPVAPI, 0),
			TTL:     time.Duration(cfg.SnapshotDays) * 24 * time.Hour,
			Sweeper: ticker.New(sweepInterval),
		})
		if err != nil {
			log.Errorf("Unable to create the domain cache: %v",
				err)
			return err
		}
		names.Start()
		defer names.Stop()

		log.Infof("Light mode: domain queries served from the "+
			"snapshot cache, backed by %s", cfg.SPVAPI)
	}

	svc := wallet.New(&wallet.Config{
		Node:    node,
		Wallet:  walletClient,
		History: history,
		Names:   names,
	})

	if err := logStartupState(svc, cfg.Wallet); err != nil {
		log.Errorf("Unable to reach the daemons: %v", err)
		return err
	}

	addInterruptHandler(func() {
		log.Info("Stopping caches...")
	})

	<-interruptHandlersDone
	log.Info("Shutdown complete")
	return nil
}

// openCacheDB opens the cache database, creating it on first run.
func openCacheDB(path string) (walletdb.DB, error) {
	err := os.MkdirAll(filepath.Dir(path), 0700)
	if err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Infof("Creating cache database %s", path)
		return walletdb.Create("bdb", path, true, dbTimeout)
	}
	return walletdb.Open("bdb", path, true, dbTimeout)
}

// logStartupState probes the daemons through the service layer and logs
// where the chain and wallet stand.
func logStartupState(svc *wallet.Service, account string) error {
	ctx, cancel := context.WithTimeout(context.Background(),
		startupTimeout)
	defer cancel()

	height, err := svc.BlockHeight(ctx)
	if err != nil {
		return err
	}
	sync, err := svc.SyncProgress(ctx)
	if err != nil {
		return err
	}
	log.Infof("Chain height %d, sync %.2f%%", height, sync)

	bal, err := svc.Balance(ctx, account)
	if err != nil {
		return err
	}
	log.Infof("Wallet %q balance: %v available of %v", account,
		bal.Available, bal.Total)

	pending, err := svc.PendingCount(ctx, account)
	if err != nil {
		return err
	}
	if pending > 0 {
		log.Infof("%d unconfirmed transactions", pending)
	}
	return nil
}
