// Copyright (c) 2024 The FireWallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package namecache caches per-domain protocol state for light (SPV)
// deployments, where the backing node cannot answer name queries
// locally and must delegate to an external aggregation service.  The
// service is slower and less reliable than a local node, so lookups are
// served from a persistent snapshot cache with a long TTL, stale
// entries are refreshed by detached background fetches, and an
// in-flight set collapses concurrent fetches for the same name into
// one.
package namecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btcwallet/walletdb"
	"github.com/lightningnetwork/lnd/ticker"
	"golang.org/x/sync/errgroup"

	"github.com/Nathanwoodburn/firewalletbrowser/hnsrpc"
)

var (
	// infoBucket is the top level walletdb bucket holding domain
	// snapshots.
	infoBucket = []byte("domain-info")

	// ErrFetchInFlight is returned by Refresh when another caller is
	// already fetching the same name.  The in-flight fetch will
	// populate the cache; callers should fall back to whatever
	// snapshot they already have.
	ErrFetchInFlight = errors.New("namecache: fetch already in flight")
)

const (
	// DefaultTTL is how long a domain snapshot is considered fresh.
	// Domain state moves slowly outside auctions, hence days rather
	// than seconds.
	DefaultTTL = 90 * 24 * time.Hour

	// refreshTimeout bounds a single background fetch.
	refreshTimeout = 30 * time.Second

	// refreshConcurrency bounds the fan-out of a batch refresh.
	refreshConcurrency = 4
)

// Fetcher fetches authoritative domain info from the external
// aggregation service.  It is satisfied by Client and by test fakes.
type Fetcher interface {
	FetchNameInfo(ctx context.Context, name string) (*hnsrpc.NameInfo, error)
}

// record is the persisted form of a snapshot.
type record struct {
	Info        *hnsrpc.NameInfo `json:"info"`
	LastUpdated int64            `json:"lastUpdated"`
}

// Config supplies the collaborators of a Cache.
type Config struct {
	// DB is the store backing the snapshot cache.
	DB walletdb.DB

	// Fetcher talks to the aggregation service.
	Fetcher Fetcher

	// TTL overrides DefaultTTL when positive.
	TTL time.Duration

	// Clock overrides time.Now, for tests.
	Clock func() time.Time

	// Sweeper, when set, drives the periodic refresh of stale
	// records.  Tests substitute a force ticker.
	Sweeper ticker.Ticker
}

// Cache is a persistent, TTL-based domain snapshot cache with cross
// caller fetch deduplication.  One Cache instance exists per process
// and is shared by every request handler.
type Cache struct {
	db      walletdb.DB
	fetcher Fetcher
	ttl     time.Duration
	now     func() time.Time

	// mtx guards inflight.  The set is what prevents duplicate
	// concurrent fetches for a name, so check-and-insert must be
	// atomic.
	mtx      sync.Mutex
	inflight map[string]struct{}

	sweeper ticker.Ticker
	quit    chan struct{}
	wg      sync.WaitGroup
}

// New creates a Cache and its backing bucket.
func New(cfg *Config) (*Cache, error) {
	err := walletdb.Update(cfg.DB, func(tx walletdb.ReadWriteTx) error {
		_, err := tx.CreateTopLevelBucket(infoBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating domain info bucket: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	return &Cache{
		db:       cfg.DB,
		fetcher:  cfg.Fetcher,
		ttl:      ttl,
		now:      now,
		inflight: make(map[string]struct{}),
		sweeper:  cfg.Sweeper,
		quit:     make(chan struct{}),
	}, nil
}

// Start launches the periodic sweep when a sweeper ticker was
// configured.
func (c *Cache) Start() {
	if c.sweeper == nil {
		return
	}

	c.sweeper.Resume()
	c.wg.Add(1)
	go c.sweepLoop()
}

// Stop halts the periodic sweep.  Background refreshes already started
// are detached and run to completion on their own.
func (c *Cache) Stop() {
	if c.sweeper == nil {
		return
	}

	close(c.quit)
	c.sweeper.Stop()
	c.wg.Wait()
}

// Lookup returns the cached snapshot for a name.  A fresh snapshot is
// returned as is.  A stale or missing snapshot schedules a detached
// background refresh and reports pending=true; the returned snapshot is
// then the prior cached value, which may be nil when the cache is cold.
// The caller never blocks on the aggregation service.
func (c *Cache) Lookup(name string) (*hnsrpc.NameInfo, bool) {
	info, fresh := c.Snapshot(name)
	if fresh {
		return info, false
	}

	c.RefreshAsync(name)
	return info, true
}

// Snapshot returns the cached snapshot for a name, if any, and whether
// it is within its TTL.  Corrupt records count as misses.
func (c *Cache) Snapshot(name string) (*hnsrpc.NameInfo, bool) {
	var rec *record
	err := walletdb.View(c.db, func(tx walletdb.ReadTx) error {
		bucket := tx.ReadBucket(infoBucket)
		if bucket == nil {
			return nil
		}

		payload := bucket.Get([]byte(name))
		if payload == nil {
			return nil
		}

		var decoded record
		if err := json.Unmarshal(payload, &decoded); err != nil {
			log.Warnf("Discarding corrupt snapshot for %q: %v",
				name, err)
			return nil
		}
		rec = &decoded
		return nil
	})
	if err != nil {
		log.Warnf("Snapshot cache read failed: %v", err)
		return nil, false
	}
	if rec == nil || rec.Info == nil {
		return nil, false
	}

	return rec.Info, c.now().Unix()-rec.LastUpdated <= int64(c.ttl/time.Second)
}

// Refresh synchronously fetches a name from the aggregation service and
// stores the result.  At most one fetch per name runs across the whole
// process: if another caller already holds the name, ErrFetchInFlight
// is returned and the caller should use its prior cached value.  The
// in-flight reservation is released on every exit path.
func (c *Cache) Refresh(ctx context.Context, name string) error {
	if !c.tryAcquire(name) {
		return ErrFetchInFlight
	}
	defer c.release(name)

	info, err := c.fetcher.FetchNameInfo(ctx, name)
	if err != nil {
		return fmt.Errorf("fetching %q: %w", name, err)
	}

	c.store(name, info)
	return nil
}

// RefreshAsync starts a detached refresh of a name.  There is no
// cancellation and no join; the triggering request proceeds without
// waiting and observes the update on its next read.
func (c *Cache) RefreshAsync(name string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(),
			refreshTimeout)
		defer cancel()

		err := c.Refresh(ctx, name)
		switch {
		case errors.Is(err, ErrFetchInFlight):
			// Another caller is already on it.
		case err != nil:
			log.Debugf("Background refresh of %q failed: %v",
				name, err)
		}
	}()
}

// RefreshBatch starts a detached, bounded fan-out refresh of the given
// names.
func (c *Cache) RefreshBatch(names []string) {
	if len(names) == 0 {
		return
	}

	go func() {
		var g errgroup.Group
		g.SetLimit(refreshConcurrency)

		for _, name := range names {
			name := name
			g.Go(func() error {
				ctx, cancel := context.WithTimeout(
					context.Background(), refreshTimeout)
				defer cancel()

				err := c.Refresh(ctx, name)
				if err != nil &&
					!errors.Is(err, ErrFetchInFlight) {

					log.Debugf("Batch refresh of %q "+
						"failed: %v", name, err)
				}
				return nil
			})
		}
		_ = g.Wait()
	}()
}

// tryAcquire atomically inserts the name into the in-flight set,
// reporting whether this caller won the reservation.
func (c *Cache) tryAcquire(name string) bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if _, ok := c.inflight[name]; ok {
		return false
	}
	c.inflight[name] = struct{}{}
	return true
}

func (c *Cache) release(name string) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	delete(c.inflight, name)
}

// store persists a snapshot.  Failures are logged and swallowed: the
// cache may lag, it must never fail a request.
func (c *Cache) store(name string, info *hnsrpc.NameInfo) {
	payload, err := json.Marshal(&record{
		Info:        info,
		LastUpdated: c.now().Unix(),
	})
	if err != nil {
		log.Warnf("Encoding snapshot for %q failed: %v", name, err)
		return
	}

	err = walletdb.Update(c.db, func(tx walletdb.ReadWriteTx) error {
		bucket := tx.ReadWriteBucket(infoBucket)
		if bucket == nil {
			return walletdb.ErrBucketNotFound
		}
		return bucket.Put([]byte(name), payload)
	})
	if err != nil {
		log.Warnf("Snapshot cache write failed: %v", err)
	}
}

// staleNames returns every cached name whose snapshot has outlived the
// TTL.
func (c *Cache) staleNames() []string {
	cutoff := c.now().Unix() - int64(c.ttl/time.Second)

	var stale []string
	err := walletdb.View(c.db, func(tx walletdb.ReadTx) error {
		bucket := tx.ReadBucket(infoBucket)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			var decoded record
			if err := json.Unmarshal(v, &decoded); err != nil {
				stale = append(stale, string(k))
				return nil
			}
			if decoded.LastUpdated < cutoff {
				stale = append(stale, string(k))
			}
			return nil
		})
	})
	if err != nil {
		log.Warnf("Stale snapshot scan failed: %v", err)
		return nil
	}
	return stale
}

func (c *Cache) sweepLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.sweeper.Ticks():
			stale := c.staleNames()
			if len(stale) == 0 {
				continue
			}
			log.Debugf("Refreshing %d stale domain snapshots",
				len(stale))
			c.RefreshBatch(stale)

		case <-c.quit:
			return
		}
	}
}
