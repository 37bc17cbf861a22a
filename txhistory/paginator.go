// Copyright (c) 2024 The FireWallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txhistory pages backward through a wallet's transaction
// history.  The daemon only supports cursor pagination ("the entries
// after txid X"), so serving page k requires knowing the last txid of
// page k-1.  Those tail txids are kept in a persistent cache so a page
// deep in the history does not cost k upstream fetches on every view.
//
// Cache entries expire after a TTL and are lazily corrected when a
// fresh fetch observes a different tail, which happens whenever new
// transactions shift the page boundaries.  Correction is one page at a
// time: a boundary shift is only repaired for the page actually being
// re-fetched, never eagerly for later pages.
package txhistory

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/btcsuite/btcwallet/walletdb"

	"github.com/Nathanwoodburn/firewalletbrowser/hnsrpc"
)

var (
	// cursorBucket is the top level walletdb bucket holding page
	// cursor records.
	cursorBucket = []byte("page-cursors")
)

const (
	// DefaultTTL is how long a cached page cursor is trusted before a
	// fresh fetch re-derives it.
	DefaultTTL = time.Hour

	// minPaginationMajor is the lowest daemon major version whose
	// history endpoint supports the after cursor.  Older daemons get
	// a single reversed full fetch instead.
	minPaginationMajor = 7
)

// cursorRecord is the persisted form of a page cursor.
type cursorRecord struct {
	TxID        string `json:"txid"`
	LastUpdated int64  `json:"lastUpdated"`
}

// Config supplies the collaborators of a Paginator.
type Config struct {
	// DB is the store backing the page cursor cache.
	DB walletdb.DB

	// Wallet fetches history pages.
	Wallet hnsrpc.WalletClient

	// Node reports the daemon version for the pagination capability
	// check.
	Node hnsrpc.NodeClient

	// TTL overrides DefaultTTL when positive.
	TTL time.Duration

	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Paginator serves wallet history pages, newest first, maintaining the
// persistent page cursor cache along the way.  It is safe for
// concurrent use; cache writes are last-writer-wins per key.
type Paginator struct {
	db     walletdb.DB
	wallet hnsrpc.WalletClient
	node   hnsrpc.NodeClient
	ttl    time.Duration
	now    func() time.Time

	// identities maps wallet ids to their account extended public
	// key, the session-independent identity used in cache keys.
	identityMtx sync.Mutex
	identities  map[string]string

	// paginated caches the daemon capability probe.
	capMtx    sync.Mutex
	paginated *bool
}

// New creates a Paginator and its backing cache bucket.
func New(cfg *Config) (*Paginator, error) {
	err := walletdb.Update(cfg.DB, func(tx walletdb.ReadWriteTx) error {
		_, err := tx.CreateTopLevelBucket(cursorBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating cursor bucket: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	return &Paginator{
		db:         cfg.DB,
		wallet:     cfg.Wallet,
		node:       cfg.Node,
		ttl:        ttl,
		now:        now,
		identities: make(map[string]string),
	}, nil
}

// Page returns page number page of the wallet's history, newest first,
// with pageSize entries per page.  Page 1 is always a single direct
// fetch; deeper pages resolve their cursor through the cache, falling
// back to recursive resolution on a cold cache.
func (p *Paginator) Page(ctx context.Context, account string, page,
	pageSize int) ([]*hnsrpc.Tx, error) {

	if page < 1 {
		return nil, fmt.Errorf("invalid page %d", page)
	}
	if pageSize < 1 {
		return nil, fmt.Errorf("invalid page size %d", pageSize)
	}

	supported, err := p.cursorSupported(ctx)
	if err != nil {
		return nil, err
	}
	if !supported {
		return p.legacyPage(ctx, account, page, pageSize)
	}

	if page == 1 {
		return p.wallet.History(ctx, account, pageSize, "")
	}

	identity, err := p.identity(ctx, account)
	if err != nil {
		return nil, err
	}

	cursor, err := p.resolveCursor(ctx, account, identity, page-1,
		pageSize)
	if err != nil {
		return nil, err
	}
	if cursor == "" {
		// The history ends before this page.
		return nil, nil
	}

	txs, err := p.wallet.History(ctx, account, pageSize, cursor)
	if err != nil {
		return nil, err
	}

	// If the tail we just observed disagrees with the cached cursor
	// for this page, new transactions have shifted the page boundary;
	// overwrite so the next deeper fetch starts from the right place.
	if len(txs) > 0 {
		tail := txs[len(txs)-1].Hash
		if cached, ok := p.readCursorRaw(identity, page, pageSize); !ok ||
			cached != tail {

			p.writeCursor(identity, page, pageSize, tail)
		}
	}

	return txs, nil
}

// All drains every history page in ascending page order until an empty
// page is returned.  Only export and pending-count paths should use it;
// interactive requests stay bounded to a single page fetch.
func (p *Paginator) All(ctx context.Context, account string,
	pageSize int) ([]*hnsrpc.Tx, error) {

	var all []*hnsrpc.Tx
	for page := 1; ; page++ {
		txs, err := p.Page(ctx, account, page, pageSize)
		if err != nil {
			return nil, err
		}
		if len(txs) == 0 {
			return all, nil
		}
		all = append(all, txs...)
		if len(txs) < pageSize {
			return all, nil
		}
	}
}

// resolveCursor returns the tail txid of the given page, reading the
// cache first and rebuilding missing entries by recursing toward page 1.
// An empty cursor with nil error means the history ends before that
// page.
func (p *Paginator) resolveCursor(ctx context.Context, account, identity string,
	page, pageSize int) (string, error) {

	if cursor, ok := p.readCursor(identity, page, pageSize); ok {
		return cursor, nil
	}

	var after string
	if page > 1 {
		var err error
		after, err = p.resolveCursor(ctx, account, identity, page-1,
			pageSize)
		if err != nil {
			return "", err
		}
		if after == "" {
			return "", nil
		}
	}

	txs, err := p.wallet.History(ctx, account, pageSize, after)
	if err != nil {
		return "", err
	}
	if len(txs) == 0 {
		return "", nil
	}

	tail := txs[len(txs)-1].Hash
	p.writeCursor(identity, page, pageSize, tail)
	return tail, nil
}

// legacyPage serves history against a daemon without cursor support: a
// single full fetch reversed in memory.  Only page 1 is servable; any
// deeper page is empty rather than an error.
func (p *Paginator) legacyPage(ctx context.Context, account string, page,
	pageSize int) ([]*hnsrpc.Tx, error) {

	if page > 1 {
		return nil, nil
	}

	txs, err := p.wallet.FullHistory(ctx, account)
	if err != nil {
		return nil, err
	}

	// The daemon returns oldest first.
	for i, j := 0, len(txs)-1; i < j; i, j = i+1, j-1 {
		txs[i], txs[j] = txs[j], txs[i]
	}
	if len(txs) > pageSize {
		txs = txs[:pageSize]
	}
	return txs, nil
}

// cursorSupported probes the daemon version and caches the answer.  The
// probe runs outside capMtx so a slow daemon cannot hold up concurrent
// callers; racing first calls may probe more than once, last write
// wins.
func (p *Paginator) cursorSupported(ctx context.Context) (bool, error) {
	p.capMtx.Lock()
	if p.paginated != nil {
		supported := *p.paginated
		p.capMtx.Unlock()
		return supported, nil
	}
	p.capMtx.Unlock()

	info, err := p.node.GetInfo(ctx)
	if err != nil {
		return false, err
	}

	supported := versionMajor(info.Version) >= minPaginationMajor
	if !supported {
		log.Infof("Daemon version %s predates cursor pagination; "+
			"history is limited to a single page", info.Version)
	}

	p.capMtx.Lock()
	p.paginated = &supported
	p.capMtx.Unlock()
	return supported, nil
}

// versionMajor extracts the major version from a daemon version string.
// Unparseable versions are assumed modern.
func versionMajor(version string) int {
	version = strings.TrimPrefix(version, "v")
	head, _, _ := strings.Cut(version, ".")
	major, err := strconv.Atoi(head)
	if err != nil {
		log.Warnf("Unparseable daemon version %q, assuming cursor "+
			"pagination support", version)
		return minPaginationMajor
	}
	return major
}

// identity resolves and memoizes the wallet's extended public key.
func (p *Paginator) identity(ctx context.Context, account string) (string, error) {
	p.identityMtx.Lock()
	if identity, ok := p.identities[account]; ok {
		p.identityMtx.Unlock()
		return identity, nil
	}
	p.identityMtx.Unlock()

	identity, err := p.wallet.AccountKey(ctx, account)
	if err != nil {
		return "", err
	}

	p.identityMtx.Lock()
	p.identities[account] = identity
	p.identityMtx.Unlock()
	return identity, nil
}

func cursorKey(identity string, page, pageSize int) []byte {
	return []byte(fmt.Sprintf("%s/%d/%d", identity, page, pageSize))
}

// readCursor returns the cached tail txid of a page if the record is
// present and within its TTL.  Corrupt or unreadable records count as
// misses.
func (p *Paginator) readCursor(identity string, page, pageSize int) (string, bool) {
	record, ok := p.read(identity, page, pageSize)
	if !ok {
		return "", false
	}

	age := p.now().Unix() - record.LastUpdated
	if age > int64(p.ttl/time.Second) {
		return "", false
	}
	return record.TxID, true
}

// readCursorRaw returns the cached tail txid regardless of age, for the
// staleness comparison after a fresh fetch.
func (p *Paginator) readCursorRaw(identity string, page, pageSize int) (string, bool) {
	record, ok := p.read(identity, page, pageSize)
	if !ok {
		return "", false
	}
	return record.TxID, true
}

func (p *Paginator) read(identity string, page, pageSize int) (*cursorRecord, bool) {
	var record *cursorRecord
	err := walletdb.View(p.db, func(tx walletdb.ReadTx) error {
		bucket := tx.ReadBucket(cursorBucket)
		if bucket == nil {
			return nil
		}

		payload := bucket.Get(cursorKey(identity, page, pageSize))
		if payload == nil {
			return nil
		}

		var decoded cursorRecord
		if err := json.Unmarshal(payload, &decoded); err != nil {
			// A corrupt record is a cache miss, not a failure.
			log.Warnf("Discarding corrupt cursor record for "+
				"page %d: %v", page, err)
			return nil
		}
		record = &decoded
		return nil
	})
	if err != nil {
		log.Warnf("Cursor cache read failed: %v", err)
		return nil, false
	}
	return record, record != nil
}

// writeCursor persists the tail txid of a page.  Failures are logged
// and swallowed: the cache is an accelerator, never a correctness
// dependency.
func (p *Paginator) writeCursor(identity string, page, pageSize int,
	txid string) {

	record, err := json.Marshal(&cursorRecord{
		TxID:        txid,
		LastUpdated: p.now().Unix(),
	})
	if err != nil {
		log.Warnf("Encoding cursor record failed: %v", err)
		return
	}

	err = walletdb.Update(p.db, func(tx walletdb.ReadWriteTx) error {
		bucket := tx.ReadWriteBucket(cursorBucket)
		if bucket == nil {
			return walletdb.ErrBucketNotFound
		}
		return bucket.Put(cursorKey(identity, page, pageSize), record)
	})
	if err != nil {
		log.Warnf("Cursor cache write failed: %v", err)
	}
}
