// Copyright (c) 2024 The FireWallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Nathanwoodburn/firewalletbrowser/auction"
	"github.com/Nathanwoodburn/firewalletbrowser/hnsrpc"
	"github.com/Nathanwoodburn/firewalletbrowser/hnsutil"
)

// Domains lists the account's owned domains.  Names the wallet merely
// watched without winning carry an owner outpoint index of zero and are
// skipped.
func (s *Service) Domains(ctx context.Context, account string) ([]*auction.Domain, error) {
	names, err := s.wallet.Names(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("listing names: %w", err)
	}

	domains := make([]*auction.Domain, 0, len(names))
	for _, info := range names {
		if info.Owner.Index == 0 {
			continue
		}
		domains = append(domains, domainFromInfo(info))
	}
	return domains, nil
}

// domainFromInfo converts a daemon name snapshot into the auction
// package's domain form.  Unknown protocol states fall back to closed.
func domainFromInfo(info *hnsrpc.NameInfo) *auction.Domain {
	state, ok := auction.ParseState(info.State)
	if !ok {
		log.Warnf("Unknown name state %q for %q", info.State,
			info.Name)
	}

	d := &auction.Domain{
		Name:           info.Name,
		State:          state,
		Registered:     info.Registered,
		TransferHeight: info.Transfer,
		Height:         info.Height,
		Value:          hnsutil.Amount(info.Value),
		HighestValue:   hnsutil.Amount(info.Highest),
	}
	if info.Stats != nil {
		d.Stats = auction.Stats{
			DaysUntilExpire:    info.Stats.DaysUntilExpire,
			BlocksUntilBidding: info.Stats.BlocksUntilBidding,
			BlocksUntilReveal:  info.Stats.BlocksUntilReveal,
			BlocksUntilClose:   info.Stats.BlocksUntilClose,
		}
	}
	return d
}

// DomainStatus is the assembled view of one domain: the raw snapshot,
// the derived display state, and the transfer countdown when a transfer
// is in progress.  Pending is set when the snapshot came from a stale or
// cold cache entry and a background refresh is under way.
type DomainStatus struct {
	Info     *hnsrpc.NameInfo
	Display  auction.Display
	Transfer string
	Pending  bool
}

// DomainStatus assembles the display view of a single domain.  owned
// reports whether the caller's wallet owns the name or its winning bid.
// Against a light node the snapshot is served from the domain cache and
// may be stale or absent; the caller never blocks on the aggregation
// service.
func (s *Service) DomainStatus(ctx context.Context, name string,
	owned bool) (*DomainStatus, error) {

	var (
		info    *hnsrpc.NameInfo
		pending bool
	)
	if s.names != nil {
		info, pending = s.names.Lookup(name)
		if info == nil {
			// Cold cache: nothing to show yet, the refresh is
			// already running.
			return &DomainStatus{Pending: pending}, nil
		}
	} else {
		var err error
		info, err = s.node.GetNameInfo(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("fetching name info: %w", err)
		}
	}

	status := &DomainStatus{
		Info:    info,
		Display: auction.NextState(domainFromInfo(info), owned),
		Pending: pending,
	}

	if info.Transfer != 0 {
		height, err := s.BlockHeight(ctx)
		if err != nil {
			return nil, err
		}
		status.Transfer = auction.TransferStatus(info.Transfer, height)
	}
	return status, nil
}

// ResolveNameHash resolves a hex name hash to its name via the node.
// The lookup is best effort: when the node cannot resolve the hash, the
// hash itself is returned as the display fallback.
func (s *Service) ResolveNameHash(ctx context.Context, hash string) (string, error) {
	name, err := s.node.GetNameByHash(ctx, hash)
	if errors.Is(err, hnsrpc.ErrNotFound) {
		return hash, nil
	}
	if err != nil {
		return "", fmt.Errorf("resolving name hash: %w", err)
	}
	return name, nil
}

// DNSRecords returns the domain's on-chain resource records.
func (s *Service) DNSRecords(ctx context.Context, name string) (json.RawMessage, error) {
	return s.node.GetNameResource(ctx, name)
}

// reportTimeFormat matches the export format of earlier releases, so
// spreadsheets built on old exports keep parsing.
const reportTimeFormat = "02/01/2006 15:04:05"

// Report renders the account's domains as comma separated lines with a
// header, for export.  Expiry is the projected wall clock time of the
// renewal deadline, or N/A for domains that do not expire.
func (s *Service) Report(ctx context.Context, account string) ([]string, error) {
	domains, err := s.Domains(ctx, account)
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(domains)+1)
	lines = append(lines, "name,expiry,value,maxBid")
	for _, d := range domains {
		expiry := "N/A"
		if d.Stats.DaysUntilExpire != nil {
			days := *d.Stats.DaysUntilExpire
			expiry = s.now().
				Add(time.Duration(days * 24 * float64(time.Hour))).
				Format(reportTimeFormat)
		}
		lines = append(lines, fmt.Sprintf("%s,%s,%s,%s",
			d.Name, expiry, formatHNS(d.Value),
			formatHNS(d.HighestValue)))
	}
	return lines, nil
}

// formatHNS renders an amount in whole HNS without a unit suffix.
func formatHNS(a hnsutil.Amount) string {
	return strconv.FormatFloat(a.ToHNS(), 'f', -1, 64)
}
