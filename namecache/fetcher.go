// Copyright (c) 2024 The FireWallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package namecache

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Nathanwoodburn/firewalletbrowser/hnsrpc"
)

// defaultFetchTimeout bounds aggregation service requests.  The service
// is remote and best effort, so the bound is looser than for the local
// daemon.
const defaultFetchTimeout = 30 * time.Second

// Client fetches domain snapshots from an HTTP aggregation service
// exposing per-domain state lookups.
type Client struct {
	base   string
	client *http.Client
}

// A compile-time check to ensure that Client satisfies the Fetcher
// interface.
var _ Fetcher = (*Client)(nil)

// NewClient creates a fetcher for the aggregation service at the given
// base URL.  A zero timeout selects the default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

// FetchNameInfo fetches the current protocol state of a name.
func (c *Client) FetchNameInfo(ctx context.Context, name string) (*hnsrpc.NameInfo, error) {
	endpoint := c.base + "/domain/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint,
		nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, hnsrpc.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("aggregation service status %d",
			resp.StatusCode)
	}

	var info hnsrpc.NameInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decoding domain info: %w", err)
	}
	return &info, nil
}
