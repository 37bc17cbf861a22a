// Copyright (c) 2024 The FireWallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package hnsrpc

// NodeInfo is the subset of the node's info payload the wallet layer
// consumes.
type NodeInfo struct {
	Version string `json:"version"`
	Network string `json:"network"`
	Chain   struct {
		Height   int32   `json:"height"`
		Progress float64 `json:"progress"`
	} `json:"chain"`
}

// Covenant is the raw name covenant attached to an output, with its data
// items still hex encoded.  The covenant package decodes these.
type Covenant struct {
	Type   int      `json:"type"`
	Action string   `json:"action"`
	Items  []string `json:"items"`
}

// Outpoint references a previous transaction output.
type Outpoint struct {
	Hash  string `json:"hash"`
	Index uint32 `json:"index"`
}

// Path is the wallet derivation path of an address.  Its presence on an
// input or output marks the coin as belonging to the wallet.
type Path struct {
	Name       string `json:"name"`
	Account    uint32 `json:"account"`
	Change     bool   `json:"change"`
	Derivation string `json:"derivation"`
}

// Coin is a previous output referenced by a transaction input.
type Coin struct {
	Version  int      `json:"version"`
	Height   int32    `json:"height"`
	Value    int64    `json:"value"`
	Address  string   `json:"address"`
	Covenant Covenant `json:"covenant"`
}

// TxInput is a transaction input together with the coin it spends, when
// the daemon knows it.
type TxInput struct {
	Prevout Outpoint `json:"prevout"`
	Coin    *Coin    `json:"coin"`
	Path    *Path    `json:"path"`
}

// TxOutput is a transaction output with its covenant.
type TxOutput struct {
	Value    int64    `json:"value"`
	Address  string   `json:"address"`
	Covenant Covenant `json:"covenant"`
	Path     *Path    `json:"path"`
}

// Tx is a wallet or mempool transaction as reported by the daemon.
type Tx struct {
	Hash          string      `json:"hash"`
	Height        int32       `json:"height"`
	Confirmations int32       `json:"confirmations"`
	Fee           int64       `json:"fee"`
	MTime         int64       `json:"mtime"`
	Date          string      `json:"date"`
	Inputs        []*TxInput  `json:"inputs"`
	Outputs       []*TxOutput `json:"outputs"`
}

// Balance is the wallet's balance summary in dollarydoos.
type Balance struct {
	Confirmed         int64 `json:"confirmed"`
	Unconfirmed       int64 `json:"unconfirmed"`
	LockedConfirmed   int64 `json:"lockedConfirmed"`
	LockedUnconfirmed int64 `json:"lockedUnconfirmed"`
}

// NameStats holds the per-state countdown statistics of a name.  Fields
// are only present in the states where they are meaningful.
type NameStats struct {
	RenewalPeriodStart int32    `json:"renewalPeriodStart"`
	RenewalPeriodEnd   int32    `json:"renewalPeriodEnd"`
	BlocksUntilExpire  *int32   `json:"blocksUntilExpire"`
	DaysUntilExpire    *float64 `json:"daysUntilExpire"`
	BidPeriodStart     int32    `json:"bidPeriodStart"`
	BidPeriodEnd       int32    `json:"bidPeriodEnd"`
	BlocksUntilBidding *int32   `json:"blocksUntilBidding"`
	BlocksUntilReveal  *int32   `json:"blocksUntilReveal"`
	BlocksUntilClose   *int32   `json:"blocksUntilClose"`
}

// NameInfo is a point-in-time snapshot of a name's protocol state.
type NameInfo struct {
	Name       string     `json:"name"`
	NameHash   string     `json:"nameHash"`
	State      string     `json:"state"`
	Height     int32      `json:"height"`
	Renewal    int32      `json:"renewal"`
	Owner      Outpoint   `json:"owner"`
	Value      int64      `json:"value"`
	Highest    int64      `json:"highest"`
	Transfer   int32      `json:"transfer"`
	Revoked    int32      `json:"revoked"`
	Claimed    int32      `json:"claimed"`
	Registered bool       `json:"registered"`
	Expired    bool       `json:"expired"`
	Weak       bool       `json:"weak"`
	Stats      *NameStats `json:"stats"`
}

// AccountInfo is the subset of the wallet account payload the upper
// layers consume.  AccountKey is the account's extended public key and
// serves as a stable identity for cache keys.
type AccountInfo struct {
	Name           string `json:"name"`
	AccountKey     string `json:"accountKey"`
	ReceiveAddress string `json:"receiveAddress"`
	Balance        struct {
		Confirmed   int64 `json:"confirmed"`
		Unconfirmed int64 `json:"unconfirmed"`
	} `json:"balance"`
}
