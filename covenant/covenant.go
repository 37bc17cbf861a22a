// Copyright (c) 2024 The FireWallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package covenant decodes the name-auction covenants attached to
// Handshake transaction outputs into typed actions and fields.  All
// functions are pure; malformed records are reported as DecodeError
// values so callers can skip a single record without aborting a batch.
package covenant

import (
	"encoding/hex"
	"fmt"

	"github.com/Nathanwoodburn/firewalletbrowser/hnsutil"
)

// Action identifies the name-auction operation encoded by a covenant.
// The values match the covenant types enforced by the protocol.
type Action uint8

const (
	// None marks a plain payment output with no name semantics.
	None Action = iota

	// Claim marks the claiming of a reserved name.
	Claim

	// Open marks the opening of a new name auction.
	Open

	// Bid marks a blind bid on a name in its bidding period.
	Bid

	// Reveal marks the disclosure of a previously blind bid.
	Reveal

	// Redeem marks the redemption of a losing bid's lockup.
	Redeem

	// Register marks the initial registration of a won name.
	Register

	// Update marks a resource record update on a registered name.
	Update

	// Renew marks a renewal of a registered name.
	Renew

	// Transfer marks the start of an ownership transfer.
	Transfer

	// Finalize marks the completion of an ownership transfer.
	Finalize

	// Revoke marks the revocation of a compromised name.
	Revoke

	// Cancel marks the cancellation of a pending transfer.
	Cancel
)

var actionNames = map[Action]string{
	None:     "NONE",
	Claim:    "CLAIM",
	Open:     "OPEN",
	Bid:      "BID",
	Reveal:   "REVEAL",
	Redeem:   "REDEEM",
	Register: "REGISTER",
	Update:   "UPDATE",
	Renew:    "RENEW",
	Transfer: "TRANSFER",
	Finalize: "FINALIZE",
	Revoke:   "REVOKE",
	Cancel:   "CANCEL",
}

// String returns the protocol name of the action.
func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(a))
}

// ParseAction maps a protocol action name, as reported in the daemon's
// JSON covenant records, to its Action value.
func ParseAction(name string) (Action, bool) {
	for action, s := range actionNames {
		if s == name {
			return action, true
		}
	}
	return None, false
}

// nameHashSize is the size in bytes of a name hash digest.
const nameHashSize = 32

// bidNameItem is the covenant item index holding the plaintext name of a
// BID output.
const bidNameItem = 2

// DecodeError describes a malformed covenant record.  Decode errors are
// recoverable: the offending record is skipped and processing continues.
type DecodeError struct {
	Action Action
	Field  string
	Err    error
}

// Error satisfies the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("covenant %v: bad %s: %v", e.Action, e.Field, e.Err)
}

// Unwrap returns the underlying cause.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErrorf(action Action, field, format string,
	args ...interface{}) *DecodeError {

	return &DecodeError{
		Action: action,
		Field:  field,
		Err:    fmt.Errorf(format, args...),
	}
}

// Output is a decoded covenant attached to a transaction output, together
// with the output's value and covered address.
type Output struct {
	// Action is the name operation the covenant encodes.
	Action Action

	// Items holds the covenant's opaque data items.  Item 0 is the
	// name hash for every action other than None.
	Items [][]byte

	// Value is the output value in dollarydoos.
	Value hnsutil.Amount

	// Address is the address the covenant covers.
	Address string
}

// Parse decodes a raw covenant record as reported by the daemon: the
// action name and the hex encoded data items.
func Parse(action string, items []string, value int64, address string) (*Output, error) {
	act, ok := ParseAction(action)
	if !ok {
		return nil, decodeErrorf(None, "action", "unknown action %q", action)
	}

	decoded := make([][]byte, len(items))
	for i, item := range items {
		b, err := hex.DecodeString(item)
		if err != nil {
			return nil, decodeErrorf(act, fmt.Sprintf("items[%d]", i),
				"invalid hex: %v", err)
		}
		decoded[i] = b
	}

	out := &Output{
		Action:  act,
		Items:   decoded,
		Value:   hnsutil.Amount(value),
		Address: address,
	}

	if act != None {
		if _, err := out.NameHash(); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// NameHash returns the covenant's name hash (item 0).  Every action other
// than None carries one.
func (o *Output) NameHash() ([]byte, error) {
	if o.Action == None {
		return nil, decodeErrorf(o.Action, "items[0]",
			"action carries no name hash")
	}
	if len(o.Items) == 0 {
		return nil, decodeErrorf(o.Action, "items[0]", "missing item")
	}
	if len(o.Items[0]) != nameHashSize {
		return nil, decodeErrorf(o.Action, "items[0]",
			"name hash is %d bytes, want %d", len(o.Items[0]),
			nameHashSize)
	}
	return o.Items[0], nil
}

// BidName returns the plaintext domain name embedded in a BID covenant.
// The protocol guarantees names are ASCII, so any non-ASCII byte marks a
// corrupt record and is reported as a DecodeError.
func (o *Output) BidName() (string, error) {
	if o.Action != Bid {
		return "", decodeErrorf(o.Action, "items[2]",
			"action carries no embedded name")
	}
	if len(o.Items) <= bidNameItem {
		return "", decodeErrorf(o.Action, "items[2]", "missing item")
	}

	name := o.Items[bidNameItem]
	if len(name) == 0 {
		return "", decodeErrorf(o.Action, "items[2]", "empty name")
	}
	for _, b := range name {
		if b >= 0x80 {
			return "", decodeErrorf(o.Action, "items[2]",
				"non-ASCII byte 0x%02x in name", b)
		}
	}

	return string(name), nil
}
