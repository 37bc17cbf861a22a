// Copyright (c) 2024 The FireWallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package auction derives a domain's display state and next available
// action from the protocol state reported by the daemon.  Everything in
// this package is a pure function of its inputs.
package auction

import (
	"fmt"
	"strconv"

	"github.com/Nathanwoodburn/firewalletbrowser/hnsutil"
)

// State is the protocol state of a name as reported by the daemon.
type State uint8

const (
	// StateOpening is the period between an OPEN and the start of
	// bidding.
	StateOpening State = iota

	// StateBidding is the blind bidding period.
	StateBidding

	// StateReveal is the period in which bids must be revealed.
	StateReveal

	// StateClosed means the auction has ended; the name is either
	// registered or awaiting registration by the winner.
	StateClosed

	// StateRevoked means the name was revoked and will reopen.
	StateRevoked
)

var stateNames = map[State]string{
	StateOpening: "OPENING",
	StateBidding: "BIDDING",
	StateReveal:  "REVEAL",
	StateClosed:  "CLOSED",
	StateRevoked: "REVOKED",
}

// String returns the protocol name of the state.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(s))
}

// ParseState maps a protocol state name from the daemon's JSON to its
// State value.
func ParseState(name string) (State, bool) {
	for state, s := range stateNames {
		if s == name {
			return state, true
		}
	}
	return StateClosed, false
}

// Stats holds the per-state countdown statistics of a name.  Each field
// is only present in the states where it is meaningful.
type Stats struct {
	DaysUntilExpire    *float64
	BlocksUntilBidding *int32
	BlocksUntilReveal  *int32
	BlocksUntilClose   *int32
}

// Domain is a read-only snapshot of a name's protocol state.
type Domain struct {
	Name           string
	State          State
	Registered     bool
	TransferHeight int32
	Height         int32
	Value          hnsutil.Amount
	HighestValue   hnsutil.Amount
	Stats          Stats
}

// DisplayState is the state shown to the user, derived from the protocol
// state, the registration flag and ownership.
type DisplayState uint8

const (
	// DisplayAvailable means the name can be opened for auction.
	DisplayAvailable DisplayState = iota

	// DisplayRegistered means the name is registered to an owner.
	DisplayRegistered

	// DisplayPendingRegister means the caller won the auction and can
	// register the name.
	DisplayPendingRegister

	// DisplayOpening mirrors StateOpening.
	DisplayOpening

	// DisplayBidding mirrors StateBidding.
	DisplayBidding

	// DisplayReveal mirrors StateReveal.
	DisplayReveal

	// DisplayClosed is the fallback for a closed name whose ownership
	// could not be classified.
	DisplayClosed
)

// String returns a display name for the state.
func (s DisplayState) String() string {
	switch s {
	case DisplayAvailable:
		return "AVAILABLE"
	case DisplayRegistered:
		return "REGISTERED"
	case DisplayPendingRegister:
		return "PENDING REGISTER"
	case DisplayOpening:
		return "OPENING"
	case DisplayBidding:
		return "BIDDING"
	case DisplayReveal:
		return "REVEAL"
	case DisplayClosed:
		return "CLOSED"
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(s))
}

// NextAction is the hint for the next operation the user can perform on
// a name.
type NextAction uint8

const (
	// ActionNone means no operation is currently available.
	ActionNone NextAction = iota

	// ActionOpenAuction means the name can be opened for auction.
	ActionOpenAuction

	// ActionRegister means the caller won the auction and must
	// register the name.
	ActionRegister

	// ActionManage means the caller owns the name and can manage it.
	ActionManage

	// ActionRevealAll means the caller's bids can be revealed.
	ActionRevealAll
)

// String returns the hint text for the action.
func (a NextAction) String() string {
	switch a {
	case ActionNone:
		return ""
	case ActionOpenAuction:
		return "open auction"
	case ActionRegister:
		return "register"
	case ActionManage:
		return "manage"
	case ActionRevealAll:
		return "reveal all"
	}
	return ""
}

// Display is the derived presentation of a name: the display state, a
// human readable status line, and the next available action.
type Display struct {
	State  DisplayState
	Text   string
	Action NextAction
}

// NextState derives the display state, status text and next action for
// the given domain snapshot.  isOwned reports whether the caller's wallet
// owns the name (or its winning bid).  The function is pure: repeated
// calls with the same inputs yield the same output.
func NextState(d *Domain, isOwned bool) Display {
	switch d.State {
	case StateClosed:
		if !d.Registered {
			if isOwned {
				return Display{
					State:  DisplayPendingRegister,
					Text:   "Awaiting registration",
					Action: ActionRegister,
				}
			}
			return Display{
				State:  DisplayAvailable,
				Text:   "Available now",
				Action: ActionOpenAuction,
			}
		}

		text := fmt.Sprintf("Expires in %s days",
			formatDays(d.Stats.DaysUntilExpire))
		action := ActionNone
		if isOwned {
			action = ActionManage
		}
		return Display{
			State:  DisplayRegistered,
			Text:   text,
			Action: action,
		}

	case StateRevoked:
		return Display{
			State:  DisplayAvailable,
			Text:   "Available now",
			Action: ActionOpenAuction,
		}

	case StateOpening:
		blocks := statInt(d.Stats.BlocksUntilBidding)
		return Display{
			State: DisplayOpening,
			Text: fmt.Sprintf("Bidding opens in %d blocks (~%s)",
				blocks, mustBlocksToTime(blocks)),
		}

	case StateBidding:
		blocks := statInt(d.Stats.BlocksUntilReveal)
		text := fmt.Sprintf("Reveal in %d blocks (~%s)",
			blocks, mustBlocksToTime(blocks))

		// The protocol stops accepting bids one block before the
		// reveal period starts, so the countdown shown to the user
		// runs out two blocks early.
		switch {
		case blocks == 1:
			text += ". Bidding no longer possible"
		case blocks == 2:
			text += ". LAST CHANCE TO BID"
		case blocks == 3:
			text += ". Next block is last chance to bid"
		case blocks == 4 || blocks == 5:
			text += fmt.Sprintf(". Last chance to bid in %d blocks",
				blocks-2)
		}
		return Display{
			State: DisplayBidding,
			Text:  text,
		}

	case StateReveal:
		blocks := statInt(d.Stats.BlocksUntilClose)
		return Display{
			State: DisplayReveal,
			Text: fmt.Sprintf("Reveal ends in %d blocks (~%s)",
				blocks, mustBlocksToTime(blocks)),
			Action: ActionRevealAll,
		}
	}

	return Display{State: DisplayClosed}
}

// TransferLockup is the number of blocks an ownership transfer is locked
// before it can be finalized, roughly two days at the target block rate.
const TransferLockup = 288

// TransferStatus returns the finalize countdown for a name with a
// transfer in progress, or the empty string if no transfer is pending.
func TransferStatus(transferHeight, currentHeight int32) string {
	if transferHeight == 0 {
		return ""
	}

	finalizeAt := transferHeight + TransferLockup
	if currentHeight < finalizeAt {
		blocks := finalizeAt - currentHeight
		return fmt.Sprintf("Finalize available in %d blocks (~%s)",
			blocks, mustBlocksToTime(blocks))
	}
	return "Finalize available now"
}

// blocksPerHour and blocksPerDay assume the ten minute target block
// interval.
const (
	blocksPerHour = 6
	blocksPerDay  = 144
)

// BlocksToTime converts a block count into an approximate human readable
// duration assuming ten minute blocks.  Negative counts are rejected.
func BlocksToTime(blocks int32) (string, error) {
	switch {
	case blocks < 0:
		return "", fmt.Errorf("negative block count %d", blocks)

	case blocks < blocksPerHour:
		return fmt.Sprintf("%d mins", blocks*10), nil

	case blocks < blocksPerDay:
		hours := blocks / blocksPerHour
		mins := blocks % blocksPerHour * 10
		if mins == 0 {
			return fmt.Sprintf("%d hrs", hours), nil
		}
		return fmt.Sprintf("%d hrs %d mins", hours, mins), nil

	default:
		days := blocks / blocksPerDay
		hours := blocks % blocksPerDay / blocksPerHour
		if hours == 0 {
			return fmt.Sprintf("%d days", days), nil
		}
		return fmt.Sprintf("%d days %d hrs", days, hours), nil
	}
}

// mustBlocksToTime is BlocksToTime for counts already known to be
// non-negative.
func mustBlocksToTime(blocks int32) string {
	if blocks < 0 {
		return "unknown"
	}
	s, _ := BlocksToTime(blocks)
	return s
}

func statInt(v *int32) int32 {
	if v == nil {
		return 0
	}
	return *v
}

func formatDays(v *float64) string {
	if v == nil {
		return "unknown"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
