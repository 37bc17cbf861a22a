// Copyright (c) 2024 The FireWallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package hnsutil

import (
	"errors"
	"math"
	"strconv"
)

// Amount represents a quantity of HNS expressed as an integer count of
// dollarydoos, the smallest transactable unit of the Handshake chain.
// One HNS is one million dollarydoos.
type Amount int64

// DoosPerHNS is the number of dollarydoos in one HNS.
const DoosPerHNS = 1e6

// NewAmount converts a floating point HNS value to an Amount.  It errors
// on NaN and +-Infinity, which have no reasonable integer conversion.
func NewAmount(hns float64) (Amount, error) {
	switch {
	case math.IsNaN(hns), math.IsInf(hns, 1), math.IsInf(hns, -1):
		return 0, errors.New("invalid HNS amount")
	}

	return Amount(math.Round(hns * DoosPerHNS)), nil
}

// ToHNS returns the floating point value of the amount in whole HNS.
func (a Amount) ToHNS() float64 {
	return float64(a) / DoosPerHNS
}

// String formats the amount as a whole HNS value followed by the currency
// ticker, with trailing zeros in the fractional part removed.
func (a Amount) String() string {
	return strconv.FormatFloat(a.ToHNS(), 'f', -1, 64) + " HNS"
}
