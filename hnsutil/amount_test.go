// Copyright (c) 2024 The FireWallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package hnsutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewAmount(t *testing.T) {
	tests := []struct {
		name    string
		hns     float64
		want    Amount
		wantErr bool
	}{
		{name: "zero", hns: 0, want: 0},
		{name: "one HNS", hns: 1, want: 1e6},
		{name: "fractional", hns: 12.345678, want: 12345678},
		{name: "negative", hns: -2.5, want: -2500000},
		{name: "nan", hns: math.NaN(), wantErr: true},
		{name: "positive infinity", hns: math.Inf(1), wantErr: true},
		{name: "negative infinity", hns: math.Inf(-1), wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := NewAmount(test.hns)
			if test.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.want, got)
		})
	}
}

func TestAmountString(t *testing.T) {
	tests := []struct {
		amount Amount
		want   string
	}{
		{amount: 0, want: "0 HNS"},
		{amount: 1e6, want: "1 HNS"},
		{amount: 2500000, want: "2.5 HNS"},
		{amount: 600000, want: "0.6 HNS"},
		{amount: -1000000, want: "-1 HNS"},
	}

	for _, test := range tests {
		require.Equal(t, test.want, test.amount.String())
	}
}
