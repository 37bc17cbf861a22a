// Copyright (c) 2024 The FireWallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netparams

import "fmt"

// Params is used to group parameters for the various Handshake networks,
// namely the default hsd node and hsw wallet HTTP ports.
type Params struct {
	Name          string
	NodeRPCPort   string
	WalletRPCPort string
}

// MainNetParams contains parameters specific to running against an hsd
// node on the main network.
var MainNetParams = Params{
	Name:          "mainnet",
	NodeRPCPort:   "12037",
	WalletRPCPort: "12039",
}

// TestNetParams contains parameters specific to running against an hsd
// node on the test network.
var TestNetParams = Params{
	Name:          "testnet",
	NodeRPCPort:   "13037",
	WalletRPCPort: "13039",
}

// RegressionNetParams contains parameters specific to running against an
// hsd node on the regression test network.
var RegressionNetParams = Params{
	Name:          "regtest",
	NodeRPCPort:   "14037",
	WalletRPCPort: "14039",
}

// SimNetParams contains parameters specific to running against an hsd
// node on the simulation test network.
var SimNetParams = Params{
	Name:          "simnet",
	NodeRPCPort:   "15037",
	WalletRPCPort: "15039",
}

// ByName returns the network parameters matching the given network name.
func ByName(name string) (*Params, error) {
	switch name {
	case MainNetParams.Name:
		return &MainNetParams, nil
	case TestNetParams.Name:
		return &TestNetParams, nil
	case RegressionNetParams.Name:
		return &RegressionNetParams, nil
	case SimNetParams.Name:
		return &SimNetParams, nil
	}
	return nil, fmt.Errorf("unknown network %q", name)
}
