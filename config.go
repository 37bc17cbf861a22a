// Copyright (c) 2024 The FireWallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	flags "github.com/jessevdk/go-flags"

	"github.com/Nathanwoodburn/firewalletbrowser/netparams"
)

const (
	defaultConfigFilename = "firewallet.conf"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "firewallet.log"
	defaultHost           = "localhost"
	defaultCursorTTL      = time.Hour
	defaultSnapshotDays   = 90

	cacheDbName = "cache.db"
)

var (
	defaultHomeDir    = appHomeDir("firewallet")
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultDataDir    = defaultHomeDir
	defaultLogDir     = filepath.Join(defaultHomeDir, defaultLogDirname)
)

// config defines the configuration options for firewallet.
//
// See loadConfig for details on the configuration load process.
type config struct {
	// General application behavior
	ConfigFile  string `short:"C" long:"configfile" description:"Path to configuration file"`
	ShowVersion bool   `short:"V" long:"version" description:"Display version information and exit"`
	DataDir     string `short:"b" long:"datadir" description:"Directory to store the wallet caches"`
	LogDir      string `long:"logdir" description:"Directory to log output"`
	DebugLevel  string `short:"d" long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical}"`

	// Network selection
	TestNet bool `long:"testnet" description:"Use the test network (default mainnet)"`
	Regtest bool `long:"regtest" description:"Use the regression test network"`
	SimNet  bool `long:"simnet" description:"Use the simulation test network"`

	// Daemon connection options
	Host       string `long:"host" description:"Hostname/IP of the hsd and hsw daemons"`
	APIKey     string `long:"apikey" default-mask:"-" description:"API key for hsd and hsw authentication"`
	NodePort   string `long:"nodeport" description:"hsd node HTTP port (default per network)"`
	WalletPort string `long:"walletport" description:"hsw wallet HTTP port (default per network)"`
	Wallet     string `long:"wallet" description:"Wallet id to operate on (default: default)"`

	// Light client options
	SPV    bool   `long:"spv" description:"Backing node is a light client; serve name queries from the snapshot cache via an external aggregation service"`
	SPVAPI string `long:"spvapi" description:"Base URL of the read-only domain aggregation service (required with --spv)"`

	// Cache tuning
	CursorTTL    time.Duration `long:"cursorttl" description:"How long a history page cursor stays fresh"`
	SnapshotDays int           `long:"snapshotdays" description:"How many days a domain snapshot stays fresh"`

	params *netparams.Params
}

// appHomeDir returns an operating system specific application directory,
// ~/.name on Unix-like systems.
func appHomeDir(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + name
	}
	return filepath.Join(home, "."+name)
}

// cleanAndExpandPath expands environment variables and a leading ~ in a
// path, then cleans it.
func cleanAndExpandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	return filepath.Clean(os.ExpandEnv(path))
}

// loadConfig initializes and parses the config using a config file and
// command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
func loadConfig() (*config, []string, error) {
	cfg := config{
		ConfigFile:   defaultConfigFile,
		DataDir:      defaultDataDir,
		LogDir:       defaultLogDir,
		DebugLevel:   defaultLogLevel,
		Host:         defaultHost,
		Wallet:       "default",
		CursorTTL:    defaultCursorTTL,
		SnapshotDays: defaultSnapshotDays,
	}

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified.
	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.Default)
	_, err := preParser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); !ok || e.Type != flags.ErrHelp {
			preParser.WriteHelp(os.Stderr)
		}
		return nil, nil, err
	}

	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version())
		os.Exit(0)
	}

	// Load additional config from file.
	var configFileError error
	parser := flags.NewParser(&cfg, flags.Default)
	err = flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
	if err != nil {
		if _, ok := err.(*os.PathError); !ok {
			fmt.Fprintln(os.Stderr, err)
			parser.WriteHelp(os.Stderr)
			return nil, nil, err
		}
		configFileError = err
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); !ok || e.Type != flags.ErrHelp {
			parser.WriteHelp(os.Stderr)
		}
		return nil, nil, err
	}

	// Multiple networks can't be selected simultaneously.
	numNets := 0
	for _, b := range []bool{cfg.TestNet, cfg.Regtest, cfg.SimNet} {
		if b {
			numNets++
		}
	}
	if numNets > 1 {
		err := fmt.Errorf("%s: the testnet, regtest and simnet "+
			"params may not be used together; choose one", appName)
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, err
	}
	switch {
	case cfg.TestNet:
		cfg.params = &netparams.TestNetParams
	case cfg.Regtest:
		cfg.params = &netparams.RegressionNetParams
	case cfg.SimNet:
		cfg.params = &netparams.SimNetParams
	default:
		cfg.params = &netparams.MainNetParams
	}
	if cfg.NodePort == "" {
		cfg.NodePort = cfg.params.NodeRPCPort
	}
	if cfg.WalletPort == "" {
		cfg.WalletPort = cfg.params.WalletRPCPort
	}

	if cfg.SPV && cfg.SPVAPI == "" {
		err := fmt.Errorf("%s: --spv requires --spvapi", appName)
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, err
	}
	if cfg.SnapshotDays < 1 {
		err := fmt.Errorf("%s: snapshotdays must be at least 1",
			appName)
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, err
	}

	cfg.DataDir = cleanAndExpandPath(cfg.DataDir)
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)

	// Append the network name to the data and log directories so data
	// for different networks never mixes.
	cfg.DataDir = filepath.Join(cfg.DataDir, cfg.params.Name)
	cfg.LogDir = filepath.Join(cfg.LogDir, cfg.params.Name)

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", supportedSubsystems())
		os.Exit(0)
	}
	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		err := fmt.Errorf("%s: %v", appName, err)
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, err
	}

	// Warn about missing config file after the final command line parse
	// succeeds.  This prevents the warning on help messages and invalid
	// options.
	if configFileError != nil {
		log.Warnf("%v", configFileError)
	}

	return &cfg, remainingArgs, nil
}
