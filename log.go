// Copyright (c) 2024 The FireWallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"

	"github.com/Nathanwoodburn/firewalletbrowser/hnsrpc"
	"github.com/Nathanwoodburn/firewalletbrowser/mempool"
	"github.com/Nathanwoodburn/firewalletbrowser/namecache"
	"github.com/Nathanwoodburn/firewalletbrowser/txhistory"
	"github.com/Nathanwoodburn/firewalletbrowser/wallet"
)

// logWriter implements an io.Writer that outputs to both standard output
// and the write-end pipe of an initialized log rotator.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	os.Stdout.Write(p)
	if logRotator != nil {
		logRotator.Write(p)
	}
	return len(p), nil
}

// Loggers per subsystem.  A single backend logger is created and all
// subsystem loggers created from it will write to the backend.  When
// adding new subsystems, add the subsystem logger variable here and to
// the subsystemLoggers map.
//
// Loggers can not be used before the log rotator has been initialized
// with a log file.  This must be performed early during application
// startup by calling initLogRotator.
var (
	backendLog = btclog.NewBackend(logWriter{})

	// logRotator is one of the logging outputs.  It should be closed
	// on application shutdown.
	logRotator *rotator.Rotator

	log       = backendLog.Logger("FIRE")
	rpcLog    = backendLog.Logger("HRPC")
	mempLog   = backendLog.Logger("MEMP")
	histLog   = backendLog.Logger("HIST")
	namesLog  = backendLog.Logger("NAMC")
	walletLog = backendLog.Logger("WLLT")
)

// Initialize package-global logger variables.
func init() {
	hnsrpc.UseLogger(rpcLog)
	mempool.UseLogger(mempLog)
	txhistory.UseLogger(histLog)
	namecache.UseLogger(namesLog)
	wallet.UseLogger(walletLog)
}

// subsystemLoggers maps each subsystem identifier to its associated
// logger.
var subsystemLoggers = map[string]btclog.Logger{
	"FIRE": log,
	"HRPC": rpcLog,
	"MEMP": mempLog,
	"HIST": histLog,
	"NAMC": namesLog,
	"WLLT": walletLog,
}

// initLogRotator initializes the logging rotator to write logs to
// logFile and create roll files in the same directory.  It must be
// called before the package-global log rotator variables are used.
func initLogRotator(logFile string) {
	logDir, _ := filepath.Split(logFile)
	err := os.MkdirAll(logDir, 0700)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory: %v\n",
			err)
		os.Exit(1)
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create file rotator: %v\n",
			err)
		os.Exit(1)
	}

	logRotator = r
}

// setLogLevel sets the logging level for provided subsystem.  Invalid
// subsystems are ignored.
func setLogLevel(subsystemID string, logLevel string) {
	logger, ok := subsystemLoggers[subsystemID]
	if !ok {
		return
	}

	// Defaults to info if the log level is invalid.
	level, _ := btclog.LevelFromString(logLevel)
	logger.SetLevel(level)
}

// setLogLevels sets the log level for all subsystem loggers to the
// passed level.
func setLogLevels(logLevel string) {
	for subsystemID := range subsystemLoggers {
		setLogLevel(subsystemID, logLevel)
	}
}

// supportedSubsystems returns a sorted slice of the supported subsystems
// for logging purposes.
func supportedSubsystems() []string {
	subsystems := make([]string, 0, len(subsystemLoggers))
	for subsysID := range subsystemLoggers {
		subsystems = append(subsystems, subsysID)
	}
	sort.Strings(subsystems)
	return subsystems
}

// validLogLevel returns whether logLevel is a valid debug log level.
func validLogLevel(logLevel string) bool {
	_, ok := btclog.LevelFromString(logLevel)
	return ok
}

// parseAndSetDebugLevels attempts to parse the specified debug level and
// set the levels accordingly.  An appropriate error is returned if
// anything is invalid.
func parseAndSetDebugLevels(debugLevel string) error {
	// When the specified string doesn't have any delimiters, treat it
	// as the log level for all subsystems.
	if !strings.Contains(debugLevel, ",") &&
		!strings.Contains(debugLevel, "=") {

		if !validLogLevel(debugLevel) {
			return fmt.Errorf("the specified debug level [%v] "+
				"is invalid", debugLevel)
		}
		setLogLevels(debugLevel)
		return nil
	}

	// Split the specified string into subsystem/level pairs while
	// detecting issues and update the log levels accordingly.
	for _, logLevelPair := range strings.Split(debugLevel, ",") {
		if !strings.Contains(logLevelPair, "=") {
			return fmt.Errorf("the specified debug level "+
				"contains an invalid subsystem/level pair "+
				"[%v]", logLevelPair)
		}

		fields := strings.Split(logLevelPair, "=")
		subsysID, logLevel := fields[0], fields[1]

		if _, exists := subsystemLoggers[subsysID]; !exists {
			return fmt.Errorf("the specified subsystem [%v] is "+
				"invalid -- supported subsystems %v",
				subsysID, supportedSubsystems())
		}
		if !validLogLevel(logLevel) {
			return fmt.Errorf("the specified debug level [%v] "+
				"is invalid", logLevel)
		}

		setLogLevel(subsysID, logLevel)
	}

	return nil
}
