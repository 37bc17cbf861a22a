// Copyright (c) 2024 The FireWallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"os/signal"
	"syscall"
)

// interruptChannel is used to receive SIGINT (Ctrl+C) and SIGTERM
// signals.
var interruptChannel chan os.Signal

// addHandlerChannel is used to add an interrupt handler to the list of
// handlers to be invoked on received interrupt signals.
var addHandlerChannel = make(chan func())

// interruptHandlersDone is closed after all interrupt handlers run the
// first time an interrupt is signaled.
var interruptHandlersDone = make(chan struct{})

// mainInterruptHandler listens for interrupt signals and invokes the
// registered handlers in LIFO order.  It must be run as a goroutine.
func mainInterruptHandler() {
	var interruptCallbacks []func()

	for {
		select {
		case sig := <-interruptChannel:
			log.Infof("Received signal (%s).  Shutting down...",
				sig)
			for i := range interruptCallbacks {
				idx := len(interruptCallbacks) - 1 - i
				interruptCallbacks[idx]()
			}
			close(interruptHandlersDone)
			return

		case handler := <-addHandlerChannel:
			interruptCallbacks = append(interruptCallbacks,
				handler)
		}
	}
}

// addInterruptHandler adds a handler to call when an interrupt signal is
// received.
func addInterruptHandler(handler func()) {
	// Create the channel and start the main interrupt handler which
	// invokes all other callbacks and exits if not already done.
	if interruptChannel == nil {
		interruptChannel = make(chan os.Signal, 1)
		signal.Notify(interruptChannel, os.Interrupt, syscall.SIGTERM)
		go mainInterruptHandler()
	}

	addHandlerChannel <- handler
}
