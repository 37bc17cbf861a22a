// Copyright (c) 2024 The FireWallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// dropcaches deletes the page-cursor and domain snapshot caches from a
// firewallet cache database.  Both caches rebuild themselves from the
// daemons on the next read, so dropping them only costs latency and a
// temporary locked-value undercount, never correctness.
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcwallet/walletdb"
	_ "github.com/btcsuite/btcwallet/walletdb/bdb"
	flags "github.com/jessevdk/go-flags"
)

const defaultNet = "mainnet"

// Flags.
var opts = struct {
	Force  bool   `short:"f" description:"Force removal without prompt"`
	DbPath string `long:"db" description:"Path to cache database"`
}{
	Force: false,
	DbPath: filepath.Join(defaultAppDir(), defaultNet,
		"cache.db"),
}

func defaultAppDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".firewallet"
	}
	return filepath.Join(home, ".firewallet")
}

func init() {
	_, err := flags.Parse(&opts)
	if err != nil {
		os.Exit(1)
	}
}

// Cache bucket keys.
var (
	cursorBucket = []byte("page-cursors")
	infoBucket   = []byte("domain-info")
)

func yes(s string) bool {
	switch s {
	case "y", "Y", "yes", "Yes":
		return true
	default:
		return false
	}
}

func no(s string) bool {
	switch s {
	case "n", "N", "no", "No":
		return true
	default:
		return false
	}
}

func main() {
	os.Exit(mainInt())
}

func mainInt() int {
	fmt.Println("Database path:", opts.DbPath)
	_, err := os.Stat(opts.DbPath)
	if os.IsNotExist(err) {
		fmt.Println("Database file does not exist")
		return 1
	}

	for !opts.Force {
		fmt.Print("Drop all firewallet caches? [y/N] ")

		scanner := bufio.NewScanner(bufio.NewReader(os.Stdin))
		if !scanner.Scan() {
			// Exit on EOF.
			return 0
		}
		err := scanner.Err()
		if err != nil {
			fmt.Println()
			fmt.Println(err)
			return 1
		}
		resp := scanner.Text()
		if yes(resp) {
			break
		}
		if no(resp) || resp == "" {
			return 0
		}

		fmt.Println("Enter yes or no.")
	}

	db, err := walletdb.Open("bdb", opts.DbPath, true, 10*time.Second)
	if err != nil {
		fmt.Println("Failed to open database:", err)
		return 1
	}
	defer db.Close()

	err = walletdb.Update(db, func(tx walletdb.ReadWriteTx) error {
		for _, bucket := range [][]byte{cursorBucket, infoBucket} {
			fmt.Printf("Dropping %s\n", bucket)
			err := tx.DeleteTopLevelBucket(bucket)
			if err != nil && err != walletdb.ErrBucketNotFound {
				return err
			}
			if _, err := tx.CreateTopLevelBucket(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		fmt.Println("Failed to drop and re-create caches:", err)
		return 1
	}

	return 0
}
