// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	respackfuse "github.com/bureau-foundation/respack/lib/respack/fuse"
	"github.com/bureau-foundation/respack/lib/respack/mountfs"
)

func runMount(args []string) error {
	flagSet := pflag.NewFlagSet("respack mount", pflag.ContinueOnError)
	var (
		keyring    string
		cacheBytes int64
		allowOther bool
		verbose    bool
	)
	flagSet.StringVar(&keyring, "keyring", "", "YAML keyring file for encrypted entries")
	flagSet.Int64Var(&cacheBytes, "cache-bytes", 0, "decoded-content cache budget in bytes (default 64 MiB)")
	flagSet.BoolVar(&allowOther, "allow-other", false, "permit other users to access the mount")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	positional := flagSet.Args()
	if len(positional) < 2 {
		return fmt.Errorf("mount needs at least one archive and a mountpoint")
	}
	archivePaths := positional[:len(positional)-1]
	mountpoint := positional[len(positional)-1]

	logger := newLogger(verbose)

	stack, pipeline, err := openStack(archivePaths, keyring, cacheBytes)
	if err != nil {
		return err
	}
	defer stack.Close()

	adapter := mountfs.New(stack, pipeline)

	server, err := respackfuse.Mount(respackfuse.Options{
		Mountpoint: mountpoint,
		FS:         adapter,
		AllowOther: allowOther,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	// Unmount on SIGINT/SIGTERM; Wait returns once the kernel
	// connection closes (our unmount or an external fusermount -u).
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		logger.Info("unmounting", "mountpoint", mountpoint)
		if err := server.Unmount(); err != nil {
			logger.Error("unmount failed; retry with fusermount -u", "error", err)
		}
	}()

	server.Wait()
	return nil
}
