// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// respack is the command-line surface over the packed-resource archive
// reader: it lists archive trees, extracts entries to real files,
// decodes packed metadata blobs, and mounts one or more archives as a
// read-only filesystem.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/bureau-foundation/respack/lib/respack"
	"github.com/bureau-foundation/respack/lib/respack/crypt"
	"github.com/bureau-foundation/respack/lib/respack/decode"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return nil
	}

	switch args[0] {
	case "list":
		return runList(args[1:])
	case "extract":
		return runExtract(args[1:])
	case "show":
		return runShow(args[1:])
	case "mount":
		return runMount(args[1:])
	case "help", "--help", "-h":
		printUsage()
		return nil
	default:
		return fmt.Errorf("unknown command %q (run 'respack help')", args[0])
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `respack: read-only access to packed-resource archives.

Usage:
  respack list [--path DIR] [-r] [-l] <archive>...
  respack extract [--path ENTRY] [-o DIR] <archive>...
  respack show --path ENTRY <archive>...
  respack mount [flags] <archive>... <mountpoint>

Commands:
  list     List entries under a path (default: the archive root).
  extract  Decode an entry, or a whole subtree, into real files.
  show     Decode a packed metadata entry and print its value tree.
  mount    Mount the archives as a read-only filesystem.

Multiple archives layer into one tree; later archives shadow earlier
ones. Pass --keyring for archives with encrypted entries.
`)
}

// newLogger builds the CLI's diagnostic logger. Verbose switches the
// level from warnings to full info/debug output.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openStack opens the named archives as a layered stack and builds the
// decode pipeline, loading the keyring when one is configured.
func openStack(archivePaths []string, keyringPath string, cacheBytes int64) (*respack.Stack, *decode.Pipeline, error) {
	var keyring *crypt.Keyring
	if keyringPath != "" {
		loaded, err := crypt.LoadKeyring(keyringPath)
		if err != nil {
			return nil, nil, err
		}
		keyring = loaded
	}

	archives := make([]*respack.Archive, 0, len(archivePaths))
	for _, path := range archivePaths {
		archive, err := respack.Open(path)
		if err != nil {
			for _, opened := range archives {
				opened.Close()
			}
			return nil, nil, err
		}
		archives = append(archives, archive)
	}

	stack, err := respack.NewStack(archives...)
	if err != nil {
		for _, opened := range archives {
			opened.Close()
		}
		return nil, nil, err
	}

	pipeline := decode.New(decode.Options{Keyring: keyring, CacheBytes: cacheBytes})
	return stack, pipeline, nil
}
