// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/respack/lib/respack"
	"github.com/bureau-foundation/respack/lib/respack/decode"
)

func runExtract(args []string) error {
	flagSet := pflag.NewFlagSet("respack extract", pflag.ContinueOnError)
	var (
		path    string
		out     string
		keyring string
		verbose bool
	)
	flagSet.StringVar(&path, "path", "", "entry or directory to extract (default: whole archive)")
	flagSet.StringVarP(&out, "out", "o", ".", "destination directory")
	flagSet.StringVar(&keyring, "keyring", "", "YAML keyring file for encrypted entries")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log each extracted entry")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	archivePaths := flagSet.Args()
	if len(archivePaths) == 0 {
		return fmt.Errorf("extract needs at least one archive")
	}

	stack, pipeline, err := openStack(archivePaths, keyring, 0)
	if err != nil {
		return err
	}
	defer stack.Close()

	logger := newLogger(verbose)

	resolved, err := stack.Resolve(path)
	if err != nil {
		return err
	}
	if !resolved.IsDir {
		destination := filepath.Join(out, filepath.Base(resolved.Entry.Path))
		return extractEntry(pipeline, resolved, destination)
	}

	root := respack.CleanPath(path)
	return extractTree(stack, pipeline, root, out, logger)
}

// extractTree walks a directory recursively, extracting every entry
// under it. Entry failures are reported and skipped: one corrupt entry
// must not make the rest of the archive unextractable.
func extractTree(stack *respack.Stack, pipeline *decode.Pipeline, dir, out string, logger *slog.Logger) error {
	children, err := stack.ListChildren(dir)
	if err != nil {
		return err
	}

	for _, child := range children {
		childPath := child.Name
		if dir != "" {
			childPath = dir + "/" + child.Name
		}

		if child.IsDir {
			if err := extractTree(stack, pipeline, childPath, out, logger); err != nil {
				return err
			}
			continue
		}

		resolved, err := stack.Resolve(childPath)
		if err != nil {
			return err
		}

		destination := filepath.Join(out, filepath.FromSlash(childPath))
		if err := extractEntry(pipeline, resolved, destination); err != nil {
			logger.Error("skipping unreadable entry", "path", childPath, "error", err)
			continue
		}
		logger.Info("extracted", "path", childPath, "bytes", resolved.Entry.RawSize)
	}
	return nil
}

func extractEntry(pipeline *decode.Pipeline, resolved respack.Resolved, destination string) error {
	content, err := pipeline.Materialize(resolved.Archive, resolved.Entry)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", destination, err)
	}
	if err := os.WriteFile(destination, content, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", destination, err)
	}
	return nil
}
