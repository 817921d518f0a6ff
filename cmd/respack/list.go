// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/respack/lib/respack"
)

func runList(args []string) error {
	flagSet := pflag.NewFlagSet("respack list", pflag.ContinueOnError)
	var (
		path      string
		recursive bool
		long      bool
		keyring   string
	)
	flagSet.StringVar(&path, "path", "", "directory to list (default: archive root)")
	flagSet.BoolVarP(&recursive, "recursive", "r", false, "descend into subdirectories")
	flagSet.BoolVarP(&long, "long", "l", false, "show sizes and transform flags")
	flagSet.StringVar(&keyring, "keyring", "", "YAML keyring file for encrypted entries")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	archivePaths := flagSet.Args()
	if len(archivePaths) == 0 {
		return fmt.Errorf("list needs at least one archive")
	}

	stack, _, err := openStack(archivePaths, keyring, 0)
	if err != nil {
		return err
	}
	defer stack.Close()

	return listTree(stack, respack.CleanPath(path), recursive, long)
}

func listTree(stack *respack.Stack, dir string, recursive, long bool) error {
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
			fmt.Printf("%s/\n", childPath)
			if recursive {
				if err := listTree(stack, childPath, recursive, long); err != nil {
					return err
				}
			}
			continue
		}

		if !long {
			fmt.Println(childPath)
			continue
		}

		resolved, err := stack.Resolve(childPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%10d  %-4s  %s\n", resolved.Entry.RawSize, flagString(resolved.Entry), childPath)
	}
	return nil
}

// flagString renders an entry's transform flags the way the original
// inspection tool does: one letter per transform, "-" for none.
func flagString(entry *respack.Entry) string {
	var letters []string
	if entry.Compressed() {
		letters = append(letters, "z")
	}
	if entry.Encrypted() {
		letters = append(letters, "e")
	}
	if entry.HasChecksum() {
		letters = append(letters, "c")
	}
	if len(letters) == 0 {
		return "-"
	}
	return strings.Join(letters, "")
}
