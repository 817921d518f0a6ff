// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/respack/lib/respack/packed"
)

func runShow(args []string) error {
	flagSet := pflag.NewFlagSet("respack show", pflag.ContinueOnError)
	var (
		path    string
		keyring string
	)
	flagSet.StringVar(&path, "path", "", "metadata entry to decode (required)")
	flagSet.StringVar(&keyring, "keyring", "", "YAML keyring file for encrypted entries")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	archivePaths := flagSet.Args()
	if len(archivePaths) == 0 {
		return fmt.Errorf("show needs at least one archive")
	}
	if path == "" {
		return fmt.Errorf("--path is required")
	}

	stack, pipeline, err := openStack(archivePaths, keyring, 0)
	if err != nil {
		return err
	}
	defer stack.Close()

	resolved, err := stack.Resolve(path)
	if err != nil {
		return err
	}
	if resolved.IsDir {
		return fmt.Errorf("%q is a directory, not a metadata entry", path)
	}

	content, err := pipeline.Materialize(resolved.Archive, resolved.Entry)
	if err != nil {
		return err
	}

	value, err := packed.Decode(content)
	if err != nil {
		return fmt.Errorf("decoding metadata entry %q: %w", path, err)
	}

	printValue(os.Stdout, value, 0)
	return nil
}

// printValue renders a decoded value tree with two-space indentation.
func printValue(out io.Writer, value packed.Value, indent int) {
	prefix := strings.Repeat("  ", indent)

	switch v := value.(type) {
	case packed.Null:
		fmt.Fprintf(out, "%snull\n", prefix)
	case packed.Bool:
		fmt.Fprintf(out, "%s%t\n", prefix, bool(v))
	case packed.Int:
		fmt.Fprintf(out, "%s%d\n", prefix, int64(v))
	case packed.Float:
		fmt.Fprintf(out, "%s%s\n", prefix, strconv.FormatFloat(float64(v), 'g', -1, 64))
	case packed.String:
		fmt.Fprintf(out, "%s%q\n", prefix, string(v))
	case packed.Bytes:
		fmt.Fprintf(out, "%s<%d bytes>\n", prefix, len(v))
	case packed.Vector2:
		fmt.Fprintf(out, "%s(%g, %g)\n", prefix, v.X, v.Y)
	case packed.Vector3:
		fmt.Fprintf(out, "%s(%g, %g, %g)\n", prefix, v.X, v.Y, v.Z)
	case packed.Vector4:
		fmt.Fprintf(out, "%s(%g, %g, %g, %g)\n", prefix, v.X, v.Y, v.Z, v.W)
	case packed.Quaternion:
		fmt.Fprintf(out, "%squat(%g, %g, %g, %g)\n", prefix, v.X, v.Y, v.Z, v.W)
	case packed.List:
		fmt.Fprintf(out, "%slist[%d]:\n", prefix, len(v))
		for _, element := range v {
			printValue(out, element, indent+1)
		}
	case packed.Map:
		fmt.Fprintf(out, "%smap[%d]:\n", prefix, len(v))
		for _, pair := range v {
			printValue(out, pair.Key, indent+1)
			printValue(out, pair.Value, indent+2)
		}
	default:
		fmt.Fprintf(out, "%s<%s>\n", prefix, value.Kind())
	}
}
