// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Command audiometa reads the tags named by --tags out of an audio file and
// prints them, either as a colored human-readable report or as YAML.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/awslabs/audiometa"
	"github.com/awslabs/audiometa/internal/audioconfig"
)

var allTagNames = []string{"album", "albumArtist", "artist", "artwork", "name", "track", "year"}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	fs := flag.NewFlagSet("audiometa", flag.ContinueOnError)
	fs.SetOutput(stderr)

	tagsFlag := fs.String("tags", strings.Join(allTagNames, ","), "comma-separated tags to read (album,albumArtist,artist,artwork,name,track,year)")
	configFlag := fs.String("config", "", "path to a YAML config file overriding the default resource bounds")
	formatFlag := fs.String("format", "text", "output format: text or yaml")
	noColor := fs.Bool("no-color", false, "disable colored text output")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: audiometa [flags] <file>\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	uri := fs.Arg(0)

	if *noColor {
		color.NoColor = true
	}

	keys, err := parseTags(*tagsFlag)
	if err != nil {
		fmt.Fprintln(stderr, "audiometa:", err)
		return 2
	}

	cfg := audioconfig.Default()
	if *configFlag != "" {
		loaded, err := audioconfig.Load(*configFlag)
		if err != nil {
			fmt.Fprintln(stderr, "audiometa:", err)
			return 2
		}
		cfg = loaded
	}

	res, err := audiometa.New(audiometa.WithConfig(cfg)).Extract(context.Background(), uri, keys...)
	if err != nil {
		fmt.Fprintln(stderr, "audiometa:", err)
		return 1
	}

	switch *formatFlag {
	case "yaml":
		return writeYAML(stdout, res)
	default:
		return writeText(stdout, res)
	}
}

// parseTags splits a comma-separated tag list, validating each against the
// closed key enumeration the way the teacher's checksToRun list is
// validated against its check registry.
func parseTags(raw string) ([]audiometa.Key, error) {
	var keys []audiometa.Key
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		key := audiometa.Key(name)
		if !key.IsValid() {
			return nil, fmt.Errorf("unsupported tag %q (valid: %s)", name, strings.Join(allTagNames, ","))
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func writeYAML(stdout *os.File, res *audiometa.Result) int {
	out := struct {
		FileType string            `yaml:"fileType"`
		Format   string            `yaml:"format"`
		Metadata map[string]string `yaml:"metadata"`
	}{
		FileType: res.FileType,
		Format:   res.Format,
		Metadata: make(map[string]string, len(res.Metadata)),
	}
	for k, v := range res.Metadata {
		if v == nil {
			continue
		}
		out.Metadata[string(k)] = v.String()
	}
	enc := yaml.NewEncoder(stdout)
	defer enc.Close()
	if err := enc.Encode(out); err != nil {
		fmt.Fprintln(os.Stderr, "audiometa:", err)
		return 1
	}
	return 0
}

// writeText prints a colored report: the header line in bold white, each
// present tag's value in green and each absent one in red, with
// artwork elided past a conservative width so the report never wraps a
// terminal full of base64.
func writeText(stdout *os.File, res *audiometa.Result) int {
	header := color.New(color.FgWhite, color.Bold)
	present := color.New(color.FgGreen)
	absent := color.New(color.FgRed)

	header.Fprintf(stdout, "%s (%s)\n", res.FileType, res.Format)

	width := terminalWidth(stdout)
	for _, name := range allTagNames {
		key := audiometa.Key(name)
		v, ok := res.Metadata[key]
		if !ok {
			continue
		}
		if v == nil {
			absent.Fprintf(stdout, "  %-12s <absent>\n", name)
			continue
		}
		text := v.String()
		if key == audiometa.Artwork && len(text) > width {
			text = fmt.Sprintf("<picture, %d bytes>", len(text))
		}
		present.Fprintf(stdout, "  %-12s %s\n", name, text)
	}
	return 0
}

// terminalWidth probes the output's terminal width, falling back to 80
// columns when stdout isn't a terminal (piped output, CI logs).
func terminalWidth(f *os.File) int {
	if !term.IsTerminal(int(f.Fd())) {
		return 80
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}
