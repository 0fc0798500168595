// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package audioconfig holds the tunables spec.md treats as implementation
// details: region-size ceilings and the request timeout. It is loaded the
// way the teacher loads its scan configuration — a YAML file parsed with
// gopkg.in/yaml.v3 — sized down to the handful of settings this module
// actually needs.
package audioconfig

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config carries the resource bounds described in spec.md §5.
type Config struct {
	// MaxTagSize bounds an ID3v2 tag's declared size (§4.4).
	MaxTagSize uint64 `yaml:"max_tag_size"`
	// MaxAtomSize bounds a FLAC VORBIS_COMMENT or PICTURE block, or an MP4
	// ilst leaf atom: the regions those parsers load whole (§4.5/§4.6).
	MaxAtomSize uint64 `yaml:"max_atom_size"`
	// RequestTimeout bounds one Extract call end-to-end.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Default returns the teacher's historical defaults: a 1 MiB ID3v2 tag
// ceiling (MaxID3v2Size in the teacher's mp3-extractor.go), a 16 MiB
// block/atom ceiling (generous enough for embedded cover art), and a 15
// second timeout (ProcessingTimeout in the teacher's extractor.go).
func Default() *Config {
	return &Config{
		MaxTagSize:     1 * 1024 * 1024,
		MaxAtomSize:    16 * 1024 * 1024,
		RequestTimeout: 15 * time.Second,
	}
}

// Load reads a YAML config file, filling unset fields from Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("audioconfig: read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("audioconfig: parse %s: %w", path, err)
	}
	if cfg.MaxTagSize == 0 {
		cfg.MaxTagSize = Default().MaxTagSize
	}
	if cfg.MaxAtomSize == 0 {
		cfg.MaxAtomSize = Default().MaxAtomSize
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = Default().RequestTimeout
	}
	return cfg, nil
}
