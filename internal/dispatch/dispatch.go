// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package dispatch selects and invokes the right container parser for a
// file URI (spec.md §4.7), grounded on the teacher's AudioExtractor in
// extractor.go (extension-based routing, validateFileSize-style size
// guards) generalized to the three container families this module
// supports plus the ID3v2-at-tail / ID3v2-before-ID3v1 MP3 probes the
// teacher's MP3Extractor does not need because it always reads from the
// front of the file.
package dispatch

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/awslabs/audiometa/internal/audioconfig"
	"github.com/awslabs/audiometa/internal/audiolog"
	"github.com/awslabs/audiometa/internal/audiotag"
	"github.com/awslabs/audiometa/internal/fileprovider"
	"github.com/awslabs/audiometa/internal/flac"
	"github.com/awslabs/audiometa/internal/id3v1"
	"github.com/awslabs/audiometa/internal/id3v2"
	"github.com/awslabs/audiometa/internal/mp4"
	"github.com/awslabs/audiometa/internal/parseerr"
	"github.com/awslabs/audiometa/internal/tagreader"
)

// extractor is implemented by every container parser.
type extractor interface {
	Extract(ctx context.Context) (*audiotag.Result, error)
}

const (
	mp3TailProbeSize = 138
	id3FooterSize    = 10
	id3v1TrailerSize = 128
)

// Extract routes uri to the parser selected by its extension, probing an
// MP3's byte layout first when necessary. cfg's resource bounds are
// threaded into whichever container parser is selected.
func Extract(ctx context.Context, provider fileprovider.Provider, log audiolog.Logger, uri string, requested *audiotag.RequestedSet, cfg *audioconfig.Config) (*audiotag.Result, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(uri), "."))

	var p extractor
	switch ext {
	case "flac":
		p = flac.New(uri, provider, requested, log, cfg.MaxAtomSize)
	case "mp3":
		parser, err := selectMP3Parser(ctx, provider, log, uri, requested, cfg)
		if err != nil {
			return nil, err
		}
		p = parser
	case "m4a", "mp4":
		p = mp4.New(uri, provider, requested, log, cfg.MaxAtomSize)
	default:
		return nil, parseerr.New(parseerr.UnsupportedFile, "unsupported file extension: "+ext, nil)
	}

	return p.Extract(ctx)
}

// selectMP3Parser implements spec.md §4.7's MP3 probe: an "ID3" prefix
// means ID3v2 sits at the file start; otherwise the last 138 bytes are
// inspected for an ID3v2.4 footer, either trailing the file or
// immediately preceding an ID3v1 trailer; failing both, ID3v1 is
// assumed.
func selectMP3Parser(ctx context.Context, provider fileprovider.Provider, log audiolog.Logger, uri string, requested *audiotag.RequestedSet, cfg *audioconfig.Config) (extractor, error) {
	r := tagreader.New(uri, provider, log)
	info, err := r.Stat(ctx)
	if err != nil {
		return nil, err
	}
	if !info.Exists {
		return nil, parseerr.New(parseerr.FileMissing, "file does not exist", fileprovider.ErrNotExist)
	}

	if info.Size >= 3 {
		if err := r.LoadWindow(ctx, 0, 3); err != nil {
			return nil, parseerr.New(parseerr.IoFailed, "failed probing file start", err)
		}
		if string(r.Bytes()) == "ID3" {
			return id3v2.New(uri, provider, requested, log, cfg.MaxTagSize), nil
		}
	}

	if info.Size >= mp3TailProbeSize {
		if err := r.LoadWindow(ctx, info.Size-mp3TailProbeSize, mp3TailProbeSize); err != nil {
			return nil, parseerr.New(parseerr.IoFailed, "failed probing file tail", err)
		}
		tail := r.Bytes()

		if string(tail[128:131]) == "3DI" {
			footerStart := info.Size - id3FooterSize
			headerOffset, err := headerOffsetFromFooter(ctx, r, footerStart)
			if err != nil {
				return nil, err
			}
			return id3v2.NewAtOffset(uri, provider, requested, log, cfg.MaxTagSize, headerOffset), nil
		}
		if string(tail[0:3]) == "3DI" {
			footerStart := info.Size - mp3TailProbeSize
			headerOffset, err := headerOffsetFromFooter(ctx, r, footerStart)
			if err != nil {
				return nil, err
			}
			return id3v2.NewAtOffset(uri, provider, requested, log, cfg.MaxTagSize, headerOffset), nil
		}
	}

	return id3v1.New(uri, provider, requested, log), nil
}

// headerOffsetFromFooter reads the synchsafe body size out of a 10-byte
// ID3v2.4 footer starting at footerStart and returns the offset of the
// header that must precede it: footerStart - bodySize - 10.
func headerOffsetFromFooter(ctx context.Context, r *tagreader.Reader, footerStart uint64) (uint64, error) {
	if err := r.LoadWindow(ctx, footerStart, id3FooterSize); err != nil {
		return 0, parseerr.New(parseerr.IoFailed, "failed reading ID3v2 footer", err)
	}
	footer := r.Bytes()
	if len(footer) < id3FooterSize {
		return 0, parseerr.New(parseerr.FormatInvalid, "truncated ID3v2 footer", nil)
	}
	bodySize := uint64(footer[6])<<21 | uint64(footer[7])<<14 | uint64(footer[8])<<7 | uint64(footer[9])
	if footerStart < bodySize+id3FooterSize {
		return 0, parseerr.New(parseerr.FormatInvalid, "ID3v2 footer implies a header before file start", nil)
	}
	return footerStart - bodySize - id3FooterSize, nil
}
