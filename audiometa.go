// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package audiometa extracts a small, fixed set of human-meaningful
// tags — album, album artist, artist, track title, track number,
// release year, and embedded cover artwork — from FLAC, MP3, and
// MP4/M4A files, grounded on the teacher's AudioMetadataExtractor
// surface in audio-metadata.go, generalized to the closed tag-key model
// and single dispatcher this module builds around.
package audiometa

import (
	"context"

	"github.com/awslabs/audiometa/internal/audioconfig"
	"github.com/awslabs/audiometa/internal/audiolog"
	"github.com/awslabs/audiometa/internal/audiotag"
	"github.com/awslabs/audiometa/internal/dispatch"
	"github.com/awslabs/audiometa/internal/fileprovider"
)

// Key re-exports the closed tag-key enumeration so callers never import
// the internal model package directly.
type Key = audiotag.Key

const (
	Album       = audiotag.Album
	AlbumArtist = audiotag.AlbumArtist
	Artist      = audiotag.Artist
	Artwork     = audiotag.Artwork
	Name        = audiotag.Name
	Track       = audiotag.Track
	Year        = audiotag.Year
)

// Value is either a UTF-8 string or a non-negative integer.
type Value = audiotag.Value

// Result is the uniform (fileType, format, metadata) record every
// container parser produces.
type Result = audiotag.Result

// Option configures an Extractor.
type Option func(*Extractor)

// WithProvider overrides the default local-filesystem file provider,
// e.g. with an in-memory double for tests.
func WithProvider(p fileprovider.Provider) Option {
	return func(e *Extractor) { e.provider = p }
}

// WithLogger overrides the default no-op logger.
func WithLogger(l audiolog.Logger) Option {
	return func(e *Extractor) { e.log = l }
}

// WithConfig overrides the default configuration (size/timeout bounds).
func WithConfig(c *audioconfig.Config) Option {
	return func(e *Extractor) { e.config = c }
}

// Extractor is the entry point for reading tags out of audio files. The
// zero value is not usable; construct one with New.
type Extractor struct {
	provider fileprovider.Provider
	log      audiolog.Logger
	config   *audioconfig.Config
}

// New builds an Extractor reading from the local filesystem unless
// overridden by options.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		provider: fileprovider.NewLocal(),
		log:      audiolog.NopLogger{},
		config:   audioconfig.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads uri's container and returns the requested tags. The
// requested keys both shape the output (every key appears, possibly
// with an absent value) and enable early exit once they are all
// populated.
func (e *Extractor) Extract(ctx context.Context, uri string, requestedTags ...Key) (*Result, error) {
	rs := audiotag.NewRequestedSet(requestedTags...)

	ctx, cancel := context.WithTimeout(ctx, e.config.RequestTimeout)
	defer cancel()

	res, err := dispatch.Extract(ctx, e.provider, e.log, uri, rs, e.config)
	if err != nil {
		return nil, wrapParseErr(uri, err)
	}
	return res, nil
}

// Extract is a package-level convenience wrapping New().Extract for
// callers that don't need to customize the provider, logger, or config.
func Extract(ctx context.Context, uri string, requestedTags ...Key) (*Result, error) {
	return New().Extract(ctx, uri, requestedTags...)
}
