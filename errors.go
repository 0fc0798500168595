// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package audiometa

import (
	"errors"
	"fmt"

	"github.com/awslabs/audiometa/internal/fileprovider"
	"github.com/awslabs/audiometa/internal/parseerr"
)

// ErrorKind classifies why Extract failed, mirroring spec.md §7.
type ErrorKind = parseerr.Kind

const (
	// FileMissing means the file provider reported non-existence.
	FileMissing = parseerr.FileMissing
	// IoFailed means the file provider returned an error other than
	// reporting the file missing. A region cut short by end-of-file is not
	// reported as IoFailed.
	IoFailed = parseerr.IoFailed
	// UnsupportedFile means the extension is not one this module handles.
	UnsupportedFile = parseerr.UnsupportedFile
	// FormatInvalid means a container's magic or structural invariant failed.
	FormatInvalid = parseerr.FormatInvalid
	// UnsupportedVersion means ID3v2 major > 4, or v2.2 compression was set.
	UnsupportedVersion = parseerr.UnsupportedVersion
	// Inconsistency means an ID3v2.4 tag-level/frame-level unsynch mismatch.
	Inconsistency = parseerr.Inconsistency
)

// Error is the single error type every exported entry point returns.
type Error struct {
	URI     string
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("audiometa: %s: %s (%s): %v", e.URI, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("audiometa: %s: %s (%s)", e.URI, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError constructs an *Error with the given kind and message.
func NewError(uri string, kind ErrorKind, message string, cause error) *Error {
	return &Error{URI: uri, Kind: kind, Message: message, Cause: cause}
}

// wrapParseErr converts an internal parseerr.Error (or other error) into
// the public Error type for a given URI.
func wrapParseErr(uri string, err error) error {
	if err == nil {
		return nil
	}
	var pe *parseerr.Error
	if errors.As(err, &pe) {
		return &Error{URI: uri, Kind: pe.Kind, Message: pe.Message, Cause: pe.Cause}
	}
	if errors.Is(err, fileprovider.ErrNotExist) {
		return &Error{URI: uri, Kind: FileMissing, Message: "file does not exist", Cause: err}
	}
	return &Error{URI: uri, Kind: IoFailed, Message: "unexpected error", Cause: err}
}
