// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package audiolog is this module's minimal observability surface, sized
// down from the teacher's internal/observability.StandardObserver: one
// sink, handed to every container parser, to which the shared tag reader
// writes a debug line for each region it loads. Counting those lines
// shows how many regions a parse loaded. An ID3v2 tag is loaded as a
// single region, so early exit between its frames does not change the
// count.
package audiolog

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Logger is the interface every reader/parser accepts. Nil-safe callers
// should use NopLogger when no logging is wanted.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// NopLogger discards everything. It is the default when a parser is
// constructed without an explicit Logger.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...interface{}) {}
func (NopLogger) Warnf(string, ...interface{})  {}

// entry is the structured record written by StderrLogger, mirroring the
// teacher's StandardObservabilityData shape.
type entry struct {
	Time    string `json:"time"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// StderrLogger writes one JSON object per line to the given writer
// (typically os.Stderr), the way the teacher's StandardObserver does in
// its debug mode.
type StderrLogger struct {
	w io.Writer
}

// NewStderrLogger constructs a StderrLogger writing to w.
func NewStderrLogger(w io.Writer) *StderrLogger {
	return &StderrLogger{w: w}
}

func (l *StderrLogger) Debugf(format string, args ...interface{}) {
	l.write("debug", format, args...)
}

func (l *StderrLogger) Warnf(format string, args ...interface{}) {
	l.write("warn", format, args...)
}

func (l *StderrLogger) write(level, format string, args ...interface{}) {
	e := entry{
		Time:    time.Now().UTC().Format(time.RFC3339Nano),
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	}
	_ = json.NewEncoder(l.w).Encode(e)
}
