// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package diag collects compiler diagnostics.
//
// A diagnostic is a (severity, message) pair, optionally anchored to a source
// position. Messages render as "path:line:col: error: text".
package diag

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/probechain/neatc/lang/token"
)

// Severity ranks diagnostics. Lower values are more severe.
type Severity int

const (
	Error Severity = iota
	Warning
	Info
)

var severityNames = [...]string{
	Error:   "error",
	Warning: "warning",
	Info:    "info",
}

func (s Severity) String() string {
	if s >= 0 && int(s) < len(severityNames) {
		return severityNames[s]
	}
	return fmt.Sprintf("severity(%d)", s)
}

// Message is a single diagnostic.
type Message struct {
	Severity Severity
	Pos      token.Position
	Text     string
}

func (m *Message) String() string {
	if m.Pos.IsValid() || m.Pos.File != "" {
		return fmt.Sprintf("%s: %s: %s", m.Pos, m.Severity, m.Text)
	}
	return fmt.Sprintf("%s: %s", m.Severity, m.Text)
}

// Messages is an ordered list of diagnostics. The zero value is ready to use.
type Messages struct {
	msgs []*Message
}

// Add appends a diagnostic.
func (l *Messages) Add(sev Severity, pos token.Position, text string) {
	l.msgs = append(l.msgs, &Message{Severity: sev, Pos: pos, Text: text})
}

// Errorf records an error.
func (l *Messages) Errorf(pos token.Position, format string, args ...interface{}) {
	l.Add(Error, pos, fmt.Sprintf(format, args...))
}

// Warningf records a warning.
func (l *Messages) Warningf(pos token.Position, format string, args ...interface{}) {
	l.Add(Warning, pos, fmt.Sprintf(format, args...))
}

// Infof records an informational note.
func (l *Messages) Infof(pos token.Position, format string, args ...interface{}) {
	l.Add(Info, pos, fmt.Sprintf(format, args...))
}

// Append copies all diagnostics of other onto l.
func (l *Messages) Append(other *Messages) {
	if other == nil {
		return
	}
	l.msgs = append(l.msgs, other.msgs...)
}

// All returns the recorded diagnostics in order.
func (l *Messages) All() []*Message {
	if l == nil {
		return nil
	}
	return l.msgs
}

// Len returns the number of recorded diagnostics.
func (l *Messages) Len() int {
	if l == nil {
		return 0
	}
	return len(l.msgs)
}

// Count returns the number of diagnostics at least as severe as level.
func (l *Messages) Count(level Severity) int {
	if l == nil {
		return 0
	}
	n := 0
	for _, m := range l.msgs {
		if m.Severity <= level {
			n++
		}
	}
	return n
}

// HasErrors reports whether any error was recorded.
func (l *Messages) HasErrors() bool { return l.Count(Error) > 0 }

// Err folds the recorded errors into a single error value, or returns nil
// when no error was recorded. Warnings and notes are not included.
func (l *Messages) Err() error {
	if !l.HasErrors() {
		return nil
	}
	var lines []string
	for _, m := range l.msgs {
		if m.Severity == Error {
			lines = append(lines, m.String())
		}
	}
	return errors.New(strings.Join(lines, "\n"))
}

var (
	errorLabel   = color.New(color.FgRed, color.Bold)
	warningLabel = color.New(color.FgYellow, color.Bold)
	infoLabel    = color.New(color.FgCyan)
)

// Print writes every diagnostic on its own line. Severity labels are colored
// unless color output is disabled (see color.NoColor).
func (l *Messages) Print(w io.Writer) {
	for _, m := range l.All() {
		var label string
		switch m.Severity {
		case Error:
			label = errorLabel.Sprint(m.Severity)
		case Warning:
			label = warningLabel.Sprint(m.Severity)
		default:
			label = infoLabel.Sprint(m.Severity)
		}
		if m.Pos.IsValid() || m.Pos.File != "" {
			fmt.Fprintf(w, "%s: %s: %s\n", m.Pos, label, m.Text)
		} else {
			fmt.Fprintf(w, "%s: %s\n", label, m.Text)
		}
	}
}
