// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package token

import "fmt"

// Position tracks source location.
type Position struct {
	File   string
	Line   int
	Column int
	Offset int
}

// IsValid reports whether the position carries line information.
func (p Position) IsValid() bool { return p.Line > 0 }

func (p Position) String() string {
	s := p.File
	if p.IsValid() {
		if s != "" {
			s += ":"
		}
		s += fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	if s == "" {
		s = "-"
	}
	return s
}

// File is a named source buffer. It resolves byte offsets to line and column
// numbers by scanning from the start of the buffer, which is O(offset) per
// call. Positions are only resolved when a diagnostic is produced.
type File struct {
	Name string
	Src  string
}

// NewFile wraps a source buffer.
func NewFile(name, src string) *File {
	return &File{Name: name, Src: src}
}

// Position returns the line and column (both 1-based) of pos.
// Offsets past the end of the buffer are clamped to the end.
func (f *File) Position(pos Pos) Position {
	if f == nil {
		return Position{}
	}
	if !pos.IsValid() {
		return Position{File: f.Name}
	}
	off := int(pos)
	if off > len(f.Src) {
		off = len(f.Src)
	}
	line, col := 1, 1
	for i := 0; i < off; i++ {
		if f.Src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return Position{File: f.Name, Line: line, Column: col, Offset: off}
}
