// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package ir

import (
	"bytes"
	"fmt"
	"io"
)

// String renders the module as text. Output depends only on the module's
// contents, so identical input always prints identically.
func (m *Module) String() string {
	var buf bytes.Buffer
	m.WriteTo(&buf)
	return buf.String()
}

// WriteTo writes the textual module to w.
func (m *Module) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "; ModuleID = '%s'\n", m.Name)
	for _, f := range m.Functions {
		buf.WriteByte('\n')
		f.write(&buf)
	}
	return buf.WriteTo(w)
}

func (f *Function) String() string {
	var buf bytes.Buffer
	f.write(&buf)
	return buf.String()
}

func (f *Function) write(buf *bytes.Buffer) {
	if f.IsDeclaration() {
		fmt.Fprintf(buf, "declare %s %s(", TypeString(f.ReturnType), f.Ident())
		for i, p := range f.Params {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(TypeString(p.Typ))
		}
		buf.WriteString(")\n")
		return
	}
	fmt.Fprintf(buf, "define %s %s(", TypeString(f.ReturnType), f.Ident())
	for i, p := range f.Params {
		if i > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(buf, "%s %s", TypeString(p.Typ), p.Ident())
	}
	buf.WriteString(") {\n")
	for i, bb := range f.Blocks {
		if i > 0 {
			buf.WriteByte('\n')
		}
		bb.write(buf)
	}
	buf.WriteString("}\n")
}

func (b *Block) String() string {
	var buf bytes.Buffer
	b.write(&buf)
	return buf.String()
}

func (b *Block) write(buf *bytes.Buffer) {
	buf.WriteString(b.Label + ":")
	if len(b.Preds) > 0 {
		buf.WriteString("  ; preds = ")
		for i, p := range b.Preds {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString("%" + p.Label)
		}
	}
	buf.WriteByte('\n')
	for _, inst := range b.Instructions {
		buf.WriteString("  " + inst.String() + "\n")
	}
	if b.Terminator != nil {
		buf.WriteString("  " + b.Terminator.String() + "\n")
	}
}
