// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Package source loads program text for the command line tools.
package source

import (
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/edsrzf/mmap-go"
)

// ReadFile returns the contents of the file at path. The file is mapped
// read-only and copied out, so the result outlives the mapping.
func ReadFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return "", err
	}
	if fi.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	// mmap cannot map an empty file.
	if fi.Size() == 0 {
		return "", nil
	}
	mem, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return "", fmt.Errorf("mapping %s: %w", path, err)
	}
	src := string(mem)
	if err := mem.Unmap(); err != nil {
		return "", err
	}
	if !utf8.ValidString(src) {
		return "", fmt.Errorf("%s is not valid UTF-8", path)
	}
	return src, nil
}

// Read returns the program text named by path, where "-" means r.
func Read(path string, r io.Reader) (string, error) {
	if path != "-" {
		return ReadFile(path)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
