// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package compiler

// Config controls a Compiler.
type Config struct {
	// Optimize runs the CFG simplification passes on every function.
	Optimize bool

	// Verify runs the structural verifier on the generated module and
	// reports its findings as diagnostics.
	Verify bool

	// CacheSize is the number of compiled units kept in memory. Zero
	// disables caching.
	CacheSize int

	// CacheDir, when set, persists the cache to a LevelDB database.
	CacheDir string `toml:",omitempty"`

	// MaxSteps bounds a single interpreter call. Zero means unlimited.
	MaxSteps uint64
}

// Defaults contains the default settings.
var Defaults = Config{
	Optimize:  false,
	Verify:    true,
	CacheSize: 64,
	MaxSteps:  1_000_000,
}
