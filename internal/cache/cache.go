// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package cache stores compiler output by content key.
//
// Lookups go to an in-memory ARC cache first and then, if one is attached,
// to a LevelDB store on disk. Values on disk are snappy-compressed. A disk
// hit is promoted into the memory tier.
package cache

import (
	"errors"
	"sync/atomic"

	"github.com/golang/snappy"
	lru "github.com/hashicorp/golang-lru"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

// ErrNotFound is returned by Get when the key is in neither tier.
var ErrNotFound = errors.New("cache: not found")

const minHandles = 16

// Cache is a two-tier key/value cache. It is safe for concurrent use.
type Cache struct {
	mem *lru.ARCCache
	db  *leveldb.DB // nil for a memory-only cache

	hits   uint64
	misses uint64
}

// New creates a cache holding up to size entries in memory. When dir is
// not empty, entries are also persisted to a LevelDB database there.
func New(size int, dir string) (*Cache, error) {
	if dir == "" {
		return newCache(size, nil)
	}
	db, err := leveldb.OpenFile(dir, &opt.Options{
		OpenFilesCacheCapacity: minHandles,
		Compression:            opt.NoCompression,
	})
	if err != nil {
		return nil, err
	}
	return newCache(size, db)
}

// NewWithStorage creates a cache whose disk tier lives in stor.
func NewWithStorage(size int, stor storage.Storage) (*Cache, error) {
	db, err := leveldb.Open(stor, &opt.Options{Compression: opt.NoCompression})
	if err != nil {
		return nil, err
	}
	return newCache(size, db)
}

func newCache(size int, db *leveldb.DB) (*Cache, error) {
	if size <= 0 {
		size = 1
	}
	mem, err := lru.NewARC(size)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, err
	}
	return &Cache{mem: mem, db: db}, nil
}

// Get returns the value stored under key.
func (c *Cache) Get(key []byte) ([]byte, error) {
	if v, ok := c.mem.Get(string(key)); ok {
		atomic.AddUint64(&c.hits, 1)
		return v.([]byte), nil
	}
	if c.db == nil {
		atomic.AddUint64(&c.misses, 1)
		return nil, ErrNotFound
	}
	enc, err := c.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		atomic.AddUint64(&c.misses, 1)
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	val, err := snappy.Decode(nil, enc)
	if err != nil {
		return nil, err
	}
	c.mem.Add(string(key), val)
	atomic.AddUint64(&c.hits, 1)
	return val, nil
}

// Has reports whether key is present in either tier.
func (c *Cache) Has(key []byte) bool {
	if c.mem.Contains(string(key)) {
		return true
	}
	if c.db == nil {
		return false
	}
	ok, _ := c.db.Has(key, nil)
	return ok
}

// Put stores val under key in both tiers. The caller must not modify val
// afterwards.
func (c *Cache) Put(key, val []byte) error {
	c.mem.Add(string(key), val)
	if c.db == nil {
		return nil
	}
	return c.db.Put(key, snappy.Encode(nil, val), nil)
}

// Delete removes key from both tiers.
func (c *Cache) Delete(key []byte) error {
	c.mem.Remove(string(key))
	if c.db == nil {
		return nil
	}
	return c.db.Delete(key, nil)
}

// Purge empties the memory tier. The disk tier is left as is.
func (c *Cache) Purge() { c.mem.Purge() }

// Len returns the number of entries in the memory tier.
func (c *Cache) Len() int { return c.mem.Len() }

// Stats returns the number of hits and misses so far.
func (c *Cache) Stats() (hits, misses uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses)
}

// Close releases the disk tier.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}
