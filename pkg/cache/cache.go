// Package cache provides an LRU cache for decoded include files with
// optional disk persistence. Expanding many documents in one process tends
// to pull in the same include files repeatedly; caching the decoded lines
// avoids re-reading and re-decoding them on every expansion.
package cache

import (
	"container/list"
	"fmt"
	"io"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Options configures the cache.
type Options struct {
	MaxEntries int // maximum number of cached files (default 128)
}

// DefaultMaxEntries is used when Options.MaxEntries is zero or negative.
const DefaultMaxEntries = 128

// Cache is a thread-safe LRU cache mapping file paths to decoded lines.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = most recently used
	max     int
}

type entry struct {
	Key   string   `msgpack:"key"`
	Lines []string `msgpack:"lines"`
}

// New creates an empty cache.
func New(opts Options) *Cache {
	max := opts.MaxEntries
	if max <= 0 {
		max = DefaultMaxEntries
	}
	return &Cache{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		max:     max,
	}
}

// Get returns the cached lines for a path and marks them recently used.
func (c *Cache) Get(key string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry).Lines, true
}

// Set stores the decoded lines for a path, evicting the least recently used
// entry when the cache is full.
func (c *Cache) Set(key string, lines []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*entry).Lines = lines
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&entry{Key: key, Lines: lines})

	for c.order.Len() > c.max {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry).Key)
	}
}

// Delete removes a path from the cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
	}
}

// Len returns the number of cached files.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// savedCache is the msgpack persistence layout.
type savedCache struct {
	Version int     `msgpack:"version"`
	Entries []entry `msgpack:"entries"`
}

const saveVersion = 1

// Save persists the cache to w using msgpack, most recently used first.
func (c *Cache) Save(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	saved := savedCache{Version: saveVersion}
	for el := c.order.Front(); el != nil; el = el.Next() {
		saved.Entries = append(saved.Entries, *el.Value.(*entry))
	}

	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(saved); err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}
	return nil
}

// Load restores entries written by Save, replacing the current contents.
func (c *Cache) Load(r io.Reader) error {
	var saved savedCache
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&saved); err != nil {
		return fmt.Errorf("decoding cache: %w", err)
	}
	if saved.Version != saveVersion {
		return fmt.Errorf("unsupported cache format version %d", saved.Version)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element, len(saved.Entries))
	c.order.Init()

	// Entries were saved most recently used first; pushing to the back
	// preserves that ordering.
	for i := range saved.Entries {
		e := saved.Entries[i]
		c.entries[e.Key] = c.order.PushBack(&e)
	}
	for c.order.Len() > c.max {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry).Key)
	}
	return nil
}
