package parse

import (
	"os"
	"sync"
	"time"
)

type cacheEntry struct {
	modTime time.Time
	size    int64
	result  Result
	text    string
}

// Cache memoizes parse results per file, invalidated by mtime and size.
// Editor overlays take priority over disk through Overlay.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]cacheEntry
	overlays map[string]string
}

func NewCache() *Cache {
	return &Cache{
		entries:  make(map[string]cacheEntry),
		overlays: make(map[string]string),
	}
}

// Overlay pins in-memory contents for path. Pass the empty string via
// DropOverlay to fall back to disk.
func (c *Cache) Overlay(path, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overlays[path] = text
	delete(c.entries, path)
}

func (c *Cache) DropOverlay(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.overlays, path)
	delete(c.entries, path)
}

// Load returns the parse result for path, re-reading only when the file
// changed since the cached parse.
func (c *Cache) Load(path string) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if text, ok := c.overlays[path]; ok {
		return File(text, path), nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return Result{}, err
	}
	if entry, ok := c.entries[path]; ok &&
		entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
		return entry.result, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, err
	}
	text := string(data)
	res := File(text, path)
	c.entries[path] = cacheEntry{
		modTime: info.ModTime(),
		size:    info.Size(),
		result:  res,
		text:    text,
	}
	return res, nil
}

// Text returns the current contents of path, preferring an overlay.
func (c *Cache) Text(path string) (string, error) {
	c.mu.Lock()
	if text, ok := c.overlays[path]; ok {
		c.mu.Unlock()
		return text, nil
	}
	if entry, ok := c.entries[path]; ok {
		if info, err := os.Stat(path); err == nil &&
			entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
			c.mu.Unlock()
			return entry.text, nil
		}
	}
	c.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
