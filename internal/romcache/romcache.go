// Package romcache keeps base ROM images out of the hot path. An
// analysis run needs the unmodified ROM bytes on every assemble; reading
// multi-megabyte images from disk each time is wasteful, so loads go
// through an mtime-gated memory cache backed by an msgpack sidecar that
// survives restarts.
package romcache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const schemaVersion uint16 = 1

type memEntry struct {
	modTime time.Time
	size    int64
	data    []byte
}

type Cache struct {
	mu   sync.Mutex
	mem  map[string]memEntry
	disk *DiskCache
}

// New returns a cache without disk persistence.
func New() *Cache {
	return &Cache{mem: make(map[string]memEntry)}
}

// NewPersistent returns a cache backed by the standard disk location.
// Disk setup failure degrades to memory-only, never to an error.
func NewPersistent(app string) *Cache {
	c := New()
	if disk, err := OpenDiskCache(app); err == nil {
		c.disk = disk
	}
	return c
}

// Load returns the contents of the ROM at path. The result aliases the
// cache; callers must not mutate it.
func (c *Cache) Load(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.mem[path]; ok &&
		entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
		return entry.data, nil
	}

	if c.disk != nil {
		var payload Payload
		if ok, err := c.disk.Get(diskKey(path), &payload); err == nil && ok &&
			payload.Schema == schemaVersion &&
			payload.ModTimeUnixNano == info.ModTime().UnixNano() &&
			payload.Size == info.Size() {
			c.mem[path] = memEntry{modTime: info.ModTime(), size: info.Size(), data: payload.Data}
			return payload.Data, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c.mem[path] = memEntry{modTime: info.ModTime(), size: info.Size(), data: data}
	if c.disk != nil {
		// Best effort; a failed write only costs the next cold start.
		_ = c.disk.Put(diskKey(path), &Payload{
			Schema:          schemaVersion,
			Path:            path,
			ModTimeUnixNano: info.ModTime().UnixNano(),
			Size:            info.Size(),
			Data:            data,
		})
	}
	return data, nil
}

// Payload is the on-disk record for one cached ROM image.
type Payload struct {
	Schema          uint16
	Path            string
	ModTimeUnixNano int64
	Size            int64
	Data            []byte
}

func diskKey(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:])
}

// DiskCache persists payloads under the user cache directory, one file
// per key, written atomically via temp-and-rename.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app, "roms")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key string) string {
	return filepath.Join(c.dir, key+".mp")
}

func (c *DiskCache) Put(key string, payload *Payload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

func (c *DiskCache) Get(key string, out *Payload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, fmt.Errorf("decode rom cache entry: %w", err)
	}
	return true, nil
}

// DropAll wipes the persisted entries, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}
