package resolver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"nullcheck/internal/annotations"
)

// Current schema version - increment when CacheFile format changes
const cacheSchemaVersion uint16 = 1

const cacheFileName = "external-annotations.cache"

var errSchemaMismatch = errors.New("cache schema mismatch")

// CacheFile is the persisted global store.
type CacheFile struct {
	Schema uint16 `msgpack:"schema"`

	// Highest modification time among the scanned annotation files.
	LastWriteTimeUTC time.Time       `msgpack:"last_write_time_utc"`
	Annotations      annotations.Map `msgpack:"annotations"`
}

// DiskCache хранит глобальную карту аннотаций между запусками.
// Thread-safe within one process; other processes are tolerated by atomic
// replacement on write.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return NewDiskCache(filepath.Join(base, app))
}

// NewDiskCache uses dir as the cache directory, creating it if needed.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Path returns the cache file location.
func (c *DiskCache) Path() string {
	if c == nil {
		return ""
	}
	return filepath.Join(c.dir, cacheFileName)
}

// Put serializes and writes the cache file.
func (c *DiskCache) Put(file *CacheFile) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.Path()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	payload := *file
	payload.Schema = cacheSchemaVersion
	payload.LastWriteTimeUTC = payload.LastWriteTimeUTC.UTC()
	if err = msgpack.NewEncoder(f).Encode(&payload); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads the cache file. A missing file or an empty map is a miss, a
// schema mismatch is reported as an error.
func (c *DiskCache) Get() (*CacheFile, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var out CacheFile
	if err := msgpack.NewDecoder(f).Decode(&out); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", c.Path(), err)
	}
	if out.Schema != cacheSchemaVersion {
		return nil, false, fmt.Errorf("%w: got %d, want %d", errSchemaMismatch, out.Schema, cacheSchemaVersion)
	}
	if len(out.Annotations) == 0 {
		return nil, false, nil
	}
	return &out, true, nil
}

// Clear removes the cache file.
func (c *DiskCache) Clear() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	err := os.Remove(c.Path())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
