// Package diskcache is a persistent cache that maps string keys to values
// computed once and stored on disk, one file per key, named by the MD5 of
// the key.
//
// A Cache performs no locking. Concurrent reads of a fully written entry are
// safe; concurrent misses for the same key each compute and write, and the
// writes are not atomic, so a reader may observe a partial file and two
// writers may interleave. Callers that need stronger guarantees must
// coordinate access themselves.
package diskcache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/richardartoul/diskcache/backends"
	"github.com/richardartoul/diskcache/metrics"
	"github.com/richardartoul/diskcache/value"
)

// Operation names recorded in Options.Tracker.
const (
	OpGetRawHit         = "get_raw_hit"
	OpGetRawMiss        = "get_raw_miss"
	OpGetStructuredHit  = "get_structured_hit"
	OpGetStructuredMiss = "get_structured_miss"
	OpLookupHit         = "lookup_hit"
	OpLookupMiss        = "lookup_miss"
	OpInvalidate        = "invalidate"
	OpFlush             = "flush"
)

// Logger receives the informational messages emitted on structured misses.
// *slog.Logger satisfies it.
type Logger interface {
	Info(msg string, args ...any)
}

// Options configures a Cache. The zero value is valid.
type Options struct {
	// Fs is the filesystem holding the cache root. Defaults to the OS filesystem.
	Fs afero.Fs

	// Logger is used by the debug backend. Defaults to a discarding logger.
	Logger *slog.Logger

	// Debug logs every backend call at debug level.
	Debug bool

	// Tracker, if set, records the latency of every operation.
	Tracker *metrics.LatencyTracker
}

// Cache is a disk-backed, compute-on-miss cache.
type Cache struct {
	root    string
	disk    *backends.Disk
	backend backends.Backend
	tracker *metrics.LatencyTracker
}

// New creates a cache rooted at root, creating the directory and any missing
// parents.
func New(root string, opts Options) (*Cache, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	disk, err := backends.NewDisk(opts.Fs, absRoot)
	if err != nil {
		return nil, err
	}

	var backend backends.Backend = disk
	if opts.Debug {
		logger := opts.Logger
		if logger == nil {
			logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		}
		backend = backends.NewDebug(disk, logger)
	}

	return &Cache{
		root:    absRoot,
		disk:    disk,
		backend: backend,
		tracker: opts.Tracker,
	}, nil
}

// Hash returns the lowercase hex MD5 digest of key. The digest names the
// key's file inside the cache root.
func Hash(key string) string {
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Hash is the same as the package-level Hash.
func (c *Cache) Hash(key string) string {
	return Hash(key)
}

// Root returns the absolute cache directory.
func (c *Cache) Root() string {
	return c.root
}

// Path returns where key's entry is, or would be, stored.
func (c *Cache) Path(key string) string {
	return c.backend.Path(Hash(key))
}

// Lookup returns the raw bytes cached for key without computing anything.
func (c *Cache) Lookup(key string) ([]byte, bool, error) {
	start := c.now()
	data, ok, err := c.backend.Read(Hash(key))
	if err != nil {
		return nil, false, err
	}
	if ok {
		c.record(OpLookupHit, start)
	} else {
		c.record(OpLookupMiss, start)
	}
	return data, ok, nil
}

// Contains reports whether an entry exists for key.
func (c *Cache) Contains(key string) (bool, error) {
	_, ok, err := c.backend.Read(Hash(key))
	return ok, err
}

// Len returns the number of entries currently stored.
func (c *Cache) Len() (int, error) {
	names, err := c.disk.Names()
	if err != nil {
		return 0, err
	}
	return len(names), nil
}

// GetOrComputeRaw returns the bytes cached for key. On a miss it calls
// compute once, writes the result verbatim and returns it. Stored bytes are
// never validated. If compute fails nothing is written.
func (c *Cache) GetOrComputeRaw(key string, compute func() ([]byte, error)) ([]byte, error) {
	keyHash := Hash(key)
	start := c.now()

	data, ok, err := c.backend.Read(keyHash)
	if err != nil {
		return nil, err
	}
	if ok {
		c.record(OpGetRawHit, start)
		return data, nil
	}

	data, err = compute()
	if err != nil {
		return nil, fmt.Errorf("failed to compute value for %q: %w", key, err)
	}
	if err := c.backend.Write(keyHash, data); err != nil {
		return nil, err
	}

	c.record(OpGetRawMiss, start)
	return data, nil
}

// GetOrComputeStructured is GetOrComputeRaw for structured values. Values are
// stored in the encoding produced by value.Marshal.
//
// On a miss logger receives exactly two Info messages, one before compute
// runs and one after the new value is written. Hits log nothing. logger may
// be nil.
//
// An entry that cannot be decoded is reported as a *DecodeError; it is not
// treated as a miss and compute is not called.
func (c *Cache) GetOrComputeStructured(key string, compute func() (value.Value, error), logger Logger) (value.Value, error) {
	keyHash := Hash(key)
	start := c.now()

	data, ok, err := c.backend.Read(keyHash)
	if err != nil {
		return value.Value{}, err
	}
	if ok {
		v, err := value.Unmarshal(data)
		if err != nil {
			return value.Value{}, &DecodeError{Key: key, Path: c.backend.Path(keyHash), Err: err}
		}
		c.record(OpGetStructuredHit, start)
		return v, nil
	}

	if logger != nil {
		logger.Info(fmt.Sprintf("No cached value found for '%s' (cache '%s') - generating", key, keyHash),
			"key", key, "hash", keyHash)
	}

	v, err := compute()
	if err != nil {
		return value.Value{}, fmt.Errorf("failed to compute value for %q: %w", key, err)
	}
	encoded, err := value.Marshal(v)
	if err != nil {
		return value.Value{}, err
	}
	if err := c.backend.Write(keyHash, encoded); err != nil {
		return value.Value{}, err
	}

	if logger != nil {
		logger.Info(fmt.Sprintf("New value cached for '%s' (cache '%s')", key, keyHash),
			"key", key, "hash", keyHash)
	}

	c.record(OpGetStructuredMiss, start)
	return v, nil
}

// InvalidateKey removes the entry for key. Invalidating a key that was never
// cached is not an error.
func (c *Cache) InvalidateKey(key string) error {
	start := c.now()
	if err := c.backend.Remove(Hash(key)); err != nil {
		return err
	}
	c.record(OpInvalidate, start)
	return nil
}

// Flush removes every entry by deleting the cache root and recreating it empty.
func (c *Cache) Flush() error {
	start := c.now()
	if err := c.backend.Clear(); err != nil {
		return err
	}
	c.record(OpFlush, start)
	return nil
}
