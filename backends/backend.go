package backends

// Backend defines the interface for cache entry storage.
// Entries are addressed by name, which the cache derives from the key hash.
// Implementations can be swapped or decorated (see Debug).
type Backend interface {
	// Read returns the full contents of the named entry.
	// ok is false, with a nil error, if the entry does not exist.
	Read(name string) (data []byte, ok bool, err error)

	// Write stores data under name, creating or truncating the entry.
	Write(name string, data []byte) error

	// Remove deletes the named entry. Removing a missing entry is not an error.
	Remove(name string) error

	// Clear removes every entry and leaves an empty, usable store behind.
	Clear() error

	// Path returns the location of the named entry. It does not check
	// whether the entry exists.
	Path(name string) string
}
