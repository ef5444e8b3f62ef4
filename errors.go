package diskcache

import "fmt"

// DecodeError is returned when a stored structured entry cannot be decoded.
// The entry is left in place; call InvalidateKey to recompute it.
type DecodeError struct {
	Key  string
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode cache entry for %q at %s: %v", e.Key, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
