package backends

import (
	"log/slog"
)

// Debug wraps any Backend and adds debug logging.
// This allows any backend implementation to have debug logging without
// coupling the debug logic to the backend implementation.
type Debug struct {
	backend Backend
	logger  *slog.Logger
}

// NewDebug creates a new debug wrapper around an existing backend.
// A nil logger falls back to slog.Default().
func NewDebug(backend Backend, logger *slog.Logger) *Debug {
	if logger == nil {
		logger = slog.Default()
	}
	return &Debug{
		backend: backend,
		logger:  logger.With("component", "backend"),
	}
}

// Read reads an entry with debug logging.
func (d *Debug) Read(name string) ([]byte, bool, error) {
	data, ok, err := d.backend.Read(name)

	switch {
	case err != nil:
		d.logger.Debug("read failed", "name", name, "error", err)
	case !ok:
		d.logger.Debug("read miss", "name", name)
	default:
		d.logger.Debug("read hit", "name", name, "path", d.backend.Path(name), "size", len(data))
	}

	return data, ok, err
}

// Write stores an entry with debug logging.
func (d *Debug) Write(name string, data []byte) error {
	d.logger.Debug("write", "name", name, "size", len(data))

	if err := d.backend.Write(name, data); err != nil {
		d.logger.Debug("write failed", "name", name, "error", err)
		return err
	}

	d.logger.Debug("write stored", "path", d.backend.Path(name))
	return nil
}

// Remove deletes an entry with debug logging.
func (d *Debug) Remove(name string) error {
	d.logger.Debug("remove", "name", name)

	err := d.backend.Remove(name)
	if err != nil {
		d.logger.Debug("remove failed", "name", name, "error", err)
	}
	return err
}

// Clear removes all entries with debug logging.
func (d *Debug) Clear() error {
	d.logger.Debug("clearing cache")

	if err := d.backend.Clear(); err != nil {
		d.logger.Debug("clear failed", "error", err)
		return err
	}

	d.logger.Debug("cache cleared successfully")
	return nil
}

// Path delegates to the wrapped backend.
func (d *Debug) Path(name string) string {
	return d.backend.Path(name)
}
