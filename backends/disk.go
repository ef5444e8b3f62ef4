package backends

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

// Disk stores each entry as a single flat file directly under root.
// There are no subdirectories and no index; lookups always go by name.
//
// Writes are not atomic: the file is truncated and written in place, with no
// fsync and no temp-file rename. Concurrent writers to the same name can
// interleave and a concurrent reader can observe a partial file.
type Disk struct {
	fs   afero.Fs
	root string
}

// NewDisk creates a Disk backend rooted at root on the given filesystem,
// creating root and any missing parents.
func NewDisk(fsys afero.Fs, root string) (*Disk, error) {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	d := &Disk{
		fs:   fsys,
		root: root,
	}
	if err := d.ensureRoot(); err != nil {
		return nil, err
	}
	return d, nil
}

// Root returns the directory holding the entries.
func (d *Disk) Root() string {
	return d.root
}

// Read returns the contents of the named file.
func (d *Disk) Read(name string) ([]byte, bool, error) {
	data, err := afero.ReadFile(d.fs, d.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cache file: %w", err)
	}
	return data, true, nil
}

// Write writes data verbatim to the named file.
func (d *Disk) Write(name string, data []byte) error {
	if err := afero.WriteFile(d.fs, d.Path(name), data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

// Remove deletes the named file if present.
func (d *Disk) Remove(name string) error {
	if err := d.fs.Remove(d.Path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove cache file: %w", err)
	}
	return nil
}

// Clear removes the root directory with everything in it and recreates it.
func (d *Disk) Clear() error {
	if err := d.fs.RemoveAll(d.root); err != nil {
		return fmt.Errorf("failed to remove cache directory: %w", err)
	}
	return d.ensureRoot()
}

// Path joins root and name.
func (d *Disk) Path(name string) string {
	return filepath.Join(d.root, name)
}

// Names lists the entries currently stored. Order is unspecified.
func (d *Disk) Names() ([]string, error) {
	infos, err := afero.ReadDir(d.fs, d.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache directory: %w", err)
	}

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		names = append(names, info.Name())
	}
	return names, nil
}

func (d *Disk) ensureRoot() error {
	if err := d.fs.MkdirAll(d.root, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	return nil
}
