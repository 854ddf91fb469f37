package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"termversi/types"
)

// ErrPersistence wraps every I/O failure from a Store. It never ends a match.
var ErrPersistence = errors.New("persistence failure")

// Store keeps a single snapshot in a file.
type Store struct {
	Path string
}

// NewStore returns a store writing to path.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Save replaces the file with s. The record is written to a temporary file
// in the same directory and renamed over the old one.
func (st *Store) Save(s types.Snapshot) error {
	dir := filepath.Dir(st.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: create save dir: %v", ErrPersistence, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(st.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrPersistence, err)
	}
	tmpName := tmp.Name()

	if err := Write(tmp, s); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write snapshot: %v", ErrPersistence, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: sync snapshot: %v", ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close snapshot: %v", ErrPersistence, err)
	}
	if err := os.Rename(tmpName, st.Path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replace save file: %v", ErrPersistence, err)
	}
	return nil
}

// Load reads the saved snapshot. ok is false when no file exists.
func (st *Store) Load() (s types.Snapshot, ok bool, err error) {
	data, err := os.ReadFile(st.Path)
	if errors.Is(err, os.ErrNotExist) {
		return types.Snapshot{}, false, nil
	}
	if err != nil {
		return types.Snapshot{}, false, fmt.Errorf("%w: read save file: %v", ErrPersistence, err)
	}
	s, err = Decode(data)
	if err != nil {
		return types.Snapshot{}, false, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return s, true, nil
}

// Delete removes the save file. A missing file is not an error.
func (st *Store) Delete() error {
	if err := os.Remove(st.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: remove save file: %v", ErrPersistence, err)
	}
	return nil
}
