// Package persist reads and writes the durable JSON snapshot of the
// catalog and order stores.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fairyhunter13/order-fulfillment-service/internal/model"
)

// File persists snapshots at a fixed path. Writes go through a temp file
// in the same directory followed by a rename, so readers never observe a
// torn file.
type File struct {
	path string
}

// Open returns a File bound to path. The file itself is created on the
// first Flush.
func Open(path string) *File {
	return &File{path: path}
}

// Load reads the snapshot. A missing file is the empty first-use state,
// not an error.
func (f *File) Load() (model.Snapshot, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.Snapshot{}, nil
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("read %s: %w", f.path, err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return model.Snapshot{}, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return snap, nil
}

// Flush replaces the snapshot on disk.
func (f *File) Flush(snap model.Snapshot) error {
	if snap.Products == nil {
		snap.Products = []model.Product{}
	}
	if snap.Orders == nil {
		snap.Orders = []model.Order{}
	}
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
