package state

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// SchemaVersion changes whenever the encoded layout does.
const SchemaVersion uint16 = 1

// RotationState is the persisted fuzz target cursor of one descriptor,
// identified by the hash of its protocol and messages.
type RotationState struct {
	DescriptorHash string    `msgpack:"descriptor_hash"`
	Path           string    `msgpack:"path"`
	Cursor         uint32    `msgpack:"cursor"`
	Rotations      uint64    `msgpack:"rotations"`
	UpdatedAt      time.Time `msgpack:"updated_at"`
}

// Snapshot is the on-disk container for every tracked descriptor.
type Snapshot struct {
	Schema uint16          `msgpack:"schema"`
	States []RotationState `msgpack:"states"`
}

// Started reports whether the descriptor was ever rotated.
func (r *RotationState) Started() bool {
	return r.Rotations > 0
}

// SaveToFile writes the snapshot through a temporary file and renames it
// into place.
func (s *Snapshot) SaveToFile(path string) error {
	s.Schema = SchemaVersion
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, ".fuzzdesc-state-*")
	if err != nil {
		return fmt.Errorf("failed to create state file in %s: %w", dir, err)
	}
	defer os.Remove(f.Name())

	if err := msgpack.NewEncoder(f).Encode(s); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// LoadFromFile reads a snapshot written by SaveToFile.
func LoadFromFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var s Snapshot
	if err := msgpack.NewDecoder(f).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode state %s: %w", path, err)
	}
	if s.Schema != SchemaVersion {
		return nil, fmt.Errorf("state %s has schema %d, want %d", path, s.Schema, SchemaVersion)
	}
	return &s, nil
}
