package core

import (
	"errors"
	"os"
	"sync"

	"fuzzdesc/internal/state"
)

// StateStore abstracts rotation state persistence for testability.
type StateStore interface {
	Load() ([]state.RotationState, error)
	Save([]state.RotationState) error
}

// FileStateStore implements StateStore using a msgpack file.
type FileStateStore struct {
	mu   sync.Mutex
	File string
}

func NewFileStateStore(file string) *FileStateStore {
	return &FileStateStore{File: file}
}

// Load returns no states when the file does not exist yet.
func (fs *FileStateStore) Load() ([]state.RotationState, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	snap, err := state.LoadFromFile(fs.File)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return snap.States, nil
}

func (fs *FileStateStore) Save(states []state.RotationState) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	snap := &state.Snapshot{States: states}
	return snap.SaveToFile(fs.File)
}

// InMemoryStateStore implements StateStore for testing (no disk I/O).
type InMemoryStateStore struct {
	mu     sync.Mutex
	states []state.RotationState
}

func NewInMemoryStateStore() *InMemoryStateStore {
	return &InMemoryStateStore{}
}

func (ms *InMemoryStateStore) Load() ([]state.RotationState, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	cpy := make([]state.RotationState, len(ms.states))
	copy(cpy, ms.states)
	return cpy, nil
}

func (ms *InMemoryStateStore) Save(states []state.RotationState) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	cpy := make([]state.RotationState, len(states))
	copy(cpy, states)
	ms.states = cpy
	return nil
}

// findState returns the index of the entry for hash, or -1.
func findState(states []state.RotationState, hash string) int {
	for i, s := range states {
		if s.DescriptorHash == hash {
			return i
		}
	}
	return -1
}

// RemoveState drops the entry for hash.
func RemoveState(states []state.RotationState, hash string) []state.RotationState {
	var kept []state.RotationState
	for _, s := range states {
		if s.DescriptorHash != hash {
			kept = append(kept, s)
		}
	}
	return kept
}
