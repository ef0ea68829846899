package storage

import (
	"context"
	"errors"
)

var (
	ErrClosed        = errors.New("storage: store is closed")
	ErrEmptyEntityID = errors.New("storage: empty entity id")
)

// VariableStore persists the stateful variables of entities as (key, value)
// pairs grouped by entity.
type VariableStore interface {
	// Save replaces everything stored for entityID with values.
	Save(ctx context.Context, entityID string, values map[string]float64) error
	// Load returns the values stored for entityID. An unknown entity yields an
	// empty map and no error.
	Load(ctx context.Context, entityID string) (map[string]float64, error)
	// Entities lists the IDs that have stored variables, sorted.
	Entities(ctx context.Context) ([]string, error)
	Statistics() Statistics
	Close() error
}

// Statistics counts store operations since it was opened.
type Statistics struct {
	Saves  uint64 `json:"saves"`
	Loads  uint64 `json:"loads"`
	Errors uint64 `json:"errors"`
}
