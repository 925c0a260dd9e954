// Package dao defines the minimal storage contract used by stores that can
// live either in memory or on a filesystem.
package dao

import (
	"context"
	"errors"

	"github.com/viant/priorq/model"
)

// Service abstracts persistence of keyed entities.
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context) ([]*T, error)
}

// Reusable DAO errors, aliased into the engine taxonomy so callers only
// ever check one set of sentinels.

var (
	// ErrNotFound is returned when the requested entity does not exist in
	// the underlying storage.
	ErrNotFound = model.ErrNotFound

	// ErrInvalidID indicates that the supplied ID/key is empty.
	ErrInvalidID = errors.New("dao: invalid id")

	// ErrNilEntity is returned when the caller attempts to persist a nil
	// pointer.
	ErrNilEntity = errors.New("dao: nil entity")
)
