package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/tourhub-api/internal/domain/entity"
	"github.com/oksasatya/tourhub-api/pkg/query"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("duplicate key")
	ErrVersionConflict = errors.New("record was modified concurrently")
	ErrUnknownField    = errors.New("unknown field")
	ErrInvalidValue    = errors.New("invalid value for field")
)

// Collection is the storage contract the generic resource handlers run on.
// Every call is atomic on its own; nothing spans calls.
type Collection[T entity.Record] interface {
	query.Counter

	// Insert stores a new record. The caller assigns id and timestamps.
	Insert(ctx context.Context, rec T) error
	// Get returns ErrNotFound when id does not resolve.
	Get(ctx context.Context, id string) (T, error)
	// Find runs conditions, sort and window of q. Projection is advisory.
	Find(ctx context.Context, q query.Query) ([]T, error)
	// Replace overwrites the stored record if its version still equals
	// rec.GetVersion(), then bumps rec's version. A mismatch yields
	// ErrVersionConflict; a missing record yields ErrNotFound.
	Replace(ctx context.Context, rec T) error
	// Delete removes the record; ErrNotFound when absent.
	Delete(ctx context.Context, id string) error
}
