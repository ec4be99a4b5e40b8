// Package memory is the in-process storage driver. Records are kept as bson
// snapshots so callers never share memory with the store, and so values go
// through the same encoding the mongo driver applies.
package memory

import (
	"context"
	"encoding/json"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/oksasatya/tourhub-api/internal/domain/entity"
	"github.com/oksasatya/tourhub-api/internal/domain/repository"
	"github.com/oksasatya/tourhub-api/pkg/query"
)

// UniqueKey extracts a value that must be unique across the collection. An
// empty key is not constrained.
type UniqueKey[T entity.Record] func(T) string

type Collection[T entity.Record] struct {
	mu     sync.RWMutex
	newT   func() T
	items  map[string][]byte
	unique []UniqueKey[T]
}

func NewCollection[T entity.Record](newT func() T, unique ...UniqueKey[T]) *Collection[T] {
	return &Collection[T]{newT: newT, items: make(map[string][]byte), unique: unique}
}

func (c *Collection[T]) decode(raw []byte) (T, error) {
	rec := c.newT()
	if err := bson.Unmarshal(raw, rec); err != nil {
		var zero T
		return zero, err
	}
	return rec, nil
}

// all decodes every record; callers hold at least the read lock.
func (c *Collection[T]) all() ([]T, error) {
	out := make([]T, 0, len(c.items))
	for _, raw := range c.items {
		rec, err := c.decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// conflicts reports whether rec collides on a unique key with a record other
// than itself; callers hold the lock.
func (c *Collection[T]) conflicts(rec T) (bool, error) {
	if len(c.unique) == 0 {
		return false, nil
	}
	existing, err := c.all()
	if err != nil {
		return false, err
	}
	for _, key := range c.unique {
		k := key(rec)
		if k == "" {
			continue
		}
		for _, other := range existing {
			if other.GetID() != rec.GetID() && key(other) == k {
				return true, nil
			}
		}
	}
	return false, nil
}

func (c *Collection[T]) Insert(ctx context.Context, rec T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[rec.GetID()]; ok {
		return repository.ErrDuplicate
	}
	dup, err := c.conflicts(rec)
	if err != nil {
		return err
	}
	if dup {
		return repository.ErrDuplicate
	}
	raw, err := bson.Marshal(rec)
	if err != nil {
		return err
	}
	c.items[rec.GetID()] = raw
	return nil
}

func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	raw, ok := c.items[id]
	if !ok {
		return zero, repository.ErrNotFound
	}
	return c.decode(raw)
}

func (c *Collection[T]) Find(ctx context.Context, q query.Query) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	items, err := c.all()
	if err != nil {
		return nil, err
	}
	return query.Execute(q, items, Document[T]), nil
}

func (c *Collection[T]) Count(ctx context.Context, conds []query.Condition) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	items, err := c.all()
	if err != nil {
		return 0, err
	}
	var n int64
	for _, it := range items {
		if query.MatchAll(conds, Document(it)) {
			n++
		}
	}
	return n, nil
}

func (c *Collection[T]) Replace(ctx context.Context, rec T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, ok := c.items[rec.GetID()]
	if !ok {
		return repository.ErrNotFound
	}
	stored, err := c.decode(raw)
	if err != nil {
		return err
	}
	if stored.GetVersion() != rec.GetVersion() {
		return repository.ErrVersionConflict
	}
	dup, err := c.conflicts(rec)
	if err != nil {
		return err
	}
	if dup {
		return repository.ErrDuplicate
	}

	rec.SetVersion(rec.GetVersion() + 1)
	next, err := bson.Marshal(rec)
	if err != nil {
		rec.SetVersion(rec.GetVersion() - 1)
		return err
	}
	c.items[rec.GetID()] = next
	return nil
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(c.items, id)
	return nil
}

// first returns the first record satisfying pred.
func (c *Collection[T]) first(ctx context.Context, pred func(T) bool) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	items, err := c.all()
	if err != nil {
		return zero, err
	}
	for _, it := range items {
		if pred(it) {
			return it, nil
		}
	}
	return zero, repository.ErrNotFound
}

// Document renders rec into its canonical field map: the JSON form, so
// hidden fields never take part in matching.
func Document[T any](rec T) map[string]any {
	b, err := json.Marshal(rec)
	if err != nil {
		return map[string]any{}
	}
	doc := map[string]any{}
	if err := json.Unmarshal(b, &doc); err != nil {
		return map[string]any{}
	}
	return doc
}

var _ repository.Collection[*entity.Tour] = (*Collection[*entity.Tour])(nil)
