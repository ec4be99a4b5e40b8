package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oksasatya/tourhub-api/internal/domain/entity"
	"github.com/oksasatya/tourhub-api/internal/domain/repository"
	"github.com/oksasatya/tourhub-api/pkg/query"
)

const (
	TourCollection   = "tours"
	ReviewCollection = "reviews"
)

// Collection implements repository.Collection over one MongoDB collection.
type Collection[T entity.Record] struct {
	coll *mongo.Collection
	newT func() T
}

func NewCollection[T entity.Record](db *mongo.Database, name string, newT func() T) *Collection[T] {
	return &Collection[T]{coll: db.Collection(name), newT: newT}
}

func (c *Collection[T]) Insert(ctx context.Context, rec T) error {
	if _, err := c.coll.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	rec := c.newT()
	if err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(rec); err != nil {
		var zero T
		if errors.Is(err, mongo.ErrNoDocuments) {
			return zero, repository.ErrNotFound
		}
		return zero, err
	}
	return rec, nil
}

func (c *Collection[T]) Find(ctx context.Context, q query.Query) ([]T, error) {
	filter, err := renderFilter(q.Conditions())
	if err != nil {
		return nil, err
	}
	sort, err := renderSort(q.Sort())
	if err != nil {
		return nil, err
	}
	projection, err := renderProjection(q.Projection())
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSort(sort).
		SetSkip(int64(q.Skip())).
		SetLimit(int64(q.Limit()))
	if projection != nil {
		opts.SetProjection(projection)
	}

	cursor, err := c.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cursor.Close(ctx) }()

	out := make([]T, 0, q.Limit())
	for cursor.Next(ctx) {
		rec := c.newT()
		if err := cursor.Decode(rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, cursor.Err()
}

func (c *Collection[T]) Count(ctx context.Context, conds []query.Condition) (int64, error) {
	filter, err := renderFilter(conds)
	if err != nil {
		return 0, err
	}
	return c.coll.CountDocuments(ctx, filter)
}

func (c *Collection[T]) Replace(ctx context.Context, rec T) error {
	expected := rec.GetVersion()
	rec.SetVersion(expected + 1)

	res, err := c.coll.ReplaceOne(ctx, bson.M{"_id": rec.GetID(), query.VersionField: expected}, rec)
	if err != nil {
		rec.SetVersion(expected)
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	if res.MatchedCount == 0 {
		rec.SetVersion(expected)
		n, err := c.coll.CountDocuments(ctx, bson.M{"_id": rec.GetID()})
		if err != nil {
			return err
		}
		if n == 0 {
			return repository.ErrNotFound
		}
		return repository.ErrVersionConflict
	}
	return nil
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.Collection[*entity.Review] = (*Collection[*entity.Review])(nil)
