package application

import (
	"context"
	"errors"
	"time"

	"github.com/oksasatya/tourhub-api/internal/domain/entity"
	repo "github.com/oksasatya/tourhub-api/internal/domain/repository"
	"github.com/oksasatya/tourhub-api/pkg/helpers"
)

// TourStatsCacheKey holds the cached /tours/tour-stats aggregation.
const TourStatsCacheKey = "tours:stats"

// ratingRetries bounds optimistic retries when a tour changes under the hook.
const ratingRetries = 3

// RecomputeTourRatings keeps ratingsAverage and ratingsQuantity of the
// reviewed tour in line with its reviews. When an update moves a review to
// another tour, both tours are recomputed.
func RecomputeTourRatings(tours repo.Collection[*entity.Tour], stats repo.ReviewStats, now func() time.Time) Hook[*entity.Review] {
	return func(ctx context.Context, ev WriteEvent[*entity.Review]) error {
		ids := []string{ev.Record.Tour}
		if ev.Previous != nil && ev.Previous.Tour != ev.Record.Tour {
			ids = append(ids, ev.Previous.Tour)
		}
		var errs []error
		for _, id := range ids {
			errs = append(errs, recomputeTour(ctx, tours, stats, now, id))
		}
		return errors.Join(errs...)
	}
}

func recomputeTour(ctx context.Context, tours repo.Collection[*entity.Tour], stats repo.ReviewStats, now func() time.Time, tourID string) error {
	st, err := stats.RatingStats(ctx, tourID)
	if err != nil {
		return err
	}
	for attempt := 0; ; attempt++ {
		t, err := tours.Get(ctx, tourID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		t.RatingsQuantity = st.Quantity
		t.RatingsAverage = st.Average
		if st.Quantity == 0 {
			t.RatingsAverage = entity.DefaultRatingsAverage
		}
		t.Normalize()
		t.Stamp(now())

		err = tours.Replace(ctx, t)
		if !errors.Is(err, repo.ErrVersionConflict) || attempt+1 >= ratingRetries {
			return err
		}
	}
}

// TourIndexer mirrors tours into a search index.
type TourIndexer interface {
	Index(ctx context.Context, t *entity.Tour) error
	Remove(ctx context.Context, id string) error
}

// IndexTours keeps the search index current with tour writes.
func IndexTours(idx TourIndexer) Hook[*entity.Tour] {
	return func(ctx context.Context, ev WriteEvent[*entity.Tour]) error {
		if ev.Op == OpDeleted {
			return idx.Remove(ctx, ev.Record.ID)
		}
		return idx.Index(ctx, ev.Record)
	}
}

// DropCached forgets cached aggregations after every write of T.
func DropCached[T entity.Record](cache *helpers.JSONCache, keys ...string) Hook[T] {
	return func(ctx context.Context, _ WriteEvent[T]) error {
		return cache.Drop(ctx, keys...)
	}
}
