package memory

import (
	"cmp"
	"context"
	"math"
	"slices"
	"strings"

	"github.com/oksasatya/tourhub-api/internal/domain/entity"
	"github.com/oksasatya/tourhub-api/internal/domain/repository"
)

type TourStore struct {
	*Collection[*entity.Tour]
}

func NewTourStore() *TourStore {
	return &TourStore{Collection: NewCollection[*entity.Tour](
		func() *entity.Tour { return &entity.Tour{} },
		func(t *entity.Tour) string { return t.Name },
	)}
}

func (s *TourStore) tours(ctx context.Context) ([]*entity.Tour, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.all()
}

func (s *TourStore) TourStats(ctx context.Context, minRating float64) ([]repository.DifficultyStats, error) {
	tours, err := s.tours(ctx)
	if err != nil {
		return nil, err
	}
	groups := map[string]*repository.DifficultyStats{}
	var order []string
	for _, t := range tours {
		if t.RatingsAverage < minRating {
			continue
		}
		key := strings.ToUpper(t.Difficulty)
		g, ok := groups[key]
		if !ok {
			g = &repository.DifficultyStats{Difficulty: key, MinPrice: math.Inf(1), MaxPrice: math.Inf(-1)}
			groups[key] = g
			order = append(order, key)
		}
		g.NumTours++
		g.NumRatings += t.RatingsQuantity
		g.AverageRating += t.RatingsAverage
		g.AveragePrice += t.Price
		g.MinPrice = math.Min(g.MinPrice, t.Price)
		g.MaxPrice = math.Max(g.MaxPrice, t.Price)
	}

	out := make([]repository.DifficultyStats, 0, len(groups))
	for _, key := range order {
		g := groups[key]
		g.AverageRating /= float64(g.NumTours)
		g.AveragePrice /= float64(g.NumTours)
		out = append(out, *g)
	}
	slices.SortStableFunc(out, func(a, b repository.DifficultyStats) int {
		return cmp.Compare(a.AveragePrice, b.AveragePrice)
	})
	return out, nil
}

func (s *TourStore) MonthlyPlan(ctx context.Context, year int) ([]repository.MonthPlan, error) {
	tours, err := s.tours(ctx)
	if err != nil {
		return nil, err
	}
	byMonth := map[int]*repository.MonthPlan{}
	for _, t := range tours {
		for _, d := range t.StartDates {
			d = d.UTC()
			if d.Year() != year {
				continue
			}
			m := int(d.Month())
			p, ok := byMonth[m]
			if !ok {
				p = &repository.MonthPlan{Month: m}
				byMonth[m] = p
			}
			p.NumTourStarts++
			p.Tours = append(p.Tours, t.Name)
		}
	}
	out := make([]repository.MonthPlan, 0, len(byMonth))
	for _, p := range byMonth {
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b repository.MonthPlan) int {
		if c := cmp.Compare(b.NumTourStarts, a.NumTourStarts); c != 0 {
			return c
		}
		return cmp.Compare(a.Month, b.Month)
	})
	if len(out) > 12 {
		out = out[:12]
	}
	return out, nil
}

type ReviewStore struct {
	*Collection[*entity.Review]
}

func NewReviewStore() *ReviewStore {
	return &ReviewStore{Collection: NewCollection[*entity.Review](
		func() *entity.Review { return &entity.Review{} },
		func(r *entity.Review) string { return r.Tour + "/" + r.User },
	)}
}

func (s *ReviewStore) RatingStats(ctx context.Context, tourID string) (repository.RatingStats, error) {
	if err := ctx.Err(); err != nil {
		return repository.RatingStats{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	reviews, err := s.all()
	if err != nil {
		return repository.RatingStats{}, err
	}
	var st repository.RatingStats
	sum := 0
	for _, r := range reviews {
		if r.Tour == tourID {
			st.Quantity++
			sum += r.Rating
		}
	}
	if st.Quantity > 0 {
		st.Average = float64(sum) / float64(st.Quantity)
	}
	return st, nil
}

var (
	_ repository.TourAnalytics = (*TourStore)(nil)
	_ repository.ReviewStats   = (*ReviewStore)(nil)
)
