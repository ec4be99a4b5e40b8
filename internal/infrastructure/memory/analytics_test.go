package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/tourhub-api/internal/domain/entity"
)

func TestTourStats(t *testing.T) {
	ctx := context.Background()
	s := NewTourStore()
	seed := []struct {
		id, difficulty string
		rating, price  float64
	}{
		{"a", "easy", 4.8, 400},
		{"b", "easy", 4.6, 200},
		{"c", "difficult", 4.9, 900},
		{"d", "medium", 3.9, 100},
	}
	for _, x := range seed {
		tr := tour(x.id, x.price)
		tr.Difficulty, tr.RatingsAverage, tr.RatingsQuantity = x.difficulty, x.rating, 2
		require.NoError(t, s.Insert(ctx, tr))
	}

	stats, err := s.TourStats(ctx, 4.5)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "EASY", stats[0].Difficulty)
	assert.Equal(t, 2, stats[0].NumTours)
	assert.Equal(t, 4, stats[0].NumRatings)
	assert.Equal(t, 300.0, stats[0].AveragePrice)
	assert.Equal(t, 200.0, stats[0].MinPrice)
	assert.Equal(t, "DIFFICULT", stats[1].Difficulty)
}

func TestMonthlyPlan(t *testing.T) {
	ctx := context.Background()
	s := NewTourStore()
	day := func(m time.Month) time.Time { return time.Date(2026, m, 10, 9, 0, 0, 0, time.UTC) }

	a := tour("a", 100)
	a.StartDates = []time.Time{day(time.March), day(time.July), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}
	b := tour("b", 100)
	b.StartDates = []time.Time{day(time.July)}
	require.NoError(t, s.Insert(ctx, a))
	require.NoError(t, s.Insert(ctx, b))

	plan, err := s.MonthlyPlan(ctx, 2026)
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, 7, plan[0].Month)
	assert.Equal(t, 2, plan[0].NumTourStarts)
	assert.ElementsMatch(t, []string{"Tour a", "Tour b"}, plan[0].Tours)
	assert.Equal(t, 3, plan[1].Month)
}

func TestRatingStats(t *testing.T) {
	ctx := context.Background()
	s := NewReviewStore()
	for i, r := range []struct {
		tour, user string
		rating     int
	}{{"t1", "u1", 5}, {"t1", "u2", 4}, {"t2", "u1", 1}} {
		rev := &entity.Review{Tour: r.tour, User: r.user, Rating: r.rating}
		rev.ID = string(rune('a' + i))
		require.NoError(t, s.Insert(ctx, rev))
	}

	st, err := s.RatingStats(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 2, st.Quantity)
	assert.Equal(t, 4.5, st.Average)

	dup := &entity.Review{Tour: "t1", User: "u1", Rating: 3}
	dup.ID = "z"
	assert.Error(t, s.Insert(ctx, dup))
}
