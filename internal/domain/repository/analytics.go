package repository

import "context"

// RatingStats summarizes the reviews of one tour.
type RatingStats struct {
	Quantity int
	Average  float64
}

// ReviewStats computes rating aggregates over stored reviews.
type ReviewStats interface {
	RatingStats(ctx context.Context, tourID string) (RatingStats, error)
}

// DifficultyStats groups highly rated tours by difficulty.
type DifficultyStats struct {
	Difficulty    string  `json:"difficulty" bson:"_id"`
	NumTours      int     `json:"numTours" bson:"numTours"`
	NumRatings    int     `json:"numRatings" bson:"numRatings"`
	AverageRating float64 `json:"averageRating" bson:"averageRating"`
	AveragePrice  float64 `json:"averagePrice" bson:"averagePrice"`
	MinPrice      float64 `json:"minPrice" bson:"minPrice"`
	MaxPrice      float64 `json:"maxPrice" bson:"maxPrice"`
}

// MonthPlan lists the tours starting in one month of a year.
type MonthPlan struct {
	Month         int      `json:"month" bson:"month"`
	NumTourStarts int      `json:"numTourStarts" bson:"numTourStarts"`
	Tours         []string `json:"tours" bson:"tours"`
}

// TourAnalytics answers the reporting queries over tours.
type TourAnalytics interface {
	// TourStats covers tours rated at least minRating, ordered by average price.
	TourStats(ctx context.Context, minRating float64) ([]DifficultyStats, error)
	// MonthlyPlan covers start dates within year, busiest month first, at most 12.
	MonthlyPlan(ctx context.Context, year int) ([]MonthPlan, error)
}
