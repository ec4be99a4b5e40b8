package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/oksasatya/tourhub-api/internal/domain/entity"
	"github.com/oksasatya/tourhub-api/internal/domain/repository"
)

type TourStore struct {
	*Collection[*entity.Tour]
}

func NewTourStore(db *mongo.Database) *TourStore {
	return &TourStore{Collection: NewCollection(db, TourCollection, func() *entity.Tour { return &entity.Tour{} })}
}

func (s *TourStore) TourStats(ctx context.Context, minRating float64) ([]repository.DifficultyStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"ratingsAverage": bson.M{"$gte": minRating}}}},
		{{Key: "$group", Value: bson.M{
			"_id":           bson.M{"$toUpper": "$difficulty"},
			"numTours":      bson.M{"$sum": 1},
			"numRatings":    bson.M{"$sum": "$ratingsQuantity"},
			"averageRating": bson.M{"$avg": "$ratingsAverage"},
			"averagePrice":  bson.M{"$avg": "$price"},
			"minPrice":      bson.M{"$min": "$price"},
			"maxPrice":      bson.M{"$max": "$price"},
		}}},
		{{Key: "$sort", Value: bson.M{"averagePrice": 1}}},
	}
	out := []repository.DifficultyStats{}
	if err := s.aggregate(ctx, pipeline, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *TourStore) MonthlyPlan(ctx context.Context, year int) ([]repository.MonthPlan, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	pipeline := mongo.Pipeline{
		{{Key: "$unwind", Value: "$startDates"}},
		{{Key: "$match", Value: bson.M{"startDates": bson.M{"$gte": from, "$lt": from.AddDate(1, 0, 0)}}}},
		{{Key: "$group", Value: bson.M{
			"_id":           bson.M{"$month": "$startDates"},
			"numTourStarts": bson.M{"$sum": 1},
			"tours":         bson.M{"$push": "$name"},
		}}},
		{{Key: "$addFields", Value: bson.M{"month": "$_id"}}},
		{{Key: "$project", Value: bson.M{"_id": 0}}},
		{{Key: "$sort", Value: bson.D{{Key: "numTourStarts", Value: -1}, {Key: "month", Value: 1}}}},
		{{Key: "$limit", Value: 12}},
	}
	out := []repository.MonthPlan{}
	if err := s.aggregate(ctx, pipeline, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *TourStore) aggregate(ctx context.Context, pipeline mongo.Pipeline, out any) error {
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer func() { _ = cursor.Close(ctx) }()
	return cursor.All(ctx, out)
}

type ReviewStore struct {
	*Collection[*entity.Review]
}

func NewReviewStore(db *mongo.Database) *ReviewStore {
	return &ReviewStore{Collection: NewCollection(db, ReviewCollection, func() *entity.Review { return &entity.Review{} })}
}

func (s *ReviewStore) RatingStats(ctx context.Context, tourID string) (repository.RatingStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"tour": tourID}}},
		{{Key: "$group", Value: bson.M{
			"_id":      "$tour",
			"quantity": bson.M{"$sum": 1},
			"average":  bson.M{"$avg": "$rating"},
		}}},
	}
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return repository.RatingStats{}, err
	}
	defer func() { _ = cursor.Close(ctx) }()

	var rows []struct {
		Quantity int     `bson:"quantity"`
		Average  float64 `bson:"average"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return repository.RatingStats{}, err
	}
	if len(rows) == 0 {
		return repository.RatingStats{}, nil
	}
	return repository.RatingStats{Quantity: rows[0].Quantity, Average: rows[0].Average}, nil
}

var (
	_ repository.TourAnalytics = (*TourStore)(nil)
	_ repository.ReviewStats   = (*ReviewStore)(nil)
)
