package entity

import (
	"math"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

const DefaultRatingsAverage = 4.5

// Tour is a bookable tour. Ratings are maintained by the review hook.
type Tour struct {
	Base            `bson:",inline"`
	Name            string      `json:"name" bson:"name" validate:"required,min=10,max=40"`
	Slug            string      `json:"slug" bson:"slug"`
	Duration        int         `json:"duration" bson:"duration" validate:"required,gt=0"`
	MaxGroupSize    int         `json:"maxGroupSize" bson:"maxGroupSize" validate:"required,gt=0"`
	Difficulty      string      `json:"difficulty" bson:"difficulty" validate:"required,oneof=easy medium difficult"`
	RatingsAverage  float64     `json:"ratingsAverage" bson:"ratingsAverage" validate:"gte=1,lte=5"`
	RatingsQuantity int         `json:"ratingsQuantity" bson:"ratingsQuantity" validate:"gte=0"`
	Price           float64     `json:"price" bson:"price" validate:"required,gt=0"`
	Discount        float64     `json:"discount" bson:"discount" validate:"omitempty,gte=0,ltfield=Price"`
	Summary         string      `json:"summary" bson:"summary" validate:"required"`
	Description     string      `json:"description" bson:"description"`
	ImageCover      string      `json:"imageCover" bson:"imageCover" validate:"required"`
	Images          []string    `json:"images" bson:"images"`
	StartDates      []time.Time `json:"startDates" bson:"startDates"`
	SecretTour      bool        `json:"secretTour" bson:"secretTour"`
}

// Slugify transliterates s into a lower-case, dash separated url segment.
func Slugify(s string) string {
	return slug.Make(s)
}

func (t *Tour) Normalize() {
	t.Name = strings.TrimSpace(t.Name)
	t.Summary = strings.TrimSpace(t.Summary)
	t.Description = strings.TrimSpace(t.Description)
	t.ImageCover = strings.TrimSpace(t.ImageCover)
	t.Slug = Slugify(t.Name)
	if t.RatingsAverage == 0 {
		t.RatingsAverage = DefaultRatingsAverage
	}
	t.RatingsAverage = math.Round(t.RatingsAverage*10) / 10
}
