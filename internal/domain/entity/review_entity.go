package entity

import "strings"

// Review belongs to one tour and one principal; a principal reviews a tour
// at most once.
type Review struct {
	Base   `bson:",inline"`
	Review string `json:"review" bson:"review" validate:"required,min=50"`
	Rating int    `json:"rating" bson:"rating" validate:"required,min=1,max=5"`
	Tour   string `json:"tour" bson:"tour" validate:"required"`
	User   string `json:"user" bson:"user" validate:"required"`
}

func (r *Review) Normalize() {
	r.Review = strings.TrimSpace(r.Review)
}
