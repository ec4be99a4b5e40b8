package entity

import "time"

// Base carries the bookkeeping fields every stored record has. Field names are
// the canonical query names; bson and json agree so one query descriptor
// renders into any store.
type Base struct {
	ID        string    `json:"id" bson:"_id"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
	Version   int       `json:"__v" bson:"__v"`
}

// Record is implemented by every entity through its embedded Base.
type Record interface {
	GetID() string
	SetID(id string)
	GetVersion() int
	SetVersion(v int)
	Stamp(now time.Time)
}

func (b *Base) GetID() string    { return b.ID }
func (b *Base) SetID(id string)  { b.ID = id }
func (b *Base) GetVersion() int  { return b.Version }
func (b *Base) SetVersion(v int) { b.Version = v }

// Stamp sets CreatedAt on first write and UpdatedAt on every write.
func (b *Base) Stamp(now time.Time) {
	now = now.UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

// Normalizer is implemented by entities that derive or clean fields before
// validation.
type Normalizer interface {
	Normalize()
}
