package repository

import (
	"context"
	"time"

	"github.com/oksasatya/tourhub-api/internal/domain/entity"
)

// UserRepository stores principals. Beyond the generic collection contract it
// offers the two lookups the auth flows need.
type UserRepository interface {
	Collection[*entity.User]
	// GetByEmail matches the normalized email, active or not.
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// GetByResetTokenHash matches a stored reset digest whose expiry is after now.
	GetByResetTokenHash(ctx context.Context, digest string, now time.Time) (*entity.User, error)
}
