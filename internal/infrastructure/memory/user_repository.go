package memory

import (
	"context"
	"time"

	"github.com/oksasatya/tourhub-api/internal/domain/entity"
	"github.com/oksasatya/tourhub-api/internal/domain/repository"
)

type UserRepository struct {
	*Collection[*entity.User]
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		Collection: NewCollection[*entity.User](
			func() *entity.User { return &entity.User{} },
			func(u *entity.User) string { return entity.NormalizeEmail(u.Email) },
		),
	}
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	email = entity.NormalizeEmail(email)
	return r.first(ctx, func(u *entity.User) bool { return u.Email == email })
}

func (r *UserRepository) GetByResetTokenHash(ctx context.Context, digest string, now time.Time) (*entity.User, error) {
	return r.first(ctx, func(u *entity.User) bool {
		return u.PasswordResetTokenHash != nil && *u.PasswordResetTokenHash == digest &&
			u.PasswordResetExpiresAt != nil && u.PasswordResetExpiresAt.After(now)
	})
}

var _ repository.UserRepository = (*UserRepository)(nil)
