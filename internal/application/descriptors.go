package application

import (
	"context"

	"github.com/oksasatya/tourhub-api/internal/domain/entity"
	repo "github.com/oksasatya/tourhub-api/internal/domain/repository"
	"github.com/oksasatya/tourhub-api/pkg/query"
)

// Scopes applied to every listing of the resource, whatever the request says.
var (
	PublicTours       = query.Ne("secretTour", true)
	ActiveUsers       = query.Ne("active", false)
	defaultProjection = query.Projection{Exclude: []string{query.VersionField}}
)

func TourDescriptor(hooks ...Hook[*entity.Tour]) Descriptor[*entity.Tour] {
	return Descriptor[*entity.Tour]{
		Name:       "tour",
		New:        func() *entity.Tour { return &entity.Tour{} },
		AfterWrite: hooks,
	}
}

// ReviewDescriptor declares the tour and user relations of a review. The user
// relation expands to the public summary only.
func ReviewDescriptor(tours repo.Collection[*entity.Tour], users repo.UserRepository, hooks ...Hook[*entity.Review]) Descriptor[*entity.Review] {
	return Descriptor[*entity.Review]{
		Name: "review",
		New:  func() *entity.Review { return &entity.Review{} },
		// The author is fixed at creation.
		Immutable: []string{"user"},
		Relations: []Relation{
			{Field: "tour", Resolve: func(ctx context.Context, id string) (any, error) {
				t, err := tours.Get(ctx, id)
				if err != nil {
					return nil, err
				}
				return toDocument(t, defaultProjection, nil), nil
			}},
			{Field: "user", Resolve: func(ctx context.Context, id string) (any, error) {
				u, err := users.Get(ctx, id)
				if err != nil {
					return nil, err
				}
				return u.Summary(), nil
			}},
		},
		AfterWrite: hooks,
	}
}

// UserDescriptor backs the admin user endpoints. Credentials are json:"-" on
// the entity, so a patch can never reach them.
func UserDescriptor() Descriptor[*entity.User] {
	return Descriptor[*entity.User]{
		Name:   "user",
		New:    func() *entity.User { return &entity.User{} },
		Hidden: []string{"active"},
		// Only a password change moves passwordChangedAt.
		Immutable: []string{"passwordChangedAt"},
	}
}
