package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tourhub-api/config"
	"github.com/oksasatya/tourhub-api/internal/container"
	"github.com/oksasatya/tourhub-api/internal/domain/entity"
	repo "github.com/oksasatya/tourhub-api/internal/domain/repository"
	"github.com/oksasatya/tourhub-api/pkg/apperror"
)

//go:embed tours.json
var sampleTours []byte

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logrus.New()
	ctx := context.Background()

	c, err := container.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to build application: %v", err)
	}
	defer c.Close()

	if err := seedAdmin(ctx, c, getenv("SEED_ADMIN_EMAIL", "admin@tourhub.io"), getenv("SEED_ADMIN_PASSWORD", "test1234")); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	if err := seedTours(ctx, c); err != nil {
		log.Fatalf("failed to seed tours: %v", err)
	}
}

func seedAdmin(ctx context.Context, c *container.Container, email, password string) error {
	if _, err := c.Users.GetByEmail(ctx, email); err == nil {
		log.Printf("admin %s already exists", email)
		return nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return err
	}

	hash, err := c.Hasher.Hash(ctx, password)
	if err != nil {
		return err
	}
	u, err := c.UserRes.CreateOne(ctx, &entity.User{
		Name:         "Tourhub Admin",
		Email:        email,
		Role:         entity.RoleAdmin,
		Active:       true,
		PasswordHash: hash,
	})
	if err != nil {
		return err
	}
	log.Printf("seeded admin: id=%s email=%s password=%s", u.ID, u.Email, password)
	return nil
}

func seedTours(ctx context.Context, c *container.Container) error {
	var tours []*entity.Tour
	if err := json.Unmarshal(sampleTours, &tours); err != nil {
		return err
	}
	for _, t := range tours {
		created, err := c.TourRes.CreateOne(ctx, t)
		if errors.Is(err, apperror.ErrValidation) {
			log.Printf("skipped tour %q: %v", t.Name, err)
			continue
		}
		if err != nil {
			return err
		}
		log.Printf("seeded tour: id=%s name=%s", created.ID, created.Name)
	}
	return nil
}
