// Package container builds the application's components from configuration
// and hands them to the router and the commands. Nothing here is global: each
// process constructs one Container and closes it on shutdown.
package container

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/oksasatya/tourhub-api/config"
	"github.com/oksasatya/tourhub-api/internal/application"
	"github.com/oksasatya/tourhub-api/internal/domain/entity"
	repo "github.com/oksasatya/tourhub-api/internal/domain/repository"
	"github.com/oksasatya/tourhub-api/internal/infrastructure/memory"
	"github.com/oksasatya/tourhub-api/internal/infrastructure/mongodb"
	"github.com/oksasatya/tourhub-api/internal/infrastructure/postgres"
	"github.com/oksasatya/tourhub-api/internal/infrastructure/search"
	"github.com/oksasatya/tourhub-api/pkg/helpers"
	"github.com/oksasatya/tourhub-api/pkg/mailer"
	"github.com/oksasatya/tourhub-api/pkg/mailer/templates"
	"github.com/oksasatya/tourhub-api/pkg/query"
	"github.com/oksasatya/tourhub-api/pkg/validation"
)

// TourStore persists tours and answers the tour aggregations.
type TourStore interface {
	repo.Collection[*entity.Tour]
	repo.TourAnalytics
}

// ReviewStore persists reviews and aggregates their ratings.
type ReviewStore interface {
	repo.Collection[*entity.Review]
	repo.ReviewStats
}

// SearchIndex mirrors tours and answers free text searches over them.
type SearchIndex interface {
	application.TourIndexer
	Search(ctx context.Context, q string, size int) ([]map[string]any, error)
}

// Container holds every constructed component of one process.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger

	// Optional infrastructure; nil when not configured.
	Redis  *redis.Client
	PG     *pgxpool.Pool
	Mongo  *mongo.Client
	ES     *elasticsearch.Client
	Rabbit *helpers.RabbitPublisher

	Tokens    *helpers.JWTManager
	Hasher    *helpers.PasswordHasher
	Validator *validation.Validator
	Cookies   *helpers.Manager
	Cache     *helpers.JSONCache
	Notifier  application.Notifier

	Users   repo.UserRepository
	Tours   TourStore
	Reviews ReviewStore
	Search  SearchIndex

	Auth      *application.AuthService
	TourRes   *application.Resource[*entity.Tour]
	ReviewRes *application.Resource[*entity.Review]
	UserRes   *application.Resource[*entity.User]

	closers []func()
}

// New connects the configured backends and wires the services on top of
// them. On error everything opened so far is closed again.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	c := &Container{
		Config:    cfg,
		Logger:    logger,
		Tokens:    helpers.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL, cfg.ResetTTL),
		Hasher:    helpers.NewPasswordHasher(cfg.BcryptCost, cfg.HashConcurrency),
		Validator: validation.New(),
		Cookies:   helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure, cfg.CookieTTL),
	}

	steps := []func(context.Context) error{c.initStorage, c.initSearch, c.initNotifier}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			c.Close()
			return nil, err
		}
	}
	c.Cache = helpers.NewJSONCache(c.Redis, cfg.AppName+":")
	c.initServices()
	return c, nil
}

func (c *Container) onClose(fn func()) {
	c.closers = append(c.closers, fn)
}

// Close releases the connections in reverse order of opening.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

func (c *Container) initStorage(ctx context.Context) error {
	cfg := c.Config
	if cfg.StorageDriver == config.DriverMemory {
		c.Logger.Warn("memory storage driver: data is lost on restart")
		c.Users = memory.NewUserRepository()
		c.Tours = memory.NewTourStore()
		c.Reviews = memory.NewReviewStore()
		return nil
	}

	rdb, err := helpers.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	c.Redis = rdb
	c.onClose(func() { _ = rdb.Close() })

	pool, err := postgres.NewPool(ctx, cfg.PostgresDSN(), postgres.PoolOptions{
		MaxConns:    cfg.DBMaxConns,
		MinConns:    cfg.DBMinConns,
		MaxConnLife: cfg.DBMaxConnLife,
	})
	if err != nil {
		return err
	}
	c.PG = pool
	c.onClose(pool.Close)
	if err := postgres.Migrate(cfg.PostgresDSN(), cfg.MigrationsDir, c.Logger); err != nil {
		return err
	}
	c.Users = postgres.NewUserRepository(pool)

	client, err := mongodb.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	c.Mongo = client
	c.onClose(func() { _ = client.Disconnect(context.Background()) })
	db := client.Database(cfg.MongoDB)
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return err
	}
	c.Tours = mongodb.NewTourStore(db)
	c.Reviews = mongodb.NewReviewStore(db)
	return nil
}

func (c *Container) initSearch(ctx context.Context) error {
	cfg := c.Config
	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(ctx, addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			return err
		}
		c.ES = es
		idx := search.NewTourIndex(es, cfg.ESToursIndex)
		if err := idx.EnsureIndex(ctx); err != nil {
			return err
		}
		c.Search = idx
		return nil
	}

	idx := search.NewMemoryIndex()
	c.Search = idx
	return c.reindex(ctx, idx)
}

// reindex loads the stored tours into an in-process index.
func (c *Container) reindex(ctx context.Context, idx SearchIndex) error {
	total, err := c.Tours.Count(ctx, nil)
	if err != nil {
		return fmt.Errorf("count tours for search: %w", err)
	}
	params := url.Values{"limit": {strconv.Itoa(query.MaxLimit)}}
	for page := 1; int64(page-1)*query.MaxLimit < total; page++ {
		params.Set("page", strconv.Itoa(page))
		q, err := query.New(params).Run(ctx, c.Tours)
		if err != nil {
			return err
		}
		tours, err := c.Tours.Find(ctx, q)
		if err != nil {
			return fmt.Errorf("load tours for search: %w", err)
		}
		for _, t := range tours {
			if err := idx.Index(ctx, t); err != nil {
				return err
			}
		}
	}
	c.Logger.WithField("tours", total).Debug("search index loaded")
	return nil
}

func (c *Container) initNotifier(_ context.Context) error {
	cfg := c.Config
	brand := templates.Brand{AppName: cfg.AppName, SupportURL: cfg.SupportURL}
	switch {
	case !cfg.MailSendEnabled:
		c.Notifier = &mailer.LogNotifier{Logger: c.Logger}
	case cfg.RabbitMQURL != "":
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			return fmt.Errorf("rabbitmq: %w", err)
		}
		c.Rabbit = pub
		c.onClose(pub.Close)
		c.Notifier = mailer.NewQueueNotifier(pub)
	case cfg.MailgunDomain != "" && cfg.MailgunAPIKey != "":
		mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
		c.Notifier = mailer.NewMailgunNotifier(mg, brand)
	default:
		c.Logger.Warn("no mail transport configured, emails are only logged")
		c.Notifier = &mailer.LogNotifier{Logger: c.Logger}
	}
	return nil
}

func (c *Container) initServices() {
	cfg := c.Config
	c.Auth = application.NewAuthService(c.Users, c.Tokens, c.Hasher, c.Notifier, c.Validator, c.Logger, cfg.ResetPasswordURL)

	c.TourRes = application.NewResource(
		application.TourDescriptor(
			application.IndexTours(c.Search),
			application.DropCached[*entity.Tour](c.Cache, application.TourStatsCacheKey),
		),
		c.Tours, c.Validator, c.Logger,
	)
	c.ReviewRes = application.NewResource(
		application.ReviewDescriptor(c.Tours, c.Users,
			application.RecomputeTourRatings(c.Tours, c.Reviews, time.Now),
			application.DropCached[*entity.Review](c.Cache, application.TourStatsCacheKey),
		),
		c.Reviews, c.Validator, c.Logger,
	)
	c.UserRes = application.NewResource(application.UserDescriptor(), c.Users, c.Validator, c.Logger)
}
