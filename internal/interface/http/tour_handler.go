package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tourhub-api/internal/application"
	"github.com/oksasatya/tourhub-api/internal/domain/entity"
	repo "github.com/oksasatya/tourhub-api/internal/domain/repository"
	"github.com/oksasatya/tourhub-api/pkg/apperror"
	"github.com/oksasatya/tourhub-api/pkg/helpers"
	"github.com/oksasatya/tourhub-api/pkg/query"
	"github.com/oksasatya/tourhub-api/pkg/response"
)

// TopCheapParams back /tours/top-5-cheap.
var TopCheapParams = map[string]string{
	"limit":  "5",
	"sort":   "-ratingsAverage,price",
	"fields": "name,price,ratingsAverage,summary,difficulty",
}

// StatsMinRating is the rating threshold of /tours/tour-stats.
const StatsMinRating = 4.5

// TourSearcher answers free text searches over tours.
type TourSearcher interface {
	Search(ctx context.Context, q string, size int) ([]map[string]any, error)
}

// TourHandler serves the tour routes that are not plain CRUD.
type TourHandler struct {
	*ResourceHandler[*entity.Tour]
	Analytics repo.TourAnalytics
	Searcher  TourSearcher
	// Cache keeps tour stats for StatsTTL.
	Cache    *helpers.JSONCache
	StatsTTL time.Duration
	Logger   *logrus.Logger
}

// NewTourHandler lists only public tours. Secret tours stay reachable by id.
func NewTourHandler(res *application.Resource[*entity.Tour], analytics repo.TourAnalytics, searcher TourSearcher,
	cache *helpers.JSONCache, statsTTL time.Duration, logger *logrus.Logger) *TourHandler {
	rh := NewResourceHandler(res)
	rh.Scope = func(*gin.Context) []query.Condition {
		return []query.Condition{application.PublicTours}
	}
	return &TourHandler{
		ResourceHandler: rh,
		Analytics:       analytics,
		Searcher:        searcher,
		Cache:           cache,
		StatsTTL:        statsTTL,
		Logger:          logger,
	}
}

// TopCheap GET /tours/top-5-cheap
func (h *TourHandler) TopCheap(c *gin.Context) {
	h.Alias(TopCheapParams)(c)
}

// Search GET /tours/search?q=&size=
func (h *TourHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		fail(c, apperror.Validation("Please provide a search term", map[string]string{"q": "is required"}))
		return
	}
	size, _ := strconv.Atoi(c.Query("size"))
	hits, err := h.Searcher.Search(c.Request.Context(), q, size)
	if err != nil {
		fail(c, err)
		return
	}
	response.List(c, "data", hits)
}

// Stats GET /tours/tour-stats
func (h *TourHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	var stats []repo.DifficultyStats
	found, err := h.Cache.Load(ctx, application.TourStatsCacheKey, &stats)
	if err != nil {
		h.Logger.WithError(err).Warn("tour stats cache read failed")
	}
	if !found {
		if stats, err = h.Analytics.TourStats(ctx, StatsMinRating); err != nil {
			fail(c, err)
			return
		}
		if err := h.Cache.Store(ctx, application.TourStatsCacheKey, stats, h.StatsTTL); err != nil {
			h.Logger.WithError(err).Warn("tour stats cache write failed")
		}
	}
	response.Success(c, http.StatusOK, gin.H{"stats": stats}, "")
}

// MonthlyPlan GET /tours/monthly-plan/:year
func (h *TourHandler) MonthlyPlan(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1 || year > 9999 {
		fail(c, apperror.Validation("Invalid year", map[string]string{"year": "must be a calendar year"}))
		return
	}
	plan, err := h.Analytics.MonthlyPlan(c.Request.Context(), year)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"plan": plan}, "")
}
