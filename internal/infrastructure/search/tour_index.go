package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/tourhub-api/internal/domain/entity"
)

const (
	requestTimeout = 3 * time.Second
	defaultSize    = 10
	maxSize        = 50
)

// TourIndex mirrors tours into an Elasticsearch index and answers free text
// searches over it.
type TourIndex struct {
	ES   *elasticsearch.Client
	Name string
}

func NewTourIndex(es *elasticsearch.Client, index string) *TourIndex {
	return &TourIndex{ES: es, Name: index}
}

const tourMapping = `{
  "mappings": {
    "properties": {
      "id":             {"type": "keyword"},
      "name":           {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "slug":           {"type": "keyword"},
      "summary":        {"type": "text"},
      "description":    {"type": "text"},
      "difficulty":     {"type": "keyword"},
      "duration":       {"type": "integer"},
      "price":          {"type": "double"},
      "ratingsAverage": {"type": "double"},
      "imageCover":     {"type": "keyword", "index": false},
      "secretTour":     {"type": "boolean"},
      "updatedAt":      {"type": "date"}
    }
  }
}`

// EnsureIndex creates the index with its mapping unless it already exists.
func (x *TourIndex) EnsureIndex(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	exists, err := esapi.IndicesExistsRequest{Index: []string{x.Name}}.Do(c, x.ES)
	if err != nil {
		return err
	}
	_ = exists.Body.Close()
	if exists.StatusCode == http.StatusOK {
		return nil
	}

	res, err := esapi.IndicesCreateRequest{Index: x.Name, Body: strings.NewReader(tourMapping)}.Do(c, x.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", x.Name, res.Status())
	}
	return nil
}

func tourDoc(t *entity.Tour) map[string]any {
	return map[string]any{
		"id":             t.ID,
		"name":           t.Name,
		"slug":           t.Slug,
		"summary":        t.Summary,
		"description":    t.Description,
		"difficulty":     t.Difficulty,
		"duration":       t.Duration,
		"price":          t.Price,
		"ratingsAverage": t.RatingsAverage,
		"imageCover":     t.ImageCover,
		"secretTour":     t.SecretTour,
		"updatedAt":      t.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func (x *TourIndex) Index(ctx context.Context, t *entity.Tour) error {
	b, err := json.Marshal(tourDoc(t))
	if err != nil {
		return err
	}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req := esapi.IndexRequest{Index: x.Name, DocumentID: t.ID, Body: bytes.NewReader(b), Refresh: "false"}
	res, err := req.Do(c, x.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("index tour %s: %s", t.ID, res.Status())
	}
	return nil
}

// Remove deletes the tour document. A missing document is not an error.
func (x *TourIndex) Remove(ctx context.Context, id string) error {
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req := esapi.DeleteRequest{Index: x.Name, DocumentID: id}
	res, err := req.Do(c, x.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("remove tour %s: %s", id, res.Status())
	}
	return nil
}

// Search runs a multi_match over name, summary and description. Secret tours
// never match.
func (x *TourIndex) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	size = clampSize(size)
	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":  q,
						"fields": []string{"name^3", "summary^2", "description"},
					},
				},
				"must_not": map[string]any{
					"term": map[string]any{"secretTour": true},
				},
			},
		},
		"size": size,
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := x.ES.Search(x.ES.Search.WithContext(c), x.ES.Search.WithIndex(x.Name), x.ES.Search.WithBody(bytes.NewReader(b)))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("search tours: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func clampSize(size int) int {
	if size <= 0 || size > maxSize {
		return defaultSize
	}
	return size
}
