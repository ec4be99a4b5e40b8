package search

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/oksasatya/tourhub-api/internal/domain/entity"
)

// MemoryIndex is the in-process stand-in for TourIndex. Matching is a case
// insensitive substring test of every query term, with name hits ranked first.
type MemoryIndex struct {
	mu   sync.RWMutex
	docs map[string]*entity.Tour
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{docs: map[string]*entity.Tour{}}
}

func (m *MemoryIndex) Index(_ context.Context, t *entity.Tour) error {
	cp := *t
	m.mu.Lock()
	m.docs[t.ID] = &cp
	m.mu.Unlock()
	return nil
}

func (m *MemoryIndex) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.docs, id)
	m.mu.Unlock()
	return nil
}

func (m *MemoryIndex) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	terms := strings.Fields(strings.ToLower(q))
	if len(terms) == 0 {
		return []map[string]any{}, nil
	}

	type hit struct {
		t     *entity.Tour
		score int
	}
	m.mu.RLock()
	var hits []hit
	for _, t := range m.docs {
		if t.SecretTour {
			continue
		}
		if s := score(t, terms); s > 0 {
			hits = append(hits, hit{t, s})
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(hits, func(a, b hit) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(a.t.ID, b.t.ID)
	})
	size = clampSize(size)
	if len(hits) > size {
		hits = hits[:size]
	}
	out := make([]map[string]any, 0, len(hits))
	for _, h := range hits {
		out = append(out, tourDoc(h.t))
	}
	return out, nil
}

// score mirrors the field boosts of TourIndex.Search. Every term must match
// some field.
func score(t *entity.Tour, terms []string) int {
	name, summary, desc := strings.ToLower(t.Name), strings.ToLower(t.Summary), strings.ToLower(t.Description)
	total := 0
	for _, term := range terms {
		s := 0
		if strings.Contains(name, term) {
			s += 3
		}
		if strings.Contains(summary, term) {
			s += 2
		}
		if strings.Contains(desc, term) {
			s++
		}
		if s == 0 {
			return 0
		}
		total += s
	}
	return total
}
