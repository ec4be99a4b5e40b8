package query

import (
	"slices"
)

// Execute evaluates q's conditions, sort and window over items in memory.
// doc renders an item into its canonical field map. Stores without a native
// query language use it.
func Execute[T any](q Query, items []T, doc func(T) map[string]any) []T {
	type row struct {
		item T
		doc  map[string]any
	}
	rows := make([]row, 0, len(items))
	for _, it := range items {
		d := doc(it)
		if q.Match(d) {
			rows = append(rows, row{item: it, doc: d})
		}
	}
	slices.SortStableFunc(rows, func(a, b row) int { return q.compareDocs(a.doc, b.doc) })

	start := min(q.Skip(), len(rows))
	end := len(rows)
	if q.limit > 0 {
		end = min(start+q.limit, len(rows))
	}
	out := make([]T, 0, end-start)
	for _, r := range rows[start:end] {
		out = append(out, r.item)
	}
	return out
}

// Apply is Execute over plain documents followed by projection.
func (q Query) Apply(docs []map[string]any) []map[string]any {
	page := Execute(q, docs, func(d map[string]any) map[string]any { return d })
	for i, d := range page {
		page[i] = q.Project(d)
	}
	return page
}

// Project copies doc keeping only the fields the projection allows.
func (q Query) Project(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		if q.projection.Keeps(k) {
			out[k] = v
		}
	}
	return out
}

// compareDocs orders by the sort fields; missing values sort first.
func (q Query) compareDocs(a, b map[string]any) int {
	for _, s := range q.sort {
		av, bv := a[s.Field], b[s.Field]
		var c int
		switch {
		case av == nil && bv == nil:
			c = 0
		case av == nil:
			c = -1
		case bv == nil:
			c = 1
		default:
			c, _ = Compare(av, bv)
		}
		if s.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}
