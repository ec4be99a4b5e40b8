// Package query turns flat request parameters into a bounded collection query.
//
// A Builder runs four stages in a fixed order: Filter, Sort, Project and
// Paginate. Pagination may count matching documents, so it must come last.
// The resulting Query is storage neutral; the mongo, postgres and memory
// stores each render it into their own dialect.
package query

import (
	"slices"
	"time"
)

// Operator is a relational operator of a Condition.
type Operator string

const (
	OpEq  Operator = "eq"
	OpNe  Operator = "ne"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
)

// IDField is the canonical primary key field name.
const IDField = "id"

// VersionField is the schema/version marker hidden from default projections.
const VersionField = "__v"

// Reserved request keys that never become filter conditions.
var Reserved = []string{"page", "sort", "fields", "limit"}

// Condition is one field comparison; conditions are ANDed.
type Condition struct {
	Field string
	Op    Operator
	Value any
	// Raw is the request text when Value was parsed out of it into a number,
	// bool or time. String fields are compared against Raw instead.
	Raw string
}

// operand returns the value v is compared against.
func (c Condition) operand(v any) any {
	if _, ok := v.(string); ok && c.Raw != "" {
		return c.Raw
	}
	return c.Value
}

// Eq is a shorthand for an equality condition.
func Eq(field string, value any) Condition {
	return Condition{Field: field, Op: OpEq, Value: value}
}

// Ne is a shorthand for an inequality condition.
func Ne(field string, value any) Condition {
	return Condition{Field: field, Op: OpNe, Value: value}
}

// SortField is one entry of an ordered sort.
type SortField struct {
	Field string
	Desc  bool
}

// Projection selects fields. At most one of Include / Exclude is non-empty.
type Projection struct {
	Include []string
	Exclude []string
}

// Keeps reports whether field survives the projection.
func (p Projection) Keeps(field string) bool {
	if len(p.Include) > 0 {
		return field == IDField || slices.Contains(p.Include, field)
	}
	return !slices.Contains(p.Exclude, field)
}

// Query is the fully specified, immutable output of a Builder.
type Query struct {
	conditions    []Condition
	sort          []SortField
	projection    Projection
	page          int
	limit         int
	pageRequested bool
}

func (q Query) Conditions() []Condition { return slices.Clone(q.conditions) }
func (q Query) Sort() []SortField       { return slices.Clone(q.sort) }
func (q Query) Projection() Projection {
	return Projection{Include: slices.Clone(q.projection.Include), Exclude: slices.Clone(q.projection.Exclude)}
}
func (q Query) Page() int           { return q.page }
func (q Query) Limit() int          { return q.limit }
func (q Query) Skip() int           { return (q.page - 1) * q.limit }
func (q Query) PageRequested() bool { return q.pageRequested }

// Match evaluates the conditions against a document represented as a map of
// canonical field names. Stores without a native query language use it.
func (q Query) Match(doc map[string]any) bool {
	return MatchAll(q.conditions, doc)
}

// MatchAll reports whether doc satisfies every condition.
func MatchAll(conds []Condition, doc map[string]any) bool {
	for _, c := range conds {
		if !c.Matches(doc[c.Field]) {
			return false
		}
	}
	return true
}

// Matches evaluates c against a single field value.
func (c Condition) Matches(v any) bool {
	cmp, ok := Compare(v, c.operand(v))
	switch c.Op {
	case OpEq:
		return ok && cmp == 0
	case OpNe:
		return !ok || cmp != 0
	case OpGt:
		return ok && cmp > 0
	case OpGte:
		return ok && cmp >= 0
	case OpLt:
		return ok && cmp < 0
	case OpLte:
		return ok && cmp <= 0
	}
	return false
}

// Compare orders two loosely typed values: numbers numerically, times
// chronologically (RFC3339 strings are parsed), everything else by string
// form. ok is false when either side is nil or the kinds cannot be compared.
func Compare(a, b any) (int, bool) {
	if a == nil || b == nil {
		return 0, a == nil && b == nil
	}
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return cmpOrdered(af, bf), true
		}
		return 0, false
	}
	if at, ok := toTime(a); ok {
		if bt, ok := toTime(b); ok {
			return at.Compare(bt), true
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return cmpOrdered(as, bs), true
	}
	ab, aok := a.(bool)
	bb, bok := b.(bool)
	if aok && bok {
		switch {
		case ab == bb:
			return 0, true
		case !ab:
			return -1, true
		default:
			return 1, true
		}
	}
	return 0, false
}

func cmpOrdered[T int | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		t, err := time.Parse(time.RFC3339Nano, x)
		return t, err == nil
	}
	return time.Time{}, false
}
