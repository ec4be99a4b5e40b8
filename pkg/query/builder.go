package query

import (
	"context"
	"errors"
	"math"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/oksasatya/tourhub-api/pkg/apperror"
)

const (
	DefaultPage  = 1
	DefaultLimit = 100
	MaxLimit     = 1000
)

// DefaultSort is applied when the request carries no sort parameter.
var DefaultSort = []SortField{{Field: "createdAt", Desc: true}}

// ErrStageOrder is returned when stages are invoked out of order.
var ErrStageOrder = errors.New("query: stages must run as filter, sort, project, paginate")

// ErrNoCounter is returned when an explicit page is requested without a Counter.
var ErrNoCounter = errors.New("query: explicit page requires a counter")

// Counter counts documents matching conditions. Stores implement it so the
// pagination stage can check that a requested page exists.
type Counter interface {
	Count(ctx context.Context, conds []Condition) (int64, error)
}

type stage int

const (
	stageNone stage = iota
	stageFilter
	stageSort
	stageProject
	stagePaginate
)

// Builder accumulates a Query from untrusted request parameters. The first
// stage error is kept and returned by Build.
type Builder struct {
	params url.Values
	stage  stage
	err    error

	conditions []Condition
	scope      []Condition
	sort       []SortField
	projection *Projection
	page       int
	limit      int
	explicit   bool
}

// New starts a builder over the raw request parameters.
func New(params url.Values) *Builder {
	return &Builder{params: params, page: DefaultPage, limit: DefaultLimit}
}

func (b *Builder) enter(s stage) bool {
	if b.err != nil {
		return false
	}
	if s <= b.stage {
		b.err = ErrStageOrder
		return false
	}
	b.stage = s
	return true
}

// Scope injects mandatory conditions. They replace any request condition on
// the same field and may be added before or after Filter.
func (b *Builder) Scope(conds ...Condition) *Builder {
	b.scope = append(b.scope, conds...)
	return b
}

// Filter turns every non-reserved parameter into a condition. Keys of the
// form field[op] with op in gte, gt, lte, lt become comparisons; any other
// bracket suffix is kept verbatim as the field name of an equality.
func (b *Builder) Filter() *Builder {
	if !b.enter(stageFilter) {
		return b
	}
	keys := make([]string, 0, len(b.params))
	for k := range b.params {
		if slices.Contains(Reserved, k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		vals := b.params[k]
		if len(vals) == 0 {
			continue
		}
		b.conditions = append(b.conditions, parseCondition(k, vals[0]))
	}
	return b
}

func parseCondition(key, raw string) Condition {
	c := Eq(key, coerce(raw))
	open := strings.IndexByte(key, '[')
	if open > 0 && strings.HasSuffix(key, "]") {
		field, op := key[:open], Operator(key[open+1:len(key)-1])
		switch op {
		case OpGte, OpGt, OpLte, OpLt:
			c.Field, c.Op = field, op
		}
	}
	if _, ok := c.Value.(string); !ok {
		c.Raw = raw
	}
	return c
}

// coerce converts a raw parameter into the most specific scalar it parses as:
// integer, float, bool, RFC3339 time, otherwise the string itself.
func coerce(raw string) any {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t
	}
	return raw
}

// Sort parses the comma separated sort parameter. The id tiebreaker is always
// appended so that paging over a non unique key is stable.
func (b *Builder) Sort() *Builder {
	if !b.enter(stageSort) {
		return b
	}
	raw := strings.TrimSpace(b.params.Get("sort"))
	var fields []SortField
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		desc := strings.HasPrefix(part, "-")
		name := strings.TrimPrefix(part, "-")
		if name == "" {
			b.err = apperror.Validation("Invalid sort parameter", map[string]string{"sort": raw})
			return b
		}
		if slices.ContainsFunc(fields, func(f SortField) bool { return f.Field == name }) {
			continue
		}
		fields = append(fields, SortField{Field: name, Desc: desc})
	}
	if len(fields) == 0 {
		fields = slices.Clone(DefaultSort)
	}
	if !slices.ContainsFunc(fields, func(f SortField) bool { return f.Field == IDField }) {
		fields = append(fields, SortField{Field: IDField})
	}
	b.sort = fields
	return b
}

// Project parses the fields parameter. A list made only of -field entries is
// an exclusion list; mixing both forms is rejected.
func (b *Builder) Project() *Builder {
	if !b.enter(stageProject) {
		return b
	}
	raw := strings.TrimSpace(b.params.Get("fields"))
	var p Projection
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "" || part == "-":
			continue
		case strings.HasPrefix(part, "-"):
			p.Exclude = append(p.Exclude, part[1:])
		default:
			p.Include = append(p.Include, part)
		}
	}
	if len(p.Include) > 0 && len(p.Exclude) > 0 {
		b.err = apperror.Validation("Projection cannot mix included and excluded fields", map[string]string{"fields": raw})
		return b
	}
	if len(p.Include) == 0 && len(p.Exclude) == 0 {
		p.Exclude = []string{VersionField}
	}
	b.projection = &p
	return b
}

// Paginate reads page and limit. When page was given explicitly it counts the
// matching documents once and fails with PageOutOfRange past the last item.
func (b *Builder) Paginate(ctx context.Context, counter Counter) *Builder {
	if !b.enter(stagePaginate) {
		return b
	}
	page, pageSet, err := positiveParam(b.params, "page", DefaultPage)
	if err != nil {
		b.err = err
		return b
	}
	limit, _, err := positiveParam(b.params, "limit", DefaultLimit)
	if err != nil {
		b.err = err
		return b
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	b.page, b.limit, b.explicit = page, limit, pageSet

	if !pageSet {
		return b
	}
	if counter == nil {
		b.err = ErrNoCounter
		return b
	}
	total, err := counter.Count(ctx, b.mergedConditions())
	if err != nil {
		b.err = err
		return b
	}
	if int64(page-1)*int64(limit) >= total {
		b.err = apperror.PageOutOfRange("This page does not exist")
	}
	return b
}

func positiveParam(params url.Values, key string, def int) (int, bool, error) {
	if !params.Has(key) {
		return def, false, nil
	}
	raw := strings.TrimSpace(params.Get(key))
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, true, apperror.Validation("Invalid "+key+" parameter", map[string]string{key: "must be a positive integer"})
	}
	return n, true, nil
}

// Run executes every stage in order and builds the query.
func (b *Builder) Run(ctx context.Context, counter Counter) (Query, error) {
	return b.Filter().Sort().Project().Paginate(ctx, counter).Build()
}

// Build returns the finished query or the first stage error. Stages that were
// not run contribute their defaults.
func (b *Builder) Build() (Query, error) {
	if b.err != nil {
		return Query{}, b.err
	}
	q := Query{
		conditions:    b.mergedConditions(),
		sort:          b.sort,
		page:          b.page,
		limit:         b.limit,
		pageRequested: b.explicit,
	}
	if q.sort == nil {
		q.sort = append(slices.Clone(DefaultSort), SortField{Field: IDField})
	}
	if b.projection != nil {
		q.projection = *b.projection
	} else {
		q.projection = Projection{Exclude: []string{VersionField}}
	}
	return q, nil
}

func (b *Builder) mergedConditions() []Condition {
	if len(b.scope) == 0 {
		return slices.Clone(b.conditions)
	}
	out := make([]Condition, 0, len(b.conditions)+len(b.scope))
	for _, c := range b.conditions {
		if slices.ContainsFunc(b.scope, func(s Condition) bool { return s.Field == c.Field }) {
			continue
		}
		out = append(out, c)
	}
	return append(out, b.scope...)
}

// Alias returns a copy of params with the given keys forced to fixed values,
// used for canned listings such as the five cheapest tours.
func Alias(params url.Values, overrides map[string]string) url.Values {
	out := make(url.Values, len(params)+len(overrides))
	for k, v := range params {
		out[k] = slices.Clone(v)
	}
	for k, v := range overrides {
		out.Set(k, v)
	}
	return out
}
