package postgres

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/tourhub-api/internal/domain/repository"
	"github.com/oksasatya/tourhub-api/pkg/query"
)

type columnKind int

const (
	kindText columnKind = iota
	kindBool
	kindTime
	kindInt
)

type column struct {
	name string
	kind columnKind
}

// fieldSet maps canonical field names onto table columns. Only mapped fields
// may appear in a rendered query.
type fieldSet map[string]column

var operators = map[query.Operator]string{
	query.OpEq:  "=",
	query.OpNe:  "IS DISTINCT FROM",
	query.OpGt:  ">",
	query.OpGte: ">=",
	query.OpLt:  "<",
	query.OpLte: "<=",
}

func (fs fieldSet) column(field string) (column, error) {
	col, ok := fs[field]
	if !ok {
		return column{}, fmt.Errorf("%w: %s", repository.ErrUnknownField, field)
	}
	return col, nil
}

// where renders conds as a parameterized WHERE clause. Placeholders start at
// $next; the returned args line up with them.
func (fs fieldSet) where(conds []query.Condition, next int) (string, []any, error) {
	if len(conds) == 0 {
		return "", nil, nil
	}
	parts := make([]string, 0, len(conds))
	args := make([]any, 0, len(conds))
	for _, c := range conds {
		col, err := fs.column(c.Field)
		if err != nil {
			return "", nil, err
		}
		op, ok := operators[c.Op]
		if !ok {
			return "", nil, fmt.Errorf("%w: operator %q", repository.ErrInvalidValue, c.Op)
		}
		v, err := col.convert(c.Value)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %s", err, c.Field)
		}
		parts = append(parts, pgx.Identifier{col.name}.Sanitize()+" "+op+" $"+strconv.Itoa(next))
		args = append(args, v)
		next++
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

func (fs fieldSet) orderBy(sort []query.SortField) (string, error) {
	if len(sort) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(sort))
	for _, s := range sort {
		col, err := fs.column(s.Field)
		if err != nil {
			return "", err
		}
		dir := "ASC NULLS FIRST"
		if s.Desc {
			dir = "DESC NULLS LAST"
		}
		parts = append(parts, pgx.Identifier{col.name}.Sanitize()+" "+dir)
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

func (c column) convert(v any) (any, error) {
	switch c.kind {
	case kindText:
		switch x := v.(type) {
		case string:
			return x, nil
		case time.Time:
			return x.Format(time.RFC3339Nano), nil
		case nil:
			return nil, nil
		default:
			return fmt.Sprint(x), nil
		}
	case kindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case kindTime:
		if t, ok := v.(time.Time); ok {
			return t, nil
		}
	case kindInt:
		switch x := v.(type) {
		case int64:
			return x, nil
		case int:
			return int64(x), nil
		}
	}
	return nil, repository.ErrInvalidValue
}
