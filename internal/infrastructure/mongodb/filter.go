package mongodb

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/oksasatya/tourhub-api/internal/domain/repository"
	"github.com/oksasatya/tourhub-api/pkg/query"
)

var operators = map[query.Operator]string{
	query.OpEq:  "$eq",
	query.OpNe:  "$ne",
	query.OpGt:  "$gt",
	query.OpGte: "$gte",
	query.OpLt:  "$lt",
	query.OpLte: "$lte",
}

// fieldName maps a canonical field onto its document key. Keys that would be
// read by the server as operators or paths into internals are refused.
func fieldName(field string) (string, error) {
	if field == query.IDField {
		return "_id", nil
	}
	if field == "" || strings.HasPrefix(field, "$") || strings.ContainsRune(field, 0) {
		return "", fmt.Errorf("%w: %q", repository.ErrUnknownField, field)
	}
	return field, nil
}

func renderFilter(conds []query.Condition) (bson.M, error) {
	filter := bson.M{}
	for _, c := range conds {
		name, err := fieldName(c.Field)
		if err != nil {
			return nil, err
		}
		op, ok := operators[c.Op]
		if !ok {
			return nil, fmt.Errorf("%w: operator %q", repository.ErrInvalidValue, c.Op)
		}
		ops, _ := filter[name].(bson.M)
		if ops == nil {
			ops = bson.M{}
			filter[name] = ops
		}
		switch {
		case c.Raw != "" && c.Op == query.OpEq:
			// the field may hold the value or its text
			ops["$in"] = bson.A{c.Value, c.Raw}
		case c.Raw != "" && c.Op == query.OpNe:
			ops["$nin"] = bson.A{c.Value, c.Raw}
		default:
			ops[op] = c.Value
		}
	}
	return filter, nil
}

func renderSort(sort []query.SortField) (bson.D, error) {
	out := make(bson.D, 0, len(sort))
	for _, s := range sort {
		name, err := fieldName(s.Field)
		if err != nil {
			return nil, err
		}
		dir := 1
		if s.Desc {
			dir = -1
		}
		out = append(out, bson.E{Key: name, Value: dir})
	}
	return out, nil
}

// renderProjection returns nil when every field is kept.
func renderProjection(p query.Projection) (bson.D, error) {
	fields, flag := p.Include, 1
	if len(fields) == 0 {
		fields, flag = p.Exclude, 0
	}
	if len(fields) == 0 {
		return nil, nil
	}
	out := make(bson.D, 0, len(fields))
	for _, f := range fields {
		name, err := fieldName(f)
		if err != nil {
			return nil, err
		}
		if flag == 0 && name == "_id" {
			continue
		}
		out = append(out, bson.E{Key: name, Value: flag})
	}
	return out, nil
}
