package postgres

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/tourhub-api/internal/domain/repository"
	"github.com/oksasatya/tourhub-api/pkg/query"
)

func build(t *testing.T, raw string, scope ...query.Condition) query.Query {
	t.Helper()
	params, err := url.ParseQuery(raw)
	require.NoError(t, err)
	q, err := query.New(params).Scope(scope...).Filter().Sort().Project().Build()
	require.NoError(t, err)
	return q
}

func TestFindSQL(t *testing.T) {
	q := build(t, "role=guide&createdAt[gte]=2026-01-01T00:00:00Z&sort=name", query.Ne("active", false))

	sql, args, err := findSQL(q)
	require.NoError(t, err)
	assert.Contains(t, sql, `WHERE "created_at" >= $1 AND "role" = $2 AND "active" IS DISTINCT FROM $3`)
	assert.Contains(t, sql, `ORDER BY "name" ASC NULLS FIRST, "id" ASC NULLS FIRST`)
	assert.Contains(t, sql, `LIMIT $4 OFFSET $5`)
	assert.Equal(t, []any{time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "guide", false, 100, 0}, args)
}

func TestFindSQLRejectsUnknownField(t *testing.T) {
	_, _, err := findSQL(build(t, "password_hash=x"))
	assert.ErrorIs(t, err, repository.ErrUnknownField)

	_, _, err = findSQL(build(t, "sort=passwordHash"))
	assert.ErrorIs(t, err, repository.ErrUnknownField)
}

func TestFindSQLRejectsMistypedValue(t *testing.T) {
	_, _, err := findSQL(build(t, "active=maybe"))
	assert.ErrorIs(t, err, repository.ErrInvalidValue)
}

func TestTextColumnAcceptsCoercedNumbers(t *testing.T) {
	_, args, err := findSQL(build(t, "name=42"))
	require.NoError(t, err)
	assert.Equal(t, "42", args[0])
}
