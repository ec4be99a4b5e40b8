package mongodb

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

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

func TestRenderFilterMergesOperators(t *testing.T) {
	q := build(t, "price[gte]=100&price[lt]=500&difficulty=easy&id=t1", query.Ne("secretTour", true))
	filter, err := renderFilter(q.Conditions())
	require.NoError(t, err)

	assert.Equal(t, bson.M{
		"_id":        bson.M{"$eq": "t1"},
		"difficulty": bson.M{"$eq": "easy"},
		"price":      bson.M{"$gte": int64(100), "$lt": int64(500)},
		"secretTour": bson.M{"$ne": true},
	}, filter)
}

func TestRenderFilterMatchesTextOfParsedValues(t *testing.T) {
	filter, err := renderFilter(build(t, "name=1984&secretTour=true&price[lt]=500").Conditions())
	require.NoError(t, err)

	assert.Equal(t, bson.M{
		"name":       bson.M{"$in": bson.A{int64(1984), "1984"}},
		"secretTour": bson.M{"$in": bson.A{true, "true"}},
		"price":      bson.M{"$lt": int64(500)},
	}, filter)

	filter, err = renderFilter([]query.Condition{{Field: "name", Op: query.OpNe, Value: int64(7), Raw: "7"}})
	require.NoError(t, err)
	assert.Equal(t, bson.M{"name": bson.M{"$nin": bson.A{int64(7), "7"}}}, filter)
}

func TestRenderFilterRefusesOperatorKeys(t *testing.T) {
	_, err := renderFilter([]query.Condition{query.Eq("$where", "sleep(1000)")})
	assert.ErrorIs(t, err, repository.ErrUnknownField)
}

func TestRenderSort(t *testing.T) {
	sort, err := renderSort(build(t, "sort=-ratingsAverage,price").Sort())
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "ratingsAverage", Value: -1}, {Key: "price", Value: 1}, {Key: "_id", Value: 1}}, sort)
}

func TestRenderProjection(t *testing.T) {
	p, err := renderProjection(build(t, "").Projection())
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "__v", Value: 0}}, p)

	p, err = renderProjection(build(t, "fields=name,price").Projection())
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "name", Value: 1}, {Key: "price", Value: 1}}, p)
}
