package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONCacheWithoutClient(t *testing.T) {
	ctx := context.Background()
	for name, cache := range map[string]*JSONCache{
		"nil cache": nil,
		"no client": NewJSONCache(nil, "tourhub:"),
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, cache.Store(ctx, "k", []int{1, 2}, time.Minute))
			var got []int
			found, err := cache.Load(ctx, "k", &got)
			require.NoError(t, err)
			assert.False(t, found)
			assert.Nil(t, got)
			assert.NoError(t, cache.Drop(ctx, "k"))
		})
	}
}
