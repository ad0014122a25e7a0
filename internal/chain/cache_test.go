package chain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/linknav/internal/routes"
	"github.com/mesh-intelligence/linknav/pkg/types"
)

func TestCachedResolver(t *testing.T) {
	r, err := NewCachedResolver(0)
	require.NoError(t, err)

	table := testTable()
	segs := []string{"users", uuid.New().String(), "cars-owned"}

	first, err := r.Resolve(table, segs)
	require.NoError(t, err)
	second, err := r.Resolve(table, segs)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, r.Len())

	_, err = r.Resolve(table, []string{"users", "bad"})
	assert.ErrorIs(t, err, types.ErrInvalidEntityID)
	assert.Equal(t, 1, r.Len(), "errors are not cached")

	r.Purge()
	assert.Equal(t, 0, r.Len())
}

func TestCachedResolverKeysByTable(t *testing.T) {
	r, err := NewCachedResolver(8)
	require.NoError(t, err)

	segs := []string{"users", uuid.New().String(), "cars-owned"}
	_, err = r.Resolve(testTable(), segs)
	require.NoError(t, err)

	empty := routes.Build(types.LinksConfig{Entities: []types.EntityConfig{{Singular: "user", Plural: "users"}}})
	_, err = r.Resolve(empty, segs)
	assert.ErrorIs(t, err, types.ErrRouteNotFound, "a new table must not reuse chains resolved against another")
}

func TestCachedResolverEvicts(t *testing.T) {
	r, err := NewCachedResolver(2)
	require.NoError(t, err)

	table := testTable()
	for i := 0; i < 5; i++ {
		_, err := r.Resolve(table, []string{"users", uuid.New().String()})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, r.Len())
}

func TestCachedResolverKeepsSegmentBoundaries(t *testing.T) {
	r, err := NewCachedResolver(8)
	require.NoError(t, err)

	table := testTable()
	id := uuid.New().String()
	_, err = r.Resolve(table, []string{"users", id})
	require.NoError(t, err)

	_, err = r.Resolve(table, []string{"users\x00" + id})
	assert.ErrorIs(t, err, types.ErrInvalidPath)

	_, err = r.Resolve(table, []string{"users:" + id})
	assert.ErrorIs(t, err, types.ErrInvalidPath)
	assert.Equal(t, 1, r.Len())
}

func TestPathKey(t *testing.T) {
	assert.NotEqual(t, pathKey([]string{"a", "b"}), pathKey([]string{"a\x00b"}))
	assert.NotEqual(t, pathKey([]string{"1:a"}), pathKey([]string{"a", ""}))
	assert.Equal(t, pathKey([]string{"users", "x"}), pathKey([]string{"users", "x"}))
}
