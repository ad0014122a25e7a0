package kvstore

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/linknav/internal/linktest"
	"github.com/mesh-intelligence/linknav/pkg/types"
)

// Set LINKNAV_TEST_REDIS_ADDR to run the contract against a Redis server.
// Each run uses a fresh key prefix and removes its keys afterwards.
func TestRedisContract(t *testing.T) {
	addr := os.Getenv("LINKNAV_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("LINKNAV_TEST_REDIS_ADDR not set")
	}
	linktest.Run(t, func(t *testing.T) types.LinkService {
		rdb := goredis.NewClient(&goredis.Options{Addr: addr})
		prefix := "linknav-test-" + uuid.NewString()
		t.Cleanup(func() {
			ctx := context.Background()
			iter := rdb.Scan(ctx, 0, prefix+":*", 100).Iterator()
			for iter.Next(ctx) {
				rdb.Del(ctx, iter.Val())
			}
			rdb.Close()
		})
		return New(rdb, prefix)
	})
}

func TestOpenRequiresAddr(t *testing.T) {
	_, err := Open(context.Background(), types.RedisConfig{})
	assert.ErrorIs(t, err, types.ErrMissingAddr)
}

func TestKeyspace(t *testing.T) {
	tenant := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	entity := uuid.MustParse("00000000-0000-0000-0000-0000000000aa")
	id := uuid.MustParse("00000000-0000-0000-0000-0000000000ff")
	ref := types.NewEntityReference(entity, "user")

	k := newKeyspace("app")
	assert.Equal(t, "app:link:"+id.String(), k.link(id))
	assert.Equal(t, "app:tenant:"+tenant.String(), k.tenant(tenant))
	assert.Equal(t, "app:src:"+tenant.String()+":user:"+entity.String(), k.source(tenant, ref))
	assert.Equal(t, "app:tgt:"+tenant.String()+":user:"+entity.String(), k.target(tenant, ref))

	assert.Equal(t, defaultPrefix+":link:"+id.String(), newKeyspace("").link(id))
}

func TestDecodeLinkDropsNullMetadata(t *testing.T) {
	id := uuid.New()
	raw := []byte(`{"id":"` + id.String() + `","tenant_id":"` + uuid.NewString() + `",` +
		`"link_type":"owner","source":{"id":"` + uuid.NewString() + `","entity_type":"user"},` +
		`"target":{"id":"` + uuid.NewString() + `","entity_type":"car"},"metadata":null,` +
		`"created_at":"2025-01-01T00:00:00Z","updated_at":"2025-01-01T00:00:00Z"}`)

	l, err := decodeLink(raw)
	require.NoError(t, err)
	assert.Equal(t, id, l.ID)
	assert.Nil(t, l.Metadata)
	assert.Equal(t, "car", l.Target.EntityType)
}

func TestDecodeLinkRejectsGarbage(t *testing.T) {
	_, err := decodeLink([]byte("{"))
	assert.Error(t, err)
}

func TestSortByID(t *testing.T) {
	a, b, c := types.NewLinkID(), types.NewLinkID(), types.NewLinkID()
	links := []*types.Link{{ID: c}, {ID: a}, {ID: b}}
	sortByID(links)
	assert.Equal(t, []uuid.UUID{a, b, c}, []uuid.UUID{links[0].ID, links[1].ID, links[2].ID})
}
