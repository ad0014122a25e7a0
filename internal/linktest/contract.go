// Package linktest holds the behavioral test suite every LinkService
// backend must pass.
package linktest

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/linknav/pkg/types"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) types.LinkService

// Run exercises the LinkService contract against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateAndGet", func(t *testing.T) { testCreateAndGet(t, newStore(t)) })
	t.Run("CreateAllowsDuplicates", func(t *testing.T) { testCreateAllowsDuplicates(t, newStore(t)) })
	t.Run("TenantIsolation", func(t *testing.T) { testTenantIsolation(t, newStore(t)) })
	t.Run("List", func(t *testing.T) { testList(t, newStore(t)) })
	t.Run("FindBySource", func(t *testing.T) { testFindBySource(t, newStore(t)) })
	t.Run("FindByTarget", func(t *testing.T) { testFindByTarget(t, newStore(t)) })
	t.Run("UpdatePreservesIdentity", func(t *testing.T) { testUpdatePreservesIdentity(t, newStore(t)) })
	t.Run("UpdateClearsMetadata", func(t *testing.T) { testUpdateClearsMetadata(t, newStore(t)) })
	t.Run("NullMetadataIsNone", func(t *testing.T) { testNullMetadataIsNone(t, newStore(t)) })
	t.Run("UpdateMissing", func(t *testing.T) { testUpdateMissing(t, newStore(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("DeleteByEntity", func(t *testing.T) { testDeleteByEntity(t, newStore(t)) })
	t.Run("ReturnedLinksAreCopies", func(t *testing.T) { testReturnedLinksAreCopies(t, newStore(t)) })
	t.Run("ConcurrentCreates", func(t *testing.T) { testConcurrentCreates(t, newStore(t)) })
}

func ref(entityType string) types.EntityReference {
	return types.NewEntityReference(uuid.New(), entityType)
}

func ids(links []*types.Link) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(links))
	for _, l := range links {
		out = append(out, l.ID)
	}
	return out
}

func mustCreate(t *testing.T, s types.LinkService, tenant uuid.UUID, linkType string, src, dst types.EntityReference) *types.Link {
	t.Helper()
	l, err := s.Create(context.Background(), tenant, linkType, src, dst, nil)
	require.NoError(t, err)
	return l
}

func testCreateAndGet(t *testing.T, s types.LinkService) {
	ctx := context.Background()
	tenant := uuid.New()
	user, car := ref("user"), ref("car")

	before := time.Now().Add(-time.Second)
	created, err := s.Create(ctx, tenant, "owner", user, car, json.RawMessage(`{"since":2021}`))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, tenant, created.TenantID)
	assert.Equal(t, "owner", created.LinkType)
	assert.Equal(t, user, created.Source)
	assert.Equal(t, car, created.Target)
	assert.JSONEq(t, `{"since":2021}`, string(created.Metadata))
	assert.True(t, created.CreatedAt.After(before))
	assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))

	got, err := s.Get(ctx, tenant, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, user, got.Source)
	assert.Equal(t, car, got.Target)
	assert.JSONEq(t, `{"since":2021}`, string(got.Metadata))
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))

	_, err = s.Get(ctx, tenant, uuid.New())
	assert.ErrorIs(t, err, types.ErrLinkNotFound)

	noMeta := mustCreate(t, s, tenant, "owner", user, ref("car"))
	got, err = s.Get(ctx, tenant, noMeta.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Metadata)
}

func testCreateAllowsDuplicates(t *testing.T, s types.LinkService) {
	tenant := uuid.New()
	user, car := ref("user"), ref("car")

	a := mustCreate(t, s, tenant, "owner", user, car)
	b := mustCreate(t, s, tenant, "owner", user, car)
	assert.NotEqual(t, a.ID, b.ID)

	found, err := s.FindBySource(context.Background(), tenant, user.ID, "user", "owner", "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, ids(found))
}

func testTenantIsolation(t *testing.T, s types.LinkService) {
	ctx := context.Background()
	tenantA, tenantB := uuid.New(), uuid.New()
	user, car := ref("user"), ref("car")

	l := mustCreate(t, s, tenantA, "owner", user, car)

	_, err := s.Get(ctx, tenantA, l.ID)
	assert.NoError(t, err)

	_, err = s.Get(ctx, tenantB, l.ID)
	assert.ErrorIs(t, err, types.ErrLinkNotFound)

	listed, err := s.List(ctx, tenantB)
	require.NoError(t, err)
	assert.Empty(t, listed)

	found, err := s.FindBySource(ctx, tenantB, user.ID, "user", "", "")
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = s.FindByTarget(ctx, tenantB, car.ID, "car", "", "")
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = s.Update(ctx, tenantB, l.ID, json.RawMessage(`{"stolen":true}`))
	assert.ErrorIs(t, err, types.ErrNotFoundOrDenied)

	err = s.Delete(ctx, tenantB, l.ID)
	assert.ErrorIs(t, err, types.ErrNotFoundOrDenied)

	require.NoError(t, s.DeleteByEntity(ctx, tenantB, user.ID, "user"))

	got, err := s.Get(ctx, tenantA, l.ID)
	require.NoError(t, err, "cross-tenant writes must not touch the link")
	assert.Nil(t, got.Metadata)
}

func testList(t *testing.T, s types.LinkService) {
	ctx := context.Background()
	tenant, other := uuid.New(), uuid.New()

	empty, err := s.List(ctx, tenant)
	require.NoError(t, err)
	assert.Empty(t, empty)

	a := mustCreate(t, s, tenant, "owner", ref("user"), ref("car"))
	b := mustCreate(t, s, tenant, "driver", ref("user"), ref("car"))
	mustCreate(t, s, other, "owner", ref("user"), ref("car"))

	listed, err := s.List(ctx, tenant)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, ids(listed))
	for _, l := range listed {
		assert.Equal(t, tenant, l.TenantID)
	}
}

func testFindBySource(t *testing.T, s types.LinkService) {
	ctx := context.Background()
	tenant := uuid.New()
	user := ref("user")
	car, bike := ref("car"), ref("bike")

	owns := mustCreate(t, s, tenant, "owner", user, car)
	drives := mustCreate(t, s, tenant, "driver", user, car)
	ownsBike := mustCreate(t, s, tenant, "owner", user, bike)
	mustCreate(t, s, tenant, "owner", ref("user"), car)
	// Same ID registered under a different entity type must not match.
	mustCreate(t, s, tenant, "owner", types.NewEntityReference(user.ID, "company"), car)

	tests := []struct {
		name       string
		linkType   string
		targetType string
		want       []uuid.UUID
	}{
		{name: "no filters", want: []uuid.UUID{owns.ID, drives.ID, ownsBike.ID}},
		{name: "link type", linkType: "owner", want: []uuid.UUID{owns.ID, ownsBike.ID}},
		{name: "target type", targetType: "car", want: []uuid.UUID{owns.ID, drives.ID}},
		{name: "both", linkType: "owner", targetType: "bike", want: []uuid.UUID{ownsBike.ID}},
		{name: "no match", linkType: "renter", want: []uuid.UUID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := s.FindBySource(ctx, tenant, user.ID, "user", tt.linkType, tt.targetType)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, ids(found))
		})
	}
}

func testFindByTarget(t *testing.T, s types.LinkService) {
	ctx := context.Background()
	tenant := uuid.New()
	car := ref("car")
	alice, acme := ref("user"), ref("company")

	owns := mustCreate(t, s, tenant, "owner", alice, car)
	fleet := mustCreate(t, s, tenant, "owner", acme, car)
	drives := mustCreate(t, s, tenant, "driver", alice, car)
	mustCreate(t, s, tenant, "owner", alice, ref("car"))

	tests := []struct {
		name       string
		linkType   string
		sourceType string
		want       []uuid.UUID
	}{
		{name: "no filters", want: []uuid.UUID{owns.ID, fleet.ID, drives.ID}},
		{name: "link type", linkType: "owner", want: []uuid.UUID{owns.ID, fleet.ID}},
		{name: "source type", sourceType: "company", want: []uuid.UUID{fleet.ID}},
		{name: "both", linkType: "driver", sourceType: "user", want: []uuid.UUID{drives.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := s.FindByTarget(ctx, tenant, car.ID, "car", tt.linkType, tt.sourceType)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, ids(found))
		})
	}
}

func testUpdatePreservesIdentity(t *testing.T, s types.LinkService) {
	ctx := context.Background()
	tenant := uuid.New()

	orig, err := s.Create(ctx, tenant, "owner", ref("user"), ref("car"), json.RawMessage(`{"v":1}`))
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	updated, err := s.Update(ctx, tenant, orig.ID, json.RawMessage(`{"v":2}`))
	require.NoError(t, err)

	fetched, err := s.Get(ctx, tenant, orig.ID)
	require.NoError(t, err)

	for _, l := range []*types.Link{updated, fetched} {
		assert.Equal(t, orig.ID, l.ID)
		assert.Equal(t, orig.TenantID, l.TenantID)
		assert.Equal(t, orig.LinkType, l.LinkType)
		assert.Equal(t, orig.Source, l.Source)
		assert.Equal(t, orig.Target, l.Target)
		assert.True(t, orig.CreatedAt.Equal(l.CreatedAt), "created_at must not change")
		assert.True(t, l.UpdatedAt.After(orig.UpdatedAt), "updated_at must be refreshed")
		assert.JSONEq(t, `{"v":2}`, string(l.Metadata))
	}
}

func testUpdateClearsMetadata(t *testing.T, s types.LinkService) {
	ctx := context.Background()
	tenant := uuid.New()

	orig, err := s.Create(ctx, tenant, "owner", ref("user"), ref("car"), json.RawMessage(`{"v":1}`))
	require.NoError(t, err)

	updated, err := s.Update(ctx, tenant, orig.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, updated.Metadata)

	fetched, err := s.Get(ctx, tenant, orig.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched.Metadata)
}

func testNullMetadataIsNone(t *testing.T, s types.LinkService) {
	ctx := context.Background()
	tenant := uuid.New()

	created, err := s.Create(ctx, tenant, "owner", ref("user"), ref("car"), json.RawMessage("null"))
	require.NoError(t, err)
	assert.Nil(t, created.Metadata)

	_, err = s.Update(ctx, tenant, created.ID, json.RawMessage(`{"v":1}`))
	require.NoError(t, err)
	updated, err := s.Update(ctx, tenant, created.ID, json.RawMessage(" null "))
	require.NoError(t, err)
	assert.Nil(t, updated.Metadata)

	fetched, err := s.Get(ctx, tenant, created.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched.Metadata)
}

func testUpdateMissing(t *testing.T, s types.LinkService) {
	_, err := s.Update(context.Background(), uuid.New(), uuid.New(), json.RawMessage(`{}`))
	assert.ErrorIs(t, err, types.ErrNotFoundOrDenied)
}

func testDelete(t *testing.T, s types.LinkService) {
	ctx := context.Background()
	tenant := uuid.New()

	l := mustCreate(t, s, tenant, "owner", ref("user"), ref("car"))
	keep := mustCreate(t, s, tenant, "owner", ref("user"), ref("car"))

	require.NoError(t, s.Delete(ctx, tenant, l.ID))

	_, err := s.Get(ctx, tenant, l.ID)
	assert.ErrorIs(t, err, types.ErrLinkNotFound)

	_, err = s.Get(ctx, tenant, keep.ID)
	assert.NoError(t, err)

	// Deleting an ID that never existed (or is already gone) succeeds.
	assert.NoError(t, s.Delete(ctx, tenant, l.ID))
	assert.NoError(t, s.Delete(ctx, tenant, uuid.New()))
}

func testDeleteByEntity(t *testing.T, s types.LinkService) {
	ctx := context.Background()
	tenant, other := uuid.New(), uuid.New()
	a, b, c, d := ref("node"), ref("node"), ref("node"), ref("node")

	ab := mustCreate(t, s, tenant, "edge", a, b)
	ac := mustCreate(t, s, tenant, "edge", a, c)
	db := mustCreate(t, s, tenant, "edge", d, b)
	ca := mustCreate(t, s, tenant, "edge", c, a)
	// Same ID under another type, and another tenant's link: both survive.
	typed := mustCreate(t, s, tenant, "edge", types.NewEntityReference(a.ID, "ghost"), b)
	foreign := mustCreate(t, s, other, "edge", a, b)

	require.NoError(t, s.DeleteByEntity(ctx, tenant, a.ID, "node"))

	remaining, err := s.List(ctx, tenant)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{db.ID, typed.ID}, ids(remaining))

	for _, gone := range []uuid.UUID{ab.ID, ac.ID, ca.ID} {
		_, err := s.Get(ctx, tenant, gone)
		assert.ErrorIs(t, err, types.ErrLinkNotFound)
	}

	survivor, err := s.Get(ctx, tenant, db.ID)
	require.NoError(t, err)
	assert.True(t, db.UpdatedAt.Equal(survivor.UpdatedAt), "survivors are untouched")

	_, err = s.Get(ctx, other, foreign.ID)
	assert.NoError(t, err)

	// Nothing left to match.
	assert.NoError(t, s.DeleteByEntity(ctx, tenant, a.ID, "node"))
}

func testReturnedLinksAreCopies(t *testing.T, s types.LinkService) {
	ctx := context.Background()
	tenant := uuid.New()

	l, err := s.Create(ctx, tenant, "owner", ref("user"), ref("car"), json.RawMessage(`{"v":1}`))
	require.NoError(t, err)

	l.LinkType = "mutated"
	l.Metadata = json.RawMessage(`{"v":99}`)

	got, err := s.Get(ctx, tenant, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "owner", got.LinkType)
	assert.JSONEq(t, `{"v":1}`, string(got.Metadata))
}

func testConcurrentCreates(t *testing.T, s types.LinkService) {
	ctx := context.Background()
	tenant := uuid.New()
	user := ref("user")

	const n = 32
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Create(ctx, tenant, "owner", user, ref("car"), nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	found, err := s.FindBySource(ctx, tenant, user.ID, "user", "owner", "car")
	require.NoError(t, err)
	assert.Len(t, found, n)
}
