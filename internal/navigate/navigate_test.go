package navigate

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/linknav/internal/chain"
	"github.com/mesh-intelligence/linknav/internal/memory"
	"github.com/mesh-intelligence/linknav/internal/routes"
	"github.com/mesh-intelligence/linknav/pkg/types"
)

var ownerDef = types.LinkDefinition{
	LinkType: "owner", SourceType: "user", TargetType: "car",
	ForwardRouteName: "cars-owned", ReverseRouteName: "users-owners",
}

var driverDef = types.LinkDefinition{
	LinkType: "driver", SourceType: "user", TargetType: "car",
	ForwardRouteName: "cars-driven", ReverseRouteName: "drivers",
}

func config() *types.LinksConfig {
	return &types.LinksConfig{
		Entities: []types.EntityConfig{
			{Singular: "user", Plural: "users"},
			{Singular: "car", Plural: "cars"},
		},
		Links: []types.LinkDefinition{ownerDef, driverDef},
	}
}

type world struct {
	ctx    context.Context
	store  *memory.Store
	table  *routes.Table
	tenant uuid.UUID
	user   uuid.UUID
	car1   uuid.UUID
	car2   uuid.UUID
}

// newWorld links user -owner-> car1, user -owner-> car2, user -driver-> car1.
func newWorld(t *testing.T) *world {
	t.Helper()
	w := &world{
		ctx:    context.Background(),
		store:  memory.New(),
		table:  routes.Build(*config()),
		tenant: uuid.New(),
		user:   uuid.New(),
		car1:   uuid.New(),
		car2:   uuid.New(),
	}
	u := types.NewEntityReference(w.user, "user")
	for _, l := range []struct {
		linkType string
		car      uuid.UUID
	}{{"owner", w.car1}, {"owner", w.car2}, {"driver", w.car1}} {
		_, err := w.store.Create(w.ctx, w.tenant, l.linkType, u, types.NewEntityReference(l.car, "car"), nil)
		require.NoError(t, err)
	}
	return w
}

func (w *world) resolve(t *testing.T, path string) *chain.Chain {
	t.Helper()
	ch, err := chain.ResolvePath(w.table, path)
	require.NoError(t, err)
	return ch
}

func TestListForward(t *testing.T) {
	w := newWorld(t)
	links, err := List(w.ctx, w.store, w.tenant, w.resolve(t, "users/"+w.user.String()+"/cars-owned"))
	require.NoError(t, err)
	assert.Len(t, links, 2)
	for _, l := range links {
		assert.Equal(t, "owner", l.LinkType)
	}
}

func TestListReverse(t *testing.T) {
	w := newWorld(t)
	links, err := List(w.ctx, w.store, w.tenant, w.resolve(t, "cars/"+w.car1.String()+"/drivers"))
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "driver", links[0].LinkType)
	assert.Equal(t, w.user, links[0].Source.ID)
}

func TestListBareEntity(t *testing.T) {
	w := newWorld(t)
	links, err := List(w.ctx, w.store, w.tenant, w.resolve(t, "cars/"+w.car1.String()))
	require.NoError(t, err)
	assert.Len(t, links, 2)
}

func TestListBareEntityCountsSelfLinkOnce(t *testing.T) {
	w := newWorld(t)
	u := types.NewEntityReference(w.user, "user")
	self, err := w.store.Create(w.ctx, w.tenant, "mentor", u, u, nil)
	require.NoError(t, err)

	links, err := List(w.ctx, w.store, w.tenant, w.resolve(t, "users/"+w.user.String()))
	require.NoError(t, err)
	assert.Len(t, links, 4)
	var n int
	for _, l := range links {
		if l.ID == self.ID {
			n++
		}
	}
	assert.Equal(t, 1, n)
}

func TestListOtherTenantIsEmpty(t *testing.T) {
	w := newWorld(t)
	links, err := List(w.ctx, w.store, uuid.New(), w.resolve(t, "users/"+w.user.String()+"/cars-owned"))
	require.NoError(t, err)
	assert.NotNil(t, links)
	assert.Empty(t, links)
}

func TestListRejectsItemChain(t *testing.T) {
	w := newWorld(t)
	_, err := List(w.ctx, w.store, w.tenant, w.resolve(t, "users/"+w.user.String()+"/cars-owned/"+w.car1.String()))
	assert.ErrorIs(t, err, types.ErrInvalidPath)
}

func TestFind(t *testing.T) {
	w := newWorld(t)

	ch := w.resolve(t, "cars/"+w.car2.String()+"/users-owners/"+w.user.String())
	e, ok := ch.FinalEdge()
	require.True(t, ok)
	l, err := Find(w.ctx, w.store, w.tenant, e)
	require.NoError(t, err)
	assert.Equal(t, w.car2, l.Target.ID)
	assert.Equal(t, "owner", l.LinkType)

	ch = w.resolve(t, "users/"+w.user.String()+"/cars-driven/"+w.car2.String())
	e, _ = ch.FinalEdge()
	_, err = Find(w.ctx, w.store, w.tenant, e)
	assert.ErrorIs(t, err, types.ErrLinkNotFound)
}

func TestCreate(t *testing.T) {
	w := newWorld(t)
	car := uuid.New()
	ch := w.resolve(t, "cars/"+car.String()+"/drivers/"+w.user.String())
	e, _ := ch.FinalEdge()

	l, err := Create(w.ctx, w.store, config(), w.tenant, e, json.RawMessage(`{"since":1}`))
	require.NoError(t, err)
	assert.True(t, l.Source.Matches(w.user, "user"))
	assert.True(t, l.Target.Matches(car, "car"))

	cfg := config()
	cfg.ValidationRules = map[string][]types.ValidationRule{"driver": {{Source: "company", Targets: []string{"car"}}}}
	_, err = Create(w.ctx, w.store, cfg, w.tenant, e, nil)
	assert.ErrorIs(t, err, types.ErrLinkNotAllowed)
}
