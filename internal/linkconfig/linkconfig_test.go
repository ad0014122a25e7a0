package linkconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/linknav/pkg/types"
)

const fleetYAML = `
entities:
  - singular: user
    plural: users
  - singular: car
    plural: cars
links:
  - link_type: owner
    source_type: user
    target_type: car
    forward_route_name: cars-owned
    reverse_route_name: users-owners
    description: a user owns a car
validation_rules:
  owner:
    - source: user
      targets: [car]
`

const companyYAML = `
entities:
  - singular: company
    plural: companies
  - singular: user
    plural: users
links:
  - link_type: employs
    source_type: company
    target_type: user
    forward_route_name: employees
    reverse_route_name: employers
`

func owner() types.LinkDefinition {
	return types.LinkDefinition{
		LinkType:         "owner",
		SourceType:       "user",
		TargetType:       "car",
		ForwardRouteName: "cars-owned",
		ReverseRouteName: "users-owners",
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(fleetYAML))
	require.NoError(t, err)

	require.Len(t, cfg.Entities, 2)
	assert.Equal(t, types.EntityConfig{Singular: "car", Plural: "cars"}, cfg.Entities[1])
	require.Len(t, cfg.Links, 1)
	assert.Equal(t, "cars-owned", cfg.Links[0].ForwardRouteName)
	assert.Equal(t, "a user owns a car", cfg.Links[0].Description)
	assert.True(t, cfg.Allows("owner", "user", "car"))
	assert.False(t, cfg.Allows("owner", "car", "user"))
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, cfg.Links)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"missing route", "links:\n  - link_type: owner\n    source_type: user\n    target_type: car\n    forward_route_name: cars\n", types.ErrInvalidDefinition},
		{"missing plural", "entities:\n  - singular: user\n", types.ErrInvalidEntityConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("route declared twice in one file", func(t *testing.T) {
		_, err := Parse([]byte(`
links:
  - link_type: owner
    source_type: user
    target_type: car
    forward_route_name: cars-owned
    reverse_route_name: users-owners
  - link_type: lessee
    source_type: user
    target_type: car
    forward_route_name: cars-owned
    reverse_route_name: lessees
`))
		assert.ErrorIs(t, err, types.ErrDuplicateRoute)
	})

	t.Run("entity redeclared in one file", func(t *testing.T) {
		_, err := Parse([]byte("entities:\n  - singular: user\n    plural: users\n  - singular: user\n    plural: people\n"))
		assert.ErrorIs(t, err, types.ErrEntityConflict)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := Parse([]byte("routes: []\n"))
		assert.Error(t, err)
	})

	t.Run("bad yaml", func(t *testing.T) {
		_, err := Parse([]byte("links: [\n"))
		assert.Error(t, err)
	})
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "fleet.yaml", fleetYAML)
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Links, 1)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadDirMergesInNameOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b-company.yml", companyYAML)
	writeFile(t, dir, "a-fleet.yaml", fleetYAML)
	writeFile(t, dir, "notes.txt", "not yaml")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.yaml"), 0o755))

	cfg, err := LoadDir(dir)
	require.NoError(t, err)

	require.Len(t, cfg.Links, 2)
	assert.Equal(t, "owner", cfg.Links[0].LinkType)
	assert.Equal(t, "employs", cfg.Links[1].LinkType)

	singulars := make([]string, 0, len(cfg.Entities))
	for _, e := range cfg.Entities {
		singulars = append(singulars, e.Singular)
	}
	assert.Equal(t, []string{"user", "car", "company"}, singulars)
}

func TestLoadDispatchesOnKind(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "fleet.yaml", fleetYAML)

	fromFile, err := Load(path)
	require.NoError(t, err)
	fromDir, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, fromFile.Links, fromDir.Links)

	_, err = Load(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestMergeDuplicateRoute(t *testing.T) {
	clash := owner()
	clash.LinkType = "driver"
	clash.ReverseRouteName = "drivers"

	_, err := Merge(
		types.LinksConfig{Links: []types.LinkDefinition{owner()}},
		types.LinksConfig{Links: []types.LinkDefinition{clash}},
	)
	assert.ErrorIs(t, err, types.ErrDuplicateRoute)
}

func TestMergeDuplicateReverseRoute(t *testing.T) {
	clash := owner()
	clash.LinkType = "renter"
	clash.ForwardRouteName = "cars-rented"

	_, err := Merge(
		types.LinksConfig{Links: []types.LinkDefinition{owner()}},
		types.LinksConfig{Links: []types.LinkDefinition{clash}},
	)
	assert.ErrorIs(t, err, types.ErrDuplicateRoute)
}

func TestMergeIdenticalDefinitionsOnce(t *testing.T) {
	cfg, err := Merge(
		types.LinksConfig{Links: []types.LinkDefinition{owner()}},
		types.LinksConfig{Links: []types.LinkDefinition{owner()}},
	)
	require.NoError(t, err)
	assert.Len(t, cfg.Links, 1)
}

func TestMergeEntities(t *testing.T) {
	user := types.EntityConfig{Singular: "user", Plural: "users"}

	cfg, err := Merge(
		types.LinksConfig{Entities: []types.EntityConfig{user}},
		types.LinksConfig{Entities: []types.EntityConfig{user}},
	)
	require.NoError(t, err)
	assert.Len(t, cfg.Entities, 1)

	_, err = Merge(
		types.LinksConfig{Entities: []types.EntityConfig{user}},
		types.LinksConfig{Entities: []types.EntityConfig{{Singular: "user", Plural: "people"}}},
	)
	assert.ErrorIs(t, err, types.ErrEntityConflict)
}

func TestMergeValidationRules(t *testing.T) {
	cfg, err := Merge(
		types.LinksConfig{ValidationRules: map[string][]types.ValidationRule{
			"owner": {{Source: "user", Targets: []string{"car"}}},
		}},
		types.LinksConfig{ValidationRules: map[string][]types.ValidationRule{
			"owner": {{Source: "company", Targets: []string{"car"}}},
		}},
	)
	require.NoError(t, err)
	assert.True(t, cfg.Allows("owner", "user", "car"))
	assert.True(t, cfg.Allows("owner", "company", "car"))
	assert.False(t, cfg.Allows("owner", "car", "car"))
}

func TestMergeNothing(t *testing.T) {
	cfg, err := Merge()
	require.NoError(t, err)
	assert.Nil(t, cfg.ValidationRules)
	assert.Empty(t, cfg.Links)
}
