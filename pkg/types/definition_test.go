package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var ownerDef = LinkDefinition{
	LinkType:         "owner",
	SourceType:       "user",
	TargetType:       "car",
	ForwardRouteName: "cars-owned",
	ReverseRouteName: "users-owners",
}

func TestLinkDefinitionOtherType(t *testing.T) {
	assert.Equal(t, "car", ownerDef.OtherType(DirectionForward))
	assert.Equal(t, "user", ownerDef.OtherType(DirectionReverse))
	assert.Equal(t, "cars-owned", ownerDef.RouteName(DirectionForward))
	assert.Equal(t, "users-owners", ownerDef.RouteName(DirectionReverse))
}

func TestLinkDefinitionValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(d *LinkDefinition)
		wantErr error
	}{
		{name: "complete definition", mutate: func(*LinkDefinition) {}},
		{name: "missing link type", mutate: func(d *LinkDefinition) { d.LinkType = "" }, wantErr: ErrInvalidDefinition},
		{name: "missing target type", mutate: func(d *LinkDefinition) { d.TargetType = "" }, wantErr: ErrInvalidDefinition},
		{name: "missing reverse route", mutate: func(d *LinkDefinition) { d.ReverseRouteName = "" }, wantErr: ErrInvalidDefinition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ownerDef
			tt.mutate(&d)
			err := d.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLinksConfigAllows(t *testing.T) {
	cfg := &LinksConfig{
		Links: []LinkDefinition{ownerDef},
		ValidationRules: map[string][]ValidationRule{
			"owner": {{Source: "user", Targets: []string{"car", "bike"}}},
		},
	}

	assert.True(t, cfg.Allows("owner", "user", "car"))
	assert.True(t, cfg.Allows("owner", "user", "bike"))
	assert.False(t, cfg.Allows("owner", "user", "house"))
	assert.False(t, cfg.Allows("owner", "company", "car"))
	assert.True(t, cfg.Allows("driver", "user", "house"), "link types without rules are unrestricted")

	var unrestricted *LinksConfig
	assert.True(t, unrestricted.Allows("owner", "anything", "else"))
}

func TestLinksConfigValidate(t *testing.T) {
	cfg := &LinksConfig{
		Entities: []EntityConfig{{Singular: "user", Plural: "users"}},
		Links:    []LinkDefinition{ownerDef},
	}
	assert.NoError(t, cfg.Validate())

	cfg.Entities = append(cfg.Entities, EntityConfig{Singular: "car"})
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidEntityConfig)
}

func TestLinksConfigFindDefinition(t *testing.T) {
	cfg := &LinksConfig{Links: []LinkDefinition{ownerDef}}

	d, ok := cfg.FindDefinition("owner")
	assert.True(t, ok)
	assert.Equal(t, ownerDef, d)

	_, ok = cfg.FindDefinition("driver")
	assert.False(t, ok)
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "forward", DirectionForward.String())
	assert.Equal(t, "reverse", DirectionReverse.String())
	assert.Equal(t, "none", Direction("").String())
}
