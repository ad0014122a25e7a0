// Package routes maps (entity type, route name) pairs to link definitions
// and navigation directions.
//
// A Table is built once from a LinksConfig and never mutated; it is safe
// for concurrent readers. Reloading builds a new Table and swaps it into a
// Registry.
package routes

import (
	"sort"

	"github.com/mesh-intelligence/linknav/pkg/types"
)

type routeKey struct {
	entityType string
	route      string
}

// Route is one resolved table entry.
type Route struct {
	Definition types.LinkDefinition
	Direction  types.Direction
}

// RouteInfo describes a route registered for an entity type.
type RouteInfo struct {
	RouteName string          `json:"route_name"`
	LinkType  string          `json:"link_type"`
	Direction types.Direction `json:"direction"`

	// ConnectedType is the entity type on the other end: the target type
	// for forward routes, the source type for reverse routes.
	ConnectedType string `json:"connected_type"`
}

// Table is an immutable route lookup table.
type Table struct {
	routes   map[routeKey]Route
	singular map[string]string // plural -> singular
	plural   map[string]string // singular -> plural
}

// Build creates a Table from cfg. Each definition contributes a forward
// entry keyed by (SourceType, ForwardRouteName) and a reverse entry keyed by
// (TargetType, ReverseRouteName). A later definition overwrites an earlier
// one with the same key; duplicate detection belongs to configuration
// merging (see linkconfig.Merge).
func Build(cfg types.LinksConfig) *Table {
	t := &Table{
		routes:   make(map[routeKey]Route, 2*len(cfg.Links)),
		singular: make(map[string]string, len(cfg.Entities)),
		plural:   make(map[string]string, len(cfg.Entities)),
	}
	for _, d := range cfg.Links {
		t.routes[routeKey{d.SourceType, d.ForwardRouteName}] = Route{Definition: d, Direction: types.DirectionForward}
		t.routes[routeKey{d.TargetType, d.ReverseRouteName}] = Route{Definition: d, Direction: types.DirectionReverse}
	}
	for _, e := range cfg.Entities {
		t.singular[e.Plural] = e.Singular
		t.plural[e.Singular] = e.Plural
	}
	return t
}

// Resolve returns the definition and direction registered for the route on
// entityType. Returns a *types.RouteNotFoundError when the pair is unknown.
func (t *Table) Resolve(entityType, routeName string) (types.LinkDefinition, types.Direction, error) {
	r, ok := t.routes[routeKey{entityType, routeName}]
	if !ok {
		return types.LinkDefinition{}, "", &types.RouteNotFoundError{EntityType: entityType, Route: routeName}
	}
	return r.Definition, r.Direction, nil
}

// ListRoutesForEntity returns every route registered for entityType, sorted
// by route name. Returns an empty slice when the type has no routes.
func (t *Table) ListRoutesForEntity(entityType string) []RouteInfo {
	infos := []RouteInfo{}
	for k, r := range t.routes {
		if k.entityType != entityType {
			continue
		}
		infos = append(infos, RouteInfo{
			RouteName:     k.route,
			LinkType:      r.Definition.LinkType,
			Direction:     r.Direction,
			ConnectedType: r.Definition.OtherType(r.Direction),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].RouteName < infos[j].RouteName })
	return infos
}

// Singular returns the entity type whose URL plural is plural.
func (t *Table) Singular(plural string) (string, bool) {
	s, ok := t.singular[plural]
	return s, ok
}

// Plural returns the URL plural registered for an entity type.
func (t *Table) Plural(singular string) (string, bool) {
	p, ok := t.plural[singular]
	return p, ok
}

// EntityType normalizes name, which may be either a singular entity type
// or its plural, to the singular type.
func (t *Table) EntityType(name string) (string, bool) {
	if _, ok := t.plural[name]; ok {
		return name, true
	}
	return t.Singular(name)
}

// Len returns the number of route entries.
func (t *Table) Len() int {
	return len(t.routes)
}
