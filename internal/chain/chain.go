// Package chain resolves nested URL paths such as
// users/{id}/orders-owned/{id}/invoices into a sequence of typed,
// identified steps.
//
// Resolution is a pure computation over a routes.Table: it performs no I/O
// and keeps no state between calls.
package chain

import (
	"github.com/google/uuid"

	"github.com/mesh-intelligence/linknav/pkg/types"
)

// Segment is one step of a resolved chain. A segment with a nil EntityID
// and no RouteName stands for "a list of EntityType" and only appears last.
type Segment struct {
	EntityType string     `json:"entity_type"`
	EntityID   *uuid.UUID `json:"entity_id,omitempty"`

	// RouteName, Definition, and Direction are set when the segment is
	// followed by a route hop.
	RouteName  string                `json:"route_name,omitempty"`
	Definition *types.LinkDefinition `json:"link_definition,omitempty"`
	Direction  types.Direction       `json:"direction,omitempty"`
}

// HasID reports whether the segment identifies a single entity.
func (s Segment) HasID() bool {
	return s.EntityID != nil
}

// ID returns the entity ID, or uuid.Nil for a list segment.
func (s Segment) ID() uuid.UUID {
	if s.EntityID == nil {
		return uuid.Nil
	}
	return *s.EntityID
}

// Ref returns the segment as an entity reference.
func (s Segment) Ref() types.EntityReference {
	return types.NewEntityReference(s.ID(), s.EntityType)
}

// Chain is the result of resolving a path.
type Chain struct {
	Segments []Segment `json:"segments"`

	// IsList is true when the path ends on a route name, so the result is
	// a collection rather than a single entity.
	IsList bool `json:"is_list"`
}

// Len returns the number of segments.
func (c *Chain) Len() int {
	return len(c.Segments)
}

// FinalTarget returns the ID and entity type of the last segment. The ID is
// nil when the chain is a list.
func (c *Chain) FinalTarget() (*uuid.UUID, string) {
	if len(c.Segments) == 0 {
		return nil, ""
	}
	last := c.Segments[len(c.Segments)-1]
	return last.EntityID, last.EntityType
}

// FinalLinkDefinition returns the definition that produced the final hop,
// i.e. the one attached to the second-to-last segment. Returns nil when the
// chain has fewer than two segments.
func (c *Chain) FinalLinkDefinition() *types.LinkDefinition {
	p := c.PenultimateSegment()
	if p == nil {
		return nil
	}
	return p.Definition
}

// PenultimateSegment returns the second-to-last segment, or nil when the
// chain has fewer than two segments.
func (c *Chain) PenultimateSegment() *Segment {
	if len(c.Segments) < 2 {
		return nil
	}
	return &c.Segments[len(c.Segments)-2]
}

// Edge is the final hop of an item chain in stored orientation: Source is
// always the definition's source side, whichever way the path walked.
type Edge struct {
	Definition types.LinkDefinition
	Source     types.EntityReference
	Target     types.EntityReference
}

// FinalEdge returns the link the chain's last hop names. It reports false
// for list chains and for chains without a hop.
func (c *Chain) FinalEdge() (Edge, bool) {
	pen := c.PenultimateSegment()
	if c.IsList || pen == nil || pen.Definition == nil {
		return Edge{}, false
	}
	last := c.Segments[len(c.Segments)-1]
	e := Edge{Definition: *pen.Definition, Source: pen.Ref(), Target: last.Ref()}
	if pen.Direction == types.DirectionReverse {
		e.Source, e.Target = e.Target, e.Source
	}
	return e, true
}
