// Package navigate runs resolved chains against a LinkService: it turns the
// last hop of a chain into the store query that answers it.
package navigate

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/linknav/internal/chain"
	"github.com/mesh-intelligence/linknav/pkg/types"
)

// List returns what a chain denotes as a collection. For a list chain that
// is the links of the final hop, narrowed by link type and the other end's
// entity type: outgoing links for a forward route, incoming for a reverse
// one. For a single-entity chain it is every link the entity takes part in.
// Item chains with a hop return types.ErrInvalidPath; use Find.
//
// Only the final hop is queried. Earlier hops fix types and IDs but are not
// checked against stored links.
func List(ctx context.Context, svc types.LinkService, tenantID uuid.UUID, ch *chain.Chain) ([]*types.Link, error) {
	if ch.Len() == 1 {
		ref := ch.Segments[0].Ref()
		out, err := svc.FindBySource(ctx, tenantID, ref.ID, ref.EntityType, "", "")
		if err != nil {
			return nil, err
		}
		in, err := svc.FindByTarget(ctx, tenantID, ref.ID, ref.EntityType, "", "")
		if err != nil {
			return nil, err
		}
		// A self-link comes back from both queries.
		seen := make(map[uuid.UUID]bool, len(out))
		for _, l := range out {
			seen[l.ID] = true
		}
		for _, l := range in {
			if !seen[l.ID] {
				out = append(out, l)
			}
		}
		return nonNil(out), nil
	}

	pen := ch.PenultimateSegment()
	if !ch.IsList || pen == nil || pen.Definition == nil {
		return nil, types.ErrInvalidPath
	}

	def := pen.Definition
	var (
		links []*types.Link
		err   error
	)
	if pen.Direction == types.DirectionReverse {
		links, err = svc.FindByTarget(ctx, tenantID, pen.ID(), pen.EntityType, def.LinkType, def.SourceType)
	} else {
		links, err = svc.FindBySource(ctx, tenantID, pen.ID(), pen.EntityType, def.LinkType, def.TargetType)
	}
	if err != nil {
		return nil, err
	}
	return nonNil(links), nil
}

// Find returns the first stored link matching e, or types.ErrLinkNotFound.
func Find(ctx context.Context, svc types.LinkService, tenantID uuid.UUID, e chain.Edge) (*types.Link, error) {
	links, err := svc.FindBySource(ctx, tenantID, e.Source.ID, e.Source.EntityType, e.Definition.LinkType, e.Target.EntityType)
	if err != nil {
		return nil, err
	}
	for _, l := range links {
		if l.Target.ID == e.Target.ID {
			return l, nil
		}
	}
	return nil, types.ErrLinkNotFound
}

// Create stores the link e names after checking the validation rules in
// cfg. Disallowed combinations return types.ErrLinkNotAllowed.
func Create(ctx context.Context, svc types.LinkService, cfg *types.LinksConfig, tenantID uuid.UUID, e chain.Edge, metadata json.RawMessage) (*types.Link, error) {
	if !cfg.Allows(e.Definition.LinkType, e.Source.EntityType, e.Target.EntityType) {
		return nil, types.ErrLinkNotAllowed
	}
	return svc.Create(ctx, tenantID, e.Definition.LinkType, e.Source, e.Target, metadata)
}

func nonNil(links []*types.Link) []*types.Link {
	if links == nil {
		return []*types.Link{}
	}
	return links
}
