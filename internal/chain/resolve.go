package chain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/linknav/internal/routes"
	"github.com/mesh-intelligence/linknav/pkg/types"
)

// minSegments is the shortest resolvable path: a type and an identifier.
const minSegments = 2

// Resolve walks segments left to right. The first segment must be a known
// entity plural; after that the path alternates identifier and route name.
// Each route hop fixes the entity type of the next step: the target type
// for a forward route, the source type for a reverse route. A path ending
// on a route name yields a trailing list segment.
//
// Errors are types.ErrInvalidPath, types.ErrInvalidEntityID, or a
// *types.RouteNotFoundError; no partial chain is returned on failure.
func Resolve(table *routes.Table, segments []string) (*Chain, error) {
	if len(segments) < minSegments {
		return nil, fmt.Errorf("%w: need at least %d segments, got %d", types.ErrInvalidPath, minSegments, len(segments))
	}

	out := make([]Segment, 0, (len(segments)+2)/2)
	idx := 0

	// next carries the entity type inferred by the previous hop.
	next := ""

	for idx < len(segments) {
		entityType := next
		if entityType == "" {
			plural := segments[idx]
			idx++
			singular, ok := table.Singular(plural)
			if !ok {
				return nil, fmt.Errorf("%w: unknown entity type %q", types.ErrInvalidPath, plural)
			}
			entityType = singular
		}
		next = ""

		if idx >= len(segments) {
			out = append(out, Segment{EntityType: entityType})
			break
		}

		id, err := uuid.Parse(segments[idx])
		if err != nil {
			return nil, fmt.Errorf("%w: %q", types.ErrInvalidEntityID, segments[idx])
		}
		idx++

		seg := Segment{EntityType: entityType, EntityID: &id}
		if idx < len(segments) {
			routeName := segments[idx]
			idx++
			def, dir, err := table.Resolve(entityType, routeName)
			if err != nil {
				return nil, err
			}
			seg.RouteName = routeName
			seg.Definition = &def
			seg.Direction = dir
			next = def.OtherType(dir)
		}
		out = append(out, seg)
	}

	// The path ended exactly on a route name.
	if next != "" {
		out = append(out, Segment{EntityType: next})
	}

	return &Chain{
		Segments: out,
		IsList:   !out[len(out)-1].HasID(),
	}, nil
}

// SplitPath splits a URL path on "/" and drops empty segments, so leading,
// trailing, and doubled slashes are ignored.
func SplitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ResolvePath splits path and resolves it.
func ResolvePath(table *routes.Table, path string) (*Chain, error) {
	return Resolve(table, SplitPath(path))
}
