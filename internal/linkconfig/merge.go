package linkconfig

import (
	"fmt"
	"reflect"

	"github.com/mesh-intelligence/linknav/pkg/types"
)

type routeKey struct {
	entityType string
	route      string
}

// Merge combines module contributions in order.
//
// A route name may be declared by only one definition per entity type;
// a second definition claiming the same (type, route) fails with
// types.ErrDuplicateRoute unless it is identical to the first, in which
// case it is kept once. An entity declared twice must use the same plural
// or the merge fails with types.ErrEntityConflict. Validation rules for the
// same link type are concatenated.
func Merge(configs ...types.LinksConfig) (types.LinksConfig, error) {
	var out types.LinksConfig
	plurals := make(map[string]string)
	owners := make(map[routeKey]types.LinkDefinition)

	for _, cfg := range configs {
		for _, e := range cfg.Entities {
			if p, ok := plurals[e.Singular]; ok {
				if p != e.Plural {
					return types.LinksConfig{}, fmt.Errorf("%w: %s is %q and %q", types.ErrEntityConflict, e.Singular, p, e.Plural)
				}
				continue
			}
			plurals[e.Singular] = e.Plural
			out.Entities = append(out.Entities, e)
		}

		for _, d := range cfg.Links {
			fwd := routeKey{d.SourceType, d.ForwardRouteName}
			rev := routeKey{d.TargetType, d.ReverseRouteName}

			dup, err := claim(owners, fwd, d)
			if err != nil {
				return types.LinksConfig{}, err
			}
			if _, err := claim(owners, rev, d); err != nil {
				return types.LinksConfig{}, err
			}
			if dup {
				continue
			}
			owners[fwd] = d
			owners[rev] = d
			out.Links = append(out.Links, d)
		}

		for linkType, rules := range cfg.ValidationRules {
			if out.ValidationRules == nil {
				out.ValidationRules = make(map[string][]types.ValidationRule)
			}
			out.ValidationRules[linkType] = append(out.ValidationRules[linkType], rules...)
		}
	}
	return out, nil
}

// claim reports whether d already owns key. It fails when a different
// definition does.
func claim(owners map[routeKey]types.LinkDefinition, key routeKey, d types.LinkDefinition) (bool, error) {
	prev, ok := owners[key]
	if !ok {
		return false, nil
	}
	if reflect.DeepEqual(prev, d) {
		return true, nil
	}
	return false, fmt.Errorf("%w: %s/%s claimed by %q and %q", types.ErrDuplicateRoute, key.entityType, key.route, prev.LinkType, d.LinkType)
}
