// Link definitions and the links configuration schema.
package types

// Direction says which side of a LinkDefinition a route is resolved from.
type Direction string

// Navigation directions. The zero value means no direction.
const (
	// DirectionForward walks from SourceType toward TargetType.
	DirectionForward Direction = "forward"
	// DirectionReverse walks from TargetType back toward SourceType.
	DirectionReverse Direction = "reverse"
)

// String returns the direction name, or "none" for the zero value.
func (d Direction) String() string {
	if d == "" {
		return "none"
	}
	return string(d)
}

// LinkDefinition declares that entities of SourceType may relate to entities
// of TargetType via LinkType, reachable as ForwardRouteName from the source
// side and ReverseRouteName from the target side.
type LinkDefinition struct {
	LinkType         string   `json:"link_type" yaml:"link_type"`
	SourceType       string   `json:"source_type" yaml:"source_type"`
	TargetType       string   `json:"target_type" yaml:"target_type"`
	ForwardRouteName string   `json:"forward_route_name" yaml:"forward_route_name"`
	ReverseRouteName string   `json:"reverse_route_name" yaml:"reverse_route_name"`
	Description      string   `json:"description,omitempty" yaml:"description,omitempty"`
	RequiredFields   []string `json:"required_fields,omitempty" yaml:"required_fields,omitempty"`
}

// OtherType returns the entity type reached when navigating the definition
// in the given direction: TargetType for forward, SourceType for reverse.
func (d LinkDefinition) OtherType(dir Direction) string {
	if dir == DirectionReverse {
		return d.SourceType
	}
	return d.TargetType
}

// RouteName returns the route name registered for the given direction.
func (d LinkDefinition) RouteName(dir Direction) string {
	if dir == DirectionReverse {
		return d.ReverseRouteName
	}
	return d.ForwardRouteName
}

// Validate checks that every required field of the definition is set.
func (d LinkDefinition) Validate() error {
	switch {
	case d.LinkType == "":
		return ErrInvalidDefinition
	case d.SourceType == "" || d.TargetType == "":
		return ErrInvalidDefinition
	case d.ForwardRouteName == "" || d.ReverseRouteName == "":
		return ErrInvalidDefinition
	}
	return nil
}

// EntityConfig maps an entity type's singular name to its URL plural.
type EntityConfig struct {
	Singular string `json:"singular" yaml:"singular"`
	Plural   string `json:"plural" yaml:"plural"`
}

// ValidationRule allows links from Source to any of Targets.
type ValidationRule struct {
	Source  string   `json:"source" yaml:"source"`
	Targets []string `json:"targets" yaml:"targets"`
}

// LinksConfig is the static schema of the relationship graph: which entity
// types exist and how they may be linked. It is built once at startup and
// shared read-only for the life of the process.
type LinksConfig struct {
	Entities []EntityConfig   `json:"entities" yaml:"entities"`
	Links    []LinkDefinition `json:"links" yaml:"links"`

	// ValidationRules restricts, per link type, the allowed
	// (source_type, target_type) combinations. Nil means unrestricted.
	ValidationRules map[string][]ValidationRule `json:"validation_rules,omitempty" yaml:"validation_rules,omitempty"`
}

// Allows reports whether a link of linkType from sourceType to targetType is
// permitted by the validation rules. Link types without rules are allowed.
func (c *LinksConfig) Allows(linkType, sourceType, targetType string) bool {
	if c == nil || c.ValidationRules == nil {
		return true
	}
	rules, ok := c.ValidationRules[linkType]
	if !ok {
		return true
	}
	for _, r := range rules {
		if r.Source != sourceType {
			continue
		}
		for _, t := range r.Targets {
			if t == targetType {
				return true
			}
		}
	}
	return false
}

// FindDefinition returns the first definition with the given link type.
func (c *LinksConfig) FindDefinition(linkType string) (LinkDefinition, bool) {
	if c == nil {
		return LinkDefinition{}, false
	}
	for _, d := range c.Links {
		if d.LinkType == linkType {
			return d, true
		}
	}
	return LinkDefinition{}, false
}

// Validate checks entity entries and every link definition.
func (c *LinksConfig) Validate() error {
	for _, e := range c.Entities {
		if e.Singular == "" || e.Plural == "" {
			return ErrInvalidEntityConfig
		}
	}
	for _, d := range c.Links {
		if err := d.Validate(); err != nil {
			return err
		}
	}
	return nil
}
