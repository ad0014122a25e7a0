// Link entity and entity references.
package types

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EntityReference identifies one endpoint of a link.
type EntityReference struct {
	ID         uuid.UUID `json:"id" yaml:"id"`
	EntityType string    `json:"entity_type" yaml:"entity_type"`
}

// NewEntityReference returns a reference to the entity with the given ID and type.
func NewEntityReference(id uuid.UUID, entityType string) EntityReference {
	return EntityReference{ID: id, EntityType: entityType}
}

// Matches reports whether the reference points at the given entity.
func (r EntityReference) Matches(id uuid.UUID, entityType string) bool {
	return r.ID == id && r.EntityType == entityType
}

// Link represents one stored relationship between two entities, owned by
// exactly one tenant.
type Link struct {
	// ID is a UUID v7, generated on creation and never reused.
	ID uuid.UUID `json:"id"`

	// TenantID is the isolation boundary that owns the link.
	TenantID uuid.UUID `json:"tenant_id"`

	// LinkType names the relationship kind (see LinkDefinition.LinkType).
	LinkType string `json:"link_type"`

	Source EntityReference `json:"source"`
	Target EntityReference `json:"target"`

	// Metadata is an optional structured value. Nil means none.
	Metadata json.RawMessage `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is refreshed on every metadata mutation.
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the link. Stores hand out clones so callers
// can never mutate stored state through a returned pointer.
func (l *Link) Clone() *Link {
	if l == nil {
		return nil
	}
	cp := *l
	cp.Metadata = CloneMetadata(l.Metadata)
	return &cp
}

// Involves reports whether the entity participates in the link as source or
// target.
func (l *Link) Involves(id uuid.UUID, entityType string) bool {
	return l.Source.Matches(id, entityType) || l.Target.Matches(id, entityType)
}

// CloneMetadata copies a metadata value. Empty input and a JSON null both
// mean no metadata and yield nil.
func CloneMetadata(m json.RawMessage) json.RawMessage {
	m = bytes.TrimSpace(m)
	if len(m) == 0 || bytes.Equal(m, jsonNull) {
		return nil
	}
	cp := make(json.RawMessage, len(m))
	copy(cp, m)
	return cp
}

var jsonNull = []byte("null")

// NewLinkID generates a new UUID v7 for a link, falling back to v4 if v7
// generation fails.
func NewLinkID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}
