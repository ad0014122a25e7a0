package types

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// LinkService is the CRUD and query contract over Link records. Every
// backend (in-memory, relational, graph, key-value) implements it with the
// same semantics:
//
//   - every operation is scoped to one tenant and never reads or writes
//     another tenant's links;
//   - Create never checks for duplicates;
//   - Update replaces Metadata wholesale and refreshes UpdatedAt, leaving
//     every other field untouched;
//   - Delete of an ID that never existed succeeds;
//   - each call is atomic on its own, with no cross-call transactions.
//
// Empty linkType, targetType, and sourceType filter arguments mean "any".
type LinkService interface {
	// Create stores a new link with a fresh ID and current timestamps.
	Create(ctx context.Context, tenantID uuid.UUID, linkType string, source, target EntityReference, metadata json.RawMessage) (*Link, error)

	// Get returns the link. Returns ErrLinkNotFound if the ID is absent or
	// owned by another tenant.
	Get(ctx context.Context, tenantID, id uuid.UUID) (*Link, error)

	// List returns every link owned by the tenant, in no particular order.
	List(ctx context.Context, tenantID uuid.UUID) ([]*Link, error)

	// FindBySource returns links whose source is (sourceID, sourceType),
	// optionally narrowed by link type and target entity type.
	FindBySource(ctx context.Context, tenantID, sourceID uuid.UUID, sourceType, linkType, targetType string) ([]*Link, error)

	// FindByTarget returns links whose target is (targetID, targetType),
	// optionally narrowed by link type and source entity type.
	FindByTarget(ctx context.Context, tenantID, targetID uuid.UUID, targetType, linkType, sourceType string) ([]*Link, error)

	// Update replaces the link's metadata (nil clears it). Returns
	// ErrNotFoundOrDenied if the ID is absent or owned by another tenant.
	Update(ctx context.Context, tenantID, id uuid.UUID, metadata json.RawMessage) (*Link, error)

	// Delete removes the link. Returns ErrNotFoundOrDenied if the ID exists
	// under another tenant.
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	// DeleteByEntity removes every link of the tenant in which the entity
	// appears as source or target.
	DeleteByEntity(ctx context.Context, tenantID, entityID uuid.UUID, entityType string) error
}

// LinkStore is a LinkService backed by resources that must be released.
type LinkStore interface {
	LinkService

	// Close releases backend resources. Idempotent.
	Close() error
}

// MatchesSource reports whether l satisfies a FindBySource query.
func (l *Link) MatchesSource(sourceID uuid.UUID, sourceType, linkType, targetType string) bool {
	if !l.Source.Matches(sourceID, sourceType) {
		return false
	}
	if linkType != "" && l.LinkType != linkType {
		return false
	}
	return targetType == "" || l.Target.EntityType == targetType
}

// MatchesTarget reports whether l satisfies a FindByTarget query.
func (l *Link) MatchesTarget(targetID uuid.UUID, targetType, linkType, sourceType string) bool {
	if !l.Target.Matches(targetID, targetType) {
		return false
	}
	if linkType != "" && l.LinkType != linkType {
		return false
	}
	return sourceType == "" || l.Source.EntityType == sourceType
}
