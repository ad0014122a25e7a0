// Package memory implements the reference in-memory LinkService.
//
// A single RWMutex guards the record map: Get, List, and the Find queries
// share the read lock; Create, Update, Delete, and DeleteByEntity take the
// write lock for their whole duration.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/linknav/pkg/types"
)

var _ types.LinkStore = (*Store)(nil)

// Store keeps links in a map keyed by link ID.
type Store struct {
	mu    sync.RWMutex
	links map[uuid.UUID]*types.Link

	// now is overridable in tests.
	now func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		links: make(map[uuid.UUID]*types.Link),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new link. Duplicate (source, target, link type) triples
// are allowed.
func (s *Store) Create(_ context.Context, tenantID uuid.UUID, linkType string, source, target types.EntityReference, metadata json.RawMessage) (*types.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	l := &types.Link{
		ID:        types.NewLinkID(),
		TenantID:  tenantID,
		LinkType:  linkType,
		Source:    source,
		Target:    target,
		Metadata:  types.CloneMetadata(metadata),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.links[l.ID] = l
	return l.Clone(), nil
}

// Get returns the link if it exists and belongs to the tenant.
func (s *Store) Get(_ context.Context, tenantID, id uuid.UUID) (*types.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.links[id]
	if !ok || l.TenantID != tenantID {
		return nil, types.ErrLinkNotFound
	}
	return l.Clone(), nil
}

// List returns every link owned by the tenant.
func (s *Store) List(_ context.Context, tenantID uuid.UUID) ([]*types.Link, error) {
	return s.filter(func(l *types.Link) bool {
		return l.TenantID == tenantID
	}), nil
}

// FindBySource returns the tenant's links whose source matches.
func (s *Store) FindBySource(_ context.Context, tenantID, sourceID uuid.UUID, sourceType, linkType, targetType string) ([]*types.Link, error) {
	return s.filter(func(l *types.Link) bool {
		return l.TenantID == tenantID && l.MatchesSource(sourceID, sourceType, linkType, targetType)
	}), nil
}

// FindByTarget returns the tenant's links whose target matches.
func (s *Store) FindByTarget(_ context.Context, tenantID, targetID uuid.UUID, targetType, linkType, sourceType string) ([]*types.Link, error) {
	return s.filter(func(l *types.Link) bool {
		return l.TenantID == tenantID && l.MatchesTarget(targetID, targetType, linkType, sourceType)
	}), nil
}

// Update replaces the link's metadata and refreshes UpdatedAt.
func (s *Store) Update(_ context.Context, tenantID, id uuid.UUID, metadata json.RawMessage) (*types.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.links[id]
	if !ok || l.TenantID != tenantID {
		return nil, types.ErrNotFoundOrDenied
	}
	l.Metadata = types.CloneMetadata(metadata)
	l.UpdatedAt = s.now()
	return l.Clone(), nil
}

// Delete removes the link. Deleting an ID that does not exist succeeds.
func (s *Store) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.links[id]
	if !ok {
		return nil
	}
	if l.TenantID != tenantID {
		return types.ErrNotFoundOrDenied
	}
	delete(s.links, id)
	return nil
}

// DeleteByEntity removes every tenant link the entity participates in.
func (s *Store) DeleteByEntity(_ context.Context, tenantID, entityID uuid.UUID, entityType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, l := range s.links {
		if l.TenantID == tenantID && l.Involves(entityID, entityType) {
			delete(s.links, id)
		}
	}
	return nil
}

// Len returns the number of stored links across all tenants.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.links)
}

// Close is a no-op; the store holds no external resources.
func (s *Store) Close() error {
	return nil
}

func (s *Store) filter(keep func(*types.Link) bool) []*types.Link {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*types.Link{}
	for _, l := range s.links {
		if keep(l) {
			out = append(out, l.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}
