// Package graphstore implements the LinkService on a property graph.
// Entities become (:Entity {id, type}) nodes and each link is a LINK
// relationship from source to target carrying the tenant, link type,
// metadata (as a JSON string), and timestamps.
package graphstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/linknav/pkg/types"
)

const timeLayout = time.RFC3339Nano

// Cypher statements.
const (
	cypherEntityIndex = `CREATE INDEX entity_key_idx IF NOT EXISTS FOR (e:Entity) ON (e.id, e.type)`
	cypherLinkIndex   = `CREATE INDEX link_id_idx IF NOT EXISTS FOR ()-[r:LINK]-() ON (r.id)`
	cypherLinkTenant  = `CREATE INDEX link_tenant_idx IF NOT EXISTS FOR ()-[r:LINK]-() ON (r.tenant_id)`

	returnLink = `
RETURN r.id AS id, r.tenant_id AS tenant_id, r.link_type AS link_type,
       s.id AS source_id, s.type AS source_type,
       t.id AS target_id, t.type AS target_type,
       r.metadata AS metadata, r.created_at AS created_at, r.updated_at AS updated_at`

	cypherCreate = `
MERGE (s:Entity {id: $source_id, type: $source_type})
MERGE (t:Entity {id: $target_id, type: $target_type})
CREATE (s)-[:LINK {id: $id, tenant_id: $tenant_id, link_type: $link_type,
                   metadata: $metadata, created_at: $created_at, updated_at: $updated_at}]->(t)`

	cypherGet = `
MATCH (s:Entity)-[r:LINK {id: $id, tenant_id: $tenant_id}]->(t:Entity)` + returnLink

	cypherList = `
MATCH (s:Entity)-[r:LINK {tenant_id: $tenant_id}]->(t:Entity)` + returnLink + `
ORDER BY r.id`

	cypherFindBySource = `
MATCH (s:Entity {id: $entity_id, type: $entity_type})-[r:LINK {tenant_id: $tenant_id}]->(t:Entity)
WHERE ($link_type = '' OR r.link_type = $link_type) AND ($other_type = '' OR t.type = $other_type)` + returnLink + `
ORDER BY r.id`

	cypherFindByTarget = `
MATCH (s:Entity)-[r:LINK {tenant_id: $tenant_id}]->(t:Entity {id: $entity_id, type: $entity_type})
WHERE ($link_type = '' OR r.link_type = $link_type) AND ($other_type = '' OR s.type = $other_type)` + returnLink + `
ORDER BY r.id`

	cypherUpdate = `
MATCH (s:Entity)-[r:LINK {id: $id, tenant_id: $tenant_id}]->(t:Entity)
SET r.metadata = $metadata, r.updated_at = $updated_at` + returnLink

	// Returns no row when the link does not exist, and owned = false when it
	// belongs to another tenant (in which case nothing is deleted).
	cypherDelete = `
MATCH ()-[r:LINK {id: $id}]->()
WITH r, r.tenant_id = $tenant_id AS owned
FOREACH (_ IN CASE WHEN owned THEN [1] ELSE [] END | DELETE r)
RETURN owned`

	cypherDeleteByEntity = `
MATCH (e:Entity {id: $entity_id, type: $entity_type})-[r:LINK {tenant_id: $tenant_id}]-()
DELETE r`
)

var _ types.LinkStore = (*Store)(nil)

// Store is a LinkService over a graph Client.
type Store struct {
	client Client
}

// New wraps client. Call EnsureSchema once to create indexes.
func New(client Client) *Store {
	return &Store{client: client}
}

// Open connects to Neo4j and creates the indexes.
func Open(ctx context.Context, cfg types.Neo4jConfig) (*Store, error) {
	client, err := NewNeo4jClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := New(client)
	if err := s.EnsureSchema(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the lookup indexes if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{cypherEntityIndex, cypherLinkIndex, cypherLinkTenant} {
		if _, err := s.client.ExecuteWrite(ctx, stmt, nil); err != nil {
			return fmt.Errorf("graph schema init: %w", err)
		}
	}
	return nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close(context.Background())
}

// Create adds a LINK relationship, merging the endpoint nodes.
func (s *Store) Create(ctx context.Context, tenantID uuid.UUID, linkType string, source, target types.EntityReference, metadata json.RawMessage) (*types.Link, error) {
	now := time.Now().UTC()
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

	params := map[string]any{
		"id":          l.ID.String(),
		"tenant_id":   tenantID.String(),
		"link_type":   linkType,
		"source_id":   source.ID.String(),
		"source_type": source.EntityType,
		"target_id":   target.ID.String(),
		"target_type": target.EntityType,
		"metadata":    metadataParam(l.Metadata),
		"created_at":  now.Format(timeLayout),
		"updated_at":  now.Format(timeLayout),
	}
	if _, err := s.client.ExecuteWrite(ctx, cypherCreate, params); err != nil {
		return nil, fmt.Errorf("creating link: %w", err)
	}
	return l, nil
}

// Get returns the tenant's link with the given ID.
func (s *Store) Get(ctx context.Context, tenantID, id uuid.UUID) (*types.Link, error) {
	res, err := s.client.ExecuteRead(ctx, cypherGet, map[string]any{
		"id":        id.String(),
		"tenant_id": tenantID.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("getting link %s: %w", id, err)
	}
	if len(res.Records) == 0 {
		return nil, types.ErrLinkNotFound
	}
	return decodeLink(res.Records[0])
}

// List returns every link owned by the tenant.
func (s *Store) List(ctx context.Context, tenantID uuid.UUID) ([]*types.Link, error) {
	return s.read(ctx, cypherList, map[string]any{"tenant_id": tenantID.String()})
}

// FindBySource returns the tenant's outgoing links of the source entity.
func (s *Store) FindBySource(ctx context.Context, tenantID, sourceID uuid.UUID, sourceType, linkType, targetType string) ([]*types.Link, error) {
	return s.read(ctx, cypherFindBySource, findParams(tenantID, sourceID, sourceType, linkType, targetType))
}

// FindByTarget returns the tenant's incoming links of the target entity.
func (s *Store) FindByTarget(ctx context.Context, tenantID, targetID uuid.UUID, targetType, linkType, sourceType string) ([]*types.Link, error) {
	return s.read(ctx, cypherFindByTarget, findParams(tenantID, targetID, targetType, linkType, sourceType))
}

// Update replaces the link's metadata and refreshes updated_at.
func (s *Store) Update(ctx context.Context, tenantID, id uuid.UUID, metadata json.RawMessage) (*types.Link, error) {
	res, err := s.client.ExecuteWrite(ctx, cypherUpdate, map[string]any{
		"id":         id.String(),
		"tenant_id":  tenantID.String(),
		"metadata":   metadataParam(metadata),
		"updated_at": time.Now().UTC().Format(timeLayout),
	})
	if err != nil {
		return nil, fmt.Errorf("updating link %s: %w", id, err)
	}
	if len(res.Records) == 0 {
		return nil, types.ErrNotFoundOrDenied
	}
	return decodeLink(res.Records[0])
}

// Delete removes the tenant's link. A missing ID is not an error.
func (s *Store) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	res, err := s.client.ExecuteWrite(ctx, cypherDelete, map[string]any{
		"id":        id.String(),
		"tenant_id": tenantID.String(),
	})
	if err != nil {
		return fmt.Errorf("deleting link %s: %w", id, err)
	}
	for _, rec := range res.Records {
		if owned, _ := rec["owned"].(bool); !owned {
			return types.ErrNotFoundOrDenied
		}
	}
	return nil
}

// DeleteByEntity removes every tenant link touching the entity node.
func (s *Store) DeleteByEntity(ctx context.Context, tenantID, entityID uuid.UUID, entityType string) error {
	_, err := s.client.ExecuteWrite(ctx, cypherDeleteByEntity, map[string]any{
		"tenant_id":   tenantID.String(),
		"entity_id":   entityID.String(),
		"entity_type": entityType,
	})
	if err != nil {
		return fmt.Errorf("deleting links of %s %s: %w", entityType, entityID, err)
	}
	return nil
}

func (s *Store) read(ctx context.Context, cypher string, params map[string]any) ([]*types.Link, error) {
	res, err := s.client.ExecuteRead(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("querying links: %w", err)
	}
	links := make([]*types.Link, 0, len(res.Records))
	for _, rec := range res.Records {
		l, err := decodeLink(rec)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, nil
}

func findParams(tenantID, entityID uuid.UUID, entityType, linkType, otherType string) map[string]any {
	return map[string]any{
		"tenant_id":   tenantID.String(),
		"entity_id":   entityID.String(),
		"entity_type": entityType,
		"link_type":   linkType,
		"other_type":  otherType,
	}
}

// metadataParam stores metadata as a JSON string; nil removes the property.
func metadataParam(m json.RawMessage) any {
	if m = types.CloneMetadata(m); m == nil {
		return nil
	}
	return string(m)
}
