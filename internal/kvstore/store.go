// Package kvstore implements the LinkService on Redis. Each link is a JSON
// value; per-tenant and per-endpoint sets index it. Index and value writes
// go through MULTI/EXEC, and read-modify-write paths use WATCH.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/mesh-intelligence/linknav/pkg/types"
)

// maxTxRetries bounds optimistic-lock retries on a contended key.
const maxTxRetries = 8

var _ types.LinkStore = (*Store)(nil)

// Store is a LinkService over a Redis client.
type Store struct {
	rdb  goredis.UniversalClient
	keys keyspace
	now  func() time.Time
}

// New wraps an existing client. Keys are namespaced under prefix.
func New(rdb goredis.UniversalClient, prefix string) *Store {
	return &Store{
		rdb:  rdb,
		keys: newKeyspace(prefix),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Open dials Redis and pings it.
func Open(ctx context.Context, cfg types.RedisConfig) (*Store, error) {
	if cfg.Addr == "" {
		return nil, types.ErrMissingAddr
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(rdb, cfg.Prefix), nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// Create stores the link and adds it to the tenant and endpoint indexes.
func (s *Store) Create(ctx context.Context, tenantID uuid.UUID, linkType string, source, target types.EntityReference, metadata json.RawMessage) (*types.Link, error) {
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
	raw, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("encoding link: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, s.keys.link(l.ID), raw, 0)
		pipe.SAdd(ctx, s.keys.tenant(tenantID), l.ID.String())
		pipe.SAdd(ctx, s.keys.source(tenantID, source), l.ID.String())
		pipe.SAdd(ctx, s.keys.target(tenantID, target), l.ID.String())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating link: %w", err)
	}
	return l, nil
}

// Get returns the tenant's link with the given ID.
func (s *Store) Get(ctx context.Context, tenantID, id uuid.UUID) (*types.Link, error) {
	l, err := s.load(ctx, s.rdb, id)
	if err != nil {
		return nil, err
	}
	if l == nil || l.TenantID != tenantID {
		return nil, types.ErrLinkNotFound
	}
	return l, nil
}

// List returns every link owned by the tenant, oldest first.
func (s *Store) List(ctx context.Context, tenantID uuid.UUID) ([]*types.Link, error) {
	return s.members(ctx, s.keys.tenant(tenantID), func(*types.Link) bool { return true })
}

// FindBySource returns the tenant's outgoing links of the source entity.
func (s *Store) FindBySource(ctx context.Context, tenantID, sourceID uuid.UUID, sourceType, linkType, targetType string) ([]*types.Link, error) {
	key := s.keys.source(tenantID, types.NewEntityReference(sourceID, sourceType))
	return s.members(ctx, key, func(l *types.Link) bool {
		return l.TenantID == tenantID && l.MatchesSource(sourceID, sourceType, linkType, targetType)
	})
}

// FindByTarget returns the tenant's incoming links of the target entity.
func (s *Store) FindByTarget(ctx context.Context, tenantID, targetID uuid.UUID, targetType, linkType, sourceType string) ([]*types.Link, error) {
	key := s.keys.target(tenantID, types.NewEntityReference(targetID, targetType))
	return s.members(ctx, key, func(l *types.Link) bool {
		return l.TenantID == tenantID && l.MatchesTarget(targetID, targetType, linkType, sourceType)
	})
}

// Update replaces the link's metadata and refreshes updated_at.
func (s *Store) Update(ctx context.Context, tenantID, id uuid.UUID, metadata json.RawMessage) (*types.Link, error) {
	key := s.keys.link(id)
	var updated *types.Link

	err := s.watch(ctx, key, func(tx *goredis.Tx) error {
		l, err := s.load(ctx, tx, id)
		if err != nil {
			return err
		}
		if l == nil || l.TenantID != tenantID {
			return types.ErrNotFoundOrDenied
		}
		l.Metadata = types.CloneMetadata(metadata)
		l.UpdatedAt = s.now()
		raw, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("encoding link: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, raw, 0)
			return nil
		})
		updated = l
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the tenant's link. A missing ID is not an error.
func (s *Store) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.watch(ctx, s.keys.link(id), func(tx *goredis.Tx) error {
		l, err := s.load(ctx, tx, id)
		if err != nil || l == nil {
			return err
		}
		if l.TenantID != tenantID {
			return types.ErrNotFoundOrDenied
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			s.unindex(ctx, pipe, l)
			return nil
		})
		return err
	})
}

// DeleteByEntity removes every tenant link where the entity is source or
// target.
func (s *Store) DeleteByEntity(ctx context.Context, tenantID, entityID uuid.UUID, entityType string) error {
	ref := types.NewEntityReference(entityID, entityType)
	ids, err := s.rdb.SUnion(ctx, s.keys.source(tenantID, ref), s.keys.target(tenantID, ref)).Result()
	if err != nil {
		return fmt.Errorf("reading entity index: %w", err)
	}
	links, err := s.loadMany(ctx, ids)
	if err != nil {
		return err
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, l := range links {
			if l.TenantID == tenantID && l.Involves(entityID, entityType) {
				s.unindex(ctx, pipe, l)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting links of %s %s: %w", entityType, entityID, err)
	}
	return nil
}

func (s *Store) unindex(ctx context.Context, pipe goredis.Pipeliner, l *types.Link) {
	id := l.ID.String()
	pipe.Del(ctx, s.keys.link(l.ID))
	pipe.SRem(ctx, s.keys.tenant(l.TenantID), id)
	pipe.SRem(ctx, s.keys.source(l.TenantID, l.Source), id)
	pipe.SRem(ctx, s.keys.target(l.TenantID, l.Target), id)
}

// watch runs fn under WATCH key, retrying when another client wins the race.
func (s *Store) watch(ctx context.Context, key string, fn func(*goredis.Tx) error) error {
	for i := 0; i < maxTxRetries; i++ {
		err := s.rdb.Watch(ctx, fn, key)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("transaction on %s: %w", key, goredis.TxFailedErr)
}

// getter is the part of a client or transaction load needs.
type getter interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
}

// load reads one link. It returns nil, nil when the key does not exist.
func (s *Store) load(ctx context.Context, c getter, id uuid.UUID) (*types.Link, error) {
	raw, err := c.Get(ctx, s.keys.link(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading link %s: %w", id, err)
	}
	return decodeLink(raw)
}

func (s *Store) members(ctx context.Context, setKey string, keep func(*types.Link) bool) ([]*types.Link, error) {
	ids, err := s.rdb.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, fmt.Errorf("reading index %s: %w", setKey, err)
	}
	all, err := s.loadMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	links := make([]*types.Link, 0, len(all))
	for _, l := range all {
		if keep(l) {
			links = append(links, l)
		}
	}
	sortByID(links)
	return links, nil
}

// loadMany fetches links by id string, skipping ids whose value is gone.
func (s *Store) loadMany(ctx context.Context, ids []string) ([]*types.Link, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		keys = append(keys, s.keys.link(id))
	}
	if len(keys) == 0 {
		return nil, nil
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("reading links: %w", err)
	}
	links := make([]*types.Link, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		l, err := decodeLink([]byte(str))
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, nil
}

func decodeLink(raw []byte) (*types.Link, error) {
	var l types.Link
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, fmt.Errorf("decoding link: %w", err)
	}
	l.Metadata = types.CloneMetadata(l.Metadata)
	return &l, nil
}

// sortByID orders links by their v7 IDs, which sort by creation time.
func sortByID(links []*types.Link) {
	sort.Slice(links, func(i, j int) bool {
		return links[i].ID.String() < links[j].ID.String()
	})
}
