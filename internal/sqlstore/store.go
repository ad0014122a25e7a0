// Package sqlstore implements the LinkService on top of database/sql, with
// SQLite (modernc.org/sqlite) and PostgreSQL (pgx) dialects.
//
// Each operation is a single statement or a single transaction; there are
// no cross-call transactions.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/linknav/pkg/types"
)

// DatabaseFile is the SQLite file created inside the data directory.
const DatabaseFile = "links.db"

var _ types.LinkStore = (*Store)(nil)

// Store is a LinkService over a SQL database.
type Store struct {
	mu      sync.Mutex
	closed  bool
	db      *sql.DB
	dialect Dialect
}

// Open connects to dsn with the given dialect and creates the schema if it
// does not exist.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dialect.Name, err)
	}
	if dialect == SQLite {
		// SQLite serializes writers; one connection avoids SQLITE_BUSY and
		// keeps an in-memory database alive across calls.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s: %w", dialect.Name, err)
	}

	s := &Store{db: db, dialect: dialect}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenSQLite opens links.db inside dataDir, creating the directory if
// needed. An empty dataDir opens a private in-memory database.
func OpenSQLite(ctx context.Context, dataDir string) (*Store, error) {
	if dataDir == "" {
		return Open(ctx, SQLite, ":memory:")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return Open(ctx, SQLite, filepath.Join(dataDir, DatabaseFile))
}

// OpenPostgres connects to a PostgreSQL database.
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	return Open(ctx, Postgres, dsn)
}

func (s *Store) ensureSchema(ctx context.Context) error {
	for _, stmt := range schemaDDL {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Dialect returns the store's SQL dialect.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Close closes the database. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Create inserts a new link.
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

	_, err := s.db.ExecContext(ctx, s.dialect.Rebind(
		"INSERT INTO links ("+linkColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		linkArgs(l)...,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting link: %w", err)
	}
	return l, nil
}

// Get returns the tenant's link with the given ID.
func (s *Store) Get(ctx context.Context, tenantID, id uuid.UUID) (*types.Link, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.Rebind(
		"SELECT "+linkColumns+" FROM links WHERE link_id = ? AND tenant_id = ?"),
		id.String(), tenantID.String(),
	)
	l, err := hydrateLink(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrLinkNotFound
		}
		return nil, fmt.Errorf("getting link %s: %w", id, err)
	}
	return l, nil
}

// List returns every link owned by the tenant, oldest first.
func (s *Store) List(ctx context.Context, tenantID uuid.UUID) ([]*types.Link, error) {
	return s.query(ctx, []string{"tenant_id = ?"}, []any{tenantID.String()})
}

// FindBySource returns the tenant's links whose source matches.
func (s *Store) FindBySource(ctx context.Context, tenantID, sourceID uuid.UUID, sourceType, linkType, targetType string) ([]*types.Link, error) {
	conditions := []string{"tenant_id = ?", "source_id = ?", "source_type = ?"}
	args := []any{tenantID.String(), sourceID.String(), sourceType}
	if linkType != "" {
		conditions = append(conditions, "link_type = ?")
		args = append(args, linkType)
	}
	if targetType != "" {
		conditions = append(conditions, "target_type = ?")
		args = append(args, targetType)
	}
	return s.query(ctx, conditions, args)
}

// FindByTarget returns the tenant's links whose target matches.
func (s *Store) FindByTarget(ctx context.Context, tenantID, targetID uuid.UUID, targetType, linkType, sourceType string) ([]*types.Link, error) {
	conditions := []string{"tenant_id = ?", "target_id = ?", "target_type = ?"}
	args := []any{tenantID.String(), targetID.String(), targetType}
	if linkType != "" {
		conditions = append(conditions, "link_type = ?")
		args = append(args, linkType)
	}
	if sourceType != "" {
		conditions = append(conditions, "source_type = ?")
		args = append(args, sourceType)
	}
	return s.query(ctx, conditions, args)
}

// Update replaces the link's metadata and refreshes updated_at.
func (s *Store) Update(ctx context.Context, tenantID, id uuid.UUID, metadata json.RawMessage) (*types.Link, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, s.dialect.Rebind(
		"UPDATE links SET metadata = ?, updated_at = ? WHERE link_id = ? AND tenant_id = ?"),
		nullableMetadata(metadata), formatTime(time.Now().UTC()), id.String(), tenantID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("updating link: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("updating link: %w", err)
	}
	if n == 0 {
		return nil, types.ErrNotFoundOrDenied
	}

	l, err := hydrateLink(tx.QueryRowContext(ctx, s.dialect.Rebind(
		"SELECT "+linkColumns+" FROM links WHERE link_id = ?"), id.String()))
	if err != nil {
		return nil, fmt.Errorf("reading updated link: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing link update: %w", err)
	}
	return l, nil
}

// Delete removes the tenant's link. An ID that does not exist at all is not
// an error; an ID owned by another tenant is.
func (s *Store) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, s.dialect.Rebind(
		"DELETE FROM links WHERE link_id = ? AND tenant_id = ?"),
		id.String(), tenantID.String(),
	)
	if err != nil {
		return fmt.Errorf("deleting link: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting link: %w", err)
	}
	if n == 0 {
		var one int
		err := tx.QueryRowContext(ctx, s.dialect.Rebind(
			"SELECT 1 FROM links WHERE link_id = ?"), id.String()).Scan(&one)
		if err == nil {
			return types.ErrNotFoundOrDenied
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking link existence: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing link deletion: %w", err)
	}
	return nil
}

// DeleteByEntity removes every tenant link the entity participates in.
func (s *Store) DeleteByEntity(ctx context.Context, tenantID, entityID uuid.UUID, entityType string) error {
	_, err := s.db.ExecContext(ctx, s.dialect.Rebind(
		"DELETE FROM links WHERE tenant_id = ? AND ((source_id = ? AND source_type = ?) OR (target_id = ? AND target_type = ?))"),
		tenantID.String(), entityID.String(), entityType, entityID.String(), entityType,
	)
	if err != nil {
		return fmt.Errorf("deleting links of %s %s: %w", entityType, entityID, err)
	}
	return nil
}

// query selects links matching every condition, ordered by link ID (UUID v7
// IDs sort by creation time).
func (s *Store) query(ctx context.Context, conditions []string, args []any) ([]*types.Link, error) {
	q := "SELECT " + linkColumns + " FROM links"
	if len(conditions) > 0 {
		q += " WHERE " + strings.Join(conditions, " AND ")
	}
	q += " ORDER BY link_id"

	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("querying links: %w", err)
	}
	defer rows.Close()

	results := []*types.Link{}
	for rows.Next() {
		l, err := hydrateLink(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating link: %w", err)
		}
		results = append(results, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating links: %w", err)
	}
	return results, nil
}
