package sqlstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/linknav/pkg/types"
)

// timeLayout keeps sub-second precision so updated_at always moves forward
// on update.
const timeLayout = time.RFC3339Nano

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// hydrateLink converts one row selected with linkColumns into a *types.Link.
func hydrateLink(row rowScanner) (*types.Link, error) {
	var (
		id, tenant, sourceID, targetID string
		createdAt, updatedAt           string
		metadata                       sql.NullString
		l                              types.Link
	)
	if err := row.Scan(&id, &tenant, &l.LinkType, &sourceID, &l.Source.EntityType,
		&targetID, &l.Target.EntityType, &metadata, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if l.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parsing link_id: %w", err)
	}
	if l.TenantID, err = uuid.Parse(tenant); err != nil {
		return nil, fmt.Errorf("parsing tenant_id: %w", err)
	}
	if l.Source.ID, err = uuid.Parse(sourceID); err != nil {
		return nil, fmt.Errorf("parsing source_id: %w", err)
	}
	if l.Target.ID, err = uuid.Parse(targetID); err != nil {
		return nil, fmt.Errorf("parsing target_id: %w", err)
	}
	if l.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if l.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	if metadata.Valid {
		l.Metadata = types.CloneMetadata(json.RawMessage(metadata.String))
	}
	return &l, nil
}

// linkArgs returns the column values of l in linkColumns order.
func linkArgs(l *types.Link) []any {
	return []any{
		l.ID.String(),
		l.TenantID.String(),
		l.LinkType,
		l.Source.ID.String(),
		l.Source.EntityType,
		l.Target.ID.String(),
		l.Target.EntityType,
		nullableMetadata(l.Metadata),
		formatTime(l.CreatedAt),
		formatTime(l.UpdatedAt),
	}
}

func nullableMetadata(m json.RawMessage) any {
	if m = types.CloneMetadata(m); m == nil {
		return nil
	}
	return string(m)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
