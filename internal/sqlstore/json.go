package sqlstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/linknav/pkg/types"
)

var errIncompleteRecord = errors.New("link record is missing link_type or an entity type")

// linkJSON is one line of a links.jsonl file.
type linkJSON struct {
	LinkID     string          `json:"link_id"`
	TenantID   string          `json:"tenant_id"`
	LinkType   string          `json:"link_type"`
	SourceID   string          `json:"source_id"`
	SourceType string          `json:"source_type"`
	TargetID   string          `json:"target_id"`
	TargetType string          `json:"target_type"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  string          `json:"created_at"`
	UpdatedAt  string          `json:"updated_at"`
}

func toLinkJSON(l *types.Link) linkJSON {
	return linkJSON{
		LinkID:     l.ID.String(),
		TenantID:   l.TenantID.String(),
		LinkType:   l.LinkType,
		SourceID:   l.Source.ID.String(),
		SourceType: l.Source.EntityType,
		TargetID:   l.Target.ID.String(),
		TargetType: l.Target.EntityType,
		Metadata:   l.Metadata,
		CreatedAt:  formatTime(l.CreatedAt),
		UpdatedAt:  formatTime(l.UpdatedAt),
	}
}

func (r linkJSON) toLink() (*types.Link, error) {
	var (
		l   types.Link
		err error
	)
	if l.ID, err = uuid.Parse(r.LinkID); err != nil {
		return nil, fmt.Errorf("link_id: %w", err)
	}
	if l.TenantID, err = uuid.Parse(r.TenantID); err != nil {
		return nil, fmt.Errorf("tenant_id: %w", err)
	}
	if l.Source.ID, err = uuid.Parse(r.SourceID); err != nil {
		return nil, fmt.Errorf("source_id: %w", err)
	}
	if l.Target.ID, err = uuid.Parse(r.TargetID); err != nil {
		return nil, fmt.Errorf("target_id: %w", err)
	}
	if l.CreatedAt, err = time.Parse(timeLayout, r.CreatedAt); err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	if l.UpdatedAt, err = time.Parse(timeLayout, r.UpdatedAt); err != nil {
		return nil, fmt.Errorf("updated_at: %w", err)
	}
	if r.LinkType == "" || r.SourceType == "" || r.TargetType == "" {
		return nil, errIncompleteRecord
	}
	l.LinkType = r.LinkType
	l.Source.EntityType = r.SourceType
	l.Target.EntityType = r.TargetType
	l.Metadata = types.CloneMetadata(r.Metadata)
	return &l, nil
}
