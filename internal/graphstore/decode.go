package graphstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/linknav/pkg/types"
)

// decodeLink converts a record shaped by returnLink into a *types.Link.
func decodeLink(rec Record) (*types.Link, error) {
	var (
		l   types.Link
		err error
	)
	if l.ID, err = uuidField(rec, "id"); err != nil {
		return nil, err
	}
	if l.TenantID, err = uuidField(rec, "tenant_id"); err != nil {
		return nil, err
	}
	if l.Source.ID, err = uuidField(rec, "source_id"); err != nil {
		return nil, err
	}
	if l.Target.ID, err = uuidField(rec, "target_id"); err != nil {
		return nil, err
	}
	if l.CreatedAt, err = timeField(rec, "created_at"); err != nil {
		return nil, err
	}
	if l.UpdatedAt, err = timeField(rec, "updated_at"); err != nil {
		return nil, err
	}
	l.LinkType = stringField(rec, "link_type")
	l.Source.EntityType = stringField(rec, "source_type")
	l.Target.EntityType = stringField(rec, "target_type")
	l.Metadata = types.CloneMetadata(json.RawMessage(stringField(rec, "metadata")))
	return &l, nil
}

func stringField(rec Record, key string) string {
	s, _ := rec[key].(string)
	return s
}

func uuidField(rec Record, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(stringField(rec, key))
	if err != nil {
		return uuid.Nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	return id, nil
}

func timeField(rec Record, key string) (time.Time, error) {
	t, err := time.Parse(timeLayout, stringField(rec, key))
	if err != nil {
		return time.Time{}, fmt.Errorf("decoding %s: %w", key, err)
	}
	return t, nil
}
