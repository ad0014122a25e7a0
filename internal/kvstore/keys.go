package kvstore

import (
	"github.com/google/uuid"

	"github.com/mesh-intelligence/linknav/pkg/types"
)

const defaultPrefix = "linknav"

// keyspace builds the Redis key names for one prefix.
//
//	{p}:link:{id}                         link JSON
//	{p}:tenant:{tenant}                   set of link ids
//	{p}:src:{tenant}:{type}:{entity}      set of outgoing link ids
//	{p}:tgt:{tenant}:{type}:{entity}      set of incoming link ids
type keyspace struct {
	prefix string
}

func newKeyspace(prefix string) keyspace {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return keyspace{prefix: prefix}
}

func (k keyspace) link(id uuid.UUID) string {
	return k.prefix + ":link:" + id.String()
}

func (k keyspace) tenant(tenantID uuid.UUID) string {
	return k.prefix + ":tenant:" + tenantID.String()
}

func (k keyspace) source(tenantID uuid.UUID, ref types.EntityReference) string {
	return k.prefix + ":src:" + tenantID.String() + ":" + ref.EntityType + ":" + ref.ID.String()
}

func (k keyspace) target(tenantID uuid.UUID, ref types.EntityReference) string {
	return k.prefix + ":tgt:" + tenantID.String() + ":" + ref.EntityType + ":" + ref.ID.String()
}
