package sqlstore

// Schema DDL. Both dialects store IDs and timestamps as TEXT so one set of
// statements serves SQLite and PostgreSQL.
const (
	createLinks = `CREATE TABLE IF NOT EXISTS links (
    link_id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    link_type TEXT NOT NULL,
    source_id TEXT NOT NULL,
    source_type TEXT NOT NULL,
    target_id TEXT NOT NULL,
    target_type TEXT NOT NULL,
    metadata TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`
)

// Index DDL for the tenant-scoped lookups.
const (
	idxLinksTenant = `CREATE INDEX IF NOT EXISTS idx_links_tenant ON links(tenant_id);`
	idxLinksSource = `CREATE INDEX IF NOT EXISTS idx_links_source ON links(tenant_id, source_id, source_type);`
	idxLinksTarget = `CREATE INDEX IF NOT EXISTS idx_links_target ON links(tenant_id, target_id, target_type);`
)

// schemaDDL lists every statement run when a store is opened, in order.
var schemaDDL = []string{
	createLinks,
	idxLinksTenant,
	idxLinksSource,
	idxLinksTarget,
}

const linkColumns = "link_id, tenant_id, link_type, source_id, source_type, target_id, target_type, metadata, created_at, updated_at"
