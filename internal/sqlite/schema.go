package sqlite

// Table DDL. The SQLite database is rebuilt from the JSONL files on every
// Attach, so the schema carries no migrations.
const (
	createCollections = `CREATE TABLE collections (
    collection_id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE COLLATE NOCASE,
    created_at TEXT NOT NULL
);`

	createInheritance = `CREATE TABLE inheritance (
    collection_id TEXT NOT NULL,
    parent_id TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    PRIMARY KEY (collection_id, parent_id),
    FOREIGN KEY (collection_id) REFERENCES collections(collection_id) ON DELETE CASCADE,
    FOREIGN KEY (parent_id) REFERENCES collections(collection_id) ON DELETE CASCADE
);`

	createModSettings = `CREATE TABLE mod_settings (
    collection_id TEXT NOT NULL,
    mod TEXT NOT NULL,
    enabled INTEGER NOT NULL,
    priority INTEGER NOT NULL,
    settings TEXT,
    PRIMARY KEY (collection_id, mod),
    FOREIGN KEY (collection_id) REFERENCES collections(collection_id) ON DELETE CASCADE
);`

	createAssignments = `CREATE TABLE assignments (
    ordinal INTEGER PRIMARY KEY,
    role TEXT NOT NULL,
    collection_id TEXT NOT NULL,
    identifiers TEXT
);`
)

const (
	idxCollectionsCreated = `CREATE INDEX idx_collections_created ON collections(created_at);`
	idxInheritanceParent  = `CREATE INDEX idx_inheritance_parent ON inheritance(parent_id);`
	idxAssignmentsRole    = `CREATE INDEX idx_assignments_role ON assignments(role);`
)

// schemaDDL lists the CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createCollections,
	createInheritance,
	createModSettings,
	createAssignments,
}

var indexDDL = []string{
	idxCollectionsCreated,
	idxInheritanceParent,
	idxAssignmentsRole,
}
