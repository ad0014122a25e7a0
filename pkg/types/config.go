package types

import "errors"

// Config selects a LinkService backend and carries its parameters.
type Config struct {
	Backend string `json:"backend" yaml:"backend" mapstructure:"backend"`

	// DataDir holds the SQLite database file. Empty means an in-memory
	// SQLite database.
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`

	Postgres PostgresConfig `json:"postgres" yaml:"postgres" mapstructure:"postgres"`
	Neo4j    Neo4jConfig    `json:"neo4j" yaml:"neo4j" mapstructure:"neo4j"`
	Redis    RedisConfig    `json:"redis" yaml:"redis" mapstructure:"redis"`
}

// PostgresConfig configures the PostgreSQL backend.
type PostgresConfig struct {
	DSN string `json:"dsn" yaml:"dsn" mapstructure:"dsn"`
}

// Neo4jConfig configures the graph backend.
type Neo4jConfig struct {
	URI            string `json:"uri" yaml:"uri" mapstructure:"uri"`
	Username       string `json:"username" yaml:"username" mapstructure:"username"`
	Password       string `json:"password" yaml:"password" mapstructure:"password"`
	Database       string `json:"database" yaml:"database" mapstructure:"database"`
	MaxConnections int    `json:"max_connections" yaml:"max_connections" mapstructure:"max_connections"`
}

// RedisConfig configures the key-value backend.
type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr" mapstructure:"addr"`
	Password string `json:"password" yaml:"password" mapstructure:"password"`
	DB       int    `json:"db" yaml:"db" mapstructure:"db"`

	// Prefix namespaces every key. Defaults to "linknav".
	Prefix string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`
}

// Supported backend names.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendNeo4j    = "neo4j"
	BackendRedis    = "redis"
)

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
	ErrMissingDSN     = errors.New("postgres dsn is required")
	ErrMissingURI     = errors.New("neo4j uri is required")
	ErrMissingAddr    = errors.New("redis addr is required")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendMemory:   true,
	BackendSQLite:   true,
	BackendPostgres: true,
	BackendNeo4j:    true,
	BackendRedis:    true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	switch c.Backend {
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			return ErrMissingDSN
		}
	case BackendNeo4j:
		if c.Neo4j.URI == "" {
			return ErrMissingURI
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			return ErrMissingAddr
		}
	}
	return nil
}
