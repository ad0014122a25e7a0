package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty backend returns ErrBackendEmpty",
			config:  Config{Backend: "", DataDir: "/tmp/data"},
			wantErr: ErrBackendEmpty,
		},
		{
			name:    "unknown backend returns ErrBackendUnknown",
			config:  Config{Backend: "cassandra", DataDir: "/tmp/data"},
			wantErr: ErrBackendUnknown,
		},
		{
			name:    "valid sqlite config",
			config:  Config{Backend: BackendSQLite, DataDir: "/tmp/data"},
			wantErr: nil,
		},
		{
			name:    "sqlite with empty DataDir is valid at config level",
			config:  Config{Backend: BackendSQLite, DataDir: ""},
			wantErr: nil,
		},
		{
			name:    "memory needs nothing else",
			config:  Config{Backend: BackendMemory},
			wantErr: nil,
		},
		{
			name:    "postgres without dsn",
			config:  Config{Backend: BackendPostgres},
			wantErr: ErrMissingDSN,
		},
		{
			name:    "postgres with dsn",
			config:  Config{Backend: BackendPostgres, Postgres: PostgresConfig{DSN: "postgres://localhost/links"}},
			wantErr: nil,
		},
		{
			name:    "neo4j without uri",
			config:  Config{Backend: BackendNeo4j},
			wantErr: ErrMissingURI,
		},
		{
			name:    "redis without addr",
			config:  Config{Backend: BackendRedis},
			wantErr: ErrMissingAddr,
		},
		{
			name:    "redis with addr",
			config:  Config{Backend: BackendRedis, Redis: RedisConfig{Addr: "localhost:6379"}},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfigValidateNeo4jWithURI(t *testing.T) {
	cfg := Config{Backend: BackendNeo4j, Neo4j: Neo4jConfig{URI: "neo4j://localhost:7687"}}
	assert.NoError(t, cfg.Validate())
}
