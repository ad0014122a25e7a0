package sqlstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/linknav/internal/linktest"
	"github.com/mesh-intelligence/linknav/pkg/types"
)

func newSQLite(t *testing.T) *Store {
	t.Helper()
	s, err := OpenSQLite(context.Background(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteContract(t *testing.T) {
	linktest.Run(t, func(t *testing.T) types.LinkService {
		return newSQLite(t)
	})
}

func TestSQLiteInMemoryContract(t *testing.T) {
	linktest.Run(t, func(t *testing.T) types.LinkService {
		s, err := OpenSQLite(context.Background(), "")
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

// Set LINKNAV_TEST_POSTGRES_DSN to run the contract against PostgreSQL.
// Each subtest uses fresh tenant IDs, so a shared database is fine.
func TestPostgresContract(t *testing.T) {
	dsn := os.Getenv("LINKNAV_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LINKNAV_TEST_POSTGRES_DSN not set")
	}
	linktest.Run(t, func(t *testing.T) types.LinkService {
		s, err := OpenPostgres(context.Background(), dsn)
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestOpenSQLiteCreatesDatabaseFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	s, err := OpenSQLite(context.Background(), dir)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, DatabaseFile))
	assert.NoError(t, err)
	assert.Equal(t, SQLite, s.Dialect())
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	tenant := uuid.New()

	s, err := OpenSQLite(ctx, dir)
	require.NoError(t, err)
	l, err := s.Create(ctx, tenant, "owner",
		types.NewEntityReference(uuid.New(), "user"),
		types.NewEntityReference(uuid.New(), "car"),
		json.RawMessage(`{"since":2020}`))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, dir)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, tenant, l.ID)
	require.NoError(t, err)
	assert.Equal(t, l.Source, got.Source)
	assert.JSONEq(t, `{"since":2020}`, string(got.Metadata))
	assert.True(t, l.CreatedAt.Equal(got.CreatedAt))
}

func TestCloseIsIdempotent(t *testing.T) {
	s, err := OpenSQLite(context.Background(), "")
	require.NoError(t, err)

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())

	_, err = s.List(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestListIsOrderedByCreation(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t)
	tenant := uuid.New()

	var want []uuid.UUID
	for i := 0; i < 5; i++ {
		l, err := s.Create(ctx, tenant, "owner",
			types.NewEntityReference(uuid.New(), "user"),
			types.NewEntityReference(uuid.New(), "car"), nil)
		require.NoError(t, err)
		want = append(want, l.ID)
	}

	links, err := s.List(ctx, tenant)
	require.NoError(t, err)
	var got []uuid.UUID
	for _, l := range links {
		got = append(got, l.ID)
	}
	assert.Equal(t, want, got)
}

func TestRebind(t *testing.T) {
	q := "SELECT a FROM links WHERE x = ? AND y = ? AND z = ?"

	assert.Equal(t, q, SQLite.Rebind(q))
	assert.Equal(t, "SELECT a FROM links WHERE x = $1 AND y = $2 AND z = $3", Postgres.Rebind(q))
	assert.Equal(t, "no placeholders", Postgres.Rebind("no placeholders"))
}
