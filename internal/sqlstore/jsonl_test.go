package sqlstore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/linknav/pkg/types"
)

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newSQLite(t)
	tenantA, tenantB := uuid.New(), uuid.New()

	var created []*types.Link
	for i, tenant := range []uuid.UUID{tenantA, tenantA, tenantB} {
		var meta json.RawMessage
		if i == 0 {
			meta = json.RawMessage(`{"note":"first"}`)
		}
		l, err := src.Create(ctx, tenant, "owner",
			types.NewEntityReference(uuid.New(), "user"),
			types.NewEntityReference(uuid.New(), "car"), meta)
		require.NoError(t, err)
		created = append(created, l)
	}

	path := filepath.Join(t.TempDir(), "links.jsonl")
	n, err := src.ExportJSONL(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	dst := newSQLite(t)
	n, err = dst.ImportJSONL(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, want := range created {
		got, err := dst.Get(ctx, want.TenantID, want.ID)
		require.NoError(t, err)
		assert.Equal(t, want.Source, got.Source)
		assert.Equal(t, want.Target, got.Target)
		assert.Equal(t, want.LinkType, got.LinkType)
		assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
		assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt))
		if want.Metadata == nil {
			assert.Nil(t, got.Metadata)
		} else {
			assert.JSONEq(t, string(want.Metadata), string(got.Metadata))
		}
	}

	// Importing again overwrites rather than duplicating.
	n, err = dst.ImportJSONL(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	listed, err := dst.List(ctx, tenantA)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestImportSkipsMalformedLines(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t)

	good := linkJSON{
		LinkID:     uuid.NewString(),
		TenantID:   uuid.NewString(),
		LinkType:   "owner",
		SourceID:   uuid.NewString(),
		SourceType: "user",
		TargetID:   uuid.NewString(),
		TargetType: "car",
		CreatedAt:  "2026-01-02T03:04:05Z",
		UpdatedAt:  "2026-01-02T03:04:05.5Z",
	}
	raw, err := json.Marshal(good)
	require.NoError(t, err)

	badID := good
	badID.LinkID = "not-a-uuid"
	rawBadID, err := json.Marshal(badID)
	require.NoError(t, err)

	missingType := good
	missingType.LinkID = uuid.NewString()
	missingType.TargetType = ""
	rawMissing, err := json.Marshal(missingType)
	require.NoError(t, err)

	content := strings.Join([]string{
		string(raw),
		"{not json",
		"",
		string(rawBadID),
		string(rawMissing),
	}, "\n")
	path := filepath.Join(t.TempDir(), "links.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	n, err := s.ImportJSONL(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	l, err := s.Get(ctx, uuid.MustParse(good.TenantID), uuid.MustParse(good.LinkID))
	require.NoError(t, err)
	assert.Equal(t, "owner", l.LinkType)
	assert.Equal(t, 500_000_000, l.UpdatedAt.Nanosecond())
}

func TestImportMissingFile(t *testing.T) {
	s := newSQLite(t)
	_, err := s.ImportJSONL(context.Background(), filepath.Join(t.TempDir(), "absent.jsonl"))
	assert.Error(t, err)
}

func TestReplaceFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	require.NoError(t, replaceFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "{\"a\":1}\n{\"b\":2}\n")
		return err
	}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\n{\"b\":2}\n", string(data))

	boom := errors.New("boom")
	err = replaceFile(path, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\n{\"b\":2}\n", string(data), "a failed write leaves the old file")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestExportKeepsMetadataVerbatim(t *testing.T) {
	ctx := context.Background()
	s := newSQLite(t)
	_, err := s.Create(ctx, uuid.New(), "owner",
		types.NewEntityReference(uuid.New(), "user"),
		types.NewEntityReference(uuid.New(), "car"), json.RawMessage(`{"note":"<a&b>"}`))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "links.jsonl")
	n, err := s.ExportJSONL(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"metadata":{"note":"<a&b>"}`)
	assert.True(t, strings.HasSuffix(string(data), "}\n"))
}
