package sqlstore

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/linknav/pkg/types"
)

// maxLineSize bounds one JSONL record, metadata included.
const maxLineSize = 4 << 20

// ExportJSONL writes every link of every tenant to path, one JSON object
// per line. The file is replaced only once the export is complete.
func (s *Store) ExportJSONL(ctx context.Context, path string) (int, error) {
	links, err := s.query(ctx, nil, nil)
	if err != nil {
		return 0, err
	}
	err = replaceFile(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		for _, l := range links {
			if err := enc.Encode(toLinkJSON(l)); err != nil {
				return fmt.Errorf("encoding link %s: %w", l.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(links), nil
}

// ImportJSONL loads links from a JSONL file in one transaction, inserting
// new links and overwriting existing ones with the same ID. Blank lines,
// malformed JSON, and records that do not describe a complete link are
// skipped. Returns the number of links imported.
func (s *Store) ImportJSONL(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	upsert := s.dialect.Rebind("INSERT INTO links (" + linkColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)" +
		" ON CONFLICT (link_id) DO UPDATE SET tenant_id = excluded.tenant_id, link_type = excluded.link_type," +
		" source_id = excluded.source_id, source_type = excluded.source_type," +
		" target_id = excluded.target_id, target_type = excluded.target_type," +
		" metadata = excluded.metadata, created_at = excluded.created_at, updated_at = excluded.updated_at")

	imported := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		l, ok := decodeLine(sc.Bytes())
		if !ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, upsert, linkArgs(l)...); err != nil {
			return 0, fmt.Errorf("importing link %s: %w", l.ID, err)
		}
		imported++
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}
	return imported, nil
}

// decodeLine turns one JSONL line into a link. ok is false for anything
// that is not a complete record.
func decodeLine(line []byte) (l *types.Link, ok bool) {
	var rec linkJSON
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, false
	}
	l, err := rec.toLink()
	if err != nil {
		return nil, false
	}
	return l, true
}

// replaceFile writes path through a buffered temp file in the same
// directory, syncs it, and renames it into place. On any failure the temp
// file is removed and path is left untouched.
func replaceFile(path string, fill func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	if err = fill(w); err != nil {
		return err
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
