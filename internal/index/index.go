// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/jeranaias/codechat/internal/session"
	"github.com/jeranaias/codechat/internal/util"
)

// Index is the transcript search index. All methods are called from the
// single chat goroutine or the watcher goroutine; SQLite's own locking
// covers that overlap.
type Index struct {
	db  *sql.DB
	dir string
}

// Open creates or opens the index database for the given sessions
// directory. The database lives next to the transcripts as index.db.
func Open(sessionsDir string) (*Index, error) {
	dbPath := filepath.Join(sessionsDir, "index.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open index database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index schema: %w", err)
	}
	idx := &Index{db: db, dir: sessionsDir}
	if err := idx.checkSchemaVersion(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

func (idx *Index) checkSchemaVersion() error {
	var stored string
	err := idx.db.QueryRow(`SELECT value FROM metadata WHERE key = 'schema_version'`).Scan(&stored)
	switch {
	case err == sql.ErrNoRows:
		_, err = idx.db.Exec(`INSERT INTO metadata(key, value) VALUES('schema_version', ?)`,
			strconv.Itoa(SchemaVersion))
		return err
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	}
	if stored != strconv.Itoa(SchemaVersion) {
		// Cheap rebuild: the index is derived data.
		if _, err := idx.db.Exec(`DELETE FROM sessions; DELETE FROM messages_fts;`); err != nil {
			return fmt.Errorf("reset stale index: %w", err)
		}
		_, err := idx.db.Exec(`UPDATE metadata SET value = ? WHERE key = 'schema_version'`,
			strconv.Itoa(SchemaVersion))
		return err
	}
	return nil
}

// Close releases the database handle.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// =============================================================================
// INDEXING
// =============================================================================

// IndexSession replaces the indexed rows for one session.
func (idx *Index) IndexSession(s *session.Session) error {
	modTime := s.LastActivity.Unix()
	if info, err := os.Stat(filepath.Join(idx.dir, s.ID+".json")); err == nil {
		modTime = info.ModTime().Unix()
	}

	tx, err := idx.db.Begin()
	if err != nil {
		return fmt.Errorf("begin index transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM messages_fts WHERE session_id = ?`, s.ID); err != nil {
		return fmt.Errorf("clear old messages: %w", err)
	}
	for _, m := range s.Messages {
		if _, err := tx.Exec(
			`INSERT INTO messages_fts(content, session_id, role, ts) VALUES(?, ?, ?, ?)`,
			m.Content, s.ID, m.Role, m.Timestamp.Unix(),
		); err != nil {
			return fmt.Errorf("index message: %w", err)
		}
	}
	if _, err := tx.Exec(
		`INSERT INTO sessions(id, last_activity, message_count, mod_time, indexed_at)
		 VALUES(?, ?, ?, ?, strftime('%s','now'))
		 ON CONFLICT(id) DO UPDATE SET
		   last_activity = excluded.last_activity,
		   message_count = excluded.message_count,
		   mod_time = excluded.mod_time,
		   indexed_at = excluded.indexed_at`,
		s.ID, s.LastActivity.Unix(), s.TotalMessages, modTime,
	); err != nil {
		return fmt.Errorf("record session: %w", err)
	}
	return tx.Commit()
}

// RemoveSession drops a session's rows after its file was deleted.
func (idx *Index) RemoveSession(id string) error {
	tx, err := idx.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM messages_fts WHERE session_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// Sync walks the store and indexes every transcript whose file changed
// since it was last indexed. It returns how many sessions were
// (re)indexed.
func (idx *Index) Sync(store *session.Store) (int, error) {
	metas, err := store.List()
	if err != nil {
		return 0, err
	}

	live := make(map[string]bool, len(metas))
	updated := 0
	for _, meta := range metas {
		live[meta.ID] = true
		if !idx.stale(meta.ID) {
			continue
		}
		s, err := store.Load(meta.ID)
		if err != nil {
			continue
		}
		if err := idx.IndexSession(s); err != nil {
			return updated, err
		}
		updated++
	}

	// Drop sessions whose files disappeared.
	rows, err := idx.db.Query(`SELECT id FROM sessions`)
	if err != nil {
		return updated, err
	}
	var gone []string
	for rows.Next() {
		var id string
		if rows.Scan(&id) == nil && !live[id] {
			gone = append(gone, id)
		}
	}
	rows.Close()
	for _, id := range gone {
		idx.RemoveSession(id)
	}
	return updated, nil
}

func (idx *Index) stale(id string) bool {
	info, err := os.Stat(filepath.Join(idx.dir, id+".json"))
	if err != nil {
		return false
	}
	var indexed int64
	err = idx.db.QueryRow(`SELECT mod_time FROM sessions WHERE id = ?`, id).Scan(&indexed)
	if err != nil {
		return true
	}
	return info.ModTime().Unix() > indexed
}

// =============================================================================
// SEARCH
// =============================================================================

// Hit is one full-text match.
type Hit struct {
	SessionID string
	Role      string
	Snippet   string
}

// Search runs an FTS query and returns up to limit hits, most recent
// message first. The query is quoted so user punctuation cannot break
// the FTS syntax.
func (idx *Index) Search(query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}
	quoted := `"` + strings.ReplaceAll(query, `"`, `""`) + `"`

	rows, err := idx.db.Query(
		`SELECT session_id, role, snippet(messages_fts, 0, '[', ']', '...', 12)
		 FROM messages_fts
		 WHERE messages_fts MATCH ?
		 ORDER BY ts DESC
		 LIMIT ?`,
		quoted, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.SessionID, &h.Role, &h.Snippet); err != nil {
			return nil, err
		}
		h.Snippet = util.TruncateRunes(strings.ReplaceAll(h.Snippet, "\n", " "), 120)
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// Count returns the number of indexed sessions.
func (idx *Index) Count() (int, error) {
	var n int
	err := idx.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&n)
	return n, err
}
