// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/codechat/internal/util"
)

// ErrNotFound is returned when a session id has no file.
var ErrNotFound = errors.New("session not found")

// Store persists sessions as JSON files named <id>.json in a single
// directory.
type Store struct {
	dir string
}

// NewStore creates the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create sessions directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory the store writes into.
func (st *Store) Dir() string {
	return st.dir
}

func (st *Store) path(id string) string {
	return filepath.Join(st.dir, id+".json")
}

// Save writes the session atomically with 0600, matching the config
// directory's permission discipline.
func (st *Store) Save(s *Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	if err := util.AtomicWriteFile(st.path(s.ID), data, 0600); err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	return nil
}

// Load reads one session by id.
func (st *Store) Load(id string) (*Session, error) {
	data, err := os.ReadFile(st.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &s, nil
}

// Meta is the listing view of a stored session.
type Meta struct {
	ID            string
	StartTime     string
	LastActivity  string
	TotalMessages int
	FirstUserLine string
}

// List returns metadata for every stored session, most recently active
// first. Unreadable files are skipped rather than failing the listing.
func (st *Store) List() ([]Meta, error) {
	entries, err := os.ReadDir(st.dir)
	if err != nil {
		return nil, fmt.Errorf("read sessions directory: %w", err)
	}

	var sessions []*Session
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		s, err := st.Load(strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			continue
		}
		sessions = append(sessions, s)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastActivity.After(sessions[j].LastActivity)
	})

	metas := make([]Meta, 0, len(sessions))
	for _, s := range sessions {
		metas = append(metas, Meta{
			ID:            s.ID,
			StartTime:     s.StartTime.Format("2006-01-02 15:04"),
			LastActivity:  s.LastActivity.Format("2006-01-02 15:04"),
			TotalMessages: s.TotalMessages,
			FirstUserLine: firstUserLine(s),
		})
	}
	return metas, nil
}

func firstUserLine(s *Session) string {
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			return util.TruncateRunes(util.FirstLine(m.Content), 40)
		}
	}
	return ""
}

// Delete removes one session file.
func (st *Store) Delete(id string) error {
	err := os.Remove(st.path(id))
	if os.IsNotExist(err) {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return err
}

// Clear removes every stored session and returns how many went away.
func (st *Store) Clear() (int, error) {
	metas, err := st.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, m := range metas {
		if err := st.Delete(m.ID); err == nil {
			removed++
		}
	}
	return removed, nil
}

// SearchHit is one message matched by Search.
type SearchHit struct {
	SessionID string
	Role      string
	Excerpt   string
}

// Search scans every stored session for query, case-insensitive. It is
// the linear fallback behind the indexed transcript search.
func (st *Store) Search(query string) ([]SearchHit, error) {
	metas, err := st.List()
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(query)

	var hits []SearchHit
	for _, meta := range metas {
		s, err := st.Load(meta.ID)
		if err != nil {
			continue
		}
		for _, m := range s.Messages {
			if strings.Contains(strings.ToLower(m.Content), needle) {
				hits = append(hits, SearchHit{
					SessionID: s.ID,
					Role:      m.Role,
					Excerpt:   util.TruncateRunes(util.FirstLine(m.Content), 60),
				})
			}
		}
	}
	return hits, nil
}

// =============================================================================
// LIST RENDERING
// =============================================================================

// FormatList renders session metadata as an aligned table. Column
// widths use display width so CJK first-lines stay aligned.
func FormatList(metas []Meta) string {
	if len(metas) == 0 {
		return "no saved sessions"
	}

	var b strings.Builder
	header := fmt.Sprintf("%-38s %-17s %5s  %s", "ID", "LAST ACTIVITY", "MSGS", "FIRST MESSAGE")
	b.WriteString(header + "\n")
	b.WriteString(strings.Repeat("-", runewidth.StringWidth(header)) + "\n")
	for _, m := range metas {
		first := runewidth.Truncate(m.FirstUserLine, 40, "...")
		fmt.Fprintf(&b, "%-38s %-17s %5d  %s\n", m.ID, m.LastActivity, m.TotalMessages, first)
	}
	return b.String()
}
