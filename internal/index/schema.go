// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package index maintains a SQLite full-text index over saved session
// transcripts so /search answers in milliseconds instead of rescanning
// every JSON file.
package index

const (
	// SchemaVersion tracks the database schema for migrations.
	SchemaVersion = 1
)

const schema = `
-- Metadata: schema version and index state
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- Sessions: one row per indexed transcript file
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    last_activity INTEGER NOT NULL, -- Unix timestamp
    message_count INTEGER NOT NULL,
    mod_time INTEGER NOT NULL,      -- transcript file mtime, Unix timestamp
    indexed_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_last_activity ON sessions(last_activity);

-- Full-text search over message content
CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
    content,
    session_id UNINDEXED,
    role UNINDEXED,
    ts UNINDEXED
);
`
