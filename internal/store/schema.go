package store

import (
	"database/sql"
	"fmt"
)

const ddlTemplate = `
PRAGMA journal_mode=WAL;
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS lessons (
    name        TEXT PRIMARY KEY,
    mtime_unix  INTEGER NOT NULL,
    size_bytes  INTEGER NOT NULL,
    ingested_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS chunks (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    lesson      TEXT NOT NULL REFERENCES lessons(name) ON DELETE CASCADE,
    chunk_index INTEGER NOT NULL,
    start_sec   REAL NOT NULL,
    end_sec     REAL NOT NULL,
    start_stamp TEXT NOT NULL,
    end_stamp   TEXT NOT NULL,
    content     TEXT NOT NULL,
    UNIQUE(lesson, chunk_index)
);

CREATE VIRTUAL TABLE IF NOT EXISTS vec_chunks USING vec0(
    chunk_id INTEGER PRIMARY KEY,
    embedding float[%d]
);

CREATE VIRTUAL TABLE IF NOT EXISTS fts_chunks USING fts5(content);

CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// Init creates the schema tables if they don't exist. The vec0 table is
// declared with the configured embedding dimension; changing the
// dimension requires a fresh database file.
func Init(db *sql.DB, dim int) error {
	_, err := db.Exec(fmt.Sprintf(ddlTemplate, dim))
	return err
}
