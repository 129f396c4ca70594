// Package store persists lessons, chunks, and embeddings in SQLite,
// using sqlite-vec for nearest-neighbor search and FTS5 for lexical
// search.
package store

import (
	"database/sql"
	"fmt"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

// Gateway is the index/storage capability consumed by ingestion and
// retrieval. The caller opens it once, passes it into every operation,
// and owns teardown.
type Gateway interface {
	// VectorSearch returns the chunks nearest to the embedding, ascending
	// by distance. The KNN primitive cannot pre-filter by lesson; callers
	// needing a lesson filter must over-fetch and post-filter.
	VectorSearch(embedding []float32, limit int) ([]ScoredChunk, error)
	// LexicalSearch returns full-text matches ordered best-first
	// (ascending FTS5 rank), optionally restricted to the given lessons.
	LexicalSearch(query string, limit int, lessons []string) ([]ScoredChunk, error)
	// ChunksAt fetches the chunks existing at the given indexes of a
	// lesson. Missing indexes are simply absent from the result.
	ChunksAt(lesson string, indexes []int) ([]Chunk, error)
	// ListLessons returns all ingested lessons with chunk counts.
	ListLessons() ([]LessonInfo, error)
	// ReplaceLesson atomically deletes the lesson's entire existing chunk
	// set (chunks, vectors, lexical rows, fingerprint) and inserts the
	// new one, recording the fingerprint last.
	ReplaceLesson(lesson string, fp Fingerprint, chunks []Chunk, embeddings [][]float32) error
	// DeleteLesson removes a lesson and everything stored under it.
	DeleteLesson(lesson string) error
	// GetFingerprint returns the stored fingerprint for a lesson; ok is
	// false if the lesson was never (fully) ingested.
	GetFingerprint(lesson string) (fp Fingerprint, ok bool, err error)
	// GetMeta returns a metadata value by key, or "" if not set.
	GetMeta(key string) (string, error)
	// SetMeta sets a metadata key-value pair.
	SetMeta(key, value string) error
	// DeleteAll removes all lessons, chunks, and embeddings.
	DeleteAll() error
	// Close closes the underlying database.
	Close() error
}

// SQLiteStore implements Gateway backed by SQLite + sqlite-vec + FTS5.
type SQLiteStore struct {
	db  *sql.DB
	dim int
}

// Open creates or opens a SQLite database at the given path and
// initializes the schema with the given embedding dimension.
func Open(dbPath string, dim int) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := Init(db, dim); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{db: db, dim: dim}, nil
}

const chunkColumns = "c.id, c.lesson, c.chunk_index, c.start_sec, c.end_sec, c.start_stamp, c.end_stamp, c.content"

func scanChunk(scan func(dest ...any) error, c *Chunk) error {
	return scan(&c.ID, &c.Lesson, &c.Index, &c.Start, &c.End, &c.StartStamp, &c.EndStamp, &c.Text)
}

func (s *SQLiteStore) VectorSearch(embedding []float32, limit int) ([]ScoredChunk, error) {
	if len(embedding) != s.dim {
		return nil, fmt.Errorf("embedding has %d dimensions, index expects %d", len(embedding), s.dim)
	}
	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return nil, fmt.Errorf("serialize query embedding: %w", err)
	}
	rows, err := s.db.Query(`
		SELECT `+chunkColumns+`, v.distance
		FROM vec_chunks v
		JOIN chunks c ON c.id = v.chunk_id
		WHERE v.embedding MATCH ?
		ORDER BY v.distance
		LIMIT ?
	`, blob, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ScoredChunk
	for rows.Next() {
		var r ScoredChunk
		if err := rows.Scan(&r.Chunk.ID, &r.Chunk.Lesson, &r.Chunk.Index,
			&r.Chunk.Start, &r.Chunk.End, &r.Chunk.StartStamp, &r.Chunk.EndStamp,
			&r.Chunk.Text, &r.Score); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *SQLiteStore) LexicalSearch(query string, limit int, lessons []string) ([]ScoredChunk, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	args := []any{match}
	sqlText := `
		SELECT ` + chunkColumns + `, f.rank
		FROM fts_chunks f
		JOIN chunks c ON c.id = f.rowid
		WHERE fts_chunks MATCH ?`
	if len(lessons) > 0 {
		sqlText += " AND c.lesson IN (" + placeholders(len(lessons)) + ")"
		for _, l := range lessons {
			args = append(args, l)
		}
	}
	sqlText += " ORDER BY f.rank LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ScoredChunk
	for rows.Next() {
		var r ScoredChunk
		if err := rows.Scan(&r.Chunk.ID, &r.Chunk.Lesson, &r.Chunk.Index,
			&r.Chunk.Start, &r.Chunk.End, &r.Chunk.StartStamp, &r.Chunk.EndStamp,
			&r.Chunk.Text, &r.Score); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *SQLiteStore) ChunksAt(lesson string, indexes []int) ([]Chunk, error) {
	if len(indexes) == 0 {
		return nil, nil
	}
	args := []any{lesson}
	for _, idx := range indexes {
		args = append(args, idx)
	}
	rows, err := s.db.Query(`
		SELECT `+chunkColumns+`
		FROM chunks c
		WHERE c.lesson = ? AND c.chunk_index IN (`+placeholders(len(indexes))+`)
		ORDER BY c.chunk_index
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		if err := scanChunk(rows.Scan, &c); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (s *SQLiteStore) ListLessons() ([]LessonInfo, error) {
	rows, err := s.db.Query(`
		SELECT l.name, COUNT(c.id), l.ingested_at
		FROM lessons l
		LEFT JOIN chunks c ON c.lesson = l.name
		GROUP BY l.name
		ORDER BY l.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lessons []LessonInfo
	for rows.Next() {
		var li LessonInfo
		if err := rows.Scan(&li.Name, &li.Chunks, &li.IngestedAt); err != nil {
			return nil, err
		}
		lessons = append(lessons, li)
	}
	return lessons, rows.Err()
}

func (s *SQLiteStore) ReplaceLesson(lesson string, fp Fingerprint, chunks []Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("mismatched chunks (%d) and embeddings (%d)", len(chunks), len(embeddings))
	}
	// Dimension mismatches are fatal for this lesson and must be caught
	// before anything is written.
	for i, emb := range embeddings {
		if len(emb) != s.dim {
			return fmt.Errorf("chunk %d embedding has %d dimensions, index expects %d", i, len(emb), s.dim)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteLessonTx(tx, lesson); err != nil {
		return err
	}

	if _, err := tx.Exec(
		"INSERT INTO lessons (name, mtime_unix, size_bytes) VALUES (?, ?, ?)",
		lesson, fp.MTimeUnix, fp.SizeBytes,
	); err != nil {
		return err
	}

	chunkStmt, err := tx.Prepare(`
		INSERT INTO chunks (lesson, chunk_index, start_sec, end_sec, start_stamp, end_stamp, content)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer chunkStmt.Close()

	ftsStmt, err := tx.Prepare("INSERT INTO fts_chunks (rowid, content) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer ftsStmt.Close()

	vecStmt, err := tx.Prepare("INSERT INTO vec_chunks (chunk_id, embedding) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer vecStmt.Close()

	for i, c := range chunks {
		res, err := chunkStmt.Exec(lesson, c.Index, c.Start, c.End, c.StartStamp, c.EndStamp, c.Text)
		if err != nil {
			return fmt.Errorf("insert chunk %d: %w", c.Index, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		if _, err := ftsStmt.Exec(id, c.Text); err != nil {
			return fmt.Errorf("insert lexical row for chunk %d: %w", c.Index, err)
		}
		blob, err := sqlite_vec.SerializeFloat32(embeddings[i])
		if err != nil {
			return fmt.Errorf("serialize embedding for chunk %d: %w", c.Index, err)
		}
		if _, err := vecStmt.Exec(id, blob); err != nil {
			return fmt.Errorf("insert embedding for chunk %d: %w", c.Index, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) DeleteLesson(lesson string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteLessonTx(tx, lesson); err != nil {
		return err
	}
	return tx.Commit()
}

// deleteLessonTx removes a lesson's chunks, vectors, lexical rows, and
// fingerprint inside an open transaction.
func deleteLessonTx(tx *sql.Tx, lesson string) error {
	rows, err := tx.Query("SELECT id FROM chunks WHERE lesson = ?", lesson)
	if err != nil {
		return err
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range ids {
		if _, err := tx.Exec("DELETE FROM vec_chunks WHERE chunk_id = ?", id); err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM fts_chunks WHERE rowid = ?", id); err != nil {
			return err
		}
	}
	if _, err := tx.Exec("DELETE FROM chunks WHERE lesson = ?", lesson); err != nil {
		return err
	}
	_, err = tx.Exec("DELETE FROM lessons WHERE name = ?", lesson)
	return err
}

func (s *SQLiteStore) GetFingerprint(lesson string) (Fingerprint, bool, error) {
	var fp Fingerprint
	err := s.db.QueryRow(
		"SELECT mtime_unix, size_bytes FROM lessons WHERE name = ?", lesson,
	).Scan(&fp.MTimeUnix, &fp.SizeBytes)
	if err == sql.ErrNoRows {
		return Fingerprint{}, false, nil
	}
	if err != nil {
		return Fingerprint{}, false, err
	}
	return fp, true, nil
}

func (s *SQLiteStore) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (s *SQLiteStore) SetMeta(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

func (s *SQLiteStore) DeleteAll() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"vec_chunks", "fts_chunks", "chunks", "lessons"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// placeholders returns "?, ?, ..." with n slots.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// ftsQuery builds a lenient FTS5 match expression: each token is quoted
// so punctuation in the question can't break the query syntax, and the
// tokens are OR-ed so any of them can match.
func ftsQuery(query string) string {
	fields := strings.FieldsFunc(query, func(r rune) bool {
		return !(r == '\'' || r >= '0' && r <= '9' || r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r > 127)
	})
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		quoted = append(quoted, `"`+f+`"`)
	}
	return strings.Join(quoted, " OR ")
}
