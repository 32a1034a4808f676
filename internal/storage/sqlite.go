// Package storage keeps detected prototypes, detection runs and their
// failures in a SQLite database under the cache directory.
package storage

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/saeedalam/protodetect/pkg/types"
)

// Cache is the prototype cache
type Cache struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// Open opens (creating if needed) the cache database at
// <cacheDir>/cache/prototypes.db.
func Open(cacheDir string, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	dbPath := filepath.Join(cacheDir, "cache", "prototypes.db")

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=10000", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	// A single connection serializes writers from the worker pool.
	db.SetMaxOpenConns(1)

	c := &Cache{db: db, path: dbPath, log: logger}
	if err := c.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache tables: %w", err)
	}

	logger.Debug("cache opened", "path", dbPath)
	return c, nil
}

func (c *Cache) createTables() error {
	schema := `
	-- Detected prototypes, keyed by profile + offset + span text
	CREATE TABLE IF NOT EXISTS prototypes (
		key TEXT PRIMARY KEY,
		language TEXT NOT NULL,
		name TEXT,
		signature TEXT,
		prototype TEXT NOT NULL,
		created_at INTEGER
	);

	CREATE VIRTUAL TABLE IF NOT EXISTS prototypes_fts USING fts5(
		name,
		signature,
		content='prototypes',
		content_rowid='rowid'
	);

	CREATE TRIGGER IF NOT EXISTS prototypes_ai AFTER INSERT ON prototypes BEGIN
		INSERT INTO prototypes_fts(rowid, name, signature)
		VALUES (new.rowid, new.name, new.signature);
	END;

	CREATE TRIGGER IF NOT EXISTS prototypes_ad AFTER DELETE ON prototypes BEGIN
		INSERT INTO prototypes_fts(prototypes_fts, rowid, name, signature)
		VALUES('delete', old.rowid, old.name, old.signature);
	END;

	CREATE TRIGGER IF NOT EXISTS prototypes_au AFTER UPDATE ON prototypes BEGIN
		INSERT INTO prototypes_fts(prototypes_fts, rowid, name, signature)
		VALUES('delete', old.rowid, old.name, old.signature);
		INSERT INTO prototypes_fts(rowid, name, signature)
		VALUES (new.rowid, new.name, new.signature);
	END;

	-- Batch detection runs
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER,
		finished_at INTEGER,
		jobs INTEGER DEFAULT 0,
		detected INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		cache_hits INTEGER DEFAULT 0
	);

	-- Per-input failures of a run
	CREATE TABLE IF NOT EXISTS failures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		source TEXT,
		kind TEXT,
		start_offset INTEGER,
		end_offset INTEGER,
		message TEXT,
		created_at INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_failures_run ON failures(run_id);
	`

	_, err := c.db.Exec(schema)
	return err
}

// Path returns the database file location
func (c *Cache) Path() string {
	return c.path
}

// Close closes the database connection
func (c *Cache) Close() error {
	return c.db.Close()
}

type queryer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Prepare(query string) (*sql.Stmt, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// WithTransaction runs a function within a SQLite transaction
func (c *Cache) WithTransaction(fn func(tx *sql.Tx) error) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// --- Prototypes ---

// keyVersion is mixed into every key. Bump it when detection output changes
// so entries written by older builds are never served.
const keyVersion = "protodetect/2"

// Key derives the cache key of one detection input from the profile
// fingerprint, the span offset and the span text.
func Key(fingerprint string, offset int, text string) string {
	h := sha256.New()
	h.Write([]byte(keyVersion))
	h.Write([]byte{0})
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(offset)))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached prototype for key. The boolean is false on a miss.
func (c *Cache) Get(key string) (*types.Prototype, bool, error) {
	var raw string
	err := c.db.QueryRow("SELECT prototype FROM prototypes WHERE key = ?", key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var p types.Prototype
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, false, fmt.Errorf("decode cached prototype %s: %w", key, err)
	}
	return &p, true, nil
}

// Put stores a detected prototype under key, replacing any previous entry
func (c *Cache) Put(key string, p *types.Prototype) error {
	return c.put(c.db, key, p)
}

// PutTx stores a prototype within a transaction
func (c *Cache) PutTx(tx *sql.Tx, key string, p *types.Prototype) error {
	return c.put(tx, key, p)
}

func (c *Cache) put(q queryer, key string, p *types.Prototype) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}

	// An upsert keeps the FTS update trigger firing; REPLACE would delete
	// the row without running prototypes_ad.
	_, err = q.Exec(`
		INSERT INTO prototypes (key, language, name, signature, prototype, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			language = excluded.language,
			name = excluded.name,
			signature = excluded.signature,
			prototype = excluded.prototype,
			created_at = excluded.created_at
	`, key, p.Language, p.Name, p.Signature, string(data), nowUnix())
	return err
}

// Entry is one search hit
type Entry struct {
	Key       string    `json:"key"`
	Language  string    `json:"language"`
	Name      string    `json:"name"`
	Signature string    `json:"signature"`
	CreatedAt time.Time `json:"created_at"`
}

// Search finds cached prototypes whose name or signature matches every
// word of query. Each word also matches as a prefix.
func (c *Cache) Search(query string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := c.db.Query(`
		SELECT key, language, name, signature, created_at
		FROM prototypes
		WHERE prototypes.rowid IN (
			SELECT rowid FROM prototypes_fts WHERE prototypes_fts MATCH ?
		)
		ORDER BY created_at DESC, name
		LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt int64
		if err := rows.Scan(&e.Key, &e.Language, &e.Name, &e.Signature, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ftsQuery quotes every word so punctuation such as "::" or "." in the
// query is not read as FTS5 syntax.
func ftsQuery(query string) string {
	var terms []string
	for _, w := range strings.Fields(query) {
		terms = append(terms, `"`+strings.ReplaceAll(w, `"`, `""`)+`"*`)
	}
	return strings.Join(terms, " ")
}

// --- Runs ---

// Run is the bookkeeping record of one batch detection
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Jobs       int       `json:"jobs"`
	Detected   int       `json:"detected"`
	Failed     int       `json:"failed"`
	CacheHits  int       `json:"cache_hits"`
}

// StartRun records the start of a batch run and returns it with a fresh ID
func (c *Cache) StartRun() (*Run, error) {
	run := &Run{
		ID:        uuid.New().String(),
		StartedAt: time.Unix(nowUnix(), 0),
	}
	_, err := c.db.Exec("INSERT INTO runs (id, started_at) VALUES (?, ?)", run.ID, run.StartedAt.Unix())
	if err != nil {
		return nil, err
	}
	c.log.Debug("run started", "run", run.ID)
	return run, nil
}

// FinishRun stores the final counters of run
func (c *Cache) FinishRun(run *Run) error {
	run.FinishedAt = time.Unix(nowUnix(), 0)
	res, err := c.db.Exec(`
		UPDATE runs SET finished_at = ?, jobs = ?, detected = ?, failed = ?, cache_hits = ?
		WHERE id = ?
	`, run.FinishedAt.Unix(), run.Jobs, run.Detected, run.Failed, run.CacheHits, run.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", run.ID)
	}
	c.log.Debug("run finished", "run", run.ID, "jobs", run.Jobs, "failed", run.Failed)
	return nil
}

// Runs returns the most recent runs first
func (c *Cache) Runs(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := c.db.Query(`
		SELECT id, started_at, COALESCE(finished_at, 0), jobs, detected, failed, cache_hits
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished int64
		if err := rows.Scan(&r.ID, &started, &finished, &r.Jobs, &r.Detected, &r.Failed, &r.CacheHits); err != nil {
			return nil, err
		}
		r.StartedAt = time.Unix(started, 0)
		if finished > 0 {
			r.FinishedAt = time.Unix(finished, 0)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// --- Failures ---

// Failure is one input of a run that could not be detected
type Failure struct {
	RunID   string `json:"run_id"`
	Source  string `json:"source"`
	Kind    string `json:"kind"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Message string `json:"message"`
}

// RecordFailure logs one failed input
func (c *Cache) RecordFailure(f Failure) error {
	return c.recordFailure(c.db, f)
}

// RecordFailures logs the failures of a run in one transaction
func (c *Cache) RecordFailures(failures []Failure) error {
	if len(failures) == 0 {
		return nil
	}
	return c.WithTransaction(func(tx *sql.Tx) error {
		for _, f := range failures {
			if err := c.recordFailure(tx, f); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *Cache) recordFailure(q queryer, f Failure) error {
	_, err := q.Exec(`
		INSERT INTO failures (run_id, source, kind, start_offset, end_offset, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, f.RunID, f.Source, f.Kind, f.Start, f.End, f.Message, nowUnix())
	return err
}

// Failures returns the failures recorded for a run in insertion order
func (c *Cache) Failures(runID string) ([]Failure, error) {
	rows, err := c.db.Query(`
		SELECT run_id, source, kind, start_offset, end_offset, message
		FROM failures
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Failure
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.RunID, &f.Source, &f.Kind, &f.Start, &f.End, &f.Message); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// --- Stats ---

// Stats returns row counts per table
func (c *Cache) Stats() (map[string]int, error) {
	stats := make(map[string]int)

	for _, table := range []string{"prototypes", "runs", "failures"} {
		var count int
		if err := c.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			return nil, err
		}
		stats[table] = count
	}

	return stats, nil
}

// Clear removes every cached prototype, run and failure
func (c *Cache) Clear() error {
	return c.WithTransaction(func(tx *sql.Tx) error {
		for _, table := range []string{"failures", "runs", "prototypes"} {
			if _, err := tx.Exec("DELETE FROM " + table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

func nowUnix() int64 {
	return time.Now().Unix()
}
