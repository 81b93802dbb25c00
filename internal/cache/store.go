// Package cache persists terminal pipelines in a per-project SQLite file so
// completed runs are never fetched twice.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/codewandler/glpipe/internal/logging"
	"github.com/codewandler/glpipe/internal/models"

	_ "modernc.org/sqlite"
)

// ErrNotTerminal is returned by Put for pipelines that may still change.
var ErrNotTerminal = errors.New("pipeline is not in a terminal status")

// Store is a SQLite-backed cache of terminal pipeline details.
// It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
	log  *logging.Logger
}

// Stats describes the cache contents
type Stats struct {
	Path          string
	SizeBytes     int64
	Pipelines     int
	Associations  int
	OldestCreated time.Time
	NewestCreated time.Time
}

// PathFor returns the cache file for a project inside dir,
// e.g. "group/sub/app" -> "<dir>/group__sub__app.db".
func PathFor(dir, project string) string {
	name := strings.Trim(strings.TrimSpace(project), "/")
	name = strings.ReplaceAll(name, "/", "__")
	if name == "" {
		name = "default"
	}
	return filepath.Join(dir, name+".db")
}

// Open opens (creating if needed) the cache file at path.
func Open(path string, log *logging.Logger) (*Store, error) {
	if log == nil {
		log = logging.Nop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping cache: %w", err)
	}

	s := &Store{db: db, path: path, log: log.With("component", "cache")}
	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS pipelines (
			pipeline_id INTEGER PRIMARY KEY,
			created_at TEXT NOT NULL,
			data TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS merge_request_pipelines (
			mr_id INTEGER NOT NULL,
			pipeline_id INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY (mr_id, pipeline_id)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Path returns the file backing the store
func (s *Store) Path() string {
	return s.path
}

// Get returns the cached detail for a pipeline. Unreadable entries count as a miss.
func (s *Store) Get(ctx context.Context, pipelineID int) (*models.PipelineDetail, bool) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM pipelines WHERE pipeline_id = ?`, pipelineID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		s.log.Warn("cache read failed", "pipeline", pipelineID, "err", err)
		return nil, false
	}

	var detail models.PipelineDetail
	if err := json.Unmarshal([]byte(data), &detail); err != nil {
		s.log.Warn("corrupt cache entry", "pipeline", pipelineID, "err", err)
		return nil, false
	}
	if detail.Pipeline.ID != pipelineID || !detail.Pipeline.Status.IsTerminal() {
		s.log.Warn("corrupt cache entry", "pipeline", pipelineID,
			"stored_id", detail.Pipeline.ID, "stored_status", detail.Pipeline.Status)
		return nil, false
	}
	return &detail, true
}

// Put stores a terminal pipeline, replacing any previous entry for the same id.
func (s *Store) Put(ctx context.Context, detail *models.PipelineDetail) error {
	if detail == nil {
		return errors.New("cache: nil pipeline detail")
	}
	if !detail.Pipeline.Status.IsTerminal() {
		return fmt.Errorf("cache pipeline %d (%s): %w", detail.Pipeline.ID, detail.Pipeline.Status, ErrNotTerminal)
	}

	data, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("encode pipeline %d: %w", detail.Pipeline.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pipelines (pipeline_id, created_at, data) VALUES (?, ?, ?)
		ON CONFLICT(pipeline_id) DO UPDATE SET created_at = excluded.created_at, data = excluded.data`,
		detail.Pipeline.ID, formatStoredTime(detail.Pipeline.CreatedAt), string(data))
	if err != nil {
		return fmt.Errorf("store pipeline %d: %w", detail.Pipeline.ID, err)
	}
	return nil
}

// LinkMergeRequest records that a pipeline ran for a merge request.
func (s *Store) LinkMergeRequest(ctx context.Context, mrIID, pipelineID int, createdAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO merge_request_pipelines (mr_id, pipeline_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT(mr_id, pipeline_id) DO UPDATE SET created_at = excluded.created_at`,
		mrIID, pipelineID, formatStoredTime(createdAt))
	if err != nil {
		return fmt.Errorf("link mr %d to pipeline %d: %w", mrIID, pipelineID, err)
	}
	return nil
}

// MergeRequestPipelineIDs returns the pipelines linked to an MR, newest first.
func (s *Store) MergeRequestPipelineIDs(ctx context.Context, mrIID int) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pipeline_id FROM merge_request_pipelines
		WHERE mr_id = ? ORDER BY created_at DESC, pipeline_id DESC`, mrIID)
	if err != nil {
		return nil, fmt.Errorf("list mr %d pipelines: %w", mrIID, err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan mr pipeline: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Stats reports what the cache holds.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Path: s.path}

	var oldest, newest sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(created_at), MAX(created_at) FROM pipelines`).Scan(&st.Pipelines, &oldest, &newest)
	if err != nil {
		return st, fmt.Errorf("count pipelines: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM merge_request_pipelines`).Scan(&st.Associations); err != nil {
		return st, fmt.Errorf("count associations: %w", err)
	}
	if oldest.Valid {
		st.OldestCreated, _ = parseStoredTime(oldest.String)
	}
	if newest.Valid {
		st.NewestCreated, _ = parseStoredTime(newest.String)
	}
	if fi, err := os.Stat(s.path); err == nil {
		st.SizeBytes = fi.Size()
	}
	return st, nil
}

// Prune deletes pipelines (and their MR links) created before the cutoff.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	cutoff := formatStoredTime(before)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin prune: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM pipelines WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune pipelines: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM merge_request_pipelines WHERE created_at < ?`, cutoff); err != nil {
		return 0, fmt.Errorf("prune associations: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prune: %w", err)
	}

	n, _ := res.RowsAffected()
	s.log.Info("pruned cache", "before", cutoff, "pipelines", n)
	return n, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// storedTimeLayout is fixed width so that stored timestamps sort as text.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z"

func formatStoredTime(t time.Time) string {
	return t.UTC().Format(storedTimeLayout)
}

func parseStoredTime(v string) (time.Time, error) {
	s := strings.TrimSpace(v)
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(storedTimeLayout, s)
}
