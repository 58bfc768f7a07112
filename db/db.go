package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	split TEXT NOT NULL,
	artifact TEXT NOT NULL,
	rows INTEGER NOT NULL,
	length INTEGER NOT NULL,
	group_size INTEGER NOT NULL,
	created INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS files (
	run_id TEXT NOT NULL,
	path TEXT NOT NULL,
	status TEXT NOT NULL,
	words INTEGER NOT NULL,
	chunks INTEGER NOT NULL,
	dropped INTEGER NOT NULL,
	error TEXT NOT NULL,
	PRIMARY KEY (run_id, path)
);
CREATE INDEX IF NOT EXISTS idx_files_status ON files(run_id, status);
`

const (
	StatusOK     = "ok"
	StatusEmpty  = "empty"
	StatusFailed = "failed"
)

type Run struct {
	ID        string
	Split     string
	Artifact  string
	Rows      int
	Length    int
	GroupSize int
	Created   time.Time
}

type FileRecord struct {
	Path    string
	Status  string
	Words   int
	Chunks  int
	Dropped int
	Error   string
}

type Catalog struct {
	db *sql.DB
}

func Open(path string) (*Catalog, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "creating catalog directory %s", dir)
		}
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening catalog")
	}
	// sqlite allows a single writer
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "creating catalog tables")
	}
	return &Catalog{db: conn}, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

// RecordRun stores a finished run and the outcome of each of its files in
// one transaction.
func (c *Catalog) RecordRun(ctx context.Context, run Run, files []FileRecord) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (id, split, artifact, rows, length, group_size, created)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Split, run.Artifact, run.Rows, run.Length, run.GroupSize, run.Created.Unix())
	if err != nil {
		return errors.Wrapf(err, "recording run %s", run.ID)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO files (run_id, path, status, words, chunks, dropped, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "preparing file insert")
	}
	defer stmt.Close()
	for _, f := range files {
		if _, err := stmt.ExecContext(ctx, run.ID, f.Path, f.Status, f.Words, f.Chunks, f.Dropped, f.Error); err != nil {
			return errors.Wrapf(err, "recording file %s", f.Path)
		}
	}
	return errors.Wrap(tx.Commit(), "committing run")
}

// Runs lists runs newest first.
func (c *Catalog) Runs(ctx context.Context) ([]Run, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, split, artifact, rows, length, group_size, created
		FROM runs ORDER BY created DESC, id`)
	if err != nil {
		return nil, errors.Wrap(err, "listing runs")
	}
	defer rows.Close()

	var res []Run
	for rows.Next() {
		var r Run
		var created int64
		if err := rows.Scan(&r.ID, &r.Split, &r.Artifact, &r.Rows, &r.Length, &r.GroupSize, &created); err != nil {
			return nil, errors.Wrap(err, "scanning run")
		}
		r.Created = time.Unix(created, 0)
		res = append(res, r)
	}
	return res, errors.Wrap(rows.Err(), "listing runs")
}

// StatusCounts is the number of files per status in a run.
func (c *Catalog) StatusCounts(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM files WHERE run_id = ? GROUP BY status`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "counting files")
	}
	defer rows.Close()

	res := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, errors.Wrap(err, "scanning count")
		}
		res[status] = n
	}
	return res, errors.Wrap(rows.Err(), "counting files")
}

func (c *Catalog) Files(ctx context.Context, runID string) ([]FileRecord, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT path, status, words, chunks, dropped, error
		FROM files WHERE run_id = ? ORDER BY path`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "listing files")
	}
	defer rows.Close()

	var res []FileRecord
	for rows.Next() {
		var f FileRecord
		if err := rows.Scan(&f.Path, &f.Status, &f.Words, &f.Chunks, &f.Dropped, &f.Error); err != nil {
			return nil, errors.Wrap(err, "scanning file")
		}
		res = append(res, f)
	}
	return res, errors.Wrap(rows.Err(), "listing files")
}
