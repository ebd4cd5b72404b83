package history

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// DB records training runs and their per-epoch accuracy in SQLite.
type DB struct{ sql *sql.DB }

func Open(path string) (*DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		d.SetMaxOpenConns(1)
	}
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		_ = d.Close()
		return nil, err
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS runs (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  started_at INTEGER NOT NULL,
	  export_path TEXT NOT NULL,
	  source TEXT NOT NULL,
	  layers INTEGER NOT NULL,
	  units INTEGER NOT NULL,
	  activation TEXT NOT NULL,
	  lr REAL NOT NULL,
	  outcome TEXT,
	  best_accuracy REAL,
	  epochs INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_runs_path ON runs(export_path);
	CREATE TABLE IF NOT EXISTS epochs (
	  run_id INTEGER NOT NULL REFERENCES runs(id),
	  epoch INTEGER NOT NULL,
	  accuracy REAL NOT NULL,
	  improved INTEGER NOT NULL,
	  PRIMARY KEY (run_id, epoch)
	);
	`)
	return err
}

// Run is one invocation of the trainer.
type Run struct {
	ID           int64
	StartedAt    time.Time
	ExportPath   string
	Source       string
	Layers       int
	Units        int
	Activation   string
	LR           float64
	Outcome      string
	BestAccuracy float64
	Epochs       int
}

// Epoch is one recorded training increment.
type Epoch struct {
	Epoch    int
	Accuracy float64
	Improved bool
}

// BeginRun inserts a run and returns its id. Outcome fields stay NULL until FinishRun.
func (d *DB) BeginRun(ctx context.Context, r Run) (int64, error) {
	res, err := d.sql.ExecContext(ctx, `INSERT INTO runs(started_at, export_path, source, layers, units, activation, lr) VALUES(?,?,?,?,?,?,?)`,
		r.StartedAt.UnixMilli(), r.ExportPath, r.Source, r.Layers, r.Units, r.Activation, r.LR)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (d *DB) PutEpoch(ctx context.Context, runID int64, e Epoch) error {
	_, err := d.sql.ExecContext(ctx, `INSERT INTO epochs(run_id, epoch, accuracy, improved) VALUES(?,?,?,?)`, runID, e.Epoch, e.Accuracy, e.Improved)
	return err
}

func (d *DB) FinishRun(ctx context.Context, runID int64, outcome string, best float64, epochs int) error {
	_, err := d.sql.ExecContext(ctx, `UPDATE runs SET outcome=?, best_accuracy=?, epochs=? WHERE id=?`, outcome, best, epochs, runID)
	return err
}

// LoadEpochs returns the epochs of a run in order.
func (d *DB) LoadEpochs(ctx context.Context, runID int64) ([]Epoch, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT epoch, accuracy, improved FROM epochs WHERE run_id=? ORDER BY epoch`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Epoch
	for rows.Next() {
		var e Epoch
		if err := rows.Scan(&e.Epoch, &e.Accuracy, &e.Improved); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListRuns returns runs against exportPath, oldest first. Unfinished runs
// report an empty outcome.
func (d *DB) ListRuns(ctx context.Context, exportPath string) ([]Run, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT id, started_at, export_path, source, layers, units, activation, lr,
	  COALESCE(outcome, ''), COALESCE(best_accuracy, 0), COALESCE(epochs, 0)
	  FROM runs WHERE export_path=? ORDER BY id`, exportPath)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		var r Run
		var started int64
		if err := rows.Scan(&r.ID, &started, &r.ExportPath, &r.Source, &r.Layers, &r.Units, &r.Activation, &r.LR,
			&r.Outcome, &r.BestAccuracy, &r.Epochs); err != nil {
			return nil, err
		}
		r.StartedAt = time.UnixMilli(started).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}
