package journal

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/zeusync/grove/internal/core/observability/log"
	"github.com/zeusync/grove/internal/core/snapshot"
)

// MemoryPath opens a journal that lives only as long as the process.
const MemoryPath = ":memory:"

// Run is one simulation run: the seed and document it started from.
type Run struct {
	ID          string
	Seed        uint64
	Document    string
	StartDigest string
	StartedAt   time.Time
}

// Entry describes one recorded snapshot.
type Entry struct {
	RunID    string
	Tick     uint64
	Time     float64
	Digest   string
	Entities int
}

// Journal stores snapshots of simulation runs in SQLite.
type Journal struct {
	db     *sql.DB
	logger log.Log
	closed atomic.Bool
}

func Open(path string, logger log.Log) (*Journal, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	if logger == nil {
		logger = log.Nop()
	}
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection also keeps an in-memory database alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("journal opened", log.String("path", path))
	return &Journal{db: db, logger: logger}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			document TEXT NOT NULL,
			start_digest TEXT NOT NULL,
			started_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			tick INTEGER NOT NULL,
			sim_time REAL NOT NULL,
			digest TEXT NOT NULL,
			entities INTEGER NOT NULL,
			body BLOB NOT NULL,
			PRIMARY KEY (run_id, tick)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (j *Journal) Close() error {
	if j.closed.Swap(true) {
		return nil
	}
	return j.db.Close()
}

// BeginRun registers a new run and records start as its tick 0.
func (j *Journal) BeginRun(ctx context.Context, seed uint64, document string, start snapshot.Snapshot) (Run, error) {
	if j.closed.Load() {
		return Run{}, ErrJournalClosed
	}
	run := Run{
		ID:          uuid.NewString(),
		Seed:        seed,
		Document:    document,
		StartDigest: start.DigestHex(),
		StartedAt:   time.Now().UTC(),
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, seed, document, start_digest, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, int64(run.Seed), run.Document, run.StartDigest, run.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	if err := j.Record(ctx, run.ID, 0, start); err != nil {
		return Run{}, err
	}

	j.logger.Info("run started",
		log.String("run_id", run.ID),
		log.Uint64("seed", seed),
		log.String("digest", run.StartDigest),
	)
	return run, nil
}

// Record stores s under (runID, tick), replacing an earlier record of the
// same tick.
func (j *Journal) Record(ctx context.Context, runID string, tick uint64, s snapshot.Snapshot) error {
	if j.closed.Load() {
		return ErrJournalClosed
	}
	if _, err := j.Run(ctx, runID); err != nil {
		return err
	}

	var body bytes.Buffer
	if err := snapshot.Write(&body, s); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO snapshots (run_id, tick, sim_time, digest, entities, body) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, int64(tick), s.Time, s.DigestHex(), len(s.Entities), body.Bytes(),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	j.logger.Debug("snapshot recorded",
		log.String("run_id", runID),
		log.Uint64("tick", tick),
		log.Float64("time", s.Time),
	)
	return nil
}

func (j *Journal) Run(ctx context.Context, id string) (Run, error) {
	row := j.db.QueryRowContext(ctx,
		`SELECT id, seed, document, start_digest, started_at FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// Runs lists every run, oldest first.
func (j *Journal) Runs(ctx context.Context) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, seed, document, start_digest, started_at FROM runs ORDER BY started_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// Entries lists the snapshots recorded for runID in tick order.
func (j *Journal) Entries(ctx context.Context, runID string) ([]Entry, error) {
	if _, err := j.Run(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT tick, sim_time, digest, entities FROM snapshots WHERE run_id = ? ORDER BY tick`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e := Entry{RunID: runID}
		var tick int64
		if err := rows.Scan(&tick, &e.Time, &e.Digest, &e.Entities); err != nil {
			return nil, err
		}
		e.Tick = uint64(tick)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Latest returns the most recent snapshot of runID.
func (j *Journal) Latest(ctx context.Context, runID string) (Entry, snapshot.Snapshot, error) {
	if _, err := j.Run(ctx, runID); err != nil {
		return Entry{}, snapshot.Snapshot{}, err
	}
	row := j.db.QueryRowContext(ctx,
		`SELECT tick, sim_time, digest, entities, body FROM snapshots WHERE run_id = ? ORDER BY tick DESC LIMIT 1`, runID)

	e := Entry{RunID: runID}
	var (
		tick int64
		body []byte
	)
	if err := row.Scan(&tick, &e.Time, &e.Digest, &e.Entities, &body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, snapshot.Snapshot{}, fmt.Errorf("%w: %s", ErrNoSnapshots, runID)
		}
		return Entry{}, snapshot.Snapshot{}, err
	}
	e.Tick = uint64(tick)

	s, err := snapshot.Read(bytes.NewReader(body))
	if err != nil {
		return Entry{}, snapshot.Snapshot{}, fmt.Errorf("decode snapshot %s/%d: %w", runID, e.Tick, err)
	}
	return e, s, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run     Run
		seed    int64
		started string
	)
	if err := row.Scan(&run.ID, &seed, &run.Document, &run.StartDigest, &started); err != nil {
		return Run{}, err
	}
	run.Seed = uint64(seed)
	t, err := time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return Run{}, fmt.Errorf("parse started_at: %w", err)
	}
	run.StartedAt = t
	return run, nil
}
