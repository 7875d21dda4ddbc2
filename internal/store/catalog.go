// Package store keeps the results catalog of an output directory: one
// SQLite row per realization and one per measured batch.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nvandessel/arcprune/internal/artifact"
	"github.com/nvandessel/arcprune/internal/experiment"
	"github.com/nvandessel/arcprune/internal/report"
)

// DBFile is the catalog file name inside an output directory.
const DBFile = "results.db"

// Realization statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// ErrNotFound is returned when a realization is not in the catalog.
var ErrNotFound = errors.New("realization not found")

// RealizationRecord is one row of the realizations table.
type RealizationRecord struct {
	Seed               int64     `json:"seed"`
	Topology           string    `json:"topology"`
	RequestedVertices  int       `json:"requested_vertices"`
	Vertices           int       `json:"vertices"`
	Edges              int       `json:"edges"`
	GenerationAttempts int       `json:"generation_attempts"`
	Status             string    `json:"status"`
	Phase              string    `json:"phase,omitempty"`
	Error              string    `json:"error,omitempty"`
	ArtifactDir        string    `json:"artifact_dir,omitempty"`
	StartedAt          time.Time `json:"started_at"`
	FinishedAt         time.Time `json:"finished_at"`
}

// BatchRecord is one row of the batches table.
type BatchRecord struct {
	Seed           int64   `json:"seed"`
	Batch          int     `json:"batch"`
	Edges          int     `json:"edges"`
	LastFires      int64   `json:"lfires"`
	LastInfections int64   `json:"linfec"`
	Attempts       int64   `json:"nattempts"`
	CorrVisits     float64 `json:"corrvisits"`
	CorrFires      float64 `json:"corrfires"`
	CorrInfections float64 `json:"corrinfec"`
}

// Summary counts the realizations of a catalog by status.
type Summary struct {
	Realizations int `json:"realizations"`
	OK           int `json:"ok"`
	Failed       int `json:"failed"`
	Batches      int `json:"batches"`
}

// Catalog is the SQLite results catalog of one output directory. It is
// safe for concurrent use and satisfies experiment.Sink.
type Catalog struct {
	mu     sync.Mutex
	db     *sql.DB
	outdir string
	topo   string
	n      int
}

// Open opens or creates outdir/results.db.
func Open(outdir string) (*Catalog, error) {
	if err := os.MkdirAll(outdir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	dbPath := filepath.Join(outdir, DBFile)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Catalog{db: db, outdir: outdir}, nil
}

// OpenExisting opens the catalog of outdir and fails if it does not
// exist yet.
func OpenExisting(outdir string) (*Catalog, error) {
	if _, err := os.Stat(filepath.Join(outdir, DBFile)); err != nil {
		return nil, fmt.Errorf("no results catalog in %s: %w", outdir, err)
	}
	return Open(outdir)
}

// Label sets the topology and requested size recorded for realizations
// that fail before producing any statistics.
func (c *Catalog) Label(topology string, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topo, c.n = topology, n
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Record replaces the rows of o.Seed with the outcome o.
func (c *Catalog) Record(ctx context.Context, o experiment.Outcome) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec := RealizationRecord{
		Seed:              o.Seed,
		Topology:          c.topo,
		RequestedVertices: c.n,
		Status:            StatusOK,
		StartedAt:         o.Started,
		FinishedAt:        o.Finished,
	}
	if r := o.Realization; r != nil {
		rec.Topology = r.Topology
		rec.RequestedVertices = r.RequestedVertices
		rec.Vertices = r.NumVertices
		rec.Edges = r.NumEdges
		rec.GenerationAttempts = r.GenerationAttempts
		rec.ArtifactDir = artifact.Dir(c.outdir, o.Seed)
	}
	if o.Err != nil {
		rec.Status = StatusFailed
		rec.Error = o.Err.Error()
		var se *experiment.StepError
		if errors.As(o.Err, &se) {
			rec.Phase = se.Phase.String()
		}
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM batches WHERE seed = ?`, o.Seed); err != nil {
		return fmt.Errorf("failed to clear batches: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM realizations WHERE seed = ?`, o.Seed); err != nil {
		return fmt.Errorf("failed to clear realization: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO realizations (seed, topology, requested_vertices, vertices, edges,
			generation_attempts, status, phase, error, artifact_dir, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Seed, rec.Topology, rec.RequestedVertices, rec.Vertices, rec.Edges,
		rec.GenerationAttempts, rec.Status, nullString(rec.Phase), nullString(rec.Error),
		nullString(rec.ArtifactDir), formatTime(rec.StartedAt), formatTime(rec.FinishedAt),
	); err != nil {
		return fmt.Errorf("failed to insert realization: %w", err)
	}

	if r := o.Realization; r != nil {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO batches (seed, batch, edges, lfires, linfec, nattempts,
				corr_visits, corr_fires, corr_infec)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare batch insert: %w", err)
		}
		defer stmt.Close()

		corrs := report.Correlate(r)
		for i, b := range r.Batches {
			if _, err := stmt.ExecContext(ctx, o.Seed, b.Batch, b.NumEdges, b.LastFires,
				b.LastInfections, b.Attempts, corrs[i].Visits, corrs[i].Fires, corrs[i].Infections); err != nil {
				return fmt.Errorf("failed to insert batch %d: %w", b.Batch, err)
			}
		}
	}

	return tx.Commit()
}

// Realizations lists every realization ordered by seed.
func (c *Catalog) Realizations(ctx context.Context) ([]RealizationRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.db.QueryContext(ctx, `
		SELECT seed, topology, requested_vertices, vertices, edges, generation_attempts,
			status, phase, error, artifact_dir, started_at, finished_at
		FROM realizations ORDER BY seed`)
	if err != nil {
		return nil, fmt.Errorf("failed to query realizations: %w", err)
	}
	defer rows.Close()

	var out []RealizationRecord
	for rows.Next() {
		rec, err := scanRealization(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Realization returns the record of seed.
func (c *Catalog) Realization(ctx context.Context, seed int64) (RealizationRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	row := c.db.QueryRowContext(ctx, `
		SELECT seed, topology, requested_vertices, vertices, edges, generation_attempts,
			status, phase, error, artifact_dir, started_at, finished_at
		FROM realizations WHERE seed = ?`, seed)
	rec, err := scanRealization(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RealizationRecord{}, fmt.Errorf("seed %d: %w", seed, ErrNotFound)
	}
	return rec, err
}

// Batches lists the batches of seed in batch order.
func (c *Catalog) Batches(ctx context.Context, seed int64) ([]BatchRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.db.QueryContext(ctx, `
		SELECT seed, batch, edges, lfires, linfec, nattempts, corr_visits, corr_fires, corr_infec
		FROM batches WHERE seed = ? ORDER BY batch`, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	var out []BatchRecord
	for rows.Next() {
		var b BatchRecord
		if err := rows.Scan(&b.Seed, &b.Batch, &b.Edges, &b.LastFires, &b.LastInfections,
			&b.Attempts, &b.CorrVisits, &b.CorrFires, &b.CorrInfections); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Summary counts realizations and batches.
func (c *Catalog) Summary(ctx context.Context) (Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var s Summary
	err := c.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'ok' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0)
		FROM realizations`).Scan(&s.Realizations, &s.OK, &s.Failed)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to count realizations: %w", err)
	}
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM batches`).Scan(&s.Batches); err != nil {
		return Summary{}, fmt.Errorf("failed to count batches: %w", err)
	}
	return s, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRealization(s scanner) (RealizationRecord, error) {
	var (
		rec                   RealizationRecord
		phase, msg, dir       sql.NullString
		startedAt, finishedAt string
	)
	err := s.Scan(&rec.Seed, &rec.Topology, &rec.RequestedVertices, &rec.Vertices, &rec.Edges,
		&rec.GenerationAttempts, &rec.Status, &phase, &msg, &dir, &startedAt, &finishedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RealizationRecord{}, err
		}
		return RealizationRecord{}, fmt.Errorf("failed to scan realization: %w", err)
	}
	rec.Phase, rec.Error, rec.ArtifactDir = phase.String, msg.String, dir.String
	rec.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
	rec.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedAt)
	return rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
