// Package store keeps a ledger of experiment runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/theapemachine/bitflip"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	started_ns  INTEGER NOT NULL,
	duration_ns INTEGER NOT NULL,
	scenarios   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS reports (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	position    INTEGER NOT NULL,
	scenario    TEXT NOT NULL,
	syndrome    TEXT NOT NULL,
	verdict     TEXT NOT NULL,
	accurate    INTEGER NOT NULL,
	counts_json TEXT NOT NULL,
	duration_ns INTEGER NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE INDEX IF NOT EXISTS idx_reports_run ON reports(run_id, position);
`

// Store persists experiments.
type Store struct {
	db *sql.DB
}

// RunRecord summarizes one stored experiment.
type RunRecord struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Scenarios int
	Accurate  int
}

// Open opens (or creates) the ledger at path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveExperiment writes the run and all of its reports in one transaction.
func (s *Store) SaveExperiment(ctx context.Context, exp bitflip.Experiment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_ns, duration_ns, scenarios) VALUES (?, ?, ?, ?)`,
		exp.ID, exp.StartedAt.UnixNano(), int64(exp.Duration), len(exp.Reports),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, r := range exp.Reports {
		countsJSON, err := json.Marshal(r.Counts)
		if err != nil {
			return fmt.Errorf("marshal counts: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO reports (run_id, position, scenario, syndrome, verdict, accurate, counts_json, duration_ns)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			exp.ID, i, r.Scenario.String(), r.Syndrome.String(), r.Assessment.Verdict.String(),
			r.Assessment.Accurate(), string(countsJSON), int64(r.Duration),
		)
		if err != nil {
			return fmt.Errorf("insert report %s: %w", r.Scenario, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Runs lists the most recent experiments first.
func (s *Store) Runs(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.run_id, r.started_ns, r.duration_ns, r.scenarios,
		       COALESCE(SUM(p.accurate), 0)
		FROM runs r
		LEFT JOIN reports p ON p.run_id = r.run_id
		GROUP BY r.run_id
		ORDER BY r.started_ns DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			rec       RunRecord
			startedNs int64
			duration  int64
		)
		if err := rows.Scan(&rec.RunID, &startedNs, &duration, &rec.Scenarios, &rec.Accurate); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.StartedAt = time.Unix(0, startedNs).UTC()
		rec.Duration = time.Duration(duration)
		out = append(out, rec)
	}
	return out, rows.Err()
}

/*
Experiment reloads a stored run. Tallies, diagnoses and assessments are
recomputed from the stored histograms rather than trusted from the row.
*/
func (s *Store) Experiment(ctx context.Context, runID string) (bitflip.Experiment, error) {
	exp := bitflip.Experiment{ID: runID}

	var startedNs int64
	var duration int64
	err := s.db.QueryRowContext(ctx,
		`SELECT started_ns, duration_ns FROM runs WHERE run_id = ?`, runID,
	).Scan(&startedNs, &duration)
	if err != nil {
		return exp, fmt.Errorf("load run %s: %w", runID, err)
	}
	exp.StartedAt = time.Unix(0, startedNs).UTC()
	exp.Duration = time.Duration(duration)

	rows, err := s.db.QueryContext(ctx,
		`SELECT scenario, counts_json, duration_ns FROM reports WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return exp, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, countsJSON string
		var ns int64
		if err := rows.Scan(&name, &countsJSON, &ns); err != nil {
			return exp, fmt.Errorf("scan report: %w", err)
		}

		report, err := rebuild(runID, name, countsJSON)
		if err != nil {
			return exp, err
		}
		report.Duration = time.Duration(ns)
		exp.Reports = append(exp.Reports, report)
	}

	return exp, rows.Err()
}

func rebuild(runID, name, countsJSON string) (bitflip.Report, error) {
	scenario, err := bitflip.ParseScenario(name)
	if err != nil {
		return bitflip.Report{}, err
	}

	var counts bitflip.Counts
	if err := json.Unmarshal([]byte(countsJSON), &counts); err != nil {
		return bitflip.Report{}, fmt.Errorf("unmarshal counts: %w", err)
	}

	report, err := bitflip.Evaluate(scenario, counts)
	if err != nil {
		return bitflip.Report{}, err
	}
	report.RunID = runID
	return report, nil
}
