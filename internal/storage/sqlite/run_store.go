package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/voxel.carve/internal/carving"
	"github.com/banshee-data/voxel.carve/internal/timeutil"
)

// CarveRun is one pass of a scene's views over an input grid.
type CarveRun struct {
	RunID         string `json:"run_id"`
	InputGridID   string `json:"input_grid_id"`
	ResultGridID  string `json:"result_grid_id,omitempty"`
	SceneName     string `json:"scene_name"`
	ConfigJSON    string `json:"config_json,omitempty"`
	StartedNanos  int64  `json:"started_unix_nanos"`
	FinishedNanos int64  `json:"finished_unix_nanos,omitempty"`
}

// Finished reports whether FinishRun has been called for the run.
func (r *CarveRun) Finished() bool { return r.FinishedNanos != 0 }

// ViewResult is the stored outcome of one carve within a run.
type ViewResult struct {
	RunID     string         `json:"run_id"`
	StepIndex int            `json:"step_index"`
	ViewName  string         `json:"view_name"`
	Result    carving.Result `json:"result"`
}

// CarveRunStore persists carve runs and their per-view results.
type CarveRunStore struct {
	db    *sql.DB
	clock timeutil.Clock
}

// NewCarveRunStore creates a new CarveRunStore.
func NewCarveRunStore(db *sql.DB) *CarveRunStore {
	return &CarveRunStore{db: db, clock: timeutil.RealClock{}}
}

// SetClock replaces the clock used for run start and finish times.
func (s *CarveRunStore) SetClock(c timeutil.Clock) { s.clock = c }

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

// StartRun inserts a run against an existing input grid. If run.RunID is
// empty, a new UUID is generated. cfg is stored as JSON when non-nil.
func (s *CarveRunStore) StartRun(ctx context.Context, run *CarveRun, cfg *carving.Config) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.StartedNanos == 0 {
		run.StartedNanos = s.clock.Now().UnixNano()
	}
	if cfg != nil {
		b, err := json.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal carve config: %w", err)
		}
		run.ConfigJSON = string(b)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO carve_runs (
			run_id, input_grid_id, result_grid_id, scene_name,
			config_json, started_unix_nanos, finished_unix_nanos
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		run.RunID, run.InputGridID, nullString(run.ResultGridID), run.SceneName,
		nullString(run.ConfigJSON), run.StartedNanos, nullInt64(run.FinishedNanos),
	)
	if err != nil {
		return fmt.Errorf("insert carve run: %w", err)
	}
	return nil
}

// RecordResult stores the outcome of step stepIndex of a run.
func (s *CarveRunStore) RecordResult(ctx context.Context, runID string, stepIndex int, viewName string, r carving.Result) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO carve_view_results (
			run_id, step_index, view_name, mode,
			examined, removed, kept, outside_image, duration_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID, stepIndex, viewName, string(r.Mode),
		r.Examined, r.Removed, r.Kept, r.OutsideImage, r.Duration.Nanoseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert carve view result: %w", err)
	}
	return nil
}

// RecordResults stores results in one transaction, numbering steps from
// firstStep. names[i] labels results[i].
func (s *CarveRunStore) RecordResults(ctx context.Context, runID string, firstStep int, names []string, results []carving.Result) error {
	if len(names) != len(results) {
		return fmt.Errorf("record carve results: %d names for %d results", len(names), len(results))
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin carve results: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO carve_view_results (
			run_id, step_index, view_name, mode,
			examined, removed, kept, outside_image, duration_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare carve results: %w", err)
	}
	defer stmt.Close()

	for i, r := range results {
		if _, err := stmt.ExecContext(ctx,
			runID, firstStep+i, names[i], string(r.Mode),
			r.Examined, r.Removed, r.Kept, r.OutsideImage, r.Duration.Nanoseconds(),
		); err != nil {
			return fmt.Errorf("insert carve view result %d: %w", firstStep+i, err)
		}
	}
	return tx.Commit()
}

// FinishRun stamps the finish time and links the carved grid.
func (s *CarveRunStore) FinishRun(ctx context.Context, runID, resultGridID string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE carve_runs
		SET result_grid_id = ?, finished_unix_nanos = ?
		WHERE run_id = ?
	`, nullString(resultGridID), s.clock.Now().UnixNano(), runID)
	if err != nil {
		return fmt.Errorf("finish carve run: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish carve run rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const runColumns = `run_id, input_grid_id, result_grid_id, scene_name,
	config_json, started_unix_nanos, finished_unix_nanos`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*CarveRun, error) {
	var (
		run      CarveRun
		resultID sql.NullString
		cfgJSON  sql.NullString
		finished sql.NullInt64
	)
	if err := row.Scan(
		&run.RunID, &run.InputGridID, &resultID, &run.SceneName,
		&cfgJSON, &run.StartedNanos, &finished,
	); err != nil {
		return nil, err
	}
	run.ResultGridID = resultID.String
	run.ConfigJSON = cfgJSON.String
	run.FinishedNanos = finished.Int64
	return &run, nil
}

// GetRun returns a run by ID. A missing ID wraps sql.ErrNoRows.
func (s *CarveRunStore) GetRun(ctx context.Context, runID string) (*CarveRun, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx,
		"SELECT "+runColumns+" FROM carve_runs WHERE run_id = ?", runID))
	if err != nil {
		return nil, fmt.Errorf("get carve run %s: %w", runID, err)
	}
	return run, nil
}

// ListRuns returns runs newest first, at most limit when limit > 0.
func (s *CarveRunStore) ListRuns(ctx context.Context, limit int) ([]*CarveRun, error) {
	query := "SELECT " + runColumns + " FROM carve_runs ORDER BY started_unix_nanos DESC, run_id"
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list carve runs: %w", err)
	}
	defer rows.Close()

	var out []*CarveRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan carve run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// ListResults returns a run's results in step order.
func (s *CarveRunStore) ListResults(ctx context.Context, runID string) ([]ViewResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, step_index, view_name, mode,
		       examined, removed, kept, outside_image, duration_ns
		FROM carve_view_results
		WHERE run_id = ?
		ORDER BY step_index
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list carve view results: %w", err)
	}
	defer rows.Close()

	var out []ViewResult
	for rows.Next() {
		var (
			vr   ViewResult
			mode string
			dur  int64
		)
		if err := rows.Scan(
			&vr.RunID, &vr.StepIndex, &vr.ViewName, &mode,
			&vr.Result.Examined, &vr.Result.Removed, &vr.Result.Kept,
			&vr.Result.OutsideImage, &dur,
		); err != nil {
			return nil, fmt.Errorf("scan carve view result: %w", err)
		}
		vr.Result.Mode = carving.Mode(mode)
		vr.Result.Duration = time.Duration(dur)
		out = append(out, vr)
	}
	return out, rows.Err()
}
