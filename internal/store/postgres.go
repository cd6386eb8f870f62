package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"fleetplan/internal/model"
)

// Postgres persists jobs and solutions in a single jobs table with jsonb
// payloads; it is the durable counterpart of Memory for multi-instance
// deployments.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

const schema = `
CREATE TABLE IF NOT EXISTS solve_jobs (
    id          uuid PRIMARY KEY,
    status      text NOT NULL,
    created_at  timestamptz NOT NULL DEFAULT now(),
    started_at  timestamptz,
    finished_at timestamptz,
    error       text,
    request     jsonb NOT NULL,
    solution    jsonb,
    metrics     jsonb
);
CREATE INDEX IF NOT EXISTS solve_jobs_status_idx ON solve_jobs (status, created_at);
`

// Migrate applies the schema. Idempotent; meant for startup in dev and
// small deployments.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, schema)
	return err
}

func (p *Postgres) CreateJob(ctx context.Context, req model.SolveRequest) (model.Job, error) {
	id := uuid.New().String()
	payload, err := json.Marshal(req)
	if err != nil {
		return model.Job{}, err
	}
	createdAt := time.Now().UTC()
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO solve_jobs (id, status, created_at, request) VALUES ($1, $2, $3, $4)`,
		id, model.JobQueued, createdAt, payload)
	if err != nil {
		return model.Job{}, fmt.Errorf("store: create job: %w", err)
	}
	return model.Job{ID: id, Status: model.JobQueued, CreatedAt: createdAt.Format(time.RFC3339), Request: req}, nil
}

func (p *Postgres) GetJob(ctx context.Context, id string) (model.Job, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT id::text, status, created_at, started_at, finished_at, error, request, solution
		 FROM solve_jobs WHERE id=$1`, id)
	return scanJob(row)
}

func (p *Postgres) ListJobs(ctx context.Context, status, cursor string, limit int) ([]model.Job, string, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT id::text, status, created_at, started_at, finished_at, error, request, solution
	      FROM solve_jobs WHERE ($1 = '' OR status = $1) AND ($2 = '' OR id::text > $2)
	      ORDER BY id LIMIT $3`
	rows, err := p.db.QueryContext(ctx, q, status, cursor, limit)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out := []model.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, "", err
		}
		out = append(out, j)
	}
	next := ""
	if len(out) == limit {
		next = out[len(out)-1].ID
	}
	return out, next, rows.Err()
}

func (p *Postgres) CompleteJob(ctx context.Context, id string, sol model.SolutionOut, metrics model.SolveMetrics) error {
	solJSON, err := json.Marshal(sol)
	if err != nil {
		return err
	}
	mJSON, err := json.Marshal(metrics)
	if err != nil {
		return err
	}
	return p.exec(ctx,
		`UPDATE solve_jobs SET status=$2, finished_at=now(), solution=$3, metrics=$4 WHERE id=$1`,
		id, model.JobDone, solJSON, mJSON)
}

func (p *Postgres) FailJob(ctx context.Context, id string, reason string) error {
	return p.exec(ctx, `UPDATE solve_jobs SET status=$2, finished_at=now(), error=$3 WHERE id=$1`,
		id, model.JobFailed, reason)
}

// FetchQueuedJobs claims queued jobs with SKIP LOCKED so concurrent
// runners never execute the same solve twice.
func (p *Postgres) FetchQueuedJobs(ctx context.Context, limit int) ([]model.Job, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := p.db.QueryContext(ctx, `
		UPDATE solve_jobs SET status=$1, started_at=now()
		WHERE id IN (
			SELECT id FROM solve_jobs WHERE status=$2
			ORDER BY created_at LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id::text, status, created_at, started_at, finished_at, error, request, solution`,
		model.JobRunning, model.JobQueued, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (p *Postgres) GetSolution(ctx context.Context, jobID string) (model.SolutionOut, error) {
	var data []byte
	err := p.db.QueryRowContext(ctx, `SELECT solution FROM solve_jobs WHERE id=$1`, jobID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && data == nil) {
		return model.SolutionOut{}, ErrNotFound
	}
	if err != nil {
		return model.SolutionOut{}, err
	}
	var sol model.SolutionOut
	if err := json.Unmarshal(data, &sol); err != nil {
		return model.SolutionOut{}, err
	}
	return sol, nil
}

func (p *Postgres) GetSolveMetrics(ctx context.Context, jobID string) (model.SolveMetrics, error) {
	var data []byte
	err := p.db.QueryRowContext(ctx, `SELECT metrics FROM solve_jobs WHERE id=$1`, jobID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && data == nil) {
		return model.SolveMetrics{}, ErrNotFound
	}
	if err != nil {
		return model.SolveMetrics{}, err
	}
	var m model.SolveMetrics
	if err := json.Unmarshal(data, &m); err != nil {
		return model.SolveMetrics{}, err
	}
	return m, nil
}

func (p *Postgres) exec(ctx context.Context, q string, args ...any) error {
	res, err := p.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(r rowScanner) (model.Job, error) {
	var (
		j          model.Job
		createdAt  time.Time
		startedAt  sql.NullTime
		finishedAt sql.NullTime
		errText    sql.NullString
		reqJSON    []byte
		solJSON    []byte
	)
	err := r.Scan(&j.ID, &j.Status, &createdAt, &startedAt, &finishedAt, &errText, &reqJSON, &solJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Job{}, ErrNotFound
	}
	if err != nil {
		return model.Job{}, err
	}
	j.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	if startedAt.Valid {
		j.StartedAt = startedAt.Time.UTC().Format(time.RFC3339)
	}
	if finishedAt.Valid {
		j.FinishedAt = finishedAt.Time.UTC().Format(time.RFC3339)
	}
	if errText.Valid {
		j.Error = errText.String
	}
	if err := json.Unmarshal(reqJSON, &j.Request); err != nil {
		return model.Job{}, err
	}
	if solJSON != nil {
		var sol model.SolutionOut
		if err := json.Unmarshal(solJSON, &sol); err != nil {
			return model.Job{}, err
		}
		j.Solution = &sol
	}
	return j, nil
}
