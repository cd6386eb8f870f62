package store

import (
	"context"
	"errors"

	"fleetplan/internal/model"
)

// Store is the persistence interface used by the API server and the job
// runner. Implementations: Memory (default), Postgres (DATABASE_URL).
type Store interface {
	// Jobs
	CreateJob(ctx context.Context, req model.SolveRequest) (model.Job, error)
	GetJob(ctx context.Context, id string) (model.Job, error)
	ListJobs(ctx context.Context, status, cursor string, limit int) (items []model.Job, nextCursor string, err error)

	// Lifecycle transitions driven by the runner; claiming a job flips
	// it to running, so the only explicit transitions are terminal.
	CompleteJob(ctx context.Context, id string, sol model.SolutionOut, metrics model.SolveMetrics) error
	FailJob(ctx context.Context, id string, reason string) error

	// FetchQueuedJobs claims up to limit queued jobs for execution,
	// flipping them to running so competing runners never double-claim.
	FetchQueuedJobs(ctx context.Context, limit int) ([]model.Job, error)

	// Results
	GetSolution(ctx context.Context, jobID string) (model.SolutionOut, error)
	GetSolveMetrics(ctx context.Context, jobID string) (model.SolveMetrics, error)
}

var ErrNotFound = errors.New("not found")
