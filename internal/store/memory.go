package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"fleetplan/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu      sync.Mutex
	jobs    map[string]model.Job
	order   []string // creation order, for listing and fair claiming
	metrics map[string]model.SolveMetrics
}

func NewMemory() *Memory {
	return &Memory{
		jobs:    map[string]model.Job{},
		metrics: map[string]model.SolveMetrics{},
	}
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

func (m *Memory) CreateJob(ctx context.Context, req model.SolveRequest) (model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := model.Job{
		ID:        uuid.New().String(),
		Status:    model.JobQueued,
		CreatedAt: now(),
		Request:   req,
	}
	m.jobs[j.ID] = j
	m.order = append(m.order, j.ID)
	return j, nil
}

func (m *Memory) GetJob(ctx context.Context, id string) (model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return model.Job{}, ErrNotFound
	}
	return j, nil
}

func (m *Memory) ListJobs(ctx context.Context, status, cursor string, limit int) ([]model.Job, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := 0
	if cursor != "" {
		for i, id := range m.order {
			if id == cursor {
				start = i + 1
				break
			}
		}
	}
	if limit <= 0 {
		limit = 100
	}
	out := []model.Job{}
	var next string
	for i := start; i < len(m.order) && len(out) < limit; i++ {
		j := m.jobs[m.order[i]]
		if status == "" || j.Status == status {
			out = append(out, j)
		}
		next = m.order[i]
	}
	if len(out) < limit {
		next = ""
	}
	return out, next, nil
}

func (m *Memory) CompleteJob(ctx context.Context, id string, sol model.SolutionOut, metrics model.SolveMetrics) error {
	err := m.transition(id, func(j *model.Job) {
		j.Status = model.JobDone
		j.FinishedAt = now()
		j.Solution = &sol
	})
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.metrics[id] = metrics
	m.mu.Unlock()
	return nil
}

func (m *Memory) FailJob(ctx context.Context, id string, reason string) error {
	return m.transition(id, func(j *model.Job) {
		j.Status = model.JobFailed
		j.FinishedAt = now()
		j.Error = reason
	})
}

func (m *Memory) FetchQueuedJobs(ctx context.Context, limit int) ([]model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 10
	}
	out := []model.Job{}
	for _, id := range m.order {
		if len(out) >= limit {
			break
		}
		j := m.jobs[id]
		if j.Status != model.JobQueued {
			continue
		}
		j.Status = model.JobRunning
		j.StartedAt = now()
		m.jobs[id] = j
		out = append(out, j)
	}
	return out, nil
}

func (m *Memory) GetSolution(ctx context.Context, jobID string) (model.SolutionOut, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok || j.Solution == nil {
		return model.SolutionOut{}, ErrNotFound
	}
	return *j.Solution, nil
}

func (m *Memory) GetSolveMetrics(ctx context.Context, jobID string) (model.SolveMetrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sm, ok := m.metrics[jobID]
	if !ok {
		return model.SolveMetrics{}, ErrNotFound
	}
	return sm, nil
}

func (m *Memory) transition(id string, apply func(*model.Job)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return ErrNotFound
	}
	apply(&j)
	m.jobs[id] = j
	return nil
}
