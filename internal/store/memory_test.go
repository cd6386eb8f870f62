package store

import (
	"context"
	"errors"
	"testing"

	"fleetplan/internal/model"
)

func testRequest() model.SolveRequest {
	return model.SolveRequest{
		Customers: []model.CustomerIn{
			{ID: 1, Demand: 2, Due: 120},
			{ID: 2, Demand: 3, Due: 240},
		},
		VehicleCapacity: 10,
		DistanceKm:      [][]float64{{0, 1, 2}, {1, 0, 1}, {2, 1, 0}},
		TravelMin:       [][]float64{{0, 5, 10}, {5, 0, 5}, {10, 5, 0}},
	}
}

func TestMemoryJobLifecycle(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	job, err := s.CreateJob(ctx, testRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if job.ID == "" || job.Status != model.JobQueued {
		t.Fatalf("unexpected job: %+v", job)
	}

	claimed, err := s.FetchQueuedJobs(ctx, 1)
	if err != nil || len(claimed) != 1 {
		t.Fatalf("claim: %v (%d claimed)", err, len(claimed))
	}
	got, err := s.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.JobRunning || got.StartedAt == "" {
		t.Fatalf("expected running with start time, got %+v", got)
	}

	sol := model.SolutionOut{Cost: 12.5, Vehicles: 1, Routes: []model.RouteOut{{Vehicle: 1, Customers: []int{1, 2}}}}
	m := model.SolveMetrics{Generations: 10, BestCost: 12.5}
	if err := s.CompleteJob(ctx, job.ID, sol, m); err != nil {
		t.Fatalf("complete: %v", err)
	}

	got, _ = s.GetJob(ctx, job.ID)
	if got.Status != model.JobDone || got.FinishedAt == "" || got.Solution == nil {
		t.Fatalf("expected done with solution, got %+v", got)
	}

	gotSol, err := s.GetSolution(ctx, job.ID)
	if err != nil {
		t.Fatalf("get solution: %v", err)
	}
	if gotSol.Cost != sol.Cost || len(gotSol.Routes) != 1 {
		t.Fatalf("solution mismatch: %+v", gotSol)
	}
	gotM, err := s.GetSolveMetrics(ctx, job.ID)
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	if gotM.Generations != 10 {
		t.Fatalf("metrics mismatch: %+v", gotM)
	}
}

func TestMemoryFailJob(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	job, _ := s.CreateJob(ctx, testRequest())
	if err := s.FailJob(ctx, job.ID, "matrix service unavailable"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	got, _ := s.GetJob(ctx, job.ID)
	if got.Status != model.JobFailed || got.Error == "" {
		t.Fatalf("expected failed with reason, got %+v", got)
	}
	if _, err := s.GetSolution(ctx, job.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for failed job solution, got %v", err)
	}
}

func TestMemoryNotFound(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	if _, err := s.GetJob(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.FailJob(ctx, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryListJobsPagination(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		j, _ := s.CreateJob(ctx, testRequest())
		ids = append(ids, j.ID)
	}

	page1, cursor, err := s.ListJobs(ctx, "", "", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page1) != 2 || cursor == "" {
		t.Fatalf("expected 2 items and a cursor, got %d %q", len(page1), cursor)
	}
	page2, cursor2, err := s.ListJobs(ctx, "", cursor, 10)
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(page2) != 3 || cursor2 != "" {
		t.Fatalf("expected remaining 3 items and no cursor, got %d %q", len(page2), cursor2)
	}
	seen := map[string]bool{}
	for _, j := range append(page1, page2...) {
		seen[j.ID] = true
	}
	for _, id := range ids {
		if !seen[id] {
			t.Fatalf("job %s missing from paged listing", id)
		}
	}
}

func TestMemoryListJobsStatusFilter(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	a, _ := s.CreateJob(ctx, testRequest())
	b, _ := s.CreateJob(ctx, testRequest())
	// claim the oldest job so only b stays queued
	claimed, _ := s.FetchQueuedJobs(ctx, 1)
	if len(claimed) != 1 || claimed[0].ID != a.ID {
		t.Fatalf("expected to claim %s, got %+v", a.ID, claimed)
	}

	queued, _, err := s.ListJobs(ctx, model.JobQueued, "", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(queued) != 1 || queued[0].ID != b.ID {
		t.Fatalf("expected only queued job %s, got %+v", b.ID, queued)
	}
	running, _, err := s.ListJobs(ctx, model.JobRunning, "", 10)
	if err != nil {
		t.Fatalf("list running: %v", err)
	}
	if len(running) != 1 || running[0].ID != a.ID {
		t.Fatalf("expected only running job %s, got %+v", a.ID, running)
	}
}

func TestMemoryFetchQueuedJobsClaims(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	j1, _ := s.CreateJob(ctx, testRequest())
	j2, _ := s.CreateJob(ctx, testRequest())

	claimed, err := s.FetchQueuedJobs(ctx, 1)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(claimed) != 1 || claimed[0].ID != j1.ID || claimed[0].Status != model.JobRunning {
		t.Fatalf("expected first job claimed as running, got %+v", claimed)
	}

	claimed, _ = s.FetchQueuedJobs(ctx, 10)
	if len(claimed) != 1 || claimed[0].ID != j2.ID {
		t.Fatalf("expected second job claimed next, got %+v", claimed)
	}

	claimed, _ = s.FetchQueuedJobs(ctx, 10)
	if len(claimed) != 0 {
		t.Fatalf("expected no queued jobs left, got %+v", claimed)
	}
}
