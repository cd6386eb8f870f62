package api

import (
	"context"
	"log"
	"time"

	"fleetplan/internal/metrics"
	"fleetplan/internal/model"
	"fleetplan/internal/opt"
)

// Runner drains queued solve jobs in the background. Each tick it claims
// a batch from the store, runs the solver, and publishes progress to the
// broker so /progress streams see live generations.
type Runner struct {
	srv      *Server
	stop     chan struct{}
	interval time.Duration
	// every nth generation goes to the broker; 1 streams them all
	progressEvery int
}

func NewRunner(s *Server) *Runner {
	return &Runner{srv: s, stop: make(chan struct{}), interval: time.Second, progressEvery: 10}
}

func (r *Runner) Start() {
	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-ticker.C:
				r.processOnce()
			}
		}
	}()
}

func (r *Runner) Stop() { close(r.stop) }

func (r *Runner) processOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	jobs, err := r.srv.Store.FetchQueuedJobs(ctx, 4)
	cancel()
	if err != nil || len(jobs) == 0 {
		return
	}
	for _, job := range jobs {
		r.runJob(job)
	}
}

func (r *Runner) runJob(job model.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	fail := func(reason string) {
		metrics.SolveRuns.WithLabelValues("failed").Inc()
		if err := r.srv.Store.FailJob(ctx, job.ID, reason); err != nil {
			log.Printf("job %s: record failure: %v", job.ID, err)
		}
		r.srv.Broker.Publish(job.ID, model.ProgressEvent{JobID: job.ID, Done: true})
	}

	prob, err := r.srv.buildProblem(ctx, &job.Request)
	if err != nil {
		fail(err.Error())
		return
	}
	solver, err := opt.NewSolver(prob, r.srv.gaConfig(job.Request.GA))
	if err != nil {
		fail(err.Error())
		return
	}

	start := time.Now()
	sol, m := solver.Solve(func(gen int, best opt.Solution) {
		if r.progressEvery > 1 && gen%r.progressEvery != 0 {
			return
		}
		r.srv.Broker.Publish(job.ID, model.ProgressEvent{
			JobID:      job.ID,
			Generation: gen,
			BestCost:   best.Cost,
			Vehicles:   best.Vehicles,
		})
	})

	metrics.SolveRuns.WithLabelValues("ok").Inc()
	metrics.SolveDuration.Observe(time.Since(start).Seconds())
	metrics.SolveGenerations.Add(float64(m.Generations))
	opt.RecordMetrics(job.ID, m)

	if err := r.srv.Store.CompleteJob(ctx, job.ID, solutionOut(sol), metricsOut(m)); err != nil {
		log.Printf("job %s: record completion: %v", job.ID, err)
	}
	r.srv.Broker.Publish(job.ID, model.ProgressEvent{
		JobID:      job.ID,
		Generation: m.Generations,
		BestCost:   sol.Cost,
		Vehicles:   sol.Vehicles,
		Done:       true,
	})
}
