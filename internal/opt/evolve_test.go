package opt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.PopulationSize = 30
	cfg.Generations = 60
	cfg.Seed = 1
	cfg.Workers = 1
	return cfg
}

func kalyaniProblem(t *testing.T) *Problem {
	t.Helper()
	pts := [][2]float64{{0, 0}, {10, 20}, {50, 40}, {80, 10}, {30, 70}, {60, 90}, {5, 50}, {90, 50}, {40, 10}}
	customers := []Customer{
		{ID: 1, Demand: 30, Ready: 60, Due: 10180, Service: 10},
		{ID: 2, Demand: 45, Ready: 120, Due: 10240, Service: 15},
		{ID: 3, Demand: 15, Ready: 0, Due: 10100, Service: 5},
		{ID: 4, Demand: 20, Ready: 180, Due: 10300, Service: 10},
		{ID: 5, Demand: 10, Ready: 240, Due: 10360, Service: 5},
		{ID: 6, Demand: 15, Ready: 60, Due: 10150, Service: 8},
		{ID: 7, Demand: 35, Ready: 200, Due: 10400, Service: 12},
		{ID: 8, Demand: 25, Ready: 30, Due: 10210, Service: 10},
	}
	return euclidProblem(t, pts, customers, 100)
}

func TestSolveElitismMonotonicity(t *testing.T) {
	s, err := NewSolver(kalyaniProblem(t), smallConfig())
	require.NoError(t, err)

	var bests []float64
	sol, m := s.Solve(func(gen int, best Solution) {
		bests = append(bests, best.Cost)
	})
	require.Len(t, bests, smallConfig().Generations)
	for i := 1; i < len(bests); i++ {
		require.LessOrEqual(t, bests[i], bests[i-1], "best cost rose at generation %d", i+1)
	}
	assert.InDelta(t, bests[len(bests)-1], sol.Cost, 1e-9)
	assert.LessOrEqual(t, m.BestCost, m.InitialCost)
}

func TestSolveReproducibleAcrossWorkerCounts(t *testing.T) {
	p := kalyaniProblem(t)

	cfg := smallConfig()
	s1, err := NewSolver(p, cfg)
	require.NoError(t, err)
	a, _ := s1.Solve(nil)

	cfg.Workers = 4
	s2, err := NewSolver(p, cfg)
	require.NoError(t, err)
	b, _ := s2.Solve(nil)

	// Decoding carries no randomness, so the worker count must not
	// change the outcome for a fixed seed.
	require.Equal(t, a, b)

	s3, err := NewSolver(p, cfg)
	require.NoError(t, err)
	c, _ := s3.Solve(nil)
	require.Equal(t, b, c)
}

func TestSolveForcesSecondVehicle(t *testing.T) {
	// Demand 12 against capacity 10: no single route can cover all three.
	p := euclidProblem(t,
		[][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		[]Customer{wideWindow(1, 4), wideWindow(2, 4), wideWindow(3, 4)},
		10,
	)
	s, err := NewSolver(p, smallConfig())
	require.NoError(t, err)
	sol, _ := s.Solve(nil)

	require.GreaterOrEqual(t, sol.Vehicles, 2)
	served := map[int]bool{}
	for _, r := range sol.Routes {
		require.LessOrEqual(t, r.Load, p.VehicleCapacity)
		for _, id := range r.Customers {
			require.False(t, served[id])
			served[id] = true
		}
	}
	require.Len(t, served, 3)
}

func TestSolveFrozenOperatorsKeepPopulation(t *testing.T) {
	// With crossover and mutation both off, offspring are parent copies,
	// so the best cost can never move past the initial population's best.
	cfg := smallConfig()
	cfg.CrossoverRate = 0
	cfg.MutationRate = 0
	s, err := NewSolver(kalyaniProblem(t), cfg)
	require.NoError(t, err)
	_, m := s.Solve(nil)
	assert.Equal(t, 0, m.Improvements)
	assert.InDelta(t, m.InitialCost, m.BestCost, 1e-9)
	assert.Equal(t, 0, m.FoundAt)
}

func TestSolveVehiclePenaltyDiscouragesFleetGrowth(t *testing.T) {
	p := kalyaniProblem(t)

	cfg := smallConfig()
	sPlain, err := NewSolver(p, cfg)
	require.NoError(t, err)
	plain, _ := sPlain.Solve(nil)

	cfg.VehiclePenalty = 500
	sPen, err := NewSolver(p, cfg)
	require.NoError(t, err)
	penalized, _ := sPen.Solve(nil)

	assert.LessOrEqual(t, penalized.Vehicles, plain.Vehicles+1)
	assert.InDelta(t, penalized.Cost, penalized.TotalDistance+500*float64(penalized.Vehicles), 1e-9)
}

func TestSolveMetrics(t *testing.T) {
	s, err := NewSolver(kalyaniProblem(t), smallConfig())
	require.NoError(t, err)
	sol, m := s.Solve(nil)

	assert.Equal(t, smallConfig().Generations, m.Generations)
	assert.Equal(t, smallConfig().PopulationSize+(smallConfig().Generations)*(smallConfig().PopulationSize-1), m.Evaluations)
	assert.Equal(t, sol.Generation, m.FoundAt)
	assert.Positive(t, m.Duration)

	RecordMetrics("job-1", m)
	got, ok := GetMetrics("job-1")
	require.True(t, ok)
	assert.Equal(t, m, got)
	_, ok = GetMetrics("missing")
	assert.False(t, ok)
}
