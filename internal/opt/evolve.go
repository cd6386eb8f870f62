// Package opt implements the genetic-algorithm core for the VRPTW
// planner: permutation chromosomes over customer IDs, a greedy
// route-splitting decoder as the fitness function, and tournament
// selection with order crossover and swap mutation driving a fixed-length
// generational loop with single-individual elitism.
package opt

import (
	"runtime"
	"sync"
	"time"
)

// Progress observes the best-known solution after each generation. It is
// called on the solving goroutine and must not retain the Solution's
// slices across calls. Progress is reporting only, never a control input.
type Progress func(generation int, best Solution)

// Metrics summarizes one solve for operators and the metrics store.
type Metrics struct {
	Generations  int
	Evaluations  int
	InitialCost  float64
	BestCost     float64
	Improvements int
	FoundAt      int // generation producing the final best
	Duration     time.Duration
}

// Solver runs the GA against a fixed Problem.
type Solver struct {
	prob *Problem
	cfg  Config
}

// NewSolver validates cfg (after filling defaults) against the problem.
func NewSolver(p *Problem, cfg Config) (*Solver, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Solver{prob: p, cfg: cfg}, nil
}

// Solve runs the full generational loop and returns the best solution
// seen across all generations. The loop is synchronous and runs to
// completion; only decoding fans out across workers, with a barrier
// before elitism and replacement. With equal seeds two solves produce
// identical solutions regardless of worker count.
func (s *Solver) Solve(onProgress Progress) (Solution, Metrics) {
	start := time.Now()
	cfg := s.cfg
	rng := rngFromSeed(cfg.Seed)
	n := len(s.prob.Customers)
	size := cfg.PopulationSize

	pop := make([][]int, size)
	next := make([][]int, size)
	costs := make([]float64, size)
	nextCosts := make([]float64, size)

	for i := range pop {
		pop[i] = newPermutation(n, rng)
	}
	s.evaluate(pop, costs, 0)

	elite := argMin(costs)
	bestPerm := append([]int(nil), pop[elite]...)
	bestCost := costs[elite]
	m := Metrics{InitialCost: bestCost, Evaluations: size}

	for gen := 1; gen <= cfg.Generations; gen++ {
		// Elitism: the incumbent survives unchanged in slot 0, so the
		// best-known cost never increases between generations.
		next[0] = append(next[0][:0], pop[elite]...)
		nextCosts[0] = costs[elite]

		for write := 1; write < size; {
			i1 := tournamentSelect(costs, cfg.TournamentSize, rng)
			i2 := tournamentSelect(costs, cfg.TournamentSize, rng)
			var c1, c2 []int
			if rng.Float64() < cfg.CrossoverRate {
				a, b := cutPoints(n, rng)
				c1 = orderCrossover(pop[i1], pop[i2], a, b)
				c2 = orderCrossover(pop[i2], pop[i1], a, b)
			} else {
				c1 = append([]int(nil), pop[i1]...)
				c2 = append([]int(nil), pop[i2]...)
			}
			if rng.Float64() < cfg.MutationRate {
				mutateSwap(c1, rng)
			}
			if rng.Float64() < cfg.MutationRate {
				mutateSwap(c2, rng)
			}
			next[write] = c1
			write++
			if write < size {
				next[write] = c2
				write++
			}
		}

		s.evaluate(next, nextCosts, 1) // slot 0 cost carried over
		m.Evaluations += size - 1
		pop, next = next, pop
		costs, nextCosts = nextCosts, costs

		elite = argMin(costs)
		if costs[elite] < bestCost {
			bestCost = costs[elite]
			bestPerm = append(bestPerm[:0], pop[elite]...)
			m.Improvements++
			m.FoundAt = gen
		}
		if onProgress != nil {
			best := s.prob.Decode(bestPerm, cfg.VehiclePenalty)
			best.Generation = m.FoundAt
			onProgress(gen, best)
		}
	}

	sol := s.prob.Decode(bestPerm, cfg.VehiclePenalty)
	sol.Generation = m.FoundAt
	m.Generations = cfg.Generations
	m.BestCost = bestCost
	m.Duration = time.Since(start)
	return sol, m
}

// evaluate scores pop[from:] in place. Decoding touches only the
// read-only Problem and each goroutine's own slots, so a WaitGroup is
// the only coordination needed.
func (s *Solver) evaluate(pop [][]int, costs []float64, from int) {
	workers := s.cfg.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(pop)-from {
		workers = len(pop) - from
	}
	if workers <= 1 {
		for i := from; i < len(pop); i++ {
			costs[i] = s.prob.Decode(pop[i], s.cfg.VehiclePenalty).Cost
		}
		return
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(start int) {
			defer wg.Done()
			for i := start; i < len(pop); i += workers {
				costs[i] = s.prob.Decode(pop[i], s.cfg.VehiclePenalty).Cost
			}
		}(from + w)
	}
	wg.Wait()
}

// argMin returns the index of the smallest cost, first-seen on ties.
func argMin(costs []float64) int {
	best := 0
	for i := 1; i < len(costs); i++ {
		if costs[i] < costs[best] {
			best = i
		}
	}
	return best
}
