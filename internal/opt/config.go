package opt

// Defaults applied by Config.withDefaults for zero-valued fields.
const (
	DefaultPopulationSize = 50
	DefaultGenerations    = 500
	DefaultCrossoverRate  = 0.9
	DefaultMutationRate   = 0.1
	DefaultTournamentSize = 3
)

// Config holds the GA parameters for one solve. It is a plain value: pass
// it to NewSolver and forget it, there is no package-level tuning state.
type Config struct {
	PopulationSize int
	Generations    int
	CrossoverRate  float64 // probability of OX per parent pair
	MutationRate   float64 // probability of a swap per individual
	TournamentSize int
	VehiclePenalty float64 // added to cost per route; 0 leaves fleet size a free side effect
	Seed           int64   // 0 selects a fixed deterministic seed
	Workers        int     // concurrent decode workers; 0 selects GOMAXPROCS
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		PopulationSize: DefaultPopulationSize,
		Generations:    DefaultGenerations,
		CrossoverRate:  DefaultCrossoverRate,
		MutationRate:   DefaultMutationRate,
		TournamentSize: DefaultTournamentSize,
	}
}

// withDefaults fills zero-valued counts. Rates are left alone: zero is a
// legitimate rate (no crossover / no mutation), so callers wanting the
// documented defaults start from DefaultConfig.
func (c Config) withDefaults() Config {
	if c.PopulationSize == 0 {
		c.PopulationSize = DefaultPopulationSize
	}
	if c.Generations == 0 {
		c.Generations = DefaultGenerations
	}
	if c.TournamentSize == 0 {
		c.TournamentSize = DefaultTournamentSize
	}
	return c
}

// Validate rejects parameter combinations the evolver cannot run with.
func (c Config) Validate() error {
	if c.PopulationSize < 2 {
		return configErrf("population size must be >= 2, got %d", c.PopulationSize)
	}
	if c.Generations < 1 {
		return configErrf("generations must be >= 1, got %d", c.Generations)
	}
	if c.CrossoverRate < 0 || c.CrossoverRate > 1 {
		return configErrf("crossover rate must be in [0,1], got %v", c.CrossoverRate)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return configErrf("mutation rate must be in [0,1], got %v", c.MutationRate)
	}
	if c.TournamentSize < 1 {
		return configErrf("tournament size must be >= 1, got %d", c.TournamentSize)
	}
	if c.VehiclePenalty < 0 {
		return configErrf("vehicle penalty must be >= 0, got %v", c.VehiclePenalty)
	}
	if c.Workers < 0 {
		return configErrf("workers must be >= 0, got %d", c.Workers)
	}
	return nil
}
