package opt

import (
	"fmt"
	"math"
)

// Customer is one delivery stop. Times are minutes from the planning
// origin; distance-related fields live in the Problem matrices.
type Customer struct {
	ID      int
	Demand  float64
	Ready   float64
	Due     float64
	Service float64
}

// Problem is a VRPTW instance: one depot, N customers, a shared vehicle
// capacity and the travel matrices produced by the collaborator layer.
// Index 0 of both matrices is the depot; customer i occupies index i.
// A Problem is immutable after NewProblem and safe to share across
// concurrent evaluations.
type Problem struct {
	Customers       []Customer
	VehicleCapacity float64
	Dist            [][]float64 // km
	Travel          [][]float64 // minutes
}

// ConfigurationError reports an instance or solver configuration that can
// never yield a feasible plan. It is produced at construction time only;
// the generational loop itself never returns errors.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string { return "opt: invalid configuration: " + e.Reason }

func configErrf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// NewProblem validates the instance and returns it ready for solving.
// Customers must carry IDs 1..N in order so that chromosome genes double
// as matrix indices. Validation guarantees the decoder is total: any
// permutation of a valid instance decodes to a feasible plan.
func NewProblem(customers []Customer, capacity float64, dist, travel [][]float64) (*Problem, error) {
	if capacity <= 0 {
		return nil, configErrf("vehicle capacity must be > 0, got %v", capacity)
	}
	if len(customers) == 0 {
		return nil, configErrf("at least one customer is required")
	}
	n := len(customers) + 1
	if err := checkMatrix("distance", dist, n); err != nil {
		return nil, err
	}
	if err := checkMatrix("travel time", travel, n); err != nil {
		return nil, err
	}
	for i, c := range customers {
		if c.ID != i+1 {
			return nil, configErrf("customer at position %d must have id %d, got %d", i, i+1, c.ID)
		}
		if c.Demand < 0 {
			return nil, configErrf("customer %d demand must be >= 0, got %v", c.ID, c.Demand)
		}
		if c.Demand > capacity {
			return nil, configErrf("customer %d demand %v exceeds vehicle capacity %v", c.ID, c.Demand, capacity)
		}
		if c.Ready > c.Due {
			return nil, configErrf("customer %d ready time %v is after due time %v", c.ID, c.Ready, c.Due)
		}
		if c.Ready < 0 || c.Service < 0 {
			return nil, configErrf("customer %d times must be >= 0", c.ID)
		}
		// A route break restarts the vehicle at the depot, so the direct
		// depot leg must always make the window. Without this check the
		// decoder could not promise a feasible split for every permutation.
		if travel[0][c.ID] > c.Due {
			return nil, configErrf("customer %d is unreachable from the depot within its time window (travel %v > due %v)",
				c.ID, travel[0][c.ID], c.Due)
		}
	}
	return &Problem{Customers: customers, VehicleCapacity: capacity, Dist: dist, Travel: travel}, nil
}

func checkMatrix(name string, m [][]float64, n int) error {
	if len(m) != n {
		return configErrf("%s matrix must have %d rows, got %d", name, n, len(m))
	}
	for i, row := range m {
		if len(row) != n {
			return configErrf("%s matrix row %d must have %d entries, got %d", name, i, n, len(row))
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return configErrf("%s matrix entry [%d][%d] must be finite and >= 0, got %v", name, i, j, v)
			}
		}
	}
	return nil
}
