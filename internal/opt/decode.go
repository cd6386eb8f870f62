package opt

import "fmt"

// Route is one vehicle's ordered customer visits, depot at both ends.
type Route struct {
	Customers []int
	Load      float64
	Distance  float64 // km, including both depot legs
}

// Solution is a decoded chromosome. It is recomputed on every evaluation
// and never cached across generations.
type Solution struct {
	Routes        []Route
	TotalDistance float64 // km over all routes
	Cost          float64 // TotalDistance + VehiclePenalty*Vehicles
	Vehicles      int
	Generation    int // generation at which the evolver found it
}

// Decode splits the giant tour into vehicle routes, greedy left-to-right:
// a customer that would overload the vehicle or be reached after its due
// time closes the current route and starts a new one from the depot.
// Customers are never reordered relative to the permutation and there is
// no lookahead, so identical permutations always decode identically.
//
// Decode is total over valid permutations of a valid Problem; a corrupted
// permutation is an internal invariant failure and panics.
func (p *Problem) Decode(perm []int, vehiclePenalty float64) Solution {
	p.mustBePermutation(perm)

	var (
		routes    []Route
		current   []int
		load      float64
		depart    float64 // service completion time at prev
		prev      int     // matrix index, 0 is the depot
		routeDist float64
		totalDist float64
	)

	closeRoute := func() {
		routeDist += p.Dist[prev][0]
		totalDist += routeDist
		routes = append(routes, Route{Customers: current, Load: load, Distance: routeDist})
		current = nil
		load, depart, routeDist = 0, 0, 0
		prev = 0
	}

	for _, id := range perm {
		c := p.Customers[id-1]
		arrival := depart + p.Travel[prev][id]
		if arrival < c.Ready {
			arrival = c.Ready // wait for the window to open
		}
		if len(current) > 0 && (load+c.Demand > p.VehicleCapacity || arrival > c.Due) {
			closeRoute()
			arrival = p.Travel[0][id]
			if arrival < c.Ready {
				arrival = c.Ready
			}
		}
		routeDist += p.Dist[prev][id]
		current = append(current, id)
		load += c.Demand
		depart = arrival + c.Service
		prev = id
	}
	closeRoute()

	return Solution{
		Routes:        routes,
		TotalDistance: totalDist,
		Cost:          totalDist + vehiclePenalty*float64(len(routes)),
		Vehicles:      len(routes),
	}
}

// mustBePermutation aborts the run on a chromosome that is not a
// permutation of 1..N. Operators preserve the permutation invariant, so
// hitting this means corrupted state, not bad input.
func (p *Problem) mustBePermutation(perm []int) {
	n := len(p.Customers)
	if len(perm) != n {
		panic(fmt.Sprintf("opt: corrupted chromosome: length %d, want %d", len(perm), n))
	}
	seen := make([]bool, n+1)
	for _, id := range perm {
		if id < 1 || id > n || seen[id] {
			panic(fmt.Sprintf("opt: corrupted chromosome: gene %d out of range or duplicated", id))
		}
		seen[id] = true
	}
}
