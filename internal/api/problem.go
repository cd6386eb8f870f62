package api

import (
	"context"
	"fmt"

	"fleetplan/internal/matrix"
	"fleetplan/internal/metrics"
	"fleetplan/internal/model"
	"fleetplan/internal/opt"
)

// buildProblem turns a solve request into a solver problem. Prebuilt
// matrices are used as-is; otherwise every stop needs coordinates
// (geocoding the address when given one) and the routing service builds
// the matrices.
func (s *Server) buildProblem(ctx context.Context, req *model.SolveRequest) (*opt.Problem, error) {
	customers := make([]opt.Customer, len(req.Customers))
	for i, c := range req.Customers {
		customers[i] = opt.Customer{
			ID:      c.ID,
			Demand:  c.Demand,
			Ready:   c.Ready,
			Due:     c.Due,
			Service: c.Service,
		}
	}

	if req.DistanceKm != nil {
		metrics.MatrixRequests.WithLabelValues("inline").Inc()
		return opt.NewProblem(customers, req.VehicleCapacity, req.DistanceKm, req.TravelMin)
	}

	coords := make([]matrix.Point, 0, len(req.Customers)+1)
	depot, err := s.resolvePoint(ctx, req.Depot, req.DepotAddress)
	if err != nil {
		return nil, fmt.Errorf("depot: %w", err)
	}
	coords = append(coords, depot)
	for i, c := range req.Customers {
		pt, err := s.resolvePoint(ctx, c.Location, c.Address)
		if err != nil {
			return nil, fmt.Errorf("customer %d: %w", i, err)
		}
		coords = append(coords, pt)
	}

	if s.Matrix == nil {
		return nil, fmt.Errorf("no routing service configured")
	}
	mats, err := s.Matrix.Table(ctx, coords)
	if err != nil {
		return nil, fmt.Errorf("travel matrix: %w", err)
	}
	return opt.NewProblem(customers, req.VehicleCapacity, mats.DistanceKm, mats.TravelMin)
}

func (s *Server) resolvePoint(ctx context.Context, loc *model.GeoPoint, address string) (matrix.Point, error) {
	if loc != nil {
		return matrix.Point{Lat: loc.Lat, Lng: loc.Lng}, nil
	}
	if address == "" {
		return matrix.Point{}, fmt.Errorf("no location or address")
	}
	if s.Geocoder == nil {
		return matrix.Point{}, fmt.Errorf("geocoding not configured")
	}
	return s.Geocoder.Search(ctx, address)
}

// gaConfig overlays request parameters onto the service defaults.
func (s *Server) gaConfig(params *model.GAParams) opt.Config {
	cfg := opt.Config{
		PopulationSize: s.GA.PopulationSize,
		Generations:    s.GA.Generations,
		CrossoverRate:  s.GA.CrossoverRate,
		MutationRate:   s.GA.MutationRate,
		TournamentSize: s.GA.TournamentSize,
		VehiclePenalty: s.GA.VehiclePenalty,
		Workers:        s.GA.Workers,
	}
	if params == nil {
		return cfg
	}
	if params.PopulationSize > 0 {
		cfg.PopulationSize = params.PopulationSize
	}
	if params.Generations > 0 {
		cfg.Generations = params.Generations
	}
	if params.CrossoverRate != nil {
		cfg.CrossoverRate = *params.CrossoverRate
	}
	if params.MutationRate != nil {
		cfg.MutationRate = *params.MutationRate
	}
	if params.TournamentSize > 0 {
		cfg.TournamentSize = params.TournamentSize
	}
	if params.VehiclePenalty > 0 {
		cfg.VehiclePenalty = params.VehiclePenalty
	}
	if params.Workers > 0 {
		cfg.Workers = params.Workers
	}
	cfg.Seed = params.Seed
	return cfg
}

// solutionOut converts a solver solution to the API shape.
func solutionOut(sol opt.Solution) model.SolutionOut {
	out := model.SolutionOut{
		TotalDistanceKm: sol.TotalDistance,
		Cost:            sol.Cost,
		Vehicles:        sol.Vehicles,
		FoundAtGen:      sol.Generation,
	}
	for i, r := range sol.Routes {
		out.Routes = append(out.Routes, model.RouteOut{
			Vehicle:    i + 1,
			Customers:  r.Customers,
			Load:       r.Load,
			DistanceKm: r.Distance,
		})
	}
	return out
}

func metricsOut(m opt.Metrics) model.SolveMetrics {
	return model.SolveMetrics{
		Generations:  m.Generations,
		Evaluations:  m.Evaluations,
		InitialCost:  m.InitialCost,
		BestCost:     m.BestCost,
		Improvements: m.Improvements,
		FoundAt:      m.FoundAt,
		DurationMs:   m.Duration.Milliseconds(),
	}
}
