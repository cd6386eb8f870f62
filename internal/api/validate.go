package api

import (
	"fmt"

	"fleetplan/internal/model"
)

func validateSolveRequest(req *model.SolveRequest) error {
	if len(req.Customers) == 0 {
		return fmt.Errorf("at least one customer required")
	}
	if req.VehicleCapacity <= 0 {
		return fmt.Errorf("vehicleCapacity must be > 0")
	}
	hasMatrices := req.DistanceKm != nil || req.TravelMin != nil
	if hasMatrices {
		if req.DistanceKm == nil || req.TravelMin == nil {
			return fmt.Errorf("distanceKm and travelMin must be provided together")
		}
		want := len(req.Customers) + 1
		if len(req.DistanceKm) != want || len(req.TravelMin) != want {
			return fmt.Errorf("matrices must cover depot plus %d customers", len(req.Customers))
		}
	} else {
		if req.Depot == nil && req.DepotAddress == "" {
			return fmt.Errorf("depot location or depotAddress required when matrices are not provided")
		}
		for i, c := range req.Customers {
			if c.Location == nil && c.Address == "" {
				return fmt.Errorf("customer %d needs a location or address when matrices are not provided", i)
			}
		}
	}
	if req.GA != nil {
		ga := req.GA
		if ga.PopulationSize < 0 || ga.Generations < 0 || ga.TournamentSize < 0 || ga.Workers < 0 {
			return fmt.Errorf("ga counts must be >= 0")
		}
		if ga.CrossoverRate != nil && (*ga.CrossoverRate < 0 || *ga.CrossoverRate > 1) {
			return fmt.Errorf("ga.crossoverRate must be in [0,1]")
		}
		if ga.MutationRate != nil && (*ga.MutationRate < 0 || *ga.MutationRate > 1) {
			return fmt.Errorf("ga.mutationRate must be in [0,1]")
		}
		if ga.VehiclePenalty < 0 {
			return fmt.Errorf("ga.vehiclePenalty must be >= 0")
		}
	}
	return nil
}
