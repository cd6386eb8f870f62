package model

// Request/response types for the solve API.

// CustomerIn is one delivery stop in a solve request. Either every
// customer (and the depot) carries a Location and the server builds the
// matrices via the routing service, or the request ships prebuilt
// matrices and locations are optional.
type CustomerIn struct {
	ID       int       `json:"id"`
	Address  string    `json:"address,omitempty"`
	Location *GeoPoint `json:"location,omitempty"`
	Demand   float64   `json:"demand"`
	Ready    float64   `json:"ready,omitempty"`   // minutes from planning origin
	Due      float64   `json:"due"`               // minutes from planning origin
	Service  float64   `json:"service,omitempty"` // minutes
}

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GAParams overrides the solver defaults; zero-valued counts fall back.
// Rates are pointers so an explicit 0 survives JSON round trips.
type GAParams struct {
	PopulationSize int      `json:"populationSize,omitempty"`
	Generations    int      `json:"generations,omitempty"`
	CrossoverRate  *float64 `json:"crossoverRate,omitempty"`
	MutationRate   *float64 `json:"mutationRate,omitempty"`
	TournamentSize int      `json:"tournamentSize,omitempty"`
	VehiclePenalty float64  `json:"vehiclePenalty,omitempty"`
	Seed           int64    `json:"seed,omitempty"`
	Workers        int      `json:"workers,omitempty"`
}

// SolveRequest is the body of POST /v1/solve and POST /v1/jobs.
type SolveRequest struct {
	Depot           *GeoPoint    `json:"depot,omitempty"`
	DepotAddress    string       `json:"depotAddress,omitempty"`
	Customers       []CustomerIn `json:"customers"`
	VehicleCapacity float64      `json:"vehicleCapacity"`
	// Prebuilt matrices over {depot}+customers, km and minutes. When set
	// the routing service is not consulted.
	DistanceKm [][]float64 `json:"distanceKm,omitempty"`
	TravelMin  [][]float64 `json:"travelMin,omitempty"`
	GA         *GAParams   `json:"ga,omitempty"`
}

// RouteOut is one vehicle's decoded route.
type RouteOut struct {
	Vehicle    int     `json:"vehicle"`
	Customers  []int   `json:"customers"`
	Load       float64 `json:"load"`
	DistanceKm float64 `json:"distanceKm"`
}

// SolutionOut is the best solution found by a solve.
type SolutionOut struct {
	Routes          []RouteOut `json:"routes"`
	TotalDistanceKm float64    `json:"totalDistanceKm"`
	Cost            float64    `json:"cost"`
	Vehicles        int        `json:"vehicles"`
	FoundAtGen      int        `json:"foundAtGeneration"`
}

// Job is an asynchronous solve.
type Job struct {
	ID         string       `json:"id"`
	Status     string       `json:"status"` // queued, running, done, failed
	CreatedAt  string       `json:"createdAt"`
	StartedAt  string       `json:"startedAt,omitempty"`
	FinishedAt string       `json:"finishedAt,omitempty"`
	Error      string       `json:"error,omitempty"`
	Request    SolveRequest `json:"request"`
	Solution   *SolutionOut `json:"solution,omitempty"`
}

// Job status values.
const (
	JobQueued  = "queued"
	JobRunning = "running"
	JobDone    = "done"
	JobFailed  = "failed"
)

// SolveMetrics mirrors opt.Metrics for API responses and persistence.
type SolveMetrics struct {
	Generations  int     `json:"generations"`
	Evaluations  int     `json:"evaluations"`
	InitialCost  float64 `json:"initialCost"`
	BestCost     float64 `json:"bestCost"`
	Improvements int     `json:"improvements"`
	FoundAt      int     `json:"foundAtGeneration"`
	DurationMs   int64   `json:"durationMs"`
}

// ProgressEvent is one generation's report on a progress stream.
type ProgressEvent struct {
	JobID      string  `json:"jobId"`
	Generation int     `json:"generation"`
	BestCost   float64 `json:"bestCost"`
	Vehicles   int     `json:"vehicles"`
	Done       bool    `json:"done,omitempty"`
}
