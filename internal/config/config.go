// Package config loads service configuration from an optional YAML file
// with environment-variable overrides. Environment always wins so
// container deployments need no file at all.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   Server   `yaml:"server"`
	Database Database `yaml:"database"`
	Redis    Redis    `yaml:"redis"`
	OSRM     OSRM     `yaml:"osrm"`
	GA       GA       `yaml:"ga"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

type Database struct {
	URL string `yaml:"url"`
}

type Redis struct {
	URL string `yaml:"url"`
}

type OSRM struct {
	URL     string `yaml:"url"`
	Profile string `yaml:"profile"`
	// Requests per second against the table endpoint; 0 disables limiting.
	RateLimit float64 `yaml:"rateLimit"`
	// Geocoder settings (optional; address input is rejected when unset).
	GeocodeURL string `yaml:"geocodeUrl"`
	GeocodeKey string `yaml:"geocodeKey"`
}

// GA carries service-level solver defaults; request parameters override
// them per solve.
type GA struct {
	PopulationSize int     `yaml:"populationSize"`
	Generations    int     `yaml:"generations"`
	CrossoverRate  float64 `yaml:"crossoverRate"`
	MutationRate   float64 `yaml:"mutationRate"`
	TournamentSize int     `yaml:"tournamentSize"`
	VehiclePenalty float64 `yaml:"vehiclePenalty"`
	Workers        int     `yaml:"workers"`
}

// Load reads path (when non-empty and present) and applies env overrides.
func Load(path string) (Config, error) {
	cfg := Config{
		Server: Server{Addr: ":8080"},
		OSRM:   OSRM{URL: "http://router.project-osrm.org", Profile: "driving"},
		GA: GA{
			PopulationSize: 50,
			Generations:    500,
			CrossoverRate:  0.9,
			MutationRate:   0.1,
			TournamentSize: 3,
		},
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Addr = ":" + v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("OSRM_URL"); v != "" {
		cfg.OSRM.URL = v
	}
	if v := os.Getenv("OSRM_PROFILE"); v != "" {
		cfg.OSRM.Profile = v
	}
	if v := os.Getenv("GEOCODE_URL"); v != "" {
		cfg.OSRM.GeocodeURL = v
	}
	if v := os.Getenv("GEOCODE_API_KEY"); v != "" {
		cfg.OSRM.GeocodeKey = v
	}
	return cfg, nil
}
