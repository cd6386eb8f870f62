package api

import (
	"context"
	"log"
	"time"

	"fleetplan/internal/config"
	"fleetplan/internal/matrix"
	"fleetplan/internal/store"
)

type Server struct {
	Store    store.Store
	Broker   EventBroker
	Matrix   *matrix.Client
	Geocoder *matrix.Geocoder
	GA       config.GA
}

// NewServer wires the store, broker, and routing clients from config.
// Without a database URL jobs live in memory; without a Redis URL the
// broker and matrix cache are in-process only.
func NewServer(cfg config.Config) (*Server, error) {
	var s store.Store
	if cfg.Database.URL == "" {
		s = store.NewMemory()
	} else {
		pg, err := store.NewPostgres(cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := pg.Migrate(ctx); err != nil {
			return nil, err
		}
		s = pg
	}

	var broker EventBroker
	var cache matrix.Cache
	if cfg.Redis.URL != "" {
		if rb, err := NewRedisBroker(cfg.Redis.URL); err == nil {
			broker = rb
		} else {
			log.Printf("redis broker unavailable, falling back to in-memory: %v", err)
			broker = NewBroker()
		}
		if rc, err := matrix.NewRedisCache(cfg.Redis.URL, 0); err == nil {
			cache = rc
		}
	} else {
		broker = NewBroker()
	}

	var mc *matrix.Client
	if cfg.OSRM.URL != "" {
		mc = matrix.NewClient(cfg.OSRM.URL, cfg.OSRM.Profile, cfg.OSRM.RateLimit, cache)
	}
	var gc *matrix.Geocoder
	if cfg.OSRM.GeocodeURL != "" {
		gc = matrix.NewGeocoder(cfg.OSRM.GeocodeURL, cfg.OSRM.GeocodeKey)
	}

	return &Server{Store: s, Broker: broker, Matrix: mc, Geocoder: gc, GA: cfg.GA}, nil
}
