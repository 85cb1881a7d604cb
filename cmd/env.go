package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/huntertoby/new-shop-survival-prediction-tw/internal/poi"
	"github.com/huntertoby/new-shop-survival-prediction-tw/internal/registry"
	"github.com/huntertoby/new-shop-survival-prediction-tw/internal/survival"
	"github.com/huntertoby/new-shop-survival-prediction-tw/pkg/geocode"
)

// predictEnv holds the wired pipeline shared by the serve/predict/poi
// commands.
type predictEnv struct {
	Geocoder  geocode.Client
	Store     poi.Store
	Registry  *registry.Registry
	Predictor *survival.Predictor
}

// Close releases resources held by the environment.
func (pe *predictEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initEnv wires the geocoder, POI store, aggregator, registry, and
// predictor from config. Callers should defer env.Close().
func initEnv(ctx context.Context) (*predictEnv, error) {
	store, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	gcOpts := []geocode.Option{
		geocode.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Geocode.TimeoutSecs) * time.Second}),
		geocode.WithRateLimit(cfg.Geocode.RateLimitRPS),
		geocode.WithCacheTTL(time.Duration(cfg.Geocode.CacheTTLMinutes) * time.Minute),
		geocode.WithMaxCandidates(cfg.Geocode.MaxCandidates),
	}
	if cfg.Geocode.BaseURL != "" {
		gcOpts = append(gcOpts, geocode.WithBaseURL(cfg.Geocode.BaseURL))
	}
	geocoder := geocode.NewClient(gcOpts...)

	agg := poi.NewAggregator(nil, cfg.POI.TopNPerGroup)
	reg := registry.New(cfg.Models.Dir)

	if cfg.Models.WarmOnStart {
		if err := reg.Warm(ctx); err != nil {
			store.Close()
			return nil, err
		}
	}

	return &predictEnv{
		Geocoder:  geocoder,
		Store:     store,
		Registry:  reg,
		Predictor: survival.NewPredictor(geocoder, store, agg, reg),
	}, nil
}

// initStore opens the POI store backend selected by config.
func initStore(ctx context.Context) (poi.Store, error) {
	switch cfg.POI.Driver {
	case "sqlite", "":
		return poi.NewSQLite(cfg.POI.Path)
	case "postgres":
		return poi.NewPostgres(ctx, cfg.POI.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown poi driver %q", cfg.POI.Driver)
	}
}
