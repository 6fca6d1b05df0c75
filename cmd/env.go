package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/krili-app/agency-cli/internal/catalog"
	"github.com/krili-app/agency-cli/internal/geo"
	"github.com/krili-app/agency-cli/internal/rank"
	"github.com/krili-app/agency-cli/internal/store"
)

// appEnv bundles the wired pipeline dependencies shared by subcommands.
type appEnv struct {
	Cities  *geo.Registry
	Catalog *catalog.Catalog
	Store   store.Store
}

func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv validates the configuration for a command mode and wires the city
// registry, dataset loader, catalog and snapshot store.
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	cities := geo.NewRegistry()
	if cfg.Data.CitiesFile != "" {
		loaded, err := geo.LoadRegistry(cfg.Data.CitiesFile)
		if err != nil {
			return nil, err
		}
		cities = loaded
	}

	seed := cfg.Pipeline.JitterSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	cat := catalog.New(
		catalog.NewFileLoader(cfg.Data.Dir),
		cities,
		catalog.WithJitter(rank.NewRandomJitter(seed)),
		catalog.WithMixedKeywords(cfg.Pipeline.MixedServiceKeywords),
	)

	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	return &appEnv{Cities: cities, Catalog: cat, Store: st}, nil
}
