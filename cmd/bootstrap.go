package cmd

import (
	"fmt"
	"log"

	"github.com/rm-hull/godx"

	"github.com/rm-hull/fuel-metrics-api/internal"
	"github.com/rm-hull/fuel-metrics-api/internal/config"
	"github.com/rm-hull/fuel-metrics-api/internal/engine"
	"github.com/rm-hull/fuel-metrics-api/internal/ingest"
	"github.com/rm-hull/fuel-metrics-api/internal/regions"
)

type services struct {
	cfg      config.Config
	engine   *engine.Engine
	repo     internal.ObservationsRepository
	client   internal.ObservationsClient
	pipeline *ingest.Pipeline
}

func (s *services) Close() {
	if err := s.repo.Close(); err != nil {
		log.Printf("failed to close repository: %v", err)
	}
}

// bootstrap initialises shared resources used by both the API server and import
// commands: configuration, the region table, the database and the source
// client.
func bootstrap(dbPath string) (*services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	godx.GitVersion()
	godx.EnvironmentVars()
	godx.UserInfo()

	states, err := regions.Default()
	if err != nil {
		return nil, fmt.Errorf("failed to load region table: %w", err)
	}

	db, err := internal.Connect(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := internal.Migrate("migrations", dbPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate SQL: %w", err)
	}

	eng := engine.New(cfg, states)
	repo := internal.NewObservationsRepository(db)
	client := internal.NewObservationsClient(cfg.SourceURL)

	return &services{
		cfg:      cfg,
		engine:   eng,
		repo:     repo,
		client:   client,
		pipeline: ingest.NewPipeline(client, repo, eng.Normalize, cfg.Retention),
	}, nil
}
