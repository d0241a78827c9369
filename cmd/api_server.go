package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/Depado/ginprom"
	"github.com/aurowora/compress"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"

	"github.com/rm-hull/fuel-metrics-api/internal"
	"github.com/rm-hull/fuel-metrics-api/internal/routes"
	healthcheck "github.com/tavsec/gin-healthcheck"
	"github.com/tavsec/gin-healthcheck/checks"
	hc_config "github.com/tavsec/gin-healthcheck/config"
)

func ApiServer(dbPath string, port int, debug bool) error {

	svc, err := bootstrap(dbPath)
	if err != nil {
		return err
	}
	defer svc.Close()

	snapshots := routes.NewSnapshots(svc.repo, svc.cfg.CacheTTL, svc.cfg.Retention)

	scheduler, err := internal.StartCron(svc.pipeline, snapshots.Invalidate)
	if err != nil {
		return fmt.Errorf("failed to start CRON jobs: %w", err)
	}
	defer scheduler.Stop()

	r := gin.New()

	prometheus := ginprom.New(
		ginprom.Engine(r),
		ginprom.Path("/metrics"),
		ginprom.Ignore("/healthz"),
	)

	r.Use(
		gin.Recovery(),
		gin.LoggerWithWriter(gin.DefaultWriter, "/healthz", "/metrics"),
		prometheus.Instrument(),
		compress.Compress(),
		cors.Default(),
	)

	if debug {
		log.Println("WARNING: pprof endpoints are enabled and exposed. Do not run with this flag in production.")
		pprof.Register(r)
	}

	err = healthcheck.New(r, hc_config.DefaultConfig(), []checks.Check{
		svc.repo.Check(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize healthcheck: %v", err)
	}

	v1 := r.Group("/v1/fuel-metrics")
	v1.POST("/observations", routes.Observations(svc.pipeline, snapshots))
	v1.GET("/trend", routes.Trend(svc.engine, snapshots))
	v1.GET("/compare", routes.Compare(svc.engine, snapshots))
	v1.GET("/recommendation", routes.Recommendation(svc.engine, snapshots))
	v1.POST("/simulate", routes.Simulate(svc.engine, snapshots))
	v1.GET("/ranking", routes.Ranking(svc.engine, snapshots))
	v1.GET("/regions/summary", routes.RegionSummary(svc.engine, snapshots))
	v1.GET("/cities", routes.CitySearch(snapshots))

	addr := fmt.Sprintf(":%d", port)
	log.Printf("Starting HTTP API Server on port %d...", port)
	if err := r.Run(addr); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP API Server failed to start on port %d: %v", port, err)
	}

	return nil
}
