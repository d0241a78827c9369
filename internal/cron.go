package internal

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rm-hull/fuel-metrics-api/internal/models"
)

const CRON_SCHEDULE_REFRESH = "0 3 * * 1" // Mondays at 03:00, after ANP publishes the weekly survey
const CRON_SCHEDULE_PURGE = "0 2 * * *"   // Every day at 02:00

const REFRESH_TIMEOUT = 30 * time.Minute

type Importer interface {
	Import(ctx context.Context) (models.ImportSummary, error)
	Purge() (int64, error)
}

// StartCron schedules the refresh and purge jobs. onChange runs after either
// job has altered stored observations, e.g. to drop cached snapshots.
func StartCron(importer Importer, onChange func()) (*cron.Cron, error) {
	if onChange == nil {
		onChange = func() {}
	}

	c := cron.New()

	log.Print("Starting CRON jobs to refresh price surveys and purge expired observations")

	if _, err := c.AddFunc(CRON_SCHEDULE_REFRESH, func() {
		ctx, cancel := context.WithTimeout(context.Background(), REFRESH_TIMEOUT)
		defer cancel()

		summary, err := importer.Import(ctx)
		if summary.Stored > 0 {
			onChange()
		}
		if err != nil {
			log.Printf("Error refreshing price surveys: %v\n", err)
			return
		}
		log.Printf("Refreshed price surveys: received=%d, accepted=%d, stored=%d, rejected=%v",
			summary.Received, summary.Accepted, summary.Stored, summary.Rejected)
	}); err != nil {
		return nil, err
	}

	if _, err := c.AddFunc(CRON_SCHEDULE_PURGE, func() {
		purged, err := importer.Purge()
		if err != nil {
			log.Printf("Error purging observations: %v\n", err)
			return
		}
		if purged > 0 {
			onChange()
		}
		log.Printf("Purged %d expired observations", purged)
	}); err != nil {
		return nil, err
	}

	c.Start()
	return c, nil
}
