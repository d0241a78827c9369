package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func Import(dbPath string, purge bool) error {

	svc, err := bootstrap(dbPath)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := svc.pipeline.Import(ctx)
	if err != nil {
		return fmt.Errorf("failed to import price surveys: %w", err)
	}
	log.Printf("imported %d of %d records (%d new or changed) in %s, rejected: %v",
		summary.Accepted, summary.Received, summary.Stored, summary.Duration, summary.Rejected)

	if purge {
		purged, err := svc.pipeline.Purge()
		if err != nil {
			return fmt.Errorf("failed to purge observations: %w", err)
		}
		log.Printf("purged %d observations older than %s", purged, svc.cfg.Retention)
	}

	return nil
}
