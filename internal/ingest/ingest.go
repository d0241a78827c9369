package ingest

import (
	"context"
	"log"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/rm-hull/fuel-metrics-api/internal"
	"github.com/rm-hull/fuel-metrics-api/internal/models"
	"github.com/rm-hull/fuel-metrics-api/internal/normalize"
)

type Normalizer func(raws []models.RawObservation, now time.Time) normalize.Result

// Pipeline moves raw records from the source (or an API caller) through the
// normalizer into the repository.
type Pipeline struct {
	client    internal.ObservationsClient
	repo      internal.ObservationsRepository
	normalize Normalizer
	retention time.Duration
	now       func() time.Time
}

func NewPipeline(client internal.ObservationsClient, repo internal.ObservationsRepository, normalizer Normalizer, retention time.Duration) *Pipeline {
	return &Pipeline{
		client:    client,
		repo:      repo,
		normalize: normalizer,
		retention: retention,
		now:       time.Now,
	}
}

// Import pulls the configured source, batch by batch.
func (p *Pipeline) Import(ctx context.Context) (models.ImportSummary, error) {
	if p.client == nil {
		return models.ImportSummary{}, errors.New("no source client configured")
	}

	summary := models.ImportSummary{StartedAt: p.now().UTC(), Rejected: make(map[models.ReasonCode]int)}
	_, err := p.client.FetchObservations(ctx, func(batch []models.RawObservation) (int, error) {
		part, _, err := p.store("source", batch)
		summary.Add(part)
		return part.Stored, err
	})
	summary.Duration = time.Since(summary.StartedAt)
	if err != nil {
		return summary, errors.Wrap(err, "import failed")
	}

	lastImport.SetToCurrentTime()
	return summary, nil
}

// Store normalizes and persists one batch submitted directly, returning the
// rejections alongside the summary.
func (p *Pipeline) Store(raws []models.RawObservation) (models.ImportSummary, []models.Rejection, error) {
	return p.store("api", raws)
}

func (p *Pipeline) store(origin string, raws []models.RawObservation) (models.ImportSummary, []models.Rejection, error) {
	result := p.normalize(raws, p.now().UTC())

	summary := models.ImportSummary{
		Received: len(raws),
		Accepted: len(result.Valid),
		Rejected: result.CountsByReason(),
	}

	observationsReceived.WithLabelValues(origin).Add(float64(len(raws)))
	for reason, n := range summary.Rejected {
		observationsRejected.WithLabelValues(string(reason)).Add(float64(n))
	}

	stored, err := p.repo.InsertObservations(result.Valid)
	if err != nil {
		return summary, result.Rejected, errors.Wrap(err, "failed to store observations")
	}
	summary.Stored = stored
	observationsStored.Add(float64(stored))

	if len(result.Rejected) > 0 {
		log.Printf("%s batch: %d of %d records rejected: %v", origin, len(result.Rejected), len(raws), summary.Rejected)
	}
	return summary, result.Rejected, nil
}

// Purge drops observations older than the retention period.
func (p *Pipeline) Purge() (int64, error) {
	cutoff := p.now().UTC().Add(-p.retention)
	purged, err := p.repo.PurgeBefore(cutoff)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to purge observations before %s", cutoff.Format(time.RFC3339))
	}
	return purged, nil
}
