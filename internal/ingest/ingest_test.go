package ingest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rm-hull/fuel-metrics-api/internal"
	"github.com/rm-hull/fuel-metrics-api/internal/models"
	"github.com/rm-hull/fuel-metrics-api/internal/normalize"
	"github.com/rm-hull/fuel-metrics-api/internal/regions"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeClient struct {
	batches [][]models.RawObservation
	err     error
}

func (f *fakeClient) FetchObservations(ctx context.Context, callback internal.BatchCallback[models.RawObservation]) (int, error) {
	count := 0
	for _, batch := range f.batches {
		n, err := callback(batch)
		if err != nil {
			return count, err
		}
		count += n
	}
	return count, f.err
}

func (f *fakeClient) LastUpdated() *time.Time {
	return nil
}

func setup(t *testing.T, client internal.ObservationsClient) (*Pipeline, internal.ObservationsRepository) {
	tmpFile, err := os.CreateTemp("", "fuel_metrics_ingest-*.db")
	require.NoError(t, err)
	dbPath := tmpFile.Name()
	_ = tmpFile.Close()
	t.Cleanup(func() {
		_ = os.Remove(dbPath)
	})

	db, err := internal.Connect(dbPath)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, internal.Migrate("../../migrations", dbPath))

	repo := internal.NewObservationsRepository(db)
	t.Cleanup(func() {
		_ = repo.Close()
	})

	states, err := regions.Default()
	require.NoError(t, err)
	normalizer := func(raws []models.RawObservation, now time.Time) normalize.Result {
		return normalize.Normalize(raws, now, normalize.Options{States: states})
	}

	p := NewPipeline(client, repo, normalizer, 30*24*time.Hour)
	p.now = func() time.Time { return now }
	return p, repo
}

func TestImport(t *testing.T) {
	client := &fakeClient{batches: [][]models.RawObservation{
		{
			{City: "SAO PAULO", State: "SP", Region: "SE", FuelType: "GASOLINA", Price: "5,89", CollectedAt: "02/03/2026", StationId: "A"},
			{City: "SAO PAULO", State: "SP", FuelType: "QUEROSENE", Price: "5,89", CollectedAt: "02/03/2026", StationId: "A"},
		},
		{
			{City: "CURITIBA", State: "PR", FuelType: "DIESEL S10", Price: "6,19", CollectedAt: "09/03/2026"},
			{City: "CURITIBA", State: "PR", FuelType: "DIESEL S10", Price: "6,19", CollectedAt: "20/03/2026"},
		},
	}}
	p, repo := setup(t, client)

	summary, err := p.Import(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Received)
	assert.Equal(t, 2, summary.Accepted)
	assert.Equal(t, 2, summary.Stored)
	assert.Equal(t, map[models.ReasonCode]int{
		models.ReasonUnknownFuelType: 1,
		models.ReasonFutureTimestamp: 1,
	}, summary.Rejected)
	assert.True(t, summary.StartedAt.Equal(now))

	series, err := repo.RegionSeries("SUDESTE", models.Gasoline, now.AddDate(0, 0, -30), now)
	require.NoError(t, err)
	require.Len(t, series.Observations, 1)
	assert.Equal(t, "5.89", series.Observations[0].Price.String())
}

func TestImportSurfacesClientErrors(t *testing.T) {
	p, _ := setup(t, &fakeClient{err: errors.New("boom")})
	_, err := p.Import(context.Background())
	assert.ErrorContains(t, err, "boom")

	p, _ = setup(t, nil)
	_, err = p.Import(context.Background())
	assert.Error(t, err)
}

func TestStoreAndPurge(t *testing.T) {
	p, repo := setup(t, nil)

	summary, rejected, err := p.Store([]models.RawObservation{
		{City: "Goiânia", State: "GO", FuelType: "etanol", Price: "3.999", CollectedAt: "2026-01-05"},
		{City: "Goiânia", State: "GO", FuelType: "etanol", Price: "4.099", CollectedAt: "2026-03-09"},
		{City: "Goiânia", State: "GO", FuelType: "etanol", Price: "", CollectedAt: "2026-03-09"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Stored)
	require.Len(t, rejected, 1)
	assert.Equal(t, 2, rejected[0].Index)
	assert.Equal(t, models.ReasonMissingField, rejected[0].Reason)

	purged, err := p.Purge()
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	cities, err := repo.CitySeries([]string{"GOIANIA"}, models.Ethanol, now.AddDate(-1, 0, 0), now)
	require.NoError(t, err)
	require.Len(t, cities["GOIANIA"].Observations, 1)
	assert.Equal(t, "4.099", cities["GOIANIA"].Observations[0].Price.String())
}
