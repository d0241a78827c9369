package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSeriesLatestInstant(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	obs := func(station string, offset int) PriceObservation {
		return PriceObservation{City: "A", Price: decimal.NewFromInt(5), CollectedAt: day.AddDate(0, 0, offset), StationId: station}
	}
	series := Series{Observations: []PriceObservation{obs("s1", 0), obs("s2", 0), obs("s1", 7), obs("s2", 7), obs("s3", 7)}}

	latest := series.LatestInstant(day.AddDate(0, 0, 10))
	assert.Len(t, latest, 3)
	assert.Equal(t, "s1", latest[0].StationId)

	assert.Len(t, series.LatestInstant(day.AddDate(0, 0, 3)), 2)
	assert.Empty(t, series.LatestInstant(day.AddDate(0, 0, -1)))
}
