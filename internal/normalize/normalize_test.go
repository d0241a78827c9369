package normalize

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rm-hull/fuel-metrics-api/internal/models"
	"github.com/rm-hull/fuel-metrics-api/internal/regions"
)

var now = time.Date(2026, 2, 6, 12, 0, 0, 0, time.UTC)

func testOptions(t *testing.T) Options {
	states, err := regions.Default()
	require.NoError(t, err)
	return Options{States: states}
}

func TestNormalizeCanonicalises(t *testing.T) {
	raws := []models.RawObservation{
		{City: "são paulo", State: "sp", FuelType: "Gasolina Comum", Price: "R$ 5,899", CollectedAt: "2026-02-01", StationId: " pfs-1 "},
		{City: "Curitiba", State: "Paraná", FuelType: "ÁLCOOL", Price: "489", Unit: "centavos/l", CollectedAt: "01/02/2026"},
		{City: "Goiânia", Region: "Centro-Oeste", FuelType: "diesel s10", Price: "6.12", CollectedAt: "2026-02-01T08:30:00-03:00"},
		{City: "Manaus", State: "AM", FuelType: "GNV", Price: "4.9", CollectedAt: "20260201"},
	}

	result := Normalize(raws, now, testOptions(t))
	require.Empty(t, result.Rejected)
	require.Len(t, result.Valid, 4)

	sp := result.Valid[0]
	assert.Equal(t, "SAO PAULO", sp.City)
	assert.Equal(t, "SP", sp.State)
	assert.Equal(t, "SUDESTE", sp.Region)
	assert.Equal(t, models.Gasoline, sp.FuelType)
	assert.True(t, decimal.RequireFromString("5.899").Equal(sp.Price))
	assert.Equal(t, "pfs-1", sp.StationId)
	assert.True(t, sp.CollectedAt.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))

	cwb := result.Valid[1]
	assert.Equal(t, "PR", cwb.State)
	assert.Equal(t, "SUL", cwb.Region)
	assert.Equal(t, models.Ethanol, cwb.FuelType)
	assert.True(t, decimal.RequireFromString("4.89").Equal(cwb.Price))

	gyn := result.Valid[2]
	assert.Equal(t, "GOIANIA", gyn.City)
	assert.Equal(t, "CENTRO-OESTE", gyn.Region)
	assert.Equal(t, models.Diesel, gyn.FuelType)
	assert.True(t, gyn.CollectedAt.Equal(time.Date(2026, 2, 1, 11, 30, 0, 0, time.UTC)))

	assert.Equal(t, models.GasAlt, result.Valid[3].FuelType)
	assert.Equal(t, "NORTE", result.Valid[3].Region)
}

func TestNormalizeRejections(t *testing.T) {
	tests := []struct {
		name   string
		raw    models.RawObservation
		reason models.ReasonCode
	}{
		{"missing city", models.RawObservation{State: "SP", FuelType: "gasolina", Price: "5.00", CollectedAt: "2026-02-01"}, models.ReasonMissingField},
		{"missing price", models.RawObservation{City: "X", State: "SP", FuelType: "gasolina", CollectedAt: "2026-02-01"}, models.ReasonMissingField},
		{"missing timestamp", models.RawObservation{City: "X", State: "SP", FuelType: "gasolina", Price: "5.00"}, models.ReasonMissingField},
		{"underivable region", models.RawObservation{City: "X", State: "ZZ", FuelType: "gasolina", Price: "5.00", CollectedAt: "2026-02-01"}, models.ReasonMissingField},
		{"zero price", models.RawObservation{City: "X", State: "SP", FuelType: "gasolina", Price: "0", CollectedAt: "2026-02-01"}, models.ReasonInvalidPrice},
		{"negative price", models.RawObservation{City: "X", State: "SP", FuelType: "gasolina", Price: "-5", CollectedAt: "2026-02-01"}, models.ReasonInvalidPrice},
		{"absurd price", models.RawObservation{City: "X", State: "SP", FuelType: "gasolina", Price: "150", CollectedAt: "2026-02-01"}, models.ReasonInvalidPrice},
		{"not a number", models.RawObservation{City: "X", State: "SP", FuelType: "gasolina", Price: "abc", CollectedAt: "2026-02-01"}, models.ReasonInvalidPrice},
		{"unknown unit", models.RawObservation{City: "X", State: "SP", FuelType: "gasolina", Price: "5", Unit: "USD/gal", CollectedAt: "2026-02-01"}, models.ReasonInvalidPrice},
		{"future", models.RawObservation{City: "X", State: "SP", FuelType: "gasolina", Price: "5.00", CollectedAt: "2026-03-01"}, models.ReasonFutureTimestamp},
		{"bad timestamp", models.RawObservation{City: "X", State: "SP", FuelType: "gasolina", Price: "5.00", CollectedAt: "yesterday"}, models.ReasonInvalidTimestamp},
		{"unknown fuel", models.RawObservation{City: "X", State: "SP", FuelType: "querosene", Price: "5.00", CollectedAt: "2026-02-01"}, models.ReasonUnknownFuelType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Normalize([]models.RawObservation{tt.raw}, now, testOptions(t))
			assert.Empty(t, result.Valid)
			require.Len(t, result.Rejected, 1)
			assert.Equal(t, tt.reason, result.Rejected[0].Reason)
			assert.Equal(t, 0, result.Rejected[0].Index)
			assert.Equal(t, tt.raw, result.Rejected[0].Raw)
			assert.NotEmpty(t, result.Rejected[0].Detail)
		})
	}
}

func TestNormalizePartitionsCompletely(t *testing.T) {
	raws := []models.RawObservation{
		{City: "A", State: "SP", FuelType: "gasolina", Price: "5.00", CollectedAt: "2026-02-01"},
		{City: "A", State: "SP", FuelType: "gasolina", Price: "5.10", CollectedAt: "2026-02-01"},
		{},
		{City: "B", State: "RJ", FuelType: "etanol", Price: "4,10", CollectedAt: "2026-02-02"},
		{City: "C", State: "RJ", FuelType: "jet fuel", Price: "4,10", CollectedAt: "2026-02-02"},
	}

	result := Normalize(raws, now, testOptions(t))
	assert.Equal(t, len(raws), len(result.Valid)+len(result.Rejected))
	assert.Len(t, result.Valid, 2)
	for _, rej := range result.Rejected {
		assert.NotEmpty(t, rej.Reason)
	}
	assert.Equal(t, map[models.ReasonCode]int{
		models.ReasonDuplicate:       1,
		models.ReasonMissingField:    1,
		models.ReasonUnknownFuelType: 1,
	}, result.CountsByReason())
}

func TestGroupByRegionSortsAndValidates(t *testing.T) {
	raws := []models.RawObservation{
		{City: "B", State: "SP", FuelType: "gasolina", Price: "5.20", CollectedAt: "2026-02-03"},
		{City: "A", State: "SP", FuelType: "gasolina", Price: "5.00", CollectedAt: "2026-02-01"},
		{City: "A", State: "SP", FuelType: "diesel", Price: "6.00", CollectedAt: "2026-02-01"},
		{City: "C", State: "RJ", FuelType: "gasolina", Price: "5.10", CollectedAt: "2026-02-02"},
	}
	result := Normalize(raws, now, testOptions(t))
	require.Len(t, result.Valid, 4)

	byRegion := GroupByRegion(result.Valid)
	assert.Len(t, byRegion, 2)

	series := byRegion[models.SeriesKey{Name: "SUDESTE", FuelType: models.Gasoline}]
	require.Len(t, series.Observations, 3)
	require.NoError(t, series.Validate())
	assert.Equal(t, "A", series.Observations[0].City)
	assert.Equal(t, "C", series.Observations[1].City)
	assert.Equal(t, "B", series.Observations[2].City)

	byCity := CitySeries(result.Valid, models.Gasoline)
	assert.Len(t, byCity, 3)
	assert.Contains(t, byCity, "A")
}
