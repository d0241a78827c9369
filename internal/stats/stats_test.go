package stats

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rm-hull/fuel-metrics-api/internal/models"
)

func ranking(kv ...string) models.ComparisonResult {
	var result models.ComparisonResult
	for i := 0; i < len(kv); i += 3 {
		result.Ranking = append(result.Ranking, models.RankedCity{
			Rank:   i/3 + 1,
			City:   kv[i],
			Region: kv[i+1],
			Price:  decimal.RequireFromString(kv[i+2]),
		})
	}
	return result
}

func TestDerive(t *testing.T) {
	comparison := ranking(
		"GOIANIA", "CENTRO-OESTE", "5.000",
		"SAO PAULO", "SUDESTE", "5.200",
		"CAMPINAS", "SUDESTE", "5.400",
		"CURITIBA", "SUL", "5.600",
		"MANAUS", "NORTE", "5.800",
	)

	stats := Derive(comparison, decimal.Zero)
	require.NotNil(t, stats)

	assert.Equal(t, 5, stats.Count)
	assert.Equal(t, []string{"GOIANIA"}, stats.CheapestCities)
	assert.Equal(t, "5", stats.LowestPrice.String())
	assert.Equal(t, "5.8", stats.HighestPrice.String())
	assert.Equal(t, "5.4", stats.AveragePrice.String())
	assert.Equal(t, "0.8", stats.Range.String())
	assert.Equal(t, 0.2828, stats.StandardDeviation)
	assert.Equal(t, 0.4, stats.InterquartileRange)
	assert.Equal(t, 0.0524, stats.CoefficientOfVariation)
	assert.Equal(t, 0.0296, stats.Gini)

	assert.Equal(t, map[string]int{
		"5.00-5.09": 1,
		"5.20-5.29": 1,
		"5.40-5.49": 1,
		"5.60-5.69": 1,
		"5.80-5.89": 1,
	}, stats.PriceDistribution)
	assert.Equal(t, 2, stats.RegionDistribution["SUDESTE"])
}

func TestDeriveSharedCheapestAndCustomBuckets(t *testing.T) {
	comparison := ranking(
		"A", "SUL", "4.999",
		"B", "SUL", "4.999",
		"C", "SUL", "5.499",
	)

	stats := Derive(comparison, decimal.RequireFromString("0.50"))
	assert.Equal(t, []string{"A", "B"}, stats.CheapestCities)
	assert.Equal(t, map[string]int{"4.50-4.99": 2, "5.00-5.49": 1}, stats.PriceDistribution)
}

func TestDeriveEmpty(t *testing.T) {
	stats := Derive(models.ComparisonResult{}, DefaultBucketSize)
	assert.Zero(t, stats.Count)
	assert.Empty(t, stats.CheapestCities)
	assert.Empty(t, stats.PriceDistribution)
	assert.Zero(t, stats.Gini)
}

func TestByRegion(t *testing.T) {
	comparison := ranking(
		"GOIANIA", "CENTRO-OESTE", "5.000",
		"SAO PAULO", "SUDESTE", "5.200",
		"CAMPINAS", "SUDESTE", "5.400",
		"CURITIBA", "SUL", "5.600",
	)

	summaries := ByRegion(comparison, []string{"SUL", "NORTE", "SUDESTE"}, decimal.Zero)
	require.Len(t, summaries, 4)

	names := make([]string, 0, len(summaries))
	for _, s := range summaries {
		names = append(names, s.Region)
	}
	assert.Equal(t, []string{"CENTRO-OESTE", "NORTE", "SUDESTE", "SUL"}, names)

	assert.Equal(t, 1, summaries[0].Statistics.Count)
	assert.Equal(t, 0, summaries[1].Statistics.Count)
	assert.Empty(t, summaries[1].Statistics.CheapestCities)

	sudeste := summaries[2].Statistics
	assert.Equal(t, 2, sudeste.Count)
	assert.Equal(t, []string{"SAO PAULO"}, sudeste.CheapestCities)
	assert.Equal(t, "5.3", sudeste.AveragePrice.String())
	assert.Equal(t, map[string]int{"SUDESTE": 2}, sudeste.RegionDistribution)
}
