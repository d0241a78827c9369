package stats

import (
	"math"
	"slices"
	"sort"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/rm-hull/fuel-metrics-api/internal/models"
)

var DefaultBucketSize = decimal.RequireFromString("0.10")

func Derive(comparison models.ComparisonResult, bucketSize decimal.Decimal) *models.PriceStatistics {
	if !bucketSize.IsPositive() {
		bucketSize = DefaultBucketSize
	}
	stats := &models.PriceStatistics{
		CheapestCities:     []string{},
		PriceDistribution:  make(map[string]int),
		RegionDistribution: make(map[string]int),
	}

	ranking := comparison.Ranking
	if len(ranking) == 0 {
		return stats
	}
	stats.Count = len(ranking)

	// Ranking is ordered by price, cheapest first
	lowest, highest := ranking[0].Price, ranking[len(ranking)-1].Price
	stats.LowestPrice = lowest
	stats.HighestPrice = highest
	stats.Range = highest.Sub(lowest)

	sum := decimal.Zero
	prices := make([]float64, 0, len(ranking))
	for _, rc := range ranking {
		if rc.Price.Equal(lowest) {
			stats.CheapestCities = append(stats.CheapestCities, rc.City)
		}
		if rc.Region != "" {
			stats.RegionDistribution[rc.Region]++
		}
		sum = sum.Add(rc.Price)
		prices = append(prices, rc.Price.InexactFloat64())

		start := rc.Price.Div(bucketSize).Floor().Mul(bucketSize)
		end := start.Add(bucketSize).Sub(decimal.New(1, -2))
		stats.PriceDistribution[start.StringFixed(2)+"-"+end.StringFixed(2)]++
	}
	stats.AveragePrice = sum.Div(decimal.NewFromInt(int64(len(ranking)))).Round(3)

	sort.Float64s(prices)
	mean, std := stat.PopMeanStdDev(prices, nil)
	stats.StandardDeviation = round(std, 4)
	stats.InterquartileRange = round(stat.Quantile(0.75, stat.Empirical, prices, nil)-stat.Quantile(0.25, stat.Empirical, prices, nil), 4)
	if mean > 0 {
		stats.CoefficientOfVariation = round(std/mean, 4)
	}
	stats.Gini = round(gini(prices), 4)

	return stats
}

// ByRegion derives statistics over each region's share of the ranking. Every
// name in regionNames is listed, with empty statistics where no city of that
// region was ranked, as is any other region found in the ranking.
func ByRegion(comparison models.ComparisonResult, regionNames []string, bucketSize decimal.Decimal) []models.RegionSummary {
	byRegion := make(map[string][]models.RankedCity)
	for _, rc := range comparison.Ranking {
		byRegion[rc.Region] = append(byRegion[rc.Region], rc)
	}

	names := slices.Clone(regionNames)
	for region := range byRegion {
		if !slices.Contains(names, region) {
			names = append(names, region)
		}
	}
	sort.Strings(names)

	summaries := make([]models.RegionSummary, 0, len(names))
	for _, region := range names {
		share := comparison
		share.Ranking = byRegion[region]
		summaries = append(summaries, models.RegionSummary{
			Region:     region,
			Statistics: Derive(share, bucketSize),
		})
	}
	return summaries
}

// gini expects sorted, positive values.
func gini(sorted []float64) float64 {
	n := float64(len(sorted))
	var weighted, total float64
	for i, v := range sorted {
		weighted += (2*float64(i+1) - n - 1) * v
		total += v
	}
	if total == 0 {
		return 0
	}
	return weighted / (n * total)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
