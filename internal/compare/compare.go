package compare

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rm-hull/fuel-metrics-api/internal/models"
)

const DefaultOutlierThreshold = 10.0

const pricePlaces = 3

var (
	two       = decimal.NewFromInt(2)
	hundred   = decimal.NewFromInt(100)
	fifty     = decimal.NewFromInt(50)
	namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://fuel-metrics/comparison"))
)

// Cities ranks each city by its most recent price at or before the instant;
// when several stations reported at that instant the city price is their
// mean. Cities with no observation by then are listed as excluded. The result does
// not depend on map iteration order.
func Cities(seriesByCity map[string]models.Series, fuelType models.FuelType, at time.Time, outlierThreshold float64) (models.ComparisonResult, error) {
	if outlierThreshold < 0 {
		return models.ComparisonResult{}, models.ValidationErrorf("outlier threshold must not be negative, got %f", outlierThreshold)
	}

	result := models.ComparisonResult{
		FuelType:         fuelType,
		At:               at.UTC(),
		OutlierThreshold: outlierThreshold,
		Ranking:          make([]models.RankedCity, 0, len(seriesByCity)),
	}

	for city, series := range seriesByCity {
		if series.Key.FuelType != "" && series.Key.FuelType != fuelType {
			return models.ComparisonResult{}, models.ValidationErrorf("series for %s is %s, expected %s", city, series.Key.FuelType, fuelType)
		}
		if err := series.Validate(); err != nil {
			return models.ComparisonResult{}, err
		}
		latest := series.LatestInstant(at)
		if len(latest) == 0 {
			result.Excluded = append(result.Excluded, city)
			continue
		}
		last := latest[len(latest)-1]
		result.Ranking = append(result.Ranking, models.RankedCity{
			City:       city,
			Region:     last.Region,
			Price:      meanPrice(latest),
			Samples:    len(latest),
			ObservedAt: last.CollectedAt,
		})
	}
	sort.Strings(result.Excluded)

	sort.Slice(result.Ranking, func(i, j int) bool {
		a, b := result.Ranking[i], result.Ranking[j]
		if c := a.Price.Cmp(b.Price); c != 0 {
			return c < 0
		}
		return a.City < b.City
	})

	if len(result.Ranking) > 0 {
		result.Median = median(result.Ranking)
	}

	for i := range result.Ranking {
		rc := &result.Ranking[i]
		rc.Rank = i + 1
		rc.DeltaFromMedian = rc.Price.Sub(result.Median)
		if result.Median.IsPositive() {
			rc.DeltaPct = rc.DeltaFromMedian.Div(result.Median).Mul(hundred).Round(4).InexactFloat64()
		}
		rc.Outlier = len(result.Ranking) >= 2 && abs(rc.DeltaPct) > outlierThreshold
	}

	if len(result.Ranking) >= 2 {
		result.Savings = savings(result.Ranking)
	}
	result.Id = resultId(result)

	return result, nil
}

func meanPrice(observations []models.PriceObservation) decimal.Decimal {
	sum := decimal.Zero
	for _, obs := range observations {
		sum = sum.Add(obs.Price)
	}
	return sum.Div(decimal.NewFromInt(int64(len(observations)))).Round(pricePlaces)
}

// median expects ranking to be sorted by price.
func median(ranking []models.RankedCity) decimal.Decimal {
	n := len(ranking)
	if n%2 == 1 {
		return ranking[n/2].Price
	}
	return ranking[n/2-1].Price.Add(ranking[n/2].Price).Div(two)
}

func savings(ranking []models.RankedCity) *models.Savings {
	cheapest, priciest := ranking[0], ranking[len(ranking)-1]
	perLiter := priciest.Price.Sub(cheapest.Price)
	return &models.Savings{
		PerLiter:     perLiter,
		Percentage:   perLiter.Div(priciest.Price).Mul(hundred).Round(2).InexactFloat64(),
		Per50Liters:  perLiter.Mul(fifty).Round(2),
		CheapestCity: cheapest.City,
		PriciestCity: priciest.City,
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func resultId(r models.ComparisonResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s|%s", r.FuelType, r.At.Format(time.RFC3339Nano))
	for _, rc := range r.Ranking {
		fmt.Fprintf(&sb, "|%s=%s", rc.City, rc.Price)
	}
	return uuid.NewSHA1(namespace, []byte(sb.String())).String()
}
