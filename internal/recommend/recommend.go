package recommend

import (
	"fmt"
	"math"
	"sort"

	"github.com/rm-hull/fuel-metrics-api/internal/models"
)

type Policy struct {
	MaxDetourKm         float64 `json:"max_detour_km"`
	SampleSaturation    int     `json:"sample_saturation"`
	DeviationSaturation float64 `json:"deviation_saturation"`
}

func DefaultPolicy() Policy {
	return Policy{MaxDetourKm: 50, SampleSaturation: 30, DeviationSaturation: 10}
}

// Subject is the place the advice is for: a city whose price is compared
// against the median, and the distance (km) to other candidate cities that a
// detour could reach.
type Subject struct {
	Name        string             `json:"name"`
	City        string             `json:"city"`
	DistancesKm map[string]float64 `json:"distances_km,omitempty"`
}

type position string

const (
	belowMedian position = "below"
	aboveMedian position = "above"
)

type rule struct {
	action models.Action
	reason string
}

// decisions maps (trend direction, price vs. median) to an action. Detour is
// downgraded to buy-now when no cheaper city is within reach.
var decisions = map[models.Direction]map[position]rule{
	models.DirectionDown: {
		belowMedian: {models.ActionWait, "prices are falling"},
		aboveMedian: {models.ActionWait, "prices are falling"},
	},
	models.DirectionUp: {
		belowMedian: {models.ActionBuyNow, "prices are rising and this city is below the median"},
		aboveMedian: {models.ActionDetour, "prices are rising and this city is above the median"},
	},
	models.DirectionFlat: {
		belowMedian: {models.ActionBuyNow, "prices are stable and this city is below the median"},
		aboveMedian: {models.ActionWait, "prices are stable and this city is above the median"},
	},
	models.DirectionInsufficientData: {
		belowMedian: {models.ActionNoRecommendation, "not enough samples to establish a trend"},
		aboveMedian: {models.ActionNoRecommendation, "not enough samples to establish a trend"},
	},
}

// Recommend turns a trend and a comparison for the same fuel into a single
// action. It always returns a value: missing context lowers the confidence
// rather than failing.
func Recommend(trend models.TrendResult, comparison models.ComparisonResult, subject Subject, policy Policy) models.Recommendation {
	rec := models.Recommendation{
		Subject:  subject.Name,
		FuelType: comparison.FuelType,
		Rationale: models.Rationale{
			TrendId:      trend.Id,
			ComparisonId: comparison.Id,
		},
	}
	if rec.Subject == "" {
		rec.Subject = subject.City
	}
	if rec.FuelType == "" {
		rec.FuelType = trend.FuelType
	}

	ranked, found := comparison.Find(subject.City)
	if !found {
		rec.Action = models.ActionNoRecommendation
		rec.Rationale.Reason = fmt.Sprintf("no current price for %s", subject.City)
		return rec
	}

	pos := belowMedian
	if ranked.DeltaFromMedian.IsPositive() {
		pos = aboveMedian
	}

	row, ok := decisions[trend.Direction]
	if !ok {
		row = decisions[models.DirectionInsufficientData]
	}
	r := row[pos]
	rec.Action = r.action
	rec.Rationale.Reason = r.reason

	if rec.Action == models.ActionNoRecommendation {
		return rec
	}

	if rec.Action == models.ActionDetour {
		if city, ok := detourTarget(comparison, ranked, subject, policy); ok {
			rec.DetourCity = city.City
			rec.Rationale.Reason = fmt.Sprintf("%s; %s is %s cheaper within %.0f km", r.reason, city.City, ranked.Price.Sub(city.Price).StringFixed(3), subject.DistancesKm[city.City])
		} else {
			rec.Action = models.ActionBuyNow
			rec.Rationale.Reason = fmt.Sprintf("%s; no cheaper city within %.0f km", r.reason, policy.MaxDetourKm)
		}
	}

	rec.Confidence = confidence(trend.SampleCount, ranked.DeltaPct, policy)
	return rec
}

// detourTarget picks the cheapest city within the detour radius, nearest first
// on equal price.
func detourTarget(comparison models.ComparisonResult, subject models.RankedCity, s Subject, policy Policy) (models.RankedCity, bool) {
	var candidates []models.RankedCity
	for _, rc := range comparison.Ranking {
		if rc.City == subject.City || !rc.Price.LessThan(subject.Price) {
			continue
		}
		dist, known := s.DistancesKm[rc.City]
		if !known || dist < 0 || dist > policy.MaxDetourKm {
			continue
		}
		candidates = append(candidates, rc)
	}
	if len(candidates) == 0 {
		return models.RankedCity{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if c := candidates[i].Price.Cmp(candidates[j].Price); c != 0 {
			return c < 0
		}
		return s.DistancesKm[candidates[i].City] < s.DistancesKm[candidates[j].City]
	})
	return candidates[0], true
}

// confidence grows with both the number of samples behind the trend and the
// size of the deviation from the median, each saturating at the policy limit.
func confidence(samples int, deltaPct float64, policy Policy) float64 {
	if policy.SampleSaturation <= 0 {
		policy.SampleSaturation = DefaultPolicy().SampleSaturation
	}
	if policy.DeviationSaturation <= 0 {
		policy.DeviationSaturation = DefaultPolicy().DeviationSaturation
	}
	s := math.Min(1, float64(samples)/float64(policy.SampleSaturation))
	d := math.Min(1, math.Abs(deltaPct)/policy.DeviationSaturation)
	return math.Min(1, math.Round((0.5*s+0.5*d)*1e4)/1e4)
}
