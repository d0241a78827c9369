package trend

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/rm-hull/fuel-metrics-api/internal/models"
)

const DefaultWindow = 7 * 24 * time.Hour

type Thresholds struct {
	UpPct      float64 `json:"up_pct"`
	DownPct    float64 `json:"down_pct"`
	MinSamples int     `json:"min_samples"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{UpPct: 1.5, DownPct: 1.5, MinSamples: 3}
}

// Window is the trailing span [End-Length, End]. A zero End means the
// timestamp of the last observation in the series.
type Window struct {
	Length time.Duration
	End    time.Time
}

var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://fuel-metrics/trend"))

type point struct {
	at    time.Time
	price float64
}

// Analyze computes the direction and percent change of a series over the
// window by comparing the time-weighted average price of the first and last
// thirds of the in-window samples.
func Analyze(series models.Series, window Window, thresholds Thresholds) (models.TrendResult, error) {
	if err := series.Validate(); err != nil {
		return models.TrendResult{}, err
	}
	if window.Length <= 0 {
		return models.TrendResult{}, models.ValidationErrorf("trend window must be positive, got %s", window.Length)
	}
	if thresholds.MinSamples <= 0 {
		thresholds.MinSamples = DefaultThresholds().MinSamples
	}

	end := window.End
	if end.IsZero() && len(series.Observations) > 0 {
		end = series.Observations[len(series.Observations)-1].CollectedAt
	}
	start := end.Add(-window.Length)
	inWindow := series.Between(start, end)

	result := models.TrendResult{
		Region:      series.Key.Name,
		FuelType:    series.Key.FuelType,
		WindowStart: start.UTC(),
		WindowEnd:   end.UTC(),
		SampleCount: len(inWindow),
	}
	result.Id = resultId(result)

	if len(inWindow) < thresholds.MinSamples {
		result.Direction = models.DirectionInsufficientData
		return result, nil
	}

	points := collapse(inWindow)
	weights := midpointWeights(points)
	k := max(1, len(points)/3)

	first := weightedMean(points[:k], weights[:k])
	last := weightedMean(points[len(points)-k:], weights[len(points)-k:])
	magnitude := roundTo((last-first)/first*100, 4)

	result.Magnitude = &magnitude
	result.Direction = classify(magnitude, thresholds)

	current := inWindow[len(inWindow)-1].Price
	result.CurrentPrice = &current
	if vol, ok := volatility(points); ok {
		result.Volatility = &vol
	}

	return result, nil
}

func classify(magnitude float64, thresholds Thresholds) models.Direction {
	switch {
	case magnitude > thresholds.UpPct:
		return models.DirectionUp
	case magnitude < -thresholds.DownPct:
		return models.DirectionDown
	default:
		return models.DirectionFlat
	}
}

// collapse averages observations sharing an instant (several stations or
// cities reporting at once) into a single point.
func collapse(observations []models.PriceObservation) []point {
	points := make([]point, 0, len(observations))
	for i := 0; i < len(observations); {
		j := i
		sum := decimal.Zero
		for j < len(observations) && observations[j].CollectedAt.Equal(observations[i].CollectedAt) {
			sum = sum.Add(observations[j].Price)
			j++
		}
		points = append(points, point{
			at:    observations[i].CollectedAt,
			price: sum.Div(decimal.NewFromInt(int64(j - i))).InexactFloat64(),
		})
		i = j
	}
	return points
}

// midpointWeights gives each point half the gap to each of its neighbours,
// i.e. the span of time for which it is the nearest sample.
func midpointWeights(points []point) []float64 {
	weights := make([]float64, len(points))
	for i := range points {
		if i > 0 {
			weights[i] += points[i].at.Sub(points[i-1].at).Hours() / 2
		}
		if i < len(points)-1 {
			weights[i] += points[i+1].at.Sub(points[i].at).Hours() / 2
		}
	}
	return weights
}

func weightedMean(points []point, weights []float64) float64 {
	prices := make([]float64, len(points))
	total := 0.0
	for i, p := range points {
		prices[i] = p.price
		total += weights[i]
	}
	if total == 0 {
		return stat.Mean(prices, nil)
	}
	return stat.Mean(prices, weights)
}

// volatility is the standard deviation of consecutive fractional changes.
func volatility(points []point) (float64, bool) {
	if len(points) < 3 {
		return 0, false
	}
	changes := make([]float64, len(points)-1)
	for i := 1; i < len(points); i++ {
		changes[i-1] = (points[i].price - points[i-1].price) / points[i-1].price
	}
	return roundTo(stat.StdDev(changes, nil), 6), true
}

func roundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

func resultId(r models.TrendResult) string {
	key := fmt.Sprintf("%s|%s|%s|%s|%d", r.Region, r.FuelType, r.WindowStart.Format(time.RFC3339Nano), r.WindowEnd.Format(time.RFC3339Nano), r.SampleCount)
	return uuid.NewSHA1(namespace, []byte(key)).String()
}
