package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/rm-hull/fuel-metrics-api/internal/compare"
	"github.com/rm-hull/fuel-metrics-api/internal/config"
	"github.com/rm-hull/fuel-metrics-api/internal/models"
	"github.com/rm-hull/fuel-metrics-api/internal/normalize"
	"github.com/rm-hull/fuel-metrics-api/internal/recommend"
	"github.com/rm-hull/fuel-metrics-api/internal/regions"
	"github.com/rm-hull/fuel-metrics-api/internal/simulator"
	"github.com/rm-hull/fuel-metrics-api/internal/trend"
)

// Engine binds the analytical components to one configuration. It holds no
// mutable state and never reads the clock: every instant is supplied by the
// caller. It is safe for concurrent use.
type Engine struct {
	cfg    config.Config
	states regions.States
}

func New(cfg config.Config, states regions.States) *Engine {
	return &Engine{
		cfg:    cfg,
		states: states,
	}
}

func (e *Engine) Config() config.Config {
	return e.cfg
}

func (e *Engine) Normalize(raws []models.RawObservation, now time.Time) normalize.Result {
	return normalize.Normalize(raws, now, normalize.Options{States: e.states})
}

// AnalyzeTrend uses the configured window length when the window has none.
func (e *Engine) AnalyzeTrend(ctx context.Context, series models.Series, window trend.Window) (models.TrendResult, error) {
	if err := ctx.Err(); err != nil {
		return models.TrendResult{}, errors.Wrap(err, "trend analysis cancelled")
	}
	if window.Length == 0 {
		window.Length = e.cfg.TrendWindow
	}
	return trend.Analyze(series, window, e.cfg.Thresholds())
}

func (e *Engine) CompareCities(ctx context.Context, seriesByCity map[string]models.Series, fuelType models.FuelType, at time.Time) (models.ComparisonResult, error) {
	if err := ctx.Err(); err != nil {
		return models.ComparisonResult{}, errors.Wrap(err, "city comparison cancelled")
	}
	if err := requireInstant(at); err != nil {
		return models.ComparisonResult{}, err
	}
	return compare.Cities(seriesByCity, fuelType, at.UTC(), e.cfg.OutlierThresholdPct)
}

func (e *Engine) Recommend(trendResult models.TrendResult, comparison models.ComparisonResult, subject recommend.Subject) models.Recommendation {
	return recommend.Recommend(trendResult, comparison, subject, e.cfg.Policy())
}

func (e *Engine) SimulateTrip(ctx context.Context, route models.Route, vehicle models.VehicleProfile, prices map[string]decimal.Decimal, currentFuel decimal.Decimal) (models.SimulationResult, error) {
	return simulator.Simulate(ctx, route, vehicle, prices, currentFuel, e.cfg.SafetyMargin())
}

// AdviceRequest evaluates prices at At, which is required.
type AdviceRequest struct {
	Region   models.Series
	Cities   map[string]models.Series
	FuelType models.FuelType
	At       time.Time
	Subject  recommend.Subject
}

type Advice struct {
	Trend          models.TrendResult      `json:"trend"`
	Comparison     models.ComparisonResult `json:"comparison"`
	Recommendation models.Recommendation   `json:"recommendation"`
}

// Advise runs the trend analysis and the city comparison side by side, then
// folds both into a recommendation for the subject.
func (e *Engine) Advise(ctx context.Context, req AdviceRequest) (Advice, error) {
	if err := requireInstant(req.At); err != nil {
		return Advice{}, err
	}
	at := req.At.UTC()
	var advice Advice

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		advice.Trend, err = e.AnalyzeTrend(gctx, req.Region, trend.Window{End: at})
		return err
	})
	g.Go(func() error {
		var err error
		advice.Comparison, err = e.CompareCities(gctx, req.Cities, req.FuelType, at)
		return err
	})
	if err := g.Wait(); err != nil {
		return Advice{}, err
	}

	advice.Recommendation = e.Recommend(advice.Trend, advice.Comparison, req.Subject)
	return advice, nil
}

// TripRequest carries the price history of the waypoint cities for the
// vehicle's fuel type in Cities, and the regional series used to judge each
// stop in Regions. At is required.
type TripRequest struct {
	Route       models.Route
	Vehicle     models.VehicleProfile
	CurrentFuel decimal.Decimal
	Cities      map[string]models.Series
	Regions     map[string]models.Series
	At          time.Time
}

type TripPlan struct {
	Comparison      models.ComparisonResult `json:"comparison"`
	Simulation      models.SimulationResult `json:"simulation"`
	Recommendations []models.Recommendation `json:"recommendations,omitempty"`
}

// PlanTrip snapshots the waypoint prices through a comparison, simulates the
// trip against that snapshot and attaches a recommendation to every stop.
func (e *Engine) PlanTrip(ctx context.Context, req TripRequest) (TripPlan, error) {
	if err := requireInstant(req.At); err != nil {
		return TripPlan{}, err
	}
	at := req.At.UTC()

	comparison, err := e.CompareCities(ctx, req.Cities, req.Vehicle.FuelType, at)
	if err != nil {
		return TripPlan{}, err
	}

	simulation, err := e.SimulateTrip(ctx, req.Route, req.Vehicle, comparison.Prices(), req.CurrentFuel)
	if err != nil {
		return TripPlan{}, err
	}

	plan := TripPlan{Comparison: comparison, Simulation: simulation}
	if !simulation.Feasible || len(simulation.Stops) == 0 {
		return plan, nil
	}

	trends, err := e.regionTrends(ctx, req.Regions, comparison, simulation.Stops, at)
	if err != nil {
		return TripPlan{}, err
	}

	for _, stop := range simulation.Stops {
		ranked, _ := comparison.Find(stop.City)
		subject := recommend.Subject{Name: stop.City, City: stop.City, DistancesKm: distancesFrom(req.Route, stop)}
		plan.Recommendations = append(plan.Recommendations, e.Recommend(trends[ranked.Region], comparison, subject))
	}
	return plan, nil
}

// regionTrends analyses each distinct region visited by a stop once.
func (e *Engine) regionTrends(ctx context.Context, seriesByRegion map[string]models.Series, comparison models.ComparisonResult, stops []models.RefuelStop, at time.Time) (map[string]models.TrendResult, error) {
	var names []string
	seen := make(map[string]bool)
	for _, stop := range stops {
		ranked, _ := comparison.Find(stop.City)
		if !seen[ranked.Region] {
			seen[ranked.Region] = true
			names = append(names, ranked.Region)
		}
	}
	sort.Strings(names)

	var mu sync.Mutex
	trends := make(map[string]models.TrendResult, len(names))

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range names {
		g.Go(func() error {
			series, ok := seriesByRegion[name]
			if !ok {
				series = models.Series{Key: models.SeriesKey{Name: name, FuelType: comparison.FuelType}}
			}
			result, err := e.AnalyzeTrend(gctx, series, trend.Window{End: at})
			if err != nil {
				return errors.Wrapf(err, "trend for region %q", name)
			}
			mu.Lock()
			trends[name] = result
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return trends, nil
}

// distancesFrom gives the along-route distance from a stop to every later
// waypoint, which bounds the detours worth suggesting.
func distancesFrom(route models.Route, stop models.RefuelStop) map[string]float64 {
	distances := make(map[string]float64)
	for _, wp := range route {
		if wp.DistanceKm.GreaterThan(stop.DistanceKm) {
			distances[wp.City] = wp.DistanceKm.Sub(stop.DistanceKm).InexactFloat64()
		}
	}
	return distances
}

func requireInstant(at time.Time) error {
	if at.IsZero() {
		return models.ValidationErrorf("an instant to evaluate prices at is required")
	}
	return nil
}
