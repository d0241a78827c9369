package simulator

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"github.com/rm-hull/fuel-metrics-api/internal/models"
)

var (
	DefaultSafetyMargin = decimal.RequireFromString("0.10")

	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

const (
	literPlaces = 3
	moneyPlaces = 2
)

type trip struct {
	route    models.Route
	vehicle  models.VehicleProfile
	prices   map[string]decimal.Decimal
	reserve  decimal.Decimal
	maxRange decimal.Decimal
}

// Simulate plans refuel stops along the route so that the total fuel bill is
// minimised without ever running dry. Prices are a snapshot per city; a
// waypoint without a price cannot be refuelled at. The safety margin is a
// fraction of the tank kept in reserve on arrival at each intermediate stop,
// except for the final leg which is bought exactly.
func Simulate(ctx context.Context, route models.Route, vehicle models.VehicleProfile, prices map[string]decimal.Decimal, currentFuel, safetyMargin decimal.Decimal) (models.SimulationResult, error) {
	if err := route.Validate(); err != nil {
		return models.SimulationResult{}, err
	}
	if err := vehicle.Validate(); err != nil {
		return models.SimulationResult{}, err
	}
	if currentFuel.IsNegative() || currentFuel.GreaterThan(vehicle.TankCapacity) {
		return models.SimulationResult{}, models.ValidationErrorf("current fuel %s must be between 0 and the tank capacity %s", currentFuel, vehicle.TankCapacity)
	}
	if safetyMargin.IsNegative() || !safetyMargin.LessThan(one) {
		return models.SimulationResult{}, models.ValidationErrorf("safety margin %s must be in [0, 1)", safetyMargin)
	}
	for city, price := range prices {
		if !price.IsPositive() {
			return models.SimulationResult{}, models.ValidationErrorf("price for %s must be positive, got %s", city, price)
		}
	}

	t := trip{
		route:    route,
		vehicle:  vehicle,
		prices:   prices,
		reserve:  vehicle.TankCapacity.Mul(safetyMargin),
		maxRange: vehicle.MaxRangeKm(),
	}

	result := models.SimulationResult{
		Stops:             []models.RefuelStop{},
		RequiredKm:        route.TotalKm(),
		CurrentAutonomyKm: currentFuel.Mul(vehicle.Consumption),
		MaxRangeKm:        t.maxRange,
		FuelNeeded:        t.liters(route.TotalKm()).RoundCeil(literPlaces),
		TotalCost:         decimal.Zero,
		TotalLiters:       decimal.Zero,
	}

	if segment := t.infeasibleSegment(currentFuel); segment != nil {
		result.Feasible = false
		result.InfeasibleSegment = segment
		result.RemainingLiters = decimal.Zero
		result.Status = models.TripDanger
		result.Message = fmt.Sprintf("%s to %s is %s km but the vehicle can cover at most %s km without refuelling",
			segment.From, segment.To, segment.DistanceKm.StringFixed(1), segment.MaxRangeKm.StringFixed(1))
		return result, nil
	}

	fuel := currentFuel
	last := len(route) - 1
	for i := 0; i != last; {
		if err := ctx.Err(); err != nil {
			return models.SimulationResult{}, errors.Wrap(err, "trip simulation interrupted")
		}

		target, need := t.plan(i, fuel)
		if price, ok := t.priceAt(i); ok && need.GreaterThan(fuel) {
			liters := decimal.Min(need.Sub(fuel).RoundCeil(literPlaces), vehicle.TankCapacity.Sub(fuel))
			if liters.IsPositive() {
				cost := liters.Mul(price).Round(moneyPlaces)
				result.Stops = append(result.Stops, models.RefuelStop{
					City:          route[i].City,
					DistanceKm:    route[i].DistanceKm,
					FuelOnArrival: fuel.Round(literPlaces),
					Liters:        liters,
					PricePerLiter: price,
					Cost:          cost,
				})
				result.TotalCost = result.TotalCost.Add(cost)
				result.TotalLiters = result.TotalLiters.Add(liters)
				fuel = fuel.Add(liters)
			}
		}

		fuel = fuel.Sub(t.liters(t.distance(i, target)))
		if fuel.IsNegative() {
			// only reachable through division rounding
			fuel = decimal.Zero
		}
		i = target
	}

	result.Feasible = true
	result.RemainingLiters = fuel.Round(literPlaces)
	result.RemainingPercent = fuel.Div(vehicle.TankCapacity).Mul(hundred).Round(1).InexactFloat64()
	result.Status, result.Message = status(result, t.reserve)

	return result, nil
}

// plan decides where to go next from waypoint i and how much fuel must be in
// the tank on departure.
func (t trip) plan(i int, fuel decimal.Decimal) (int, decimal.Decimal) {
	last := len(t.route) - 1
	price, priced := t.priceAt(i)

	if !priced {
		// nothing to buy here: finish if possible, otherwise head for the
		// cheapest station in range
		reach := fuel.Mul(t.vehicle.Consumption)
		if !t.distance(i, last).GreaterThan(reach) {
			return last, decimal.Zero
		}
		return t.cheapestWithin(i, reach), decimal.Zero
	}

	for j := i + 1; j <= last && !t.distance(i, j).GreaterThan(t.maxRange); j++ {
		if j == last {
			return last, t.liters(t.distance(i, last))
		}
		if p, ok := t.priceAt(j); ok && p.LessThan(price) {
			need := t.liters(t.distance(i, j)).Add(t.reserve)
			return j, decimal.Min(need, t.vehicle.TankCapacity)
		}
	}

	return t.cheapestWithin(i, t.maxRange), t.vehicle.TankCapacity
}

// cheapestWithin returns the cheapest refuel point after i within reach,
// preferring the nearest on equal price.
func (t trip) cheapestWithin(i int, reach decimal.Decimal) int {
	best := -1
	var bestPrice decimal.Decimal
	for j := i + 1; j < len(t.route)-1 && !t.distance(i, j).GreaterThan(reach); j++ {
		if p, ok := t.priceAt(j); ok && (best < 0 || p.LessThan(bestPrice)) {
			best, bestPrice = j, p
		}
	}
	return best
}

// infeasibleSegment checks the gaps between consecutive points where fuel can
// be had (plus the origin and the destination). The first leg is bounded by
// the fuel already in the tank when the origin sells none.
func (t trip) infeasibleSegment(currentFuel decimal.Decimal) *models.Segment {
	last := len(t.route) - 1
	from := 0
	limit := t.maxRange
	if _, ok := t.priceAt(0); !ok {
		limit = currentFuel.Mul(t.vehicle.Consumption)
	}

	for j := 1; j <= last; j++ {
		if _, ok := t.priceAt(j); !ok && j != last {
			continue
		}
		if t.distance(from, j).GreaterThan(limit) {
			return &models.Segment{
				From:       t.route[from].City,
				To:         t.route[j].City,
				DistanceKm: t.distance(from, j),
				MaxRangeKm: limit,
			}
		}
		from, limit = j, t.maxRange
	}
	return nil
}

func (t trip) priceAt(i int) (decimal.Decimal, bool) {
	if i >= len(t.route)-1 {
		return decimal.Zero, false
	}
	p, ok := t.prices[t.route[i].City]
	return p, ok
}

func (t trip) distance(i, j int) decimal.Decimal {
	return t.route[j].DistanceKm.Sub(t.route[i].DistanceKm)
}

func (t trip) liters(km decimal.Decimal) decimal.Decimal {
	return km.Div(t.vehicle.Consumption)
}

func status(result models.SimulationResult, reserve decimal.Decimal) (models.TripStatus, string) {
	switch {
	case result.RemainingPercent < 10:
		return models.TripWarning, fmt.Sprintf("arrives with only %.1f%% in the tank (%s L); refuel on arrival", result.RemainingPercent, result.RemainingLiters)
	case result.RemainingLiters.LessThan(reserve) || result.RemainingPercent < 20:
		return models.TripWarning, fmt.Sprintf("arrives with %.1f%% in the tank (%s L); consider refuelling on the way", result.RemainingPercent, result.RemainingLiters)
	default:
		return models.TripSafe, fmt.Sprintf("safe trip, arrives with %.1f%% in the tank (%s L)", result.RemainingPercent, result.RemainingLiters)
	}
}
