package models

import (
	"github.com/shopspring/decimal"
)

type Waypoint struct {
	City       string          `json:"city"`
	DistanceKm decimal.Decimal `json:"distance_km"` // cumulative from the origin
}

type Route []Waypoint

func (r Route) Validate() error {
	if len(r) < 2 {
		return ValidationErrorf("route needs at least an origin and a destination, got %d waypoints", len(r))
	}
	if r[0].DistanceKm.IsNegative() {
		return ValidationErrorf("route origin %q has a negative distance", r[0].City)
	}
	for i, wp := range r {
		if wp.City == "" {
			return ValidationErrorf("waypoint %d has no city", i)
		}
		if i > 0 && !wp.DistanceKm.GreaterThan(r[i-1].DistanceKm) {
			return ValidationErrorf("waypoint %d (%s): distances must be strictly increasing", i, wp.City)
		}
	}
	return nil
}

func (r Route) TotalKm() decimal.Decimal {
	if len(r) == 0 {
		return decimal.Zero
	}
	return r[len(r)-1].DistanceKm.Sub(r[0].DistanceKm)
}

type VehicleProfile struct {
	TankCapacity decimal.Decimal `json:"tank_capacity"` // liters
	Consumption  decimal.Decimal `json:"consumption"`   // km per liter
	FuelType     FuelType        `json:"fuel_type"`
}

func (v VehicleProfile) Validate() error {
	if !v.TankCapacity.IsPositive() {
		return ValidationErrorf("tank capacity must be positive, got %s", v.TankCapacity)
	}
	if !v.Consumption.IsPositive() {
		return ValidationErrorf("consumption must be positive, got %s", v.Consumption)
	}
	return nil
}

// MaxRangeKm is the distance covered on a full tank.
func (v VehicleProfile) MaxRangeKm() decimal.Decimal {
	return v.TankCapacity.Mul(v.Consumption)
}

type RefuelStop struct {
	City          string          `json:"city"`
	DistanceKm    decimal.Decimal `json:"distance_km"`
	FuelOnArrival decimal.Decimal `json:"fuel_on_arrival"`
	Liters        decimal.Decimal `json:"liters"`
	PricePerLiter decimal.Decimal `json:"price_per_liter"`
	Cost          decimal.Decimal `json:"cost"`
}

type Segment struct {
	From       string          `json:"from"`
	To         string          `json:"to"`
	DistanceKm decimal.Decimal `json:"distance_km"`
	MaxRangeKm decimal.Decimal `json:"max_range_km"`
}

type TripStatus string

const (
	TripSafe    TripStatus = "safe"
	TripWarning TripStatus = "warning"
	TripDanger  TripStatus = "danger"
)

type SimulationResult struct {
	Feasible          bool            `json:"feasible"`
	InfeasibleSegment *Segment        `json:"infeasible_segment,omitempty"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	TotalLiters       decimal.Decimal `json:"total_liters"`
	Stops             []RefuelStop    `json:"stops"`
	RequiredKm        decimal.Decimal `json:"required_km"`
	CurrentAutonomyKm decimal.Decimal `json:"current_autonomy_km"`
	MaxRangeKm        decimal.Decimal `json:"max_range_km"`
	FuelNeeded        decimal.Decimal `json:"fuel_needed"`
	RemainingLiters   decimal.Decimal `json:"remaining_liters"`
	RemainingPercent  float64         `json:"remaining_percent"`
	Status            TripStatus      `json:"status"`
	Message           string          `json:"message"`
}
