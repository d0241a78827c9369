package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/rm-hull/fuel-metrics-api/internal"
	"github.com/rm-hull/fuel-metrics-api/internal/engine"
	"github.com/rm-hull/fuel-metrics-api/internal/models"
)

type simulateRequest struct {
	Route       models.Route          `json:"route"`
	Vehicle     models.VehicleProfile `json:"vehicle"`
	CurrentFuel decimal.Decimal       `json:"current_fuel"`
	At          string                `json:"at"`
}

// Simulate plans the refuel stops for a trip using the latest stored price of
// each waypoint city for the vehicle's fuel.
func Simulate(eng *engine.Engine, snapshots *Snapshots) func(c *gin.Context) {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

		var req simulateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
			return
		}

		fuelType, err := models.FuelTypeFromQuery(string(req.Vehicle.FuelType))
		if err != nil {
			abortWithError(c, err)
			return
		}
		req.Vehicle.FuelType = fuelType

		at, err := parseAt(req.At)
		if err != nil {
			abortWithError(c, err)
			return
		}

		if len(req.Route) > MAX_CITIES {
			c.JSON(http.StatusBadRequest, gin.H{"error": "route has too many waypoints"})
			return
		}
		cities := make([]string, 0, len(req.Route))
		for i := range req.Route {
			req.Route[i].City = models.Fold(req.Route[i].City)
			cities = append(cities, req.Route[i].City)
		}

		seriesByCity, err := snapshots.CitySeries(cities, fuelType, at)
		if err != nil {
			abortWithError(c, err)
			return
		}

		seriesByRegion := make(map[string]models.Series)
		for _, series := range seriesByCity {
			latest, ok := series.Latest(at)
			if !ok {
				continue
			}
			if _, done := seriesByRegion[latest.Region]; done {
				continue
			}
			regionSeries, err := snapshots.RegionSeries(latest.Region, fuelType, eng.Config().TrendWindow, at)
			if err != nil {
				abortWithError(c, err)
				return
			}
			seriesByRegion[latest.Region] = regionSeries
		}

		plan, err := eng.PlanTrip(c.Request.Context(), engine.TripRequest{
			Route:       req.Route,
			Vehicle:     req.Vehicle,
			CurrentFuel: req.CurrentFuel,
			Cities:      seriesByCity,
			Regions:     seriesByRegion,
			At:          at,
		})
		if err != nil {
			abortWithError(c, err)
			return
		}

		recommendations := plan.Recommendations
		if recommendations == nil {
			recommendations = []models.Recommendation{}
		}
		c.JSON(http.StatusOK, models.SimulationResponse{
			Simulation:      plan.Simulation,
			Comparison:      plan.Comparison,
			Recommendations: recommendations,
			Attribution:     internal.ATTRIBUTION,
			LastUpdated:     snapshots.LastUpdated(),
		})
	}
}
