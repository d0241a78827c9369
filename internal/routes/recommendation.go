package routes

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/rm-hull/fuel-metrics-api/internal"
	"github.com/rm-hull/fuel-metrics-api/internal/engine"
	"github.com/rm-hull/fuel-metrics-api/internal/models"
	"github.com/rm-hull/fuel-metrics-api/internal/recommend"
	"github.com/rm-hull/fuel-metrics-api/internal/regions"
)

// Recommendation compares the subject city with its alternatives and folds in
// the regional trend. The region defaults to the one the city was last
// observed in.
func Recommendation(eng *engine.Engine, snapshots *Snapshots) func(c *gin.Context) {
	return func(c *gin.Context) {
		city := models.Fold(c.Query("city"))
		if city == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "city parameter is required"})
			return
		}
		fuelType, err := models.FuelTypeFromQuery(c.Query("fuel_type"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		at, err := parseAt(c.Query("at"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		distances, err := parseDistances(c.Query("distances"))
		if err != nil {
			abortWithError(c, err)
			return
		}

		cities := []string{city}
		if q := c.Query("cities"); q != "" {
			others, err := parseCities(q)
			if err != nil {
				abortWithError(c, err)
				return
			}
			cities = append(cities, others...)
		}
		for other := range distances {
			cities = append(cities, other)
		}
		slices.Sort(cities)
		cities = slices.Compact(cities)

		seriesByCity, err := snapshots.CitySeries(cities, fuelType, at)
		if err != nil {
			abortWithError(c, err)
			return
		}

		region := regions.ExpandRegion(models.Fold(c.Query("region")))
		if region == "" {
			if latest, ok := seriesByCity[city].Latest(at); ok {
				region = latest.Region
			}
		}

		regionSeries := models.Series{Key: models.SeriesKey{Name: region, FuelType: fuelType}}
		if region != "" {
			if regionSeries, err = snapshots.RegionSeries(region, fuelType, eng.Config().TrendWindow, at); err != nil {
				abortWithError(c, err)
				return
			}
		}

		advice, err := eng.Advise(c.Request.Context(), engine.AdviceRequest{
			Region:   regionSeries,
			Cities:   seriesByCity,
			FuelType: fuelType,
			At:       at,
			Subject:  recommend.Subject{Name: city, City: city, DistancesKm: distances},
		})
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.RecommendationResponse{
			Recommendation: advice.Recommendation,
			Trend:          advice.Trend,
			Comparison:     advice.Comparison,
			Attribution:    internal.ATTRIBUTION,
			LastUpdated:    snapshots.LastUpdated(),
		})
	}
}
