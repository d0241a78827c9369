package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rm-hull/fuel-metrics-api/internal"
	"github.com/rm-hull/fuel-metrics-api/internal/engine"
	"github.com/rm-hull/fuel-metrics-api/internal/models"
	"github.com/rm-hull/fuel-metrics-api/internal/stats"
)

func Compare(eng *engine.Engine, snapshots *Snapshots) func(c *gin.Context) {
	return func(c *gin.Context) {
		cities, err := parseCities(c.Query("cities"))
		if err != nil {
			abortWithError(c, err)
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

		seriesByCity, err := snapshots.CitySeries(cities, fuelType, at)
		if err != nil {
			abortWithError(c, err)
			return
		}

		comparison, err := eng.CompareCities(c.Request.Context(), seriesByCity, fuelType, at)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.ComparisonResponse{
			Comparison:  comparison,
			Statistics:  stats.Derive(comparison, stats.DefaultBucketSize),
			Attribution: internal.ATTRIBUTION,
			LastUpdated: snapshots.LastUpdated(),
		})
	}
}
