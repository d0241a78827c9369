package routes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rm-hull/fuel-metrics-api/internal"
	"github.com/rm-hull/fuel-metrics-api/internal/engine"
	"github.com/rm-hull/fuel-metrics-api/internal/models"
	"github.com/rm-hull/fuel-metrics-api/internal/regions"
	"github.com/rm-hull/fuel-metrics-api/internal/trend"
)

func Trend(eng *engine.Engine, snapshots *Snapshots) func(c *gin.Context) {
	return func(c *gin.Context) {
		region := regions.ExpandRegion(models.Fold(c.Query("region")))
		if region == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "region parameter is required"})
			return
		}
		if !knownRegion(region) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown region: " + region})
			return
		}
		fuelType, err := models.FuelTypeFromQuery(c.Query("fuel_type"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		window, err := parseWindow(c.Query("window"), eng.Config().TrendWindow)
		if err != nil {
			abortWithError(c, err)
			return
		}
		at, err := parseAt(c.Query("at"))
		if err != nil {
			abortWithError(c, err)
			return
		}

		series, err := snapshots.RegionSeries(region, fuelType, window, at)
		if err != nil {
			abortWithError(c, err)
			return
		}

		result, err := eng.AnalyzeTrend(c.Request.Context(), series, trend.Window{Length: window, End: at})
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.TrendResponse{
			Trend:       result,
			Attribution: internal.ATTRIBUTION,
			LastUpdated: snapshots.LastUpdated(),
		})
	}
}

func knownRegion(region string) bool {
	states, err := regions.Default()
	if err != nil {
		return false
	}
	for _, r := range states.Regions() {
		if strings.EqualFold(r, region) {
			return true
		}
	}
	return false
}
