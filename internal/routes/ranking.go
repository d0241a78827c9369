package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rm-hull/fuel-metrics-api/internal"
	"github.com/rm-hull/fuel-metrics-api/internal/engine"
	"github.com/rm-hull/fuel-metrics-api/internal/models"
	"github.com/rm-hull/fuel-metrics-api/internal/regions"
	"github.com/rm-hull/fuel-metrics-api/internal/stats"
)

const (
	DEFAULT_LIMIT     = 10
	MAX_LIMIT         = 100
	MIN_SEARCH_LENGTH = 2
)

// Ranking lists the cheapest cities of a state, a region or the whole country
// by their latest price. Statistics cover every ranked city, not just the
// returned page.
func Ranking(eng *engine.Engine, snapshots *Snapshots) func(c *gin.Context) {
	return func(c *gin.Context) {
		scope, err := parseScope(c.Query("state"), c.Query("region"))
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
		limit, err := parseLimit(c.Query("limit"), DEFAULT_LIMIT, MAX_LIMIT)
		if err != nil {
			abortWithError(c, err)
			return
		}

		seriesByCity, err := snapshots.ScopeSeries(scope, fuelType, at)
		if err != nil {
			abortWithError(c, err)
			return
		}

		comparison, err := eng.CompareCities(c.Request.Context(), seriesByCity, fuelType, at)
		if err != nil {
			abortWithError(c, err)
			return
		}

		resp := models.RankingResponse{
			Scope:        scope,
			FuelType:     fuelType,
			At:           comparison.At,
			ComparisonId: comparison.Id,
			Ranking:      comparison.Ranking[:min(limit, len(comparison.Ranking))],
			Total:        len(comparison.Ranking),
			Statistics:   stats.Derive(comparison, stats.DefaultBucketSize),
			Attribution:  internal.ATTRIBUTION,
			LastUpdated:  snapshots.LastUpdated(),
		}
		if len(comparison.Ranking) > 0 {
			best := comparison.Ranking[0]
			resp.Best = &best
		}
		c.JSON(http.StatusOK, resp)
	}
}

// RegionSummary spreads the national ranking over the regions of the state
// table.
func RegionSummary(eng *engine.Engine, snapshots *Snapshots) func(c *gin.Context) {
	return func(c *gin.Context) {
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
		states, err := regions.Default()
		if err != nil {
			abortWithError(c, err)
			return
		}

		seriesByCity, err := snapshots.ScopeSeries(models.Scope{}, fuelType, at)
		if err != nil {
			abortWithError(c, err)
			return
		}

		comparison, err := eng.CompareCities(c.Request.Context(), seriesByCity, fuelType, at)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.RegionSummaryResponse{
			FuelType:    fuelType,
			At:          comparison.At,
			National:    stats.Derive(comparison, stats.DefaultBucketSize),
			Regions:     stats.ByRegion(comparison, states.Regions(), stats.DefaultBucketSize),
			Attribution: internal.ATTRIBUTION,
			LastUpdated: snapshots.LastUpdated(),
		})
	}
}

func CitySearch(snapshots *Snapshots) func(c *gin.Context) {
	return func(c *gin.Context) {
		query := models.Fold(c.Query("q"))
		if len([]rune(query)) < MIN_SEARCH_LENGTH {
			c.JSON(http.StatusBadRequest, gin.H{"error": "q parameter needs at least 2 characters"})
			return
		}
		limit, err := parseLimit(c.Query("limit"), DEFAULT_LIMIT, MAX_LIMIT)
		if err != nil {
			abortWithError(c, err)
			return
		}

		matches, err := snapshots.SearchCities(query, limit)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.CitySearchResponse{
			Query:       query,
			Cities:      matches,
			Attribution: internal.ATTRIBUTION,
			LastUpdated: snapshots.LastUpdated(),
		})
	}
}
