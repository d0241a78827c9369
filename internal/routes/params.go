package routes

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/rm-hull/fuel-metrics-api/internal/models"
	"github.com/rm-hull/fuel-metrics-api/internal/regions"
)

const MAX_CITIES = 50

func abortWithError(c *gin.Context, err error) {
	switch {
	case models.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "request cancelled"})
	default:
		log.Printf("error while handling %s: %v", c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal server error occurred"})
	}
}

// parseAt accepts RFC 3339 or a plain date, meaning the end of that day. An
// absent value is the current minute.
func parseAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Now().UTC().Truncate(time.Minute), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d.Add(24*time.Hour - time.Nanosecond), nil
	}
	return time.Time{}, models.ValidationErrorf("invalid at parameter %q: expected RFC 3339 or YYYY-MM-DD", s)
}

// parseWindow accepts Go durations plus a day suffix ("7d").
func parseWindow(s string, fallback time.Duration) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, nil
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, models.ValidationErrorf("invalid window %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, models.ValidationErrorf("invalid window %q", s)
	}
	return d, nil
}

func parseCities(s string) ([]string, error) {
	seen := make(map[string]bool)
	var cities []string
	for part := range strings.SplitSeq(s, ",") {
		city := models.Fold(part)
		if city == "" || seen[city] {
			continue
		}
		seen[city] = true
		cities = append(cities, city)
	}
	if len(cities) == 0 {
		return nil, models.ValidationErrorf("cities parameter must list at least one city")
	}
	if len(cities) > MAX_CITIES {
		return nil, models.ValidationErrorf("no more than %d cities may be compared, got %d", MAX_CITIES, len(cities))
	}
	return cities, nil
}

// parseDistances reads "CITY:km,CITY:km".
func parseDistances(s string) (map[string]float64, error) {
	distances := make(map[string]float64)
	if strings.TrimSpace(s) == "" {
		return distances, nil
	}
	for part := range strings.SplitSeq(s, ",") {
		city, km, ok := strings.Cut(part, ":")
		if !ok {
			return nil, models.ValidationErrorf("invalid distance %q: expected CITY:km", part)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(km), 64)
		if err != nil || v < 0 {
			return nil, models.ValidationErrorf("invalid distance for %s: %q", city, km)
		}
		distances[models.Fold(city)] = v
	}
	return distances, nil
}

func parseLimit(s string, fallback, maximum int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > maximum {
		return 0, models.ValidationErrorf("invalid limit %q: expected 1 to %d", s, maximum)
	}
	return n, nil
}

// parseScope resolves a state (sigla or name) and a region (name or sigla).
// A state outside the given region is an error rather than an empty result.
func parseScope(state, region string) (models.Scope, error) {
	var scope models.Scope
	states, err := regions.Default()
	if err != nil {
		return scope, err
	}

	if region = regions.ExpandRegion(models.Fold(region)); region != "" {
		if !knownRegion(region) {
			return scope, models.ValidationErrorf("unknown region: %q", region)
		}
		scope.Region = region
	}

	if state = models.Fold(state); state != "" {
		st, ok := states.Lookup(state)
		if !ok {
			return scope, models.ValidationErrorf("unknown state: %q", state)
		}
		if scope.Region != "" && st.Region != scope.Region {
			return scope, models.ValidationErrorf("state %s is not in region %s", st.Sigla, scope.Region)
		}
		scope.State = st.Sigla
	}

	return scope, nil
}
