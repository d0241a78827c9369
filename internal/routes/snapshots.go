package routes

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kofalt/go-memoize"

	"github.com/rm-hull/fuel-metrics-api/internal"
	"github.com/rm-hull/fuel-metrics-api/internal/models"
)

// Snapshots memoizes repository reads so that repeated queries for the same
// region, cities and instant hit the database once per TTL.
type Snapshots struct {
	repo      internal.ObservationsRepository
	memo      *memoize.Memoizer
	retention time.Duration
}

func NewSnapshots(repo internal.ObservationsRepository, ttl, retention time.Duration) *Snapshots {
	return &Snapshots{
		repo:      repo,
		memo:      memoize.NewMemoizer(ttl, 2*ttl),
		retention: retention,
	}
}

// Invalidate drops every cached snapshot, e.g. after new observations land.
func (s *Snapshots) Invalidate() {
	s.memo.Storage.Flush()
}

func (s *Snapshots) RegionSeries(region string, fuelType models.FuelType, window time.Duration, at time.Time) (models.Series, error) {
	key := fmt.Sprintf("region|%s|%s|%s|%s", region, fuelType, window, at.Format(time.RFC3339Nano))
	value, err, _ := s.memo.Memoize(key, func() (interface{}, error) {
		return s.repo.RegionSeries(region, fuelType, at.Add(-window), at)
	})
	if err != nil {
		return models.Series{}, err
	}
	return value.(models.Series), nil
}

// CitySeries loads everything within the retention period so the comparator
// can fall back to older prices for cities surveyed less often.
func (s *Snapshots) CitySeries(cities []string, fuelType models.FuelType, at time.Time) (map[string]models.Series, error) {
	sorted := append([]string(nil), cities...)
	sort.Strings(sorted)
	key := fmt.Sprintf("cities|%s|%s|%s", strings.Join(sorted, ","), fuelType, at.Format(time.RFC3339Nano))
	value, err, _ := s.memo.Memoize(key, func() (interface{}, error) {
		return s.repo.CitySeries(sorted, fuelType, at.Add(-s.retention), at)
	})
	if err != nil {
		return nil, err
	}
	return value.(map[string]models.Series), nil
}

func (s *Snapshots) ScopeSeries(scope models.Scope, fuelType models.FuelType, at time.Time) (map[string]models.Series, error) {
	key := fmt.Sprintf("scope|%s|%s|%s|%s", scope.State, scope.Region, fuelType, at.Format(time.RFC3339Nano))
	value, err, _ := s.memo.Memoize(key, func() (interface{}, error) {
		return s.repo.ScopeSeries(scope, fuelType, at.Add(-s.retention), at)
	})
	if err != nil {
		return nil, err
	}
	return value.(map[string]models.Series), nil
}

func (s *Snapshots) SearchCities(query string, limit int) ([]models.CityMatch, error) {
	key := fmt.Sprintf("search|%s|%d", query, limit)
	value, err, _ := s.memo.Memoize(key, func() (interface{}, error) {
		return s.repo.SearchCities(query, limit)
	})
	if err != nil {
		return nil, err
	}
	return value.([]models.CityMatch), nil
}

func (s *Snapshots) LastUpdated() *time.Time {
	value, err, _ := s.memo.Memoize("last-updated", func() (interface{}, error) {
		return s.repo.LastCollected()
	})
	if err != nil {
		return nil
	}
	return value.(*time.Time)
}
