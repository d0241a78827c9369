package models

import (
	"sort"
	"time"
)

// SeriesKey identifies a NormalizedSeries: Name is a region for regional
// series and a city for per-city series.
type SeriesKey struct {
	Name     string   `json:"name"`
	FuelType FuelType `json:"fuel_type"`
}

// Series is an ordered-by-time sequence of observations sharing one key.
type Series struct {
	Key          SeriesKey          `json:"key"`
	Observations []PriceObservation `json:"observations"`
}

type stationInstant struct {
	station string
	city    string
	at      int64
}

// Validate checks the ordering invariants. A violation means the series was
// not built through the normalizer, so it is reported rather than repaired.
func (s Series) Validate() error {
	seen := make(map[stationInstant]struct{}, len(s.Observations))
	for i, obs := range s.Observations {
		if i > 0 && obs.CollectedAt.Before(s.Observations[i-1].CollectedAt) {
			return ValidationErrorf("series %s/%s: timestamps not monotonic at index %d", s.Key.Name, s.Key.FuelType, i)
		}
		key := stationInstant{station: obs.StationId, city: obs.City, at: obs.CollectedAt.UnixNano()}
		if _, dup := seen[key]; dup {
			return ValidationErrorf("series %s/%s: duplicate observation for station %q at %s", s.Key.Name, s.Key.FuelType, obs.StationId, obs.CollectedAt.Format(time.RFC3339))
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Latest returns the most recent observation at or before the given instant.
func (s Series) Latest(at time.Time) (PriceObservation, bool) {
	idx := sort.Search(len(s.Observations), func(i int) bool {
		return s.Observations[i].CollectedAt.After(at)
	})
	if idx == 0 {
		return PriceObservation{}, false
	}
	return s.Observations[idx-1], true
}

// LatestInstant returns every observation sharing the most recent instant at
// or before the given one, such as all stations of a city in one survey.
func (s Series) LatestInstant(at time.Time) []PriceObservation {
	hi := sort.Search(len(s.Observations), func(i int) bool {
		return s.Observations[i].CollectedAt.After(at)
	})
	if hi == 0 {
		return nil
	}
	instant := s.Observations[hi-1].CollectedAt
	lo := hi - 1
	for lo > 0 && s.Observations[lo-1].CollectedAt.Equal(instant) {
		lo--
	}
	return s.Observations[lo:hi]
}

// Between returns the observations within [start, end], sharing the
// underlying array.
func (s Series) Between(start, end time.Time) []PriceObservation {
	lo := sort.Search(len(s.Observations), func(i int) bool {
		return !s.Observations[i].CollectedAt.Before(start)
	})
	hi := sort.Search(len(s.Observations), func(i int) bool {
		return s.Observations[i].CollectedAt.After(end)
	})
	if hi < lo {
		return nil
	}
	return s.Observations[lo:hi]
}
