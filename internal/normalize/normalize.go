package normalize

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rm-hull/fuel-metrics-api/internal/models"
	"github.com/rm-hull/fuel-metrics-api/internal/regions"
)

const DefaultPricePlaces = 3

var maxPrice = decimal.NewFromInt(100)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"20060102",
}

type Options struct {
	// PricePlaces is the number of decimal places prices are rounded to.
	PricePlaces int32
	States      regions.States
}

type Result struct {
	Valid    []models.PriceObservation `json:"valid"`
	Rejected []models.Rejection        `json:"rejected"`
}

func (r Result) CountsByReason() map[models.ReasonCode]int {
	counts := make(map[models.ReasonCode]int)
	for _, rej := range r.Rejected {
		counts[rej.Reason]++
	}
	return counts
}

type rejectErr struct {
	reason models.ReasonCode
	detail string
}

func reject(reason models.ReasonCode, format string, args ...any) *rejectErr {
	return &rejectErr{reason: reason, detail: fmt.Sprintf(format, args...)}
}

type dedupKey struct {
	station string
	city    string
	fuel    models.FuelType
	at      int64
}

// Normalize partitions raws into canonical observations and rejections.
// Observations stamped after now are rejected; now is never read from a clock.
func Normalize(raws []models.RawObservation, now time.Time, opts Options) Result {
	if opts.PricePlaces <= 0 {
		opts.PricePlaces = DefaultPricePlaces
	}

	result := Result{
		Valid:    make([]models.PriceObservation, 0, len(raws)),
		Rejected: make([]models.Rejection, 0),
	}
	seen := make(map[dedupKey]struct{}, len(raws))

	for i, raw := range raws {
		obs, rerr := normalizeOne(raw, now, opts)
		if rerr == nil {
			key := dedupKey{station: obs.StationId, city: obs.City, fuel: obs.FuelType, at: obs.CollectedAt.UnixNano()}
			if _, dup := seen[key]; dup {
				rerr = reject(models.ReasonDuplicate, "already seen an observation for %s/%s at %s", obs.City, obs.FuelType, obs.CollectedAt.Format(time.RFC3339))
			} else {
				seen[key] = struct{}{}
			}
		}

		if rerr != nil {
			result.Rejected = append(result.Rejected, models.Rejection{
				Index:  i,
				Raw:    raw,
				Reason: rerr.reason,
				Detail: rerr.detail,
			})
			continue
		}
		result.Valid = append(result.Valid, obs)
	}

	return result
}

func normalizeOne(raw models.RawObservation, now time.Time, opts Options) (models.PriceObservation, *rejectErr) {
	city := models.Fold(raw.City)
	if city == "" {
		return models.PriceObservation{}, reject(models.ReasonMissingField, "city is empty")
	}
	if strings.TrimSpace(raw.FuelType) == "" {
		return models.PriceObservation{}, reject(models.ReasonMissingField, "fuel type is empty")
	}
	if strings.TrimSpace(raw.Price) == "" {
		return models.PriceObservation{}, reject(models.ReasonMissingField, "price is empty")
	}
	if strings.TrimSpace(raw.CollectedAt) == "" {
		return models.PriceObservation{}, reject(models.ReasonMissingField, "collected_at is empty")
	}

	state, region := models.Fold(raw.State), regions.ExpandRegion(models.Fold(raw.Region))
	if st, ok := opts.States.Lookup(state); ok {
		state = st.Sigla
		if region == "" {
			region = st.Region
		}
	}
	if region == "" {
		return models.PriceObservation{}, reject(models.ReasonMissingField, "region is empty and cannot be derived from state %q", raw.State)
	}

	fuelType, ok := models.ParseFuelType(models.Fold(raw.FuelType))
	if !ok {
		return models.PriceObservation{}, reject(models.ReasonUnknownFuelType, "unknown fuel type %q", raw.FuelType)
	}

	price, err := parsePrice(raw.Price, raw.Unit)
	if err != nil {
		return models.PriceObservation{}, reject(models.ReasonInvalidPrice, "%v", err)
	}
	price = price.Round(opts.PricePlaces)
	if !price.IsPositive() || price.GreaterThan(maxPrice) {
		return models.PriceObservation{}, reject(models.ReasonInvalidPrice, "price %s out of range", price)
	}

	collectedAt, err := parseTimestamp(raw.CollectedAt)
	if err != nil {
		return models.PriceObservation{}, reject(models.ReasonInvalidTimestamp, "%v", err)
	}
	if collectedAt.After(now) {
		return models.PriceObservation{}, reject(models.ReasonFutureTimestamp, "%s is after %s", collectedAt.Format(time.RFC3339), now.Format(time.RFC3339))
	}

	return models.PriceObservation{
		City:        city,
		State:       state,
		Region:      region,
		FuelType:    fuelType,
		Price:       price,
		CollectedAt: collectedAt,
		StationId:   strings.TrimSpace(raw.StationId),
	}, nil
}

func parsePrice(s, unit string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(strings.ToUpper(s))
	cleaned = strings.TrimPrefix(cleaned, "R$")
	cleaned = strings.ReplaceAll(strings.TrimSpace(cleaned), " ", "")

	// "5,89" and "1.234,56" use a decimal comma; "5.89" a decimal point
	if strings.Contains(cleaned, ",") {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	price, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price %q is not a number", s)
	}

	switch u := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(unit), " ", "")); u {
	case "", "r$/l", "brl/l", "r$/litro", "r$/m3", "r$/m³":
		return price, nil
	case "centavos/l", "cents/l", "centavos":
		return price.Div(decimal.NewFromInt(100)), nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported unit %q", unit)
	}
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// GroupByRegion builds one series per (region, fuel type).
func GroupByRegion(observations []models.PriceObservation) map[models.SeriesKey]models.Series {
	return group(observations, func(obs models.PriceObservation) string { return obs.Region })
}

// GroupByCity builds one series per (city, fuel type).
func GroupByCity(observations []models.PriceObservation) map[models.SeriesKey]models.Series {
	return group(observations, func(obs models.PriceObservation) string { return obs.City })
}

// CitySeries selects the per-city series of a single fuel type, keyed by city.
func CitySeries(observations []models.PriceObservation, fuelType models.FuelType) map[string]models.Series {
	out := make(map[string]models.Series)
	for key, series := range GroupByCity(observations) {
		if key.FuelType == fuelType {
			out[key.Name] = series
		}
	}
	return out
}

func group(observations []models.PriceObservation, name func(models.PriceObservation) string) map[models.SeriesKey]models.Series {
	buckets := make(map[models.SeriesKey][]models.PriceObservation)
	for _, obs := range observations {
		key := models.SeriesKey{Name: name(obs), FuelType: obs.FuelType}
		buckets[key] = append(buckets[key], obs)
	}

	out := make(map[models.SeriesKey]models.Series, len(buckets))
	for key, bucket := range buckets {
		SortObservations(bucket)
		out[key] = models.Series{Key: key, Observations: bucket}
	}
	return out
}

// SortObservations orders by timestamp, then city and station so that the
// resulting series is deterministic for any input order.
func SortObservations(observations []models.PriceObservation) {
	sort.SliceStable(observations, func(i, j int) bool {
		a, b := observations[i], observations[j]
		if !a.CollectedAt.Equal(b.CollectedAt) {
			return a.CollectedAt.Before(b.CollectedAt)
		}
		if a.City != b.City {
			return a.City < b.City
		}
		return a.StationId < b.StationId
	})
}
