package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RankedCity carries the mean price over the Samples observations the city
// reported at ObservedAt.
type RankedCity struct {
	Rank            int             `json:"rank"`
	City            string          `json:"city"`
	Region          string          `json:"region,omitempty"`
	Price           decimal.Decimal `json:"price"`
	Samples         int             `json:"samples"`
	DeltaFromMedian decimal.Decimal `json:"delta_from_median"`
	DeltaPct        float64         `json:"delta_pct"`
	Outlier         bool            `json:"outlier"`
	ObservedAt      time.Time       `json:"observed_at"`
}

type Savings struct {
	PerLiter     decimal.Decimal `json:"per_liter"`
	Percentage   float64         `json:"percentage"`
	Per50Liters  decimal.Decimal `json:"per_50_liters"`
	CheapestCity string          `json:"cheapest_city"`
	PriciestCity string          `json:"priciest_city"`
}

type ComparisonResult struct {
	Id               string          `json:"id"`
	FuelType         FuelType        `json:"fuel_type"`
	At               time.Time       `json:"at"`
	Median           decimal.Decimal `json:"median"`
	OutlierThreshold float64         `json:"outlier_threshold"`
	Ranking          []RankedCity    `json:"ranking"`
	Savings          *Savings        `json:"savings,omitempty"`
	Excluded         []string        `json:"excluded,omitempty"`
}

func (c ComparisonResult) Find(city string) (RankedCity, bool) {
	for _, rc := range c.Ranking {
		if rc.City == city {
			return rc, true
		}
	}
	return RankedCity{}, false
}

// Prices is the per-city price snapshot consumed by the trip simulator.
func (c ComparisonResult) Prices() map[string]decimal.Decimal {
	prices := make(map[string]decimal.Decimal, len(c.Ranking))
	for _, rc := range c.Ranking {
		prices[rc.City] = rc.Price
	}
	return prices
}
