package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirectionUp               Direction = "up"
	DirectionDown             Direction = "down"
	DirectionFlat             Direction = "flat"
	DirectionInsufficientData Direction = "insufficient-data"
)

type TrendResult struct {
	Id           string           `json:"id"`
	Region       string           `json:"region"`
	FuelType     FuelType         `json:"fuel_type"`
	Direction    Direction        `json:"direction"`
	Magnitude    *float64         `json:"magnitude"` // percent change, nil when there is insufficient data
	WindowStart  time.Time        `json:"window_start"`
	WindowEnd    time.Time        `json:"window_end"`
	SampleCount  int              `json:"sample_count"`
	CurrentPrice *decimal.Decimal `json:"current_price,omitempty"`
	Volatility   *float64         `json:"volatility,omitempty"`
}

func (t TrendResult) Sufficient() bool {
	return t.Direction != DirectionInsufficientData
}
