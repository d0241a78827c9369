package models

import "github.com/shopspring/decimal"

// PriceStatistics summarises how spread out the ranked prices of a comparison
// are.
type PriceStatistics struct {
	Count                  int             `json:"count"`
	CheapestCities         []string        `json:"cheapest_cities"`
	LowestPrice            decimal.Decimal `json:"lowest_price"`
	AveragePrice           decimal.Decimal `json:"average_price"`
	HighestPrice           decimal.Decimal `json:"highest_price"`
	Range                  decimal.Decimal `json:"range"`
	StandardDeviation      float64         `json:"standard_deviation"`
	InterquartileRange     float64         `json:"interquartile_range"`
	CoefficientOfVariation float64         `json:"coefficient_of_variation"`
	Gini                   float64         `json:"gini_coefficient"`
	PriceDistribution      map[string]int  `json:"price_distribution"`
	RegionDistribution     map[string]int  `json:"region_distribution"`
}
