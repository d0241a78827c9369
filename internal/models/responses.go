package models

import "time"

type ObservationsResponse struct {
	Summary  ImportSummary `json:"summary"`
	Rejected []Rejection   `json:"rejected"`
}

type TrendResponse struct {
	Trend       TrendResult `json:"trend"`
	Attribution []string    `json:"attribution"`
	LastUpdated *time.Time  `json:"last_updated,omitempty"`
}

type ComparisonResponse struct {
	Comparison  ComparisonResult `json:"comparison"`
	Statistics  *PriceStatistics `json:"statistics"`
	Attribution []string         `json:"attribution"`
	LastUpdated *time.Time       `json:"last_updated,omitempty"`
}

type RecommendationResponse struct {
	Recommendation Recommendation   `json:"recommendation"`
	Trend          TrendResult      `json:"trend"`
	Comparison     ComparisonResult `json:"comparison"`
	Attribution    []string         `json:"attribution"`
	LastUpdated    *time.Time       `json:"last_updated,omitempty"`
}

type SimulationResponse struct {
	Simulation      SimulationResult `json:"simulation"`
	Comparison      ComparisonResult `json:"comparison"`
	Recommendations []Recommendation `json:"recommendations"`
	Attribution     []string         `json:"attribution"`
	LastUpdated     *time.Time       `json:"last_updated,omitempty"`
}

type RankingResponse struct {
	Scope        Scope            `json:"scope"`
	FuelType     FuelType         `json:"fuel_type"`
	At           time.Time        `json:"at"`
	ComparisonId string           `json:"comparison_id"`
	Best         *RankedCity      `json:"best"`
	Ranking      []RankedCity     `json:"ranking"`
	Total        int              `json:"total"`
	Statistics   *PriceStatistics `json:"statistics"`
	Attribution  []string         `json:"attribution"`
	LastUpdated  *time.Time       `json:"last_updated,omitempty"`
}

type RegionSummaryResponse struct {
	FuelType    FuelType         `json:"fuel_type"`
	At          time.Time        `json:"at"`
	National    *PriceStatistics `json:"national"`
	Regions     []RegionSummary  `json:"regions"`
	Attribution []string         `json:"attribution"`
	LastUpdated *time.Time       `json:"last_updated,omitempty"`
}

type CitySearchResponse struct {
	Query       string      `json:"query"`
	Cities      []CityMatch `json:"cities"`
	Attribution []string    `json:"attribution"`
	LastUpdated *time.Time  `json:"last_updated,omitempty"`
}
