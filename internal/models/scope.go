package models

// Scope narrows a ranking to one state (by sigla) and/or region. The zero
// value is the whole country.
type Scope struct {
	State  string `json:"state,omitempty"`
	Region string `json:"region,omitempty"`
}

type CityMatch struct {
	City         string `json:"city"`
	State        string `json:"state"`
	Region       string `json:"region"`
	Observations int    `json:"observations"`
}

type RegionSummary struct {
	Region     string           `json:"region"`
	Statistics *PriceStatistics `json:"statistics"`
}
