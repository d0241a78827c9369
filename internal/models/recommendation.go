package models

type Action string

const (
	ActionBuyNow           Action = "buy-now"
	ActionWait             Action = "wait"
	ActionDetour           Action = "detour"
	ActionNoRecommendation Action = "no-recommendation"
)

type Rationale struct {
	TrendId      string `json:"trend_id"`
	ComparisonId string `json:"comparison_id"`
	Reason       string `json:"reason"`
}

type Recommendation struct {
	Subject    string    `json:"subject"`
	FuelType   FuelType  `json:"fuel_type"`
	Action     Action    `json:"action"`
	DetourCity string    `json:"detour_city,omitempty"`
	Rationale  Rationale `json:"rationale"`
	Confidence float64   `json:"confidence"`
}
