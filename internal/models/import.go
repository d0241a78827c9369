package models

import "time"

type ImportSummary struct {
	Received  int                `json:"received"`
	Accepted  int                `json:"accepted"`
	Stored    int                `json:"stored"`
	Rejected  map[ReasonCode]int `json:"rejected"`
	StartedAt time.Time          `json:"started_at"`
	Duration  time.Duration      `json:"duration_ns"`
}

// Add folds another (per-batch) summary into s.
func (s *ImportSummary) Add(other ImportSummary) {
	s.Received += other.Received
	s.Accepted += other.Accepted
	s.Stored += other.Stored
	if s.Rejected == nil {
		s.Rejected = make(map[ReasonCode]int)
	}
	for reason, n := range other.Rejected {
		s.Rejected[reason] += n
	}
}
