package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	observationsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fuel_metrics",
		Name:      "observations_received_total",
		Help:      "Raw price records received, by origin.",
	}, []string{"origin"})

	observationsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fuel_metrics",
		Name:      "observations_rejected_total",
		Help:      "Raw price records rejected by the normalizer, by reason.",
	}, []string{"reason"})

	observationsStored = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fuel_metrics",
		Name:      "observations_stored_total",
		Help:      "Observations inserted or updated in the database.",
	})

	lastImport = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fuel_metrics",
		Name:      "last_import_timestamp_seconds",
		Help:      "Unix time of the last successful source import.",
	})
)
