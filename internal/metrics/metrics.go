package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PositionFetches counts position requests by result (ok, network, timeout, status, decode).
	PositionFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "iss_ears",
		Subsystem: "position",
		Name:      "fetches_total",
		Help:      "Total ISS position requests by result",
	}, []string{"result"})

	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "iss_ears",
		Subsystem: "position",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of ISS position requests",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	// InRegion is 1 while the last known position is inside the region.
	InRegion = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "iss_ears",
		Subsystem: "position",
		Name:      "in_region",
		Help:      "Whether the last fetched position was inside the region",
	})

	Latitude = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "iss_ears",
		Subsystem: "position",
		Name:      "latitude_degrees",
		Help:      "Last fetched ISS latitude",
	})

	Longitude = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "iss_ears",
		Subsystem: "position",
		Name:      "longitude_degrees",
		Help:      "Last fetched ISS longitude",
	})

	// Dispatches counts device command batches by result (ok, error, dry_run, skipped).
	Dispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "iss_ears",
		Subsystem: "nabaztag",
		Name:      "dispatches_total",
		Help:      "Total command batches sent to the device by result",
	}, []string{"result"})
)

// ObserveFetch records one position request.
func ObserveFetch(result string, d time.Duration) {
	PositionFetches.WithLabelValues(result).Inc()
	FetchDuration.Observe(d.Seconds())
}

// ObservePosition records the last classified position.
func ObservePosition(lat, lon float64, inside bool) {
	Latitude.Set(lat)
	Longitude.Set(lon)
	if inside {
		InRegion.Set(1)
	} else {
		InRegion.Set(0)
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
