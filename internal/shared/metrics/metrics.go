package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"file-uploader/internal/placement"
)

// PlacementObserver exports upload placement metrics to Prometheus.
type PlacementObserver struct {
	duration    *prometheus.HistogramVec
	failures    *prometheus.CounterVec
	placed      prometheus.Counter
	placedBytes prometheus.Counter
}

// NewPlacementObserver registers the placement collectors on reg.
func NewPlacementObserver(namespace string, reg prometheus.Registerer) (*PlacementObserver, error) {
	if namespace == "" {
		namespace = "uploads"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &PlacementObserver{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "placement_duration_seconds",
			Help:      "Latency of placing one uploaded file.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "placement_failures_total",
			Help:      "Failed placements by error kind.",
		}, []string{"kind"}),
		placed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "placed_files_total",
			Help:      "Files placed under the trusted root.",
		}),
		placedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "placed_bytes_total",
			Help:      "Cumulative size of placed files.",
		}),
	}

	if err := register(reg, &o.duration); err != nil {
		return nil, err
	}
	if err := register(reg, &o.failures); err != nil {
		return nil, err
	}
	if err := register(reg, &o.placed); err != nil {
		return nil, err
	}
	if err := register(reg, &o.placedBytes); err != nil {
		return nil, err
	}
	return o, nil
}

// register adopts an already registered collector of the same shape so the
// observer can be built more than once per process.
func register[C prometheus.Collector](reg prometheus.Registerer, c *C) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				*c = existing
				return nil
			}
		}
		return fmt.Errorf("register placement metric: %w", err)
	}
	return nil
}

// ObservePlacement implements placement.Observer.
func (o *PlacementObserver) ObservePlacement(duration time.Duration, sizeBytes int64, err error) {
	if o == nil {
		return
	}
	if err != nil {
		o.duration.WithLabelValues("failure").Observe(duration.Seconds())
		o.failures.WithLabelValues(placement.Kind(err)).Inc()
		return
	}
	o.duration.WithLabelValues("success").Observe(duration.Seconds())
	o.placed.Inc()
	if sizeBytes > 0 {
		o.placedBytes.Add(float64(sizeBytes))
	}
}

// Handler exposes the gathered metrics in Prometheus text format.
func Handler(g prometheus.Gatherer) gin.HandlerFunc {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return gin.WrapH(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}

var _ placement.Observer = (*PlacementObserver)(nil)
