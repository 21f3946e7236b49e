package broker

import (
	"io"

	"github.com/VictoriaMetrics/metrics"
	gometrics "github.com/rcrowley/go-metrics"
)

// --------------------------------------------------------------------------
// Metrics
// --------------------------------------------------------------------------

// brokerMetrics counts operations in a private metrics set, so several
// brokers in one process do not share counters.
type brokerMetrics struct {
	set *metrics.Set

	stores       *metrics.Counter
	fetches      *metrics.Counter
	removes      *metrics.Counter
	configures   *metrics.Counter
	configErrors *metrics.Counter
	cacheMisses  *metrics.Counter
	dbMisses     *metrics.Counter
}

func newBrokerMetrics() *brokerMetrics {
	s := metrics.NewSet()
	return &brokerMetrics{
		set:          s,
		stores:       s.NewCounter(`crusher_operations_total{op="store"}`),
		fetches:      s.NewCounter(`crusher_operations_total{op="fetch"}`),
		removes:      s.NewCounter(`crusher_operations_total{op="remove"}`),
		configures:   s.NewCounter(`crusher_configurations_total`),
		configErrors: s.NewCounter(`crusher_configuration_errors_total`),
		cacheMisses:  s.NewCounter(`crusher_misses_total{layer="cache"}`),
		dbMisses:     s.NewCounter(`crusher_misses_total{layer="db"}`),
	}
}

// WriteMetrics writes the operation counters in Prometheus text format.
func (b *Broker) WriteMetrics(w io.Writer) {
	b.metrics.set.WritePrometheus(w)
}

// FailureRegistry returns the registry holding the tallies of injected
// failures ("cache.*" and "channel.<target>.*").
func (b *Broker) FailureRegistry() gometrics.Registry {
	return b.registry
}

// WriteFailures writes a snapshot of the failure tallies in go-metrics'
// text format.
func (b *Broker) WriteFailures(w io.Writer) {
	gometrics.WriteOnce(b.registry, w)
}
