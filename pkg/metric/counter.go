package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// OperationsName is the counter of editor operations, labeled by op and result.
	OperationsName = "menued_operations_total"
	// OperationsHelp describes OperationsName.
	OperationsHelp = "Number of menu editor operations by operation and result."
)

type IncrementalCounter interface {
	Increment(val ...string)
}

type Counter struct {
	Name string
	Help string

	vec *prometheus.CounterVec
}

func (c *Counter) Increment(val ...string) {
	c.vec.WithLabelValues(val...).Inc()
}

func NewCounterWithRegistry(reg prometheus.Registerer, name, help string, labels ...string) IncrementalCounter {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: name,
		Help: help,
	}, labels)

	reg.MustRegister(counter)

	return &Counter{
		Name: name,
		Help: help,
		vec:  counter,
	}
}

// NewOperationsCounter registers the editor operations counter with reg.
func NewOperationsCounter(reg prometheus.Registerer) IncrementalCounter {
	return NewCounterWithRegistry(reg, OperationsName, OperationsHelp, "op", "result")
}

// Noop discards increments.
type Noop struct{}

func (Noop) Increment(...string) {}

// GetHandlerForRegistry returns an HTTP handler for serving Prometheus metrics from a custom registry.
func GetHandlerForRegistry(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
