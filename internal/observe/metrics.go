package observe

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts backend operations. A nil *Metrics is valid and records nothing.
type Metrics struct {
	operations *prometheus.CounterVec
	failures   *prometheus.CounterVec
	rows       *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them on reg. Counters that
// are already registered (another client on the same registry) are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	operations, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "datalib",
		Name:      "operations_total",
		Help:      "Backend operations issued, by backend and operation.",
	}, []string{"backend", "operation"}))
	if err != nil {
		return nil, err
	}

	failures, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "datalib",
		Name:      "operation_failures_total",
		Help:      "Backend operations that returned an error, by backend and operation.",
	}, []string{"backend", "operation"}))
	if err != nil {
		return nil, err
	}

	rows, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "datalib",
		Name:      "rows_encoded_total",
		Help:      "Rows converted to consumables, by backend.",
	}, []string{"backend"}))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		operations: operations,
		failures:   failures,
		rows:       rows,
	}, nil
}

func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
			return existing, nil
		}
	}
	return nil, err
}

func (m *Metrics) Operation(backend, operation string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(backend, operation).Inc()
}

func (m *Metrics) Failure(backend, operation string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(backend, operation).Inc()
}

func (m *Metrics) RowsEncoded(backend string, n int) {
	if m == nil {
		return
	}
	m.rows.WithLabelValues(backend).Add(float64(n))
}
