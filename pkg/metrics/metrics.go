package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	Namespace = "checkpointgen"

	// Status label values for success/error metrics
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error type constants.
const (
	ErrTypeRPC         = "rpc"
	ErrTypeUnreachable = "unreachable"
	ErrTypeResume      = "resume"
	ErrTypeWrite       = "write"
)

// Labels holds constant labels applied to all metrics.
// These are useful for distinguishing metrics from several generator runs
// pushed to the same Pushgateway.
type Labels struct {
	Network     string // Daemon network name (e.g., "mainnet", "testnet")
	Environment string // Deployment environment (e.g., "production", "staging")
}

// toPrometheusLabels converts Labels to prometheus.Labels map.
// Only non-empty labels are included to avoid empty label values.
func (l Labels) toPrometheusLabels() prometheus.Labels {
	labels := prometheus.Labels{}
	if l.Network != "" {
		labels["network"] = l.Network
	}
	if l.Environment != "" {
		labels["environment"] = l.Environment
	}
	return labels
}

type Metrics struct {
	// Ledger progress
	chainHeight          prometheus.Gauge
	lastCheckpointHeight prometheus.Gauge
	checkpointsWritten   prometheus.Counter
	errors               *prometheus.CounterVec

	// RPC metrics
	rpcCalls    *prometheus.CounterVec
	rpcDuration *prometheus.HistogramVec
	rpcInFlight prometheus.Gauge
}

// New creates a new Metrics instance and registers all metrics with the provided registerer.
// Returns an error if any metric registration fails.
func New(reg prometheus.Registerer) (*Metrics, error) {
	return NewWithLabels(reg, Labels{})
}

// NewWithLabels creates a new Metrics instance with constant labels applied to all metrics.
func NewWithLabels(reg prometheus.Registerer, labels Labels) (*Metrics, error) {
	promLabels := labels.toPrometheusLabels()
	if len(promLabels) > 0 {
		reg = prometheus.WrapRegistererWith(promLabels, reg)
	}

	return newMetrics(reg)
}

func newMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		chainHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "chain_height",
			Help:      "Chain height reported by the daemon at the start of the run",
		}),
		lastCheckpointHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_checkpoint_height",
			Help:      "Height of the last checkpoint appended to the ledger",
		}),
		checkpointsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "checkpoints_written_total",
			Help:      "Total number of checkpoint rows written to the ledger",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Total errors by type",
		}, []string{"type"}),
		rpcCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "rpc",
			Name:      "calls_total",
			Help:      "Total RPC calls by method and status",
		}, []string{"method", "status"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "rpc",
			Name:      "duration_seconds",
			Help:      "RPC call duration in seconds",
			// 1ms .. 10s
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method"}),
		rpcInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "rpc",
			Name:      "in_flight",
			Help:      "Number of RPC calls currently in progress",
		}),
	}

	err := errors.Join(
		reg.Register(m.chainHeight),
		reg.Register(m.lastCheckpointHeight),
		reg.Register(m.checkpointsWritten),
		reg.Register(m.errors),
		reg.Register(m.rpcCalls),
		reg.Register(m.rpcDuration),
		reg.Register(m.rpcInFlight),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// IncError increments the error counter for the given error type.
func (m *Metrics) IncError(errType string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(errType).Inc()
}

// SetChainHeight records the chain height the run iterates up to.
func (m *Metrics) SetChainHeight(height uint64) {
	if m == nil {
		return
	}
	m.chainHeight.Set(float64(height))
}

// RecordCheckpoint records a checkpoint row being written.
func (m *Metrics) RecordCheckpoint(height uint64) {
	if m == nil {
		return
	}
	m.checkpointsWritten.Inc()
	m.lastCheckpointHeight.Set(float64(height))
}

// IncRPCInFlight increments the in-flight RPC gauge.
func (m *Metrics) IncRPCInFlight() {
	if m == nil {
		return
	}
	m.rpcInFlight.Inc()
}

// DecRPCInFlight decrements the in-flight RPC gauge.
func (m *Metrics) DecRPCInFlight() {
	if m == nil {
		return
	}
	m.rpcInFlight.Dec()
}

// RecordRPCCall records an RPC call outcome.
func (m *Metrics) RecordRPCCall(method string, err error, durationSeconds float64) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
		m.errors.WithLabelValues(ErrTypeRPC).Inc()
	}
	m.rpcCalls.WithLabelValues(method, status).Inc()
	m.rpcDuration.WithLabelValues(method).Observe(durationSeconds)
}
