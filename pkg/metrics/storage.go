package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StorageMetrics records backend health for the persistence layer. Degraded
// writes are the headline signal: a write that only reached the local cache
// looks successful to the caller but is invisible to other users.
type StorageMetrics struct {
	opDuration     *prometheus.HistogramVec
	opFailures     *prometheus.CounterVec
	degradedWrites *prometheus.CounterVec
	degradedReads  *prometheus.CounterVec
	staleWrites    *prometheus.CounterVec
}

// NewStorageMetrics registers the storage metrics on the provided registerer.
func NewStorageMetrics(reg prometheus.Registerer) *StorageMetrics {
	if reg == nil {
		return &StorageMetrics{}
	}
	opDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storage_op_duration_seconds",
		Help:    "Duration of storage backend operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "op"})
	opFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storage_op_failures",
		Help: "Storage backend operations that returned an error.",
	}, []string{"backend", "op"})
	degradedWrites := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storage_degraded_writes",
		Help: "Writes that landed only in the local cache.",
	}, []string{"entity"})
	degradedReads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storage_degraded_reads",
		Help: "Reads served from the local cache because the remote store failed.",
	}, []string{"entity"})
	staleWrites := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storage_stale_writes",
		Help: "Writes rejected by the compare-and-swap revision check.",
	}, []string{"entity"})
	reg.MustRegister(opDuration, opFailures, degradedWrites, degradedReads, staleWrites)
	return &StorageMetrics{
		opDuration:     opDuration,
		opFailures:     opFailures,
		degradedWrites: degradedWrites,
		degradedReads:  degradedReads,
		staleWrites:    staleWrites,
	}
}

// ObserveOp records the duration for one backend operation.
func (m *StorageMetrics) ObserveOp(backend, op string, duration time.Duration) {
	if m == nil || m.opDuration == nil {
		return
	}
	m.opDuration.WithLabelValues(normalizeLabel(backend), normalizeLabel(op)).Observe(duration.Seconds())
}

// IncFailure increments the failure counter for one backend operation.
func (m *StorageMetrics) IncFailure(backend, op string) {
	if m == nil || m.opFailures == nil {
		return
	}
	m.opFailures.WithLabelValues(normalizeLabel(backend), normalizeLabel(op)).Inc()
}

// IncDegradedWrite counts a write that only reached the local cache.
func (m *StorageMetrics) IncDegradedWrite(entity string) {
	if m == nil || m.degradedWrites == nil {
		return
	}
	m.degradedWrites.WithLabelValues(normalizeLabel(entity)).Inc()
}

// IncDegradedRead counts a read served from the local cache.
func (m *StorageMetrics) IncDegradedRead(entity string) {
	if m == nil || m.degradedReads == nil {
		return
	}
	m.degradedReads.WithLabelValues(normalizeLabel(entity)).Inc()
}

// IncStaleWrite counts a compare-and-swap rejection.
func (m *StorageMetrics) IncStaleWrite(entity string) {
	if m == nil || m.staleWrites == nil {
		return
	}
	m.staleWrites.WithLabelValues(normalizeLabel(entity)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
