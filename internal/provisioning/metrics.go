package provisioning

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	allocateTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "instancectl",
			Subsystem: "allocate",
			Name:      "total",
			Help:      "Total number of allocate calls by result",
		},
		[]string{"result"},
	)

	allocateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "instancectl",
			Subsystem: "allocate",
			Name:      "duration_seconds",
			Help:      "Duration of allocate calls in seconds",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~8.5min
		},
	)

	instancesCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "instancectl",
			Subsystem: "instances",
			Name:      "created_total",
			Help:      "Total number of instance create requests by result",
		},
		[]string{"result"},
	)

	instancesReadyTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "instancectl",
			Subsystem: "instances",
			Name:      "ready_total",
			Help:      "Total number of instances observed with a fixed address",
		},
	)

	rollbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "instancectl",
			Subsystem: "allocate",
			Name:      "rollback_instances_total",
			Help:      "Total number of instances rolled back by result",
		},
		[]string{"result"},
	)

	floatingIPAttachTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "instancectl",
			Subsystem: "floating_ip",
			Name:      "attach_total",
			Help:      "Total number of floating IP attach attempts by result",
		},
		[]string{"result"},
	)

	teardownTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "instancectl",
			Subsystem: "delete",
			Name:      "instances_total",
			Help:      "Total number of instances processed by delete by result",
		},
		[]string{"result"},
	)
)

// Collectors returns every provisioning metric.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		allocateTotal,
		allocateDuration,
		instancesCreatedTotal,
		instancesReadyTotal,
		rollbacksTotal,
		floatingIPAttachTotal,
		teardownTotal,
	}
}

// RegisterMetrics registers every provisioning metric with reg.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// RecordAllocate records the outcome of an allocate call.
func RecordAllocate(result string, seconds float64) {
	allocateTotal.WithLabelValues(result).Inc()
	allocateDuration.Observe(seconds)
}

// RecordInstanceCreated records a create request.
func RecordInstanceCreated(ok bool) {
	instancesCreatedTotal.WithLabelValues(resultLabel(ok)).Inc()
}

// RecordInstanceReady records an instance reaching the ready state.
func RecordInstanceReady() {
	instancesReadyTotal.Inc()
}

// RecordRollback records the rollback of a single instance.
func RecordRollback(ok bool) {
	rollbacksTotal.WithLabelValues(resultLabel(ok)).Inc()
}

// RecordFloatingIPAttach records a floating IP attach attempt.
func RecordFloatingIPAttach(ok bool) {
	floatingIPAttachTotal.WithLabelValues(resultLabel(ok)).Inc()
}

// RecordTeardown records one instance processed by delete. result is one of
// "deleted", "skipped" or "failed".
func RecordTeardown(result string) {
	teardownTotal.WithLabelValues(result).Inc()
}
