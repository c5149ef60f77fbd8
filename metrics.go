package astiepg

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Drop reasons recorded against the sections_dropped_total counter.
const (
	DropReasonBadCRC      = "bad_crc"
	DropReasonClockUnset  = "clock_unset"
	DropReasonLockTimeout = "lock_timeout"
	DropReasonPolicy      = "policy"
)

// Metrics tracks Prometheus metrics for one Filter. A nil *Metrics is a
// valid no-op collector, so a Filter built without metrics never has to
// guard every call site with a nil check of its own.
type Metrics struct {
	sectionsProcessed *prometheus.CounterVec
	sectionsDropped   *prometheus.CounterVec
	trackedServices   prometheus.Gauge
}

// NewMetrics creates astiepg's metrics and registers them against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sectionsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astiepg_sections_processed_total",
				Help: "Total SI sections handed to the filter, by PID.",
			},
			[]string{"pid"},
		),
		sectionsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "astiepg_sections_dropped_total",
				Help: "Total SI sections dropped without being applied to the EPG, by reason.",
			},
			[]string{"reason"},
		),
		trackedServices: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "astiepg_tracked_services",
				Help: "Number of services currently tracked in the EIT section-sync hash.",
			},
		),
	}

	reg.MustRegister(
		m.sectionsProcessed,
		m.sectionsDropped,
		m.trackedServices,
	)

	return m
}

func (m *Metrics) observeProcessed(pid uint16) {
	if m == nil {
		return
	}
	m.sectionsProcessed.WithLabelValues(pidLabel(pid)).Inc()
}

func (m *Metrics) observeDropped(reason string) {
	if m == nil {
		return
	}
	m.sectionsDropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) setTrackedServices(n int) {
	if m == nil {
		return
	}
	m.trackedServices.Set(float64(n))
}

func pidLabel(pid uint16) string {
	switch pid {
	case PIDEIT:
		return "eit"
	case PIDTDT:
		return "tdt"
	default:
		return "other"
	}
}
