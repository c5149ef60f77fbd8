package astiepg

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestMetricsNilReceiverIsNoOp(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observeProcessed(PIDEIT)
		m.observeDropped(DropReasonPolicy)
		m.setTrackedServices(3)
	})
}

func TestPidLabel(t *testing.T) {
	assert.Equal(t, "eit", pidLabel(PIDEIT))
	assert.Equal(t, "tdt", pidLabel(PIDTDT))
	assert.Equal(t, "other", pidLabel(0x99))
}

func TestMetricsRegistersAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.observeProcessed(PIDEIT)
	m.observeDropped(DropReasonBadCRC)
	m.setTrackedServices(5)

	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)
}
