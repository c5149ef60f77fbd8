package astiepg

import (
	"sync"
	"time"

	"github.com/asticode/go-astiepg/astits"
)

// Clock-discipline tuning constants, spec'd in absolute terms rather than
// exposed as Config knobs: they describe how cautious the two-sample
// agreement check is, not a deployment-specific policy.
const (
	// MaxTimeDiff is the drift below which a TDT reading is considered
	// agreement with the wall clock; nothing happens.
	MaxTimeDiff = 1 * time.Second
	// MaxAdjDiff is the drift above which the clock is hard-set instead of
	// smoothly adjusted.
	MaxAdjDiff = 10 * time.Second
	// AdjDelta is the minimum time between two smooth adjustments.
	AdjDelta = 300 * time.Second
)

// ClockSetter is the external collaborator that actually disciplines the
// host wall clock. TdtProcessor only decides when and by how much to
// correct it; applying the correction is entirely the caller's concern.
type ClockSetter interface {
	// SetSystemTime hard-sets the wall clock to t.
	SetSystemTime(t time.Time) error
	// AdjustSystemTime nudges the wall clock smoothly by diff (e.g. via
	// adjtime(2)) instead of stepping it.
	AdjustSystemTime(diff time.Duration) error
}

// TdtSectionHeader carries the bits of the section header the TDT
// processor's TimeSource/TimeTransponder gate needs.
type TdtSectionHeader struct {
	Source            uint8
	TransportStreamID uint16
}

// TdtProcessor disciplines the host wall clock against TDT readings. One
// TdtProcessor is created per filter; like EitProcessor, Process is safe
// to call repeatedly from a single filter goroutine but not concurrently
// with itself. The two-sample history (oldTime, oldDiff, lastAdj) that the
// source kept as class-level (process-global) state is folded into the
// instance here.
type TdtProcessor struct {
	cfg   *Config
	clock ClockSetter
	now   func() time.Time

	mu      sync.Mutex
	oldTime time.Time
	oldDiff time.Duration
	lastAdj time.Time
	metrics *Metrics
}

// NewTdtProcessor builds a TdtProcessor. clock is never called unless
// Config.SetSystemTime is set.
func NewTdtProcessor(clock ClockSetter, cfg *Config) *TdtProcessor {
	return &TdtProcessor{
		cfg:   cfg,
		clock: clock,
		now:   time.Now,
	}
}

// TdtProcessorOptNow overrides the wall clock source, for deterministic
// tests of the agreement/hysteresis logic.
func TdtProcessorOptNow(now func() time.Time) func(*TdtProcessor) {
	return func(p *TdtProcessor) { p.now = now }
}

// TdtProcessorOptMetrics wires a Metrics collector into the processor.
func TdtProcessorOptMetrics(m *Metrics) func(*TdtProcessor) {
	return func(p *TdtProcessor) { p.metrics = m }
}

// Apply applies functional options after construction.
func (p *TdtProcessor) Apply(opts ...func(*TdtProcessor)) {
	for _, o := range opts {
		o(p)
	}
}

// Process reconciles one TDT section against the wall clock. It never
// propagates an error for a section it chooses not to act on; a failed
// clock-set call is logged, not returned, since nothing upstream of this
// call can act on a clock-set failure besides retrying on the next TDT.
func (p *TdtProcessor) Process(h TdtSectionHeader, d *astits.TDTData) {
	p.metrics.observeProcessed(PIDTDT)

	if !p.cfg.SetSystemTime {
		p.metrics.observeDropped(DropReasonPolicy)
		return
	}
	if h.Source != p.cfg.TimeSource || h.TransportStreamID != p.cfg.TimeTransponder {
		p.metrics.observeDropped(DropReasonPolicy)
		return
	}

	dvbTime := d.UTCTime
	locTime := p.now()
	diff := dvbTime.Sub(locTime)
	if abs(diff) <= MaxTimeDiff {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.oldTime.Equal(dvbTime) && p.oldDiff == diff {
		if abs(diff) > MaxAdjDiff {
			if err := p.clock.SetSystemTime(dvbTime); err != nil {
				logger.Errorf("astiepg: setting system time failed: %v", err)
			} else {
				logger.Infof("astiepg: system time set to %s (drift %s)", dvbTime, diff)
			}
		} else if locTime.Sub(p.lastAdj) >= AdjDelta {
			if err := p.clock.AdjustSystemTime(diff); err != nil {
				logger.Errorf("astiepg: adjusting system time failed: %v", err)
			} else {
				logger.Infof("astiepg: system time adjusted by %s", diff)
				p.lastAdj = locTime
			}
		}
	}

	p.oldTime = dvbTime
	p.oldDiff = diff
}

func abs(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
