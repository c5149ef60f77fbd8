package astiepg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/asticode/go-astiepg/astits"
)

type fakeClockSetter struct {
	setCalls    []time.Time
	adjustCalls []time.Duration
}

func (c *fakeClockSetter) SetSystemTime(t time.Time) error {
	c.setCalls = append(c.setCalls, t)
	return nil
}

func (c *fakeClockSetter) AdjustSystemTime(diff time.Duration) error {
	c.adjustCalls = append(c.adjustCalls, diff)
	return nil
}

func newTestTdtProcessor(clock ClockSetter, now *time.Time, source uint8, transponder uint16) *TdtProcessor {
	cfg := NewConfig(ConfigOptSetSystemTime(source, transponder))
	p := NewTdtProcessor(clock, cfg)
	p.Apply(TdtProcessorOptNow(func() time.Time { return *now }))
	return p
}

func TestTdtProcessorIgnoresWhenDisabled(t *testing.T) {
	clock := &fakeClockSetter{}
	now := time.Date(2026, time.July, 29, 12, 0, 0, 0, time.UTC)
	cfg := NewConfig()
	p := NewTdtProcessor(clock, cfg)
	p.Apply(TdtProcessorOptNow(func() time.Time { return now }))

	p.Process(TdtSectionHeader{Source: 1, TransportStreamID: 100}, &astits.TDTData{UTCTime: now.Add(time.Hour)})
	assert.Empty(t, clock.setCalls)
	assert.Empty(t, clock.adjustCalls)
}

func TestTdtProcessorIgnoresWrongSource(t *testing.T) {
	clock := &fakeClockSetter{}
	now := time.Date(2026, time.July, 29, 12, 0, 0, 0, time.UTC)
	p := newTestTdtProcessor(clock, &now, 1, 100)

	p.Process(TdtSectionHeader{Source: 2, TransportStreamID: 100}, &astits.TDTData{UTCTime: now.Add(time.Hour)})
	assert.Empty(t, clock.setCalls)
}

func TestTdtProcessorIgnoresSmallDrift(t *testing.T) {
	clock := &fakeClockSetter{}
	now := time.Date(2026, time.July, 29, 12, 0, 0, 0, time.UTC)
	p := newTestTdtProcessor(clock, &now, 1, 100)

	p.Process(TdtSectionHeader{Source: 1, TransportStreamID: 100}, &astits.TDTData{UTCTime: now.Add(500 * time.Millisecond)})
	assert.Empty(t, clock.setCalls)
	assert.Empty(t, clock.adjustCalls)
}

func TestTdtProcessorHardSetsAfterTwoAgreeingSamples(t *testing.T) {
	clock := &fakeClockSetter{}
	now := time.Date(2026, time.July, 29, 12, 0, 0, 0, time.UTC)
	p := newTestTdtProcessor(clock, &now, 1, 100)

	drift := 20 * time.Second
	// First sample only records the diff; a single reading is never trusted.
	p.Process(TdtSectionHeader{Source: 1, TransportStreamID: 100}, &astits.TDTData{UTCTime: now.Add(drift)})
	assert.Empty(t, clock.setCalls)

	// A second section, seconds later, reporting the same drift confirms
	// agreement and crosses MaxAdjDiff, so the clock is hard-set.
	now = now.Add(5 * time.Second)
	p.Process(TdtSectionHeader{Source: 1, TransportStreamID: 100}, &astits.TDTData{UTCTime: now.Add(drift)})
	assert.Len(t, clock.setCalls, 1)
	assert.Equal(t, now.Add(drift), clock.setCalls[0])
	assert.Empty(t, clock.adjustCalls)
}

func TestTdtProcessorSmoothAdjustsForSmallerDrift(t *testing.T) {
	clock := &fakeClockSetter{}
	now := time.Date(2026, time.July, 29, 12, 0, 0, 0, time.UTC)
	p := newTestTdtProcessor(clock, &now, 1, 100)

	drift := 5 * time.Second
	p.Process(TdtSectionHeader{Source: 1, TransportStreamID: 100}, &astits.TDTData{UTCTime: now.Add(drift)})
	assert.Empty(t, clock.adjustCalls)

	now = now.Add(5 * time.Second)
	p.Process(TdtSectionHeader{Source: 1, TransportStreamID: 100}, &astits.TDTData{UTCTime: now.Add(drift)})
	assert.Len(t, clock.adjustCalls, 1)
	assert.Equal(t, drift, clock.adjustCalls[0])
	assert.Empty(t, clock.setCalls)
}

func TestTdtProcessorRespectsAdjDelta(t *testing.T) {
	clock := &fakeClockSetter{}
	now := time.Date(2026, time.July, 29, 12, 0, 0, 0, time.UTC)
	p := newTestTdtProcessor(clock, &now, 1, 100)

	drift := 5 * time.Second
	p.Process(TdtSectionHeader{Source: 1, TransportStreamID: 100}, &astits.TDTData{UTCTime: now.Add(drift)})
	now = now.Add(5 * time.Second)
	p.Process(TdtSectionHeader{Source: 1, TransportStreamID: 100}, &astits.TDTData{UTCTime: now.Add(drift)})
	assert.Len(t, clock.adjustCalls, 1)

	// A third agreeing sample arriving well inside AdjDelta of the last
	// adjustment is suppressed.
	now = now.Add(5 * time.Second)
	p.Process(TdtSectionHeader{Source: 1, TransportStreamID: 100}, &astits.TDTData{UTCTime: now.Add(drift)})
	assert.Len(t, clock.adjustCalls, 1)
}
