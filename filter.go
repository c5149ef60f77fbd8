package astiepg

import (
	"sync"
	"time"

	"github.com/asticode/go-astiepg/astits"
)

// PID/table-id filter registration values: EIT sections arrive on PID
// 0x12 matching table ids 0x40-0x7F (the core itself only acts on
// 0x4E-0x6F; it's the demuxer's filter mask that widens the net), TDT
// sections on PID 0x14 matching exactly table id 0x70.
const (
	PIDEIT = 0x12
	PIDTDT = 0x14

	EITFilterValue = 0x40
	EITFilterMask  = 0xC0
	TDTFilterValue = 0x70
	TDTFilterMask  = 0xFF
)

// Filter is the single entry point an external demuxer drives: one
// Process call per parsed SI section, synchronous, never spawning a
// goroutine of its own. A single mutex serializes EIT and TDT processing
// alike; EitProcessor and TdtProcessor each also hold a mutex of their own.
type Filter struct {
	eit      *EitProcessor
	tdt      *TdtProcessor
	channels ChannelStore
	now      func() time.Time
	metrics  *Metrics

	mu           sync.Mutex
	active       bool
	disableUntil time.Time
}

// NewFilter wires an EitProcessor and TdtProcessor behind one dispatch
// point. Either may be nil if that table family isn't wanted (e.g. a
// deployment with SetSystemTime permanently off can pass a nil tdt).
func NewFilter(eit *EitProcessor, tdt *TdtProcessor) *Filter {
	return &Filter{
		eit:    eit,
		tdt:    tdt,
		now:    time.Now,
		active: true,
	}
}

// FilterOptNow overrides the wall clock source used for the disable-until
// gate, for deterministic tests.
func FilterOptNow(now func() time.Time) func(*Filter) {
	return func(f *Filter) { f.now = now }
}

// FilterOptMetrics wires a Metrics collector used for the drops the two
// processors never observe themselves: a TDT section rejected by the
// FilterOptChannelStore check, and a section whose CRC32 failed, which
// never reaches a DemuxerData at all, so the caller's demux read loop calls
// ObserveSectionError for it directly instead.
func FilterOptMetrics(m *Metrics) func(*Filter) {
	return func(f *Filter) { f.metrics = m }
}

// FilterOptChannelStore wires a ChannelStore used to validate the
// transponder a TDT section arrived on against the channel database before
// handing it to TdtProcessor. Without this option, TDT sections are
// forwarded on the caller's say-so alone.
func FilterOptChannelStore(channels ChannelStore) func(*Filter) {
	return func(f *Filter) { f.channels = channels }
}

// ObserveSectionError records a section dropped upstream of the filter
// entirely, e.g. a CRC32 mismatch the demuxer rejected before it could ever
// become a DemuxerData. pid is informational only; the reason is always
// DropReasonBadCRC since that's the only failure mode the demuxer surfaces
// as an error rather than simply omitting the data.
func (f *Filter) ObserveSectionError(pid uint16) {
	f.metrics.observeDropped(DropReasonBadCRC)
}

// Apply applies functional options after construction.
func (f *Filter) Apply(opts ...func(*Filter)) {
	for _, o := range opts {
		o(f)
	}
}

// SetStatus toggles whether the filter accepts sections at all. Turning it
// off, or toggling it back on, clears every accumulated EitTables entry:
// reception has been lost (or is being reacquired on a different
// transponder) and stale section-sync state would only cause legitimate
// sections to be misread as duplicates.
func (f *Filter) SetStatus(active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = active
	if f.eit != nil {
		f.eit.Clear()
	}
}

// SetDisableUntil suppresses all processing until the wall clock passes t.
func (f *Filter) SetDisableUntil(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disableUntil = t
}

// Process is the single per-section entry point: the external demuxer
// calls it once per astits.DemuxerData it reads off the wire, passing the
// source identifier and the transport stream id the section arrived on.
// transportStreamID is supplied by the caller rather than read off d
// because a TDT section (unlike EIT) carries no transport stream id of its
// own in its payload; it's purely a property of which transponder the
// demuxer happened to be tuned to. When FilterOptChannelStore is set, that
// claimed transponder is resolved against the channel database via
// ChannelStore.GetByTransponderID before the section is forwarded, so a
// caller-supplied id that names no known channel never reaches
// TdtProcessor. Processing fully completes before returning; the core
// never defers work to a goroutine of its own.
func (f *Filter) Process(source uint8, transportStreamID uint16, d *astits.DemuxerData) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.active {
		return
	}
	if !f.disableUntil.IsZero() && !f.now().After(f.disableUntil) {
		return
	}

	switch d.PID {
	case PIDEIT:
		if f.eit == nil || d.EIT == nil {
			return
		}
		if d.TableID&EITFilterMask != EITFilterValue {
			return
		}
		h := EitSectionHeader{
			Source:            source,
			TableID:           d.TableID,
			VersionNumber:     d.VersionNumber,
			SectionNumber:     d.SectionNumber,
			LastSectionNumber: d.LastSectionNumber,
		}
		_ = f.eit.Process(h, d.EIT)
	case PIDTDT:
		if f.tdt == nil || d.TDT == nil {
			return
		}
		if d.TableID&TDTFilterMask != TDTFilterValue {
			return
		}
		if f.channels != nil {
			if _, found := f.channels.GetByTransponderID(source, transportStreamID); !found {
				f.metrics.observeDropped(DropReasonPolicy)
				return
			}
		}
		f.tdt.Process(TdtSectionHeader{Source: source, TransportStreamID: transportStreamID}, d.TDT)
	}
}
