package astiepg

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/asticode/go-astiepg/astits"
)

// validTime is the sanity floor for the wall clock: a system whose clock
// reads earlier than this has never been disciplined by a TDT/TOT reading,
// and every EIT section is dropped until it catches up.
var validTime = time.Date(2007, time.January, 1, 0, 0, 0, 0, time.UTC)

const defaultLockTimeout = 10 * time.Millisecond

// EitSectionHeader carries the PSI section-header fields astits.EITData
// itself doesn't: the table id, version and segmentation counters the
// syncer needs, plus which transponder the section arrived on.
type EitSectionHeader struct {
	Source            uint8
	TableID           uint8
	VersionNumber     uint8
	SectionNumber     uint8
	LastSectionNumber uint8
}

// EitProcessor reconciles incoming EIT sections against an EPG exposed
// through ChannelStore and ScheduleStore. One EitProcessor is created per
// demux filter; Process is safe to call repeatedly from a single filter
// goroutine but not concurrently with itself.
type EitProcessor struct {
	cfg       *Config
	channels  ChannelStore
	schedules ScheduleStore
	handlers  handlerChain

	mu          sync.Mutex
	hash        *EitTablesHash
	lockTimeout time.Duration
	now         func() time.Time
	metrics     *Metrics
}

// NewEitProcessor builds an EitProcessor for one filter. Handlers are
// consulted in the order given.
func NewEitProcessor(channels ChannelStore, schedules ScheduleStore, cfg *Config, handlers ...EventHandler) *EitProcessor {
	return &EitProcessor{
		cfg:         cfg,
		channels:    channels,
		schedules:   schedules,
		handlers:    handlerChain(handlers),
		hash:        NewEitTablesHash(),
		lockTimeout: defaultLockTimeout,
		now:         time.Now,
	}
}

// EitProcessorOptNow overrides the wall clock source, for tests driving the
// time gate and PDC year-boundary logic deterministically.
func EitProcessorOptNow(now func() time.Time) func(*EitProcessor) {
	return func(p *EitProcessor) { p.now = now }
}

// EitProcessorOptMetrics wires a Metrics collector into the processor.
func EitProcessorOptMetrics(m *Metrics) func(*EitProcessor) {
	return func(p *EitProcessor) { p.metrics = m }
}

// Apply applies functional options after construction.
func (p *EitProcessor) Apply(opts ...func(*EitProcessor)) {
	for _, o := range opts {
		o(p)
	}
}

// Clear drops every tracked service's section-sync state, called whenever
// the filter carrying this processor toggles off then on (reception lost,
// transponder retuned).
func (p *EitProcessor) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hash.Clear()
}

// TrackedServices reports how many services currently have section-sync
// state, for metrics.
func (p *EitProcessor) TrackedServices() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hash.Len()
}

// tableIDFloor implements the "table ids below 0x4E are treated as if equal
// to 0x4E for overwrite comparisons" invariant.
func tableIDFloor(tableID uint8) uint8 {
	if tableID < TableIDPresentFollowing {
		return TableIDPresentFollowing
	}
	return tableID
}

// Process reconciles one EIT section against the EPG. It never returns an
// error for a section it simply chooses not to act on (wrong epoch, lock
// contention, ignored channel); those are ordinary outcomes, not failures.
func (p *EitProcessor) Process(h EitSectionHeader, d *astits.EITData) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.metrics.observeProcessed(PIDEIT)
	defer p.metrics.setTrackedServices(p.hash.Len())

	// The demuxer's own filter mask admits a wider table id range than the
	// core acts on (see Filter's EITFilterMask doc comment); anything
	// outside the tracked 0x4E-0x6F window is dropped before it can index
	// into EitTables' per-table-id syncer array.
	if h.TableID < eitTableIDMin || h.TableID > eitTableIDMax {
		p.metrics.observeDropped(DropReasonPolicy)
		return nil
	}

	// Section 0x4F is never processed: it is known to cause broadcaster
	// chaos and is tracked (for bookkeeping symmetry) but not acted on.
	if h.TableID == TableIDPresentFollowingOther {
		p.metrics.observeDropped(DropReasonPolicy)
		return nil
	}

	tables, ok := p.hash.Get(d.ServiceID)
	if !ok {
		tables = NewEitTables()
		p.hash.Add(d.ServiceID, tables)
	}

	// The syncer gate: already-seen sections are dropped, except for
	// present/following, where we still need to pass through and update
	// the "seen" tag even when nothing else changes.
	process := tables.Check(h.TableID, h.VersionNumber, h.SectionNumber)
	if h.TableID != TableIDPresentFollowing && !process {
		p.metrics.observeDropped(DropReasonPolicy)
		return nil
	}

	now := p.now()
	if now.Before(validTime) {
		p.metrics.observeDropped(DropReasonClockUnset)
		return nil
	}

	chKey, ok := p.channels.Lock(p.lockTimeout)
	if !ok {
		p.metrics.observeDropped(DropReasonLockTimeout)
		return nil
	}
	chModified := false
	defer func() { chKey.Release(chModified) }()

	schedKey, ok := p.schedules.Lock(p.lockTimeout)
	if !ok {
		p.metrics.observeDropped(DropReasonLockTimeout)
		return nil
	}
	schedModified := false
	defer func() { schedKey.Release(schedModified) }()

	chID := ChannelID{
		Source:            h.Source,
		OriginalNetworkID: d.OriginalNetworkID,
		TransportStreamID: d.TransportStreamID,
		ServiceID:         d.ServiceID,
	}
	ch, found := p.channels.GetByChannelID(chID)
	if !found || p.handlers.ignoreChannel(ch) {
		p.metrics.observeDropped(DropReasonPolicy)
		return nil
	}

	sched, ok := p.schedules.GetSchedule(ch, true)
	if !ok {
		p.metrics.observeDropped(DropReasonPolicy)
		return nil
	}

	// A 0x6X (other transponder) schedule section never overrides a
	// schedule already populated from the actual transponder's own 0x5X
	// tables: the actual transponder is always authoritative once seen.
	if h.TableID&0xf0 == 0x60 && sched.OnActualTp(h.TableID) {
		p.metrics.observeDropped(DropReasonPolicy)
		return nil
	}

	if !p.handlers.beginSegmentTransfer(ch) {
		p.metrics.observeDropped(DropReasonPolicy)
		return nil
	}

	var segmentStart, segmentEnd time.Time
	haveSegment := false
	anyModified := false

	for _, raw := range d.Events {
		if p.handlers.handleEitEvent(ch, h.TableID, raw) {
			continue
		}

		if raw.StartTime.IsZero() && !raw.StartTimeUndefined {
			continue
		}
		if !raw.StartTimeUndefined && raw.Duration == 0 {
			continue
		}
		// NVOD reference events carry an undefined start time (every bit
		// of the wire field set to "1"); they describe a master event with
		// no airing of their own and are kept rather than scheduled into
		// the segment window.
		if raw.StartTimeUndefined {
			evt, created := p.resolveEvent(ch, sched, h.TableID, raw)
			if evt != nil {
				p.finalizeReference(ch, evt, raw, created)
				anyModified = anyModified || created
			}
			continue
		}

		end := raw.StartTime.Add(raw.Duration)
		if now.Sub(end) > p.cfg.EPGLingerTime {
			continue
		}

		if !haveSegment {
			segmentStart, segmentEnd = raw.StartTime, end
			haveSegment = true
		} else {
			if raw.StartTime.Before(segmentStart) {
				segmentStart = raw.StartTime
			}
			if end.After(segmentEnd) {
				segmentEnd = end
			}
		}

		if h.TableID == TableIDPresentFollowing {
			if h.SectionNumber == 0 {
				tables.SetTableStart(segmentStart)
			} else {
				tables.SetTableEnd(segmentEnd)
			}
		}

		evt, created := p.resolveEvent(ch, sched, h.TableID, raw)
		if evt == nil {
			continue
		}

		skip := false
		if !created {
			evt.SetSeen(true)
			floor := tableIDFloor(evt.TableID())
			if floor == TableIDPresentFollowing && h.TableID != TableIDPresentFollowing {
				// Present/following is authoritative; a schedule-table row
				// referring to the same event never overwrites it.
				skip = true
			} else {
				oldStart, oldDuration := evt.StartTime(), evt.Duration()
				p.handlers.setEventID(evt, raw.EventID)
				p.handlers.setStartTime(evt, raw.StartTime)
				p.handlers.setDuration(evt, raw.Duration)
				if evt.HasTimer() && (!oldStart.Equal(raw.StartTime) || oldDuration != raw.Duration) {
					logger.Infof("astiepg: event %d time changed while a timer is attached (start %s -> %s, duration %s -> %s)",
						raw.EventID, oldStart, raw.StartTime, oldDuration, raw.Duration)
				}
			}
		} else {
			evt.SetSeen(true)
			p.handlers.setEventID(evt, raw.EventID)
			p.handlers.setStartTime(evt, raw.StartTime)
			p.handlers.setDuration(evt, raw.Duration)
		}

		if !skip {
			if created {
				evt.SetTableID(h.TableID)
			} else if evt.TableID() > TableIDPresentFollowing {
				// Only a previously schedule-owned (0x5X/0x6X) event's table
				// id moves; one already anchored at/below 0x4E stays there.
				evt.SetTableID(h.TableID)
			}
		}

		if h.TableID == TableIDPresentFollowing {
			incoming := correctRunningStatus(h.SectionNumber, raw.RunningStatus, evt.RunningStatus())
			if incoming >= astits.RunningStatusNotRunning {
				sched.SetRunningStatus(evt, incoming)
			}
		}

		// process == false means this 0x4E section was already absorbed
		// and we only needed the "seen" tag refreshed; no descriptor work.
		if !process {
			continue
		}

		if !skip {
			if err := p.applyDescriptors(h, d.OriginalNetworkID, d.TransportStreamID, ch, sched, evt, raw, now); err != nil {
				return fmt.Errorf("applying descriptors for event %d failed: %w", raw.EventID, err)
			}

			p.handlers.fixEpgBugs(evt)
			p.handlers.handleEvent(evt)

			chModified = true
			schedModified = true
			anyModified = true
		}

	}

	if h.TableID == TableIDPresentFollowing && len(d.Events) == 0 && h.SectionNumber == 0 {
		sched.ClrRunningStatus()
		sched.SetPresentSeen()
	}

	complete := tables.Processed(h.TableID, d.LastTableID, h.SectionNumber, h.LastSectionNumber, d.SegmentLastSectionNumber)
	ready := h.TableID >= TableIDSchedule || (h.TableID == TableIDPresentFollowing && tables.PresentFollowingComplete())
	if complete && ready && anyModified {
		if h.TableID == TableIDPresentFollowing && tables.PresentFollowingComplete() {
			segmentStart, segmentEnd = tables.TableStart(), tables.TableEnd()
		}
		p.handlers.sortSchedule(sched)
		p.handlers.dropOutdated(sched, segmentStart, segmentEnd, h.TableID, h.VersionNumber)
		schedModified = true
	}

	if p.handlers.handledExternally(ch) {
		chModified = true
	}

	p.handlers.endSegmentTransfer(ch, chModified || schedModified)

	return nil
}

// resolveEvent finds or creates the schedule entry a raw EIT row refers to.
// Present/following and schedule-actual tables (0x4E, 0x5X) resolve by
// event id; schedule-other tables (0x6X) resolve by start time, since a
// neighbouring transponder's event ids are drawn from a different space.
func (p *EitProcessor) resolveEvent(ch Channel, sched Schedule, tableID uint8, raw *astits.EITDataEvent) (Event, bool) {
	var evt Event
	var found bool
	if tableID&0xf0 == 0x60 {
		evt, found = sched.GetEventByTime(raw.StartTime)
	} else {
		evt, found = sched.GetEventByID(raw.EventID)
	}

	handledExternally := p.handlers.handledExternally(ch)
	if found {
		if !handledExternally {
			return evt, false
		}
		if !p.handlers.isUpdate(evt, raw.StartTime, raw.Duration, tableID, evt.Version()) {
			return evt, false
		}
	}

	evt = sched.NewEvent(raw.EventID, raw.StartTime, raw.Duration)
	if !handledExternally {
		sched.AddEvent(evt)
	}
	return evt, true
}

// finalizeReference applies the minimal handling an undefined-start-time
// (NVOD master) row gets: it still needs an event id and a version so that
// timeshifted-event descriptors elsewhere can reference it.
func (p *EitProcessor) finalizeReference(ch Channel, evt Event, raw *astits.EITDataEvent, created bool) {
	if created {
		p.handlers.setEventID(evt, raw.EventID)
	}
	evt.SetSeen(true)
}

// correctRunningStatus fixes two running_status glitches some broadcasters
// ship on present/following sections: a spurious transition to NotRunning
// on the present event's own row (index 0), which should be read as
// "still pausing" rather than "not running", and the same spurious
// transition on the following event's row (index 1), which should fall
// back to Undefined rather than be believed.
func correctRunningStatus(sectionNumber uint8, incoming, previous uint8) uint8 {
	if incoming == previous {
		return incoming
	}
	if incoming != astits.RunningStatusNotRunning {
		return incoming
	}
	switch sectionNumber {
	case 0:
		if previous == astits.RunningStatusPausing {
			return astits.RunningStatusPausing
		}
	case 1:
		return astits.RunningStatusUndefined
	}
	return incoming
}

// languageRank returns how preferred code is against the ordered
// EPGLanguages list: lower is better, len(languages) means "not listed".
func languageRank(languages []string, code string) int {
	code = normalizeLanguageCode(code)
	for i, l := range languages {
		if normalizeLanguageCode(l) == code {
			return i
		}
	}
	return len(languages)
}

func normalizeLanguageCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
