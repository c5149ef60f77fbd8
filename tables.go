package astiepg

import "time"

// EIT table ids span 0x4E (present/following, actual transponder) through
// 0x6F (schedule, other transponders). 0x4F is tracked like any other
// table id (so a version bump on it doesn't wedge the array) but the
// processor never acts on it: DVB receivers that do are a known source of
// broadcaster chaos.
const (
	eitTableIDMin = 0x4E
	eitTableIDMax = 0x6F
	eitTableCount = eitTableIDMax - eitTableIDMin + 1

	// TableIDPresentFollowing is the present/following table id.
	TableIDPresentFollowing = 0x4E
	// TableIDPresentFollowingOther is 0x4F: tracked, never processed.
	TableIDPresentFollowingOther = 0x4F
	// TableIDSchedule is the first schedule (0x5X, actual transponder)
	// table id; table ids at or above this value never go through the
	// 0x4E "needs both sections" completion gate.
	TableIDSchedule = 0x50
)

// EitTables aggregates the 32-ish SectionSyncers covering every EIT table
// id for a single service, plus the running "table time span" (earliest
// event start to latest event end) the 0x4E present/following table
// reports across its two sections.
type EitTables struct {
	syncers    [eitTableCount]*SectionSyncer
	complete   bool
	tableStart time.Time
	tableEnd   time.Time
}

// NewEitTables returns a fresh, empty EitTables for one service.
func NewEitTables() *EitTables {
	t := &EitTables{}
	for i := range t.syncers {
		t.syncers[i] = NewSectionSyncer()
	}
	return t
}

func (t *EitTables) syncer(tableID uint8) *SectionSyncer {
	return t.syncers[int(tableID)-eitTableIDMin]
}

// Check delegates to the syncer for tableID.
func (t *EitTables) Check(tableID uint8, version, sectionNumber uint8) bool {
	return t.syncer(tableID).Check(version, sectionNumber)
}

// Processed delegates to the syncer for tableID. If that syncer just
// became complete, it rescans every syncer from 0x4E to lastTableID and
// sets the aggregate Complete flag only if all of them are complete too.
// Otherwise the aggregate flag is cleared.
func (t *EitTables) Processed(tableID, lastTableID, sectionNumber, lastSectionNumber, segmentLastSectionNumber uint8) bool {
	complete := t.syncer(tableID).Processed(sectionNumber, lastSectionNumber, segmentLastSectionNumber)
	t.complete = false
	if complete {
		all := true
		for id := uint8(eitTableIDMin); id <= lastTableID; id++ {
			if !t.syncer(id).Complete() {
				all = false
				break
			}
		}
		t.complete = all
	}
	return complete
}

// Complete reports the aggregate completion flag set by Processed.
func (t *EitTables) Complete() bool { return t.complete }

// PresentFollowingComplete reports whether the 0x4E table itself (both
// sections 0 and 1) has been fully received.
func (t *EitTables) PresentFollowingComplete() bool {
	return t.syncer(TableIDPresentFollowing).Complete()
}

// SetTableStart and SetTableEnd record the earliest event start / latest
// event end seen across 0x4E sections processed this cycle.
func (t *EitTables) SetTableStart(v time.Time) { t.tableStart = v }
func (t *EitTables) SetTableEnd(v time.Time)   { t.tableEnd = v }

// TableStart and TableEnd return the values set above.
func (t *EitTables) TableStart() time.Time { return t.tableStart }
func (t *EitTables) TableEnd() time.Time   { return t.tableEnd }

// EitTablesHash maps a service identifier to its EitTables. Access is
// serialized by the owning EitProcessor's mutex; it carries no lock of its
// own.
type EitTablesHash struct {
	m map[uint16]*EitTables
}

// NewEitTablesHash returns an empty hash.
func NewEitTablesHash() *EitTablesHash {
	return &EitTablesHash{m: make(map[uint16]*EitTables)}
}

// Get returns the EitTables for serviceID, if any.
func (h *EitTablesHash) Get(serviceID uint16) (*EitTables, bool) {
	t, ok := h.m[serviceID]
	return t, ok
}

// Add registers t under serviceID.
func (h *EitTablesHash) Add(serviceID uint16, t *EitTables) {
	h.m[serviceID] = t
}

// Clear drops every tracked service, used when the filter's active status
// is toggled.
func (h *EitTablesHash) Clear() {
	h.m = make(map[uint16]*EitTables)
}

// Len reports how many services are currently tracked.
func (h *EitTablesHash) Len() int { return len(h.m) }
