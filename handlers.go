package astiepg

import (
	"time"

	"github.com/asticode/go-astiepg/astits"
)

// ChannelID identifies a channel the way the EIT processor resolves it:
// broadcast origin plus the DVB (original network id, transport stream id,
// service id) triple.
type ChannelID struct {
	Source            uint8
	OriginalNetworkID uint16
	TransportStreamID uint16
	ServiceID         uint16
}

// Component is one entry of an event's Components list, built from the
// component descriptor's dispatch row.
type Component struct {
	StreamContent uint8
	Type          uint8
	Language      string
	Description   string
}

// Channel is the external channel-database entity the core resolves
// through ChannelStore and mutates only through its rename/linkage
// mutators or the handler chain.
type Channel interface {
	ID() ChannelID
}

// Event is the external schedule entity the core resolves through
// Schedule. The core calls SetTableID and SetSeen directly; every other
// event field is written only through the EventHandler chain.
type Event interface {
	EventID() uint16
	TableID() uint8
	SetTableID(id uint8)
	RunningStatus() uint8
	Version() uint8
	Seen() bool
	SetSeen(seen bool)
	HasTimer() bool
	StartTime() time.Time
	Duration() time.Duration

	// Title, ShortText and Description are read accessors, used by the
	// time-shifted-event descriptor to copy text from a referenced master
	// event into this one. Every write still goes through the matching
	// SetTitle/SetShortText/SetDescription handler call.
	Title() string
	ShortText() string
	Description() string
}

// StateKey is a bounded-wait writable lock on an external store, released
// on scope exit. Modified reports whatever the holder wants to signal to
// the store about the outcome of the critical section it guarded.
type StateKey interface {
	Release(modified bool)
}

// ChannelStore is the external channel database, referenced only through
// this interface.
type ChannelStore interface {
	// Lock acquires a writable state key, bounded by timeout. ok is false
	// if the lock could not be acquired in time.
	Lock(timeout time.Duration) (key StateKey, ok bool)

	// GetByChannelID resolves a channel; found is false when the store
	// knows no channel under id.
	GetByChannelID(id ChannelID) (ch Channel, found bool)

	// GetByTransponderID resolves a channel carried on the given
	// transponder. Filter uses it to check that a TDT section's transponder
	// is known before forwarding the section (see FilterOptChannelStore).
	GetByTransponderID(source uint8, transportStreamID uint16) (ch Channel, found bool)

	// NewChannel synthesizes a channel on the given transponder, used when
	// Premiere linkage policy is high enough to create missing channels.
	NewChannel(id ChannelID) Channel

	// Rename and SetPortalName apply the Premiere linkage naming policy.
	Rename(ch Channel, name string)
	SetPortalName(ch Channel, name string)

	// AddLinkChannel records a channel reachable via linkage descriptors
	// from another channel's schedule.
	AddLinkChannel(ch Channel, linked Channel)
}

// Schedule is one channel's writable event list, as exposed by
// ScheduleStore.
type Schedule interface {
	Channel() Channel

	// NewEvent allocates (but does not add) a new event.
	NewEvent(eventID uint16, startTime time.Time, duration time.Duration) Event

	GetEventByID(eventID uint16) (Event, bool)
	GetEventByTime(startTime time.Time) (Event, bool)
	AddEvent(evt Event)

	SetRunningStatus(evt Event, status uint8)
	ClrRunningStatus()
	SetPresentSeen()

	// OnActualTp reports whether any event sourced from a table in the
	// 0x5X (actual transponder schedule) range has already been recorded
	// on this schedule.
	OnActualTp(tableID uint8) bool
}

// ScheduleStore is the external per-channel schedule database, referenced
// only through this interface.
type ScheduleStore interface {
	Lock(timeout time.Duration) (key StateKey, ok bool)

	// GetSchedule returns the schedule for ch, creating it if create is
	// true and it doesn't exist yet.
	GetSchedule(ch Channel, create bool) (Schedule, bool)
}

// EventHandler is the external EPG-handler plug-in chain the core
// delegates event mutations to. The Set* methods, FixEpgBugs, SortSchedule,
// DropOutdated, HandleEvent and EndSegmentTransfer are called on every
// handler in the chain and their results are ignored: the core has no
// default behavior of its own for them, so an event field only changes if
// a handler writes it. IgnoreChannel, HandledExternally and IsUpdate report
// true as soon as one handler does; BeginSegmentTransfer reports false as
// soon as one handler does. HandleEitEvent uses first-match semantics: the
// first handler to return true stops the chain and the event is considered
// fully externally handled.
//
// BaseEventHandler implements every method as a no-op returning false
// (BeginSegmentTransfer returns true), so a plug-in only needs to override
// what it cares about.
type EventHandler interface {
	IgnoreChannel(ch Channel) bool
	BeginSegmentTransfer(ch Channel) bool
	EndSegmentTransfer(ch Channel, modified bool)

	// HandleEitEvent is offered the raw section row before it is resolved
	// against the schedule. Returning true means the plug-in has taken full
	// ownership of this row; the core skips its own resolution entirely.
	HandleEitEvent(ch Channel, tableID uint8, raw *astits.EITDataEvent) bool
	IsUpdate(evt Event, startTime time.Time, duration time.Duration, tableID uint8, version uint8) bool
	HandledExternally(ch Channel) bool

	SetEventID(evt Event, eventID uint16) bool
	SetStartTime(evt Event, t time.Time) bool
	SetDuration(evt Event, d time.Duration) bool
	SetTitle(evt Event, title string) bool
	SetShortText(evt Event, text string) bool
	SetDescription(evt Event, description string) bool
	SetContents(evt Event, contents []byte) bool
	SetParentalRating(evt Event, rating int) bool
	SetVps(evt Event, vps time.Time) bool
	SetComponents(evt Event, components []Component) bool

	FixEpgBugs(evt Event) bool
	SortSchedule(s Schedule) bool
	DropOutdated(s Schedule, segmentStart, segmentEnd time.Time, tableID uint8, version uint8) bool
	HandleEvent(evt Event) bool
}

// BaseEventHandler is a no-op EventHandler. Embed it in a plug-in to only
// override the methods it actually needs.
type BaseEventHandler struct{}

func (BaseEventHandler) IgnoreChannel(Channel) bool                                         { return false }
func (BaseEventHandler) BeginSegmentTransfer(Channel) bool                                   { return true }
func (BaseEventHandler) EndSegmentTransfer(Channel, bool)                                    {}
func (BaseEventHandler) HandleEitEvent(Channel, uint8, *astits.EITDataEvent) bool             { return false }
func (BaseEventHandler) IsUpdate(Event, time.Time, time.Duration, uint8, uint8) bool          { return false }
func (BaseEventHandler) HandledExternally(Channel) bool                                      { return false }
func (BaseEventHandler) SetEventID(Event, uint16) bool                                       { return false }
func (BaseEventHandler) SetStartTime(Event, time.Time) bool                                  { return false }
func (BaseEventHandler) SetDuration(Event, time.Duration) bool                                { return false }
func (BaseEventHandler) SetTitle(Event, string) bool                                         { return false }
func (BaseEventHandler) SetShortText(Event, string) bool                                     { return false }
func (BaseEventHandler) SetDescription(Event, string) bool                                   { return false }
func (BaseEventHandler) SetContents(Event, []byte) bool                                      { return false }
func (BaseEventHandler) SetParentalRating(Event, int) bool                                   { return false }
func (BaseEventHandler) SetVps(Event, time.Time) bool                                        { return false }
func (BaseEventHandler) SetComponents(Event, []Component) bool                               { return false }
func (BaseEventHandler) FixEpgBugs(Event) bool                                               { return false }
func (BaseEventHandler) SortSchedule(Schedule) bool                                           { return false }
func (BaseEventHandler) DropOutdated(Schedule, time.Time, time.Time, uint8, uint8) bool       { return false }
func (BaseEventHandler) HandleEvent(Event) bool                                               { return false }

var _ EventHandler = BaseEventHandler{}

// handlerChain is the ordered list of plug-ins an EitProcessor calls
// through.
type handlerChain []EventHandler

func (c handlerChain) handleEitEvent(ch Channel, tableID uint8, raw *astits.EITDataEvent) bool {
	for _, h := range c {
		if h.HandleEitEvent(ch, tableID, raw) {
			return true
		}
	}
	return false
}

func (c handlerChain) ignoreChannel(ch Channel) bool {
	for _, h := range c {
		if h.IgnoreChannel(ch) {
			return true
		}
	}
	return false
}

func (c handlerChain) beginSegmentTransfer(ch Channel) bool {
	for _, h := range c {
		if !h.BeginSegmentTransfer(ch) {
			return false
		}
	}
	return true
}

func (c handlerChain) endSegmentTransfer(ch Channel, modified bool) {
	for _, h := range c {
		h.EndSegmentTransfer(ch, modified)
	}
}

func (c handlerChain) handledExternally(ch Channel) bool {
	for _, h := range c {
		if h.HandledExternally(ch) {
			return true
		}
	}
	return false
}

func (c handlerChain) isUpdate(evt Event, startTime time.Time, duration time.Duration, tableID uint8, version uint8) bool {
	for _, h := range c {
		if h.IsUpdate(evt, startTime, duration, tableID, version) {
			return true
		}
	}
	return false
}

func (c handlerChain) setEventID(evt Event, id uint16) {
	for _, h := range c {
		h.SetEventID(evt, id)
	}
}

func (c handlerChain) setStartTime(evt Event, t time.Time) {
	for _, h := range c {
		h.SetStartTime(evt, t)
	}
}

func (c handlerChain) setDuration(evt Event, d time.Duration) {
	for _, h := range c {
		h.SetDuration(evt, d)
	}
}

func (c handlerChain) setTitle(evt Event, title string) {
	for _, h := range c {
		h.SetTitle(evt, title)
	}
}

func (c handlerChain) setShortText(evt Event, text string) {
	for _, h := range c {
		h.SetShortText(evt, text)
	}
}

func (c handlerChain) setDescription(evt Event, description string) {
	for _, h := range c {
		h.SetDescription(evt, description)
	}
}

func (c handlerChain) setContents(evt Event, contents []byte) {
	for _, h := range c {
		h.SetContents(evt, contents)
	}
}

func (c handlerChain) setParentalRating(evt Event, rating int) {
	for _, h := range c {
		h.SetParentalRating(evt, rating)
	}
}

func (c handlerChain) setVps(evt Event, vps time.Time) {
	for _, h := range c {
		h.SetVps(evt, vps)
	}
}

func (c handlerChain) setComponents(evt Event, components []Component) {
	for _, h := range c {
		h.SetComponents(evt, components)
	}
}

func (c handlerChain) fixEpgBugs(evt Event) {
	for _, h := range c {
		h.FixEpgBugs(evt)
	}
}

func (c handlerChain) sortSchedule(s Schedule) {
	for _, h := range c {
		h.SortSchedule(s)
	}
}

func (c handlerChain) dropOutdated(s Schedule, segmentStart, segmentEnd time.Time, tableID uint8, version uint8) {
	for _, h := range c {
		h.DropOutdated(s, segmentStart, segmentEnd, tableID, version)
	}
}

func (c handlerChain) handleEvent(evt Event) {
	for _, h := range c {
		h.HandleEvent(evt)
	}
}
