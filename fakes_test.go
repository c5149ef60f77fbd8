package astiepg

import "time"

// fakeStateKey is a no-op StateKey, since the fakes below have nothing to
// flush back on release.
type fakeStateKey struct{}

func (fakeStateKey) Release(modified bool) {}

type fakeChannel struct {
	id ChannelID
}

func (c *fakeChannel) ID() ChannelID { return c.id }

type fakeEvent struct {
	eventID       uint16
	tableID       uint8
	runningStatus uint8
	version       uint8
	seen          bool
	hasTimer      bool
	startTime     time.Time
	duration      time.Duration
	title         string
	shortText     string
	description   string
}

func (e *fakeEvent) EventID() uint16            { return e.eventID }
func (e *fakeEvent) TableID() uint8             { return e.tableID }
func (e *fakeEvent) SetTableID(id uint8)        { e.tableID = id }
func (e *fakeEvent) RunningStatus() uint8       { return e.runningStatus }
func (e *fakeEvent) Version() uint8             { return e.version }
func (e *fakeEvent) Seen() bool                 { return e.seen }
func (e *fakeEvent) SetSeen(seen bool)          { e.seen = seen }
func (e *fakeEvent) HasTimer() bool             { return e.hasTimer }
func (e *fakeEvent) StartTime() time.Time       { return e.startTime }
func (e *fakeEvent) Duration() time.Duration    { return e.duration }
func (e *fakeEvent) Title() string              { return e.title }
func (e *fakeEvent) ShortText() string          { return e.shortText }
func (e *fakeEvent) Description() string        { return e.description }

type fakeSchedule struct {
	ch            Channel
	events        []*fakeEvent
	byID          map[uint16]*fakeEvent
	onActualTp    bool
	presentSeen   bool
	clrRunStatus  bool
}

func newFakeSchedule(ch Channel) *fakeSchedule {
	return &fakeSchedule{ch: ch, byID: map[uint16]*fakeEvent{}}
}

func (s *fakeSchedule) Channel() Channel { return s.ch }

func (s *fakeSchedule) NewEvent(eventID uint16, startTime time.Time, duration time.Duration) Event {
	return &fakeEvent{eventID: eventID, startTime: startTime, duration: duration}
}

func (s *fakeSchedule) GetEventByID(eventID uint16) (Event, bool) {
	e, ok := s.byID[eventID]
	return e, ok
}

func (s *fakeSchedule) GetEventByTime(startTime time.Time) (Event, bool) {
	for _, e := range s.events {
		if e.startTime.Equal(startTime) {
			return e, true
		}
	}
	return nil, false
}

func (s *fakeSchedule) AddEvent(evt Event) {
	fe := evt.(*fakeEvent)
	s.byID[fe.eventID] = fe
	s.events = append(s.events, fe)
}

func (s *fakeSchedule) SetRunningStatus(evt Event, status uint8) {
	evt.(*fakeEvent).runningStatus = status
}

func (s *fakeSchedule) ClrRunningStatus() {
	s.clrRunStatus = true
	for _, e := range s.events {
		e.runningStatus = 0
	}
}

func (s *fakeSchedule) SetPresentSeen() { s.presentSeen = true }

func (s *fakeSchedule) OnActualTp(tableID uint8) bool { return s.onActualTp }

// fakeStore implements both ChannelStore and ScheduleStore, since in these
// tests there's no need to keep the two external databases in separate
// concrete types.
type fakeStore struct {
	channels  map[ChannelID]*fakeChannel
	schedules map[ChannelID]*fakeSchedule
	linked    map[ChannelID][]Channel
	lockFail  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		channels:  map[ChannelID]*fakeChannel{},
		schedules: map[ChannelID]*fakeSchedule{},
		linked:    map[ChannelID][]Channel{},
	}
}

func (s *fakeStore) addChannel(id ChannelID) *fakeChannel {
	ch := &fakeChannel{id: id}
	s.channels[id] = ch
	s.schedules[id] = newFakeSchedule(ch)
	return ch
}

func (s *fakeStore) Lock(timeout time.Duration) (StateKey, bool) {
	if s.lockFail {
		return nil, false
	}
	return fakeStateKey{}, true
}

func (s *fakeStore) GetByChannelID(id ChannelID) (Channel, bool) {
	ch, ok := s.channels[id]
	return ch, ok
}

func (s *fakeStore) GetByTransponderID(source uint8, transportStreamID uint16) (Channel, bool) {
	for id, ch := range s.channels {
		if id.Source == source && id.TransportStreamID == transportStreamID {
			return ch, true
		}
	}
	return nil, false
}

func (s *fakeStore) NewChannel(id ChannelID) Channel {
	return s.addChannel(id)
}

func (s *fakeStore) Rename(ch Channel, name string)         {}
func (s *fakeStore) SetPortalName(ch Channel, name string)  {}

func (s *fakeStore) AddLinkChannel(ch Channel, linked Channel) {
	id := ch.ID()
	s.linked[id] = append(s.linked[id], linked)
}

func (s *fakeStore) GetSchedule(ch Channel, create bool) (Schedule, bool) {
	id := ch.ID()
	sched, ok := s.schedules[id]
	if !ok {
		if !create {
			return nil, false
		}
		sched = newFakeSchedule(ch)
		s.schedules[id] = sched
	}
	return sched, true
}

// fakeHandler is the only place these tests actually write event fields,
// mirroring the real EventHandler contract: the core never touches an
// Event's concrete type itself.
type fakeHandler struct {
	BaseEventHandler
}

func (fakeHandler) SetEventID(evt Event, id uint16) bool {
	evt.(*fakeEvent).eventID = id
	return true
}

func (fakeHandler) SetStartTime(evt Event, t time.Time) bool {
	evt.(*fakeEvent).startTime = t
	return true
}

func (fakeHandler) SetDuration(evt Event, d time.Duration) bool {
	evt.(*fakeEvent).duration = d
	return true
}

func (fakeHandler) SetTitle(evt Event, title string) bool {
	evt.(*fakeEvent).title = title
	return true
}

func (fakeHandler) SetShortText(evt Event, text string) bool {
	evt.(*fakeEvent).shortText = text
	return true
}

func (fakeHandler) SetDescription(evt Event, description string) bool {
	evt.(*fakeEvent).description = description
	return true
}
