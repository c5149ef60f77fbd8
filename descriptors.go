package astiepg

import (
	"strings"
	"time"

	"github.com/asticode/go-astiepg/astits"
)

// descriptorScratch accumulates per-event state across one event's
// descriptor loop. It is released on return from applyDescriptors; nothing
// in it outlives the call.
type descriptorScratch struct {
	shortEvent     *astits.DescriptorShortEvent
	shortRank      int
	haveShort      bool
	extendedLang   string
	extendedRank   int
	extendedText   strings.Builder
	haveExtended   bool
	contents       []byte
	haveRating     bool
	rating         int
	ratingRank     int
	haveVps        bool
	vps            time.Time
	components     []Component
	timeShifted    *astits.DescriptorTimeShiftedEvent
	linkChannels   []Channel
}

// maxExtendedTextLength bounds the growable extended-event text buffer,
// a sanity ceiling against a broadcaster sending a pathologically long
// run of extended-event text fragments.
const maxExtendedTextLength = 4096

// applyDescriptors walks one event's descriptor loop, interprets every
// descriptor type an event can carry, then applies the accumulated result
// to evt through the handler chain.
func (p *EitProcessor) applyDescriptors(h EitSectionHeader, originalNetworkID, transportStreamID uint16, ch Channel, sched Schedule, evt Event, raw *astits.EITDataEvent, now time.Time) error {
	var s descriptorScratch

	for _, desc := range raw.Descriptors {
		switch desc.Tag {
		case astits.DescriptorTagShortEvent:
			p.applyShortEvent(&s, desc)
		case astits.DescriptorTagExtendedEvent:
			p.applyExtendedEvent(&s, desc)
		case astits.DescriptorTagContent:
			p.applyContent(&s, desc)
		case astits.DescriptorTagParentalRating:
			p.applyParentalRating(&s, desc)
		case astits.DescriptorTagPDC:
			p.applyPDC(&s, desc, now)
		case astits.DescriptorTagTimeShiftedEvent:
			s.timeShifted = desc.TimeShiftedEvent
		case astits.DescriptorTagLinkage:
			p.applyLinkage(&s, h, originalNetworkID, transportStreamID, ch, evt, desc, now)
		case astits.DescriptorTagComponent:
			p.applyComponent(&s, desc)
		default:
			// Every other descriptor tag carries no event field this
			// engine cares about and is ignored.
		}
	}

	if s.timeShifted != nil {
		if err := p.applyTimeShiftedReference(h, originalNetworkID, transportStreamID, evt, s.timeShifted); err != nil {
			return err
		}
	} else if s.haveShort {
		p.handlers.setTitle(evt, string(s.shortEvent.EventName))
		p.handlers.setShortText(evt, string(s.shortEvent.Text))
	} else {
		p.handlers.setTitle(evt, "")
		p.handlers.setShortText(evt, "")
	}

	if s.timeShifted == nil {
		if s.haveExtended {
			p.handlers.setDescription(evt, s.extendedText.String())
		} else {
			p.handlers.setDescription(evt, "")
		}
	}

	if s.contents != nil {
		p.handlers.setContents(evt, s.contents)
	}
	if s.haveRating {
		p.handlers.setParentalRating(evt, s.rating)
	}
	if s.haveVps {
		p.handlers.setVps(evt, s.vps)
	}
	if s.components != nil {
		p.handlers.setComponents(evt, s.components)
	}

	for _, linked := range s.linkChannels {
		p.channels.AddLinkChannel(ch, linked)
	}

	return nil
}

// applyShortEvent keeps the short-event descriptor whose language best
// matches the configured preference order, discarding the rest.
func (p *EitProcessor) applyShortEvent(s *descriptorScratch, desc *astits.Descriptor) {
	d := desc.ShortEvent
	if d == nil {
		return
	}
	rank := languageRank(p.cfg.EPGLanguages, string(d.Language))
	if !s.haveShort || rank < s.shortRank {
		s.shortEvent = d
		s.shortRank = rank
		s.haveShort = true
	}
}

// applyExtendedEvent accumulates extended-event descriptor fragments,
// restarting the accumulation whenever a better-ranked language shows up
// and ignoring fragments for a worse-ranked language once one has been
// chosen.
func (p *EitProcessor) applyExtendedEvent(s *descriptorScratch, desc *astits.Descriptor) {
	d := desc.ExtendedEvent
	if d == nil {
		return
	}
	lang := normalizeLanguageCode(string(d.ISO639LanguageCode))
	rank := languageRank(p.cfg.EPGLanguages, lang)

	if s.haveExtended && lang != s.extendedLang {
		if rank >= s.extendedRank {
			return
		}
		s.extendedText.Reset()
	}
	s.extendedLang = lang
	s.extendedRank = rank
	s.haveExtended = true

	appendBounded(&s.extendedText, string(d.Text))
	for _, item := range d.Items {
		if len(item.Description) == 0 && len(item.Content) == 0 {
			continue
		}
		if s.extendedText.Len() > 0 {
			appendBounded(&s.extendedText, " ")
		}
		appendBounded(&s.extendedText, string(item.Description))
		appendBounded(&s.extendedText, ": ")
		appendBounded(&s.extendedText, string(item.Content))
	}
}

func appendBounded(b *strings.Builder, s string) {
	if b.Len() >= maxExtendedTextLength {
		return
	}
	if room := maxExtendedTextLength - b.Len(); len(s) > room {
		s = s[:room]
	}
	b.WriteString(s)
}

// applyContent packs the content descriptor's nibble pairs, bounded by
// Config.MaxEventContents bytes.
func (p *EitProcessor) applyContent(s *descriptorScratch, desc *astits.Descriptor) {
	max := p.cfg.MaxEventContents
	for _, item := range desc.Content.Items {
		if len(s.contents) >= max {
			break
		}
		s.contents = append(s.contents, PackContent(item.ContentNibbleLevel1, item.ContentNibbleLevel2))
	}
	if s.contents == nil {
		s.contents = []byte{}
	}
}

// applyParentalRating maps the best-language parental rating item to a
// minimum age. DVB's parental_rating descriptor keys items by ISO 3166
// country code rather than ISO 639 language, but broadcasters that carry
// more than one item for a single event invariably pick the item for the
// viewer's own country the same way they pick a preferred language for
// text, so the same preference-list ranking applies here.
func (p *EitProcessor) applyParentalRating(s *descriptorScratch, desc *astits.Descriptor) {
	for _, item := range desc.ParentalRating.Items {
		rank := languageRank(p.cfg.EPGLanguages, string(item.CountryCode))
		if !s.haveRating || rank < s.ratingRank {
			s.rating = MapParentalRating(item.Rating)
			s.ratingRank = rank
			s.haveRating = true
		}
	}
}

// applyPDC computes the VPS anchor time from a PDC descriptor.
func (p *EitProcessor) applyPDC(s *descriptorScratch, desc *astits.Descriptor, now time.Time) {
	d := desc.PDC
	if d == nil {
		return
	}
	s.vps = computeVPSTime(now, time.Month(d.Month), int(d.Day), int(d.Hour), int(d.Minute))
	s.haveVps = true
}

// applyComponent appends a dispatch-table-eligible component row.
func (p *EitProcessor) applyComponent(s *descriptorScratch, desc *astits.Descriptor) {
	d := desc.Component
	if d == nil {
		return
	}

	streamContent := d.StreamContent
	switch {
	case streamContent >= 1 && streamContent <= 6 && d.ComponentType != 0:
		// kept as-is
	case streamContent == 9 && d.StreamContentExt < 2:
		streamContent = (d.StreamContentExt << 4) | d.StreamContent
	default:
		return
	}

	s.components = append(s.components, Component{
		StreamContent: streamContent,
		Type:          d.ComponentType,
		Language:      normalizeLanguageCode(string(d.ISO639LanguageCode)),
		Description:   string(d.Text),
	})
}

// applyTimeShiftedReference copies title/shortText/description from the
// referenced master event into evt and suppresses the descriptor-derived
// short/extended event assignments that would otherwise run.
func (p *EitProcessor) applyTimeShiftedReference(h EitSectionHeader, originalNetworkID, transportStreamID uint16, evt Event, ref *astits.DescriptorTimeShiftedEvent) error {
	refCh, found := p.channels.GetByChannelID(ChannelID{
		Source:            h.Source,
		OriginalNetworkID: originalNetworkID,
		TransportStreamID: transportStreamID,
		ServiceID:         ref.ReferenceServiceID,
	})
	if !found {
		return nil
	}
	refSched, ok := p.schedules.GetSchedule(refCh, false)
	if !ok {
		return nil
	}
	refEvt, ok := refSched.GetEventByID(ref.ReferenceEventID)
	if !ok {
		return nil
	}

	p.handlers.setTitle(evt, refEvt.Title())
	p.handlers.setShortText(evt, refEvt.ShortText())
	p.handlers.setDescription(evt, refEvt.Description())
	return nil
}

// applyLinkage handles the Premiere linkage descriptor: renaming or
// synthesizing the linked channel per the configured policy, and
// recording every linked channel so the caller can attach them to ch once
// the descriptor loop finishes.
func (p *EitProcessor) applyLinkage(s *descriptorScratch, h EitSectionHeader, originalNetworkID, transportStreamID uint16, ch Channel, evt Event, desc *astits.Descriptor, now time.Time) {
	d := desc.Linkage
	if d == nil {
		return
	}

	start := evt.StartTime()
	end := start.Add(evt.Duration())
	if now.Before(start) || now.After(end) {
		return
	}

	// The private data's internal encoding is broadcaster-specific and
	// undocumented by ETSI EN 300 468 itself; the bytes are passed through
	// verbatim and left for the handler chain (or the caller) to normalize.
	name := string(d.PrivateData)

	linkedID := ChannelID{
		Source:            h.Source,
		OriginalNetworkID: d.OriginalNetworkID,
		TransportStreamID: d.TransportStreamID,
		ServiceID:         d.ServiceID,
	}

	if linkedID == ch.ID() {
		if name != "" {
			p.channels.SetPortalName(ch, name)
		}
		return
	}

	linked, found := p.channels.GetByChannelID(linkedID)
	if found {
		if name != "" && p.cfg.UpdateChannels >= UpdateChannelsRenameOnly && p.cfg.UpdateChannels != UpdateChannelsNoRename {
			p.channels.Rename(linked, name)
		}
		s.linkChannels = append(s.linkChannels, linked)
		return
	}

	if p.cfg.UpdateChannels >= UpdateChannelsCreate {
		// NewChannel synthesizes the channel directly on linkedID's own
		// transponder (original network id + transport stream id), which
		// is already "the correct transponder" the linkage descriptor
		// names.
		linked = p.channels.NewChannel(linkedID)
		s.linkChannels = append(s.linkChannels, linked)
	}
}
