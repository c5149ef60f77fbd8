package astits

import (
	"fmt"
	"time"

	"github.com/icza/bitio"
)

// EITData represents an EIT data
// Page: 36 | Chapter: 5.2.4 | Link: https://www.dvb.org/resources/public/standards/a38_dvb-si_specification.pdf
type EITData struct {
	Events                   []*EITDataEvent
	LastTableID              uint8
	OriginalNetworkID        uint16
	SegmentLastSectionNumber uint8
	ServiceID                uint16
	TransportStreamID        uint16
}

// EITDataEvent represents an EIT data event
type EITDataEvent struct {
	Descriptors    []*Descriptor
	Duration       time.Duration
	EventID        uint16
	HasFreeCSAMode bool // When true indicates that access to one or more streams may be controlled by a CA system.
	RunningStatus  uint8
	StartTime      time.Time

	// StartTimeUndefined is true when every bit of the wire start_time
	// field was set to "1", the Annex C sentinel for an undefined start
	// time. NVOD reference service events signal themselves this way;
	// StartTime is the zero time and must not be used when this is set.
	StartTimeUndefined bool
}

// parseEITSection parses an EIT section
func parseEITSection(r *bitio.CountReader, offsetSectionsEnd int64, tableIDExtension uint16) (d *EITData, err error) {
	// Init
	d = &EITData{ServiceID: tableIDExtension}

	// Transport stream ID
	d.TransportStreamID = uint16(r.TryReadBits(16))

	// Original network ID
	d.OriginalNetworkID = uint16(r.TryReadBits(16))

	// Segment last section number
	d.SegmentLastSectionNumber = r.TryReadByte()

	// Last table ID
	d.LastTableID = r.TryReadByte()

	// Loop until end of section data is reached
	for r.BitsCount/8 < offsetSectionsEnd {
		e := &EITDataEvent{}

		// Event ID
		e.EventID = uint16(r.TryReadBits(16))

		// Start time
		if e.StartTime, e.StartTimeUndefined, err = parseDVBTimeUndefined(r); err != nil {
			return nil, fmt.Errorf("parsing start time failed: %w", err)
		}

		// Duration
		if e.Duration, err = parseDVBDurationSeconds(r); err != nil {
			return nil, fmt.Errorf("parsing duration failed: %w", err)
		}

		// Running status
		e.RunningStatus = uint8(r.TryReadBits(3))

		// Free CA mode
		e.HasFreeCSAMode = r.TryReadBool()

		// Descriptors
		if e.Descriptors, err = parseDescriptors(r); err != nil {
			return nil, fmt.Errorf("parsing descriptors failed: %w", err)
		}

		// Add event
		d.Events = append(d.Events, e)
	}
	return d, r.TryError
}
