package astits

import (
	"fmt"
	"time"

	"github.com/icza/bitio"
)

// TOTData represents a TOT data
// Page: 39 | Chapter: 5.2.6 | Link: https://www.dvb.org/resources/public/standards/a38_dvb-si_specification.pdf
type TOTData struct {
	Descriptors []*Descriptor
	UTCTime     time.Time
}

// parseTOTSection parses a TOT section
func parseTOTSection(r *bitio.CountReader) (d *TOTData, err error) {
	d = &TOTData{}

	if d.UTCTime, err = parseDVBTime(r); err != nil {
		return nil, fmt.Errorf("parsing UTC time failed: %w", err)
	}

	_ = r.TryReadBits(4) // Reserved for future use.
	if d.Descriptors, err = parseDescriptors(r); err != nil {
		return nil, fmt.Errorf("parsing descriptors failed: %w", err)
	}

	return d, r.TryError
}
