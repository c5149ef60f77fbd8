package astits

import (
	"fmt"
	"time"

	"github.com/icza/bitio"
)

// TDTData represents a TDT data.
// Unlike TOT, a TDT section carries no descriptor loop and no CRC32 — it is
// nothing but a table id and a 40 bit UTC time field.
// Page: 38 | Chapter: 5.2.5 | Link: https://www.dvb.org/resources/public/standards/a38_dvb-si_specification.pdf
type TDTData struct {
	UTCTime time.Time
}

// parseTDTSection parses a TDT section
func parseTDTSection(r *bitio.CountReader) (d *TDTData, err error) {
	d = &TDTData{}

	if d.UTCTime, err = parseDVBTime(r); err != nil {
		return nil, fmt.Errorf("parsing UTC time failed: %w", err)
	}

	return d, r.TryError
}
