package astits

import (
	"fmt"

	"github.com/icza/bitio"
)

// NITData represents a NIT data
// Page: 29 | Chapter: 5.2.1 | Link: https://www.dvb.org/resources/public/standards/a38_dvb-si_specification.pdf
type NITData struct {
	NetworkDescriptors []*Descriptor
	NetworkID          uint16
	TransportStreams   []*NITDataTransportStream
}

// NITDataTransportStream represents a NIT data transport stream
type NITDataTransportStream struct {
	OriginalNetworkID    uint16
	TransportDescriptors []*Descriptor
	TransportStreamID    uint16
}

// parseNITSection parses a NIT section
func parseNITSection(r *bitio.CountReader, tableIDExtension uint16) (d *NITData, err error) {
	d = &NITData{NetworkID: tableIDExtension}

	_ = r.TryReadBits(4) // Reserved for future use.
	if d.NetworkDescriptors, err = parseDescriptors(r); err != nil {
		return nil, fmt.Errorf("parsing network descriptors failed: %w", err)
	}

	_ = r.TryReadBits(4) // Reserved.
	transportStreamLoopLength := int64(r.TryReadBits(12))

	offsetLoopEnd := r.BitsCount/8 + transportStreamLoopLength
	for r.BitsCount/8 < offsetLoopEnd {
		ts := &NITDataTransportStream{}

		ts.TransportStreamID = uint16(r.TryReadBits(16))
		ts.OriginalNetworkID = uint16(r.TryReadBits(16))

		if ts.TransportDescriptors, err = parseDescriptors(r); err != nil {
			return nil, fmt.Errorf("parsing transport descriptors failed: %w", err)
		}

		d.TransportStreams = append(d.TransportStreams, ts)
	}
	return d, r.TryError
}
