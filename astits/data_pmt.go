package astits

import (
	"fmt"

	"github.com/icza/bitio"
)

// Stream types
const (
	StreamTypeLowerBitrateVideo          = 27 // ITU-T Rec. H.264 and ISO/IEC 14496-10
	StreamTypeMPEG1Audio                 = 3  // ISO/IEC 11172-3
	StreamTypeMPEG2HalvedSampleRateAudio = 4  // ISO/IEC 13818-3
	StreamTypeMPEG2PacketizedData        = 6  // ITU-T Rec. H.222 and ISO/IEC 13818-1 i.e., DVB subtitles/VBI and AC-3
)

// PMTData represents a PMT data
// https://en.wikipedia.org/wiki/Program-specific_information
type PMTData struct {
	ElementaryStreams  []*PMTElementaryStream
	PCRPID             uint16        // The packet identifier that contains the program clock reference used to improve the random access accuracy of the stream's timing that is derived from the program timestamp. If this is unused. then it is set to 0x1FFF (all bits on).
	ProgramDescriptors []*Descriptor // Program descriptors
	ProgramNumber      uint16
}

// PMTElementaryStream represents a PMT elementary stream
type PMTElementaryStream struct {
	ElementaryPID               uint16        // The packet identifier that contains the stream type data.
	ElementaryStreamDescriptors []*Descriptor // Elementary stream descriptors
	StreamType                  uint8         // This defines the structure of the data contained within the elementary packet identifier.
}

// parsePMTSection parses a PMT section
func parsePMTSection(r *bitio.CountReader, offsetSectionsEnd int64, tableIDExtension uint16) (d *PMTData, err error) {
	d = &PMTData{ProgramNumber: tableIDExtension}

	_ = r.TryReadBits(3) // Reserved.
	d.PCRPID = uint16(r.TryReadBits(13))

	_ = r.TryReadBits(4) // Reserved for future use.
	if d.ProgramDescriptors, err = parseDescriptors(r); err != nil {
		return nil, fmt.Errorf("parsing program descriptors failed: %w", err)
	}

	// Loop until end of section data is reached
	for r.BitsCount/8 < offsetSectionsEnd {
		e := &PMTElementaryStream{}

		e.StreamType = r.TryReadByte()

		_ = r.TryReadBits(3) // Reserved.
		e.ElementaryPID = uint16(r.TryReadBits(13))

		_ = r.TryReadBits(4) // Reserved for future use.
		if e.ElementaryStreamDescriptors, err = parseDescriptors(r); err != nil {
			return nil, fmt.Errorf("parsing elementary stream descriptors failed: %w", err)
		}

		d.ElementaryStreams = append(d.ElementaryStreams, e)
	}
	return d, r.TryError
}

func calcPMTSectionLength(d *PMTData) uint16 {
	length := uint16(2) // PCR PID and reserved bits.
	length += 2 + calcDescriptorsLength(d.ProgramDescriptors)
	for _, e := range d.ElementaryStreams {
		length += 1 + 2 + 2 + calcDescriptorsLength(e.ElementaryStreamDescriptors)
	}
	return length
}

func writePMTSection(w *bitio.Writer, d *PMTData) (int, error) {
	w.TryWriteBits(0xff, 3) // Reserved.
	w.TryWriteBits(uint64(d.PCRPID), 13)

	n := 2
	nn, err := writeDescriptorsWithLength(w, d.ProgramDescriptors)
	if err != nil {
		return n, fmt.Errorf("writing program descriptors failed: %w", err)
	}
	n += nn

	for _, e := range d.ElementaryStreams {
		w.TryWriteByte(e.StreamType)
		n++

		w.TryWriteBits(0xff, 3) // Reserved.
		w.TryWriteBits(uint64(e.ElementaryPID), 13)
		n += 2

		nn, err := writeDescriptorsWithLength(w, e.ElementaryStreamDescriptors)
		if err != nil {
			return n, fmt.Errorf("writing elementary stream descriptors failed: %w", err)
		}
		n += nn
	}
	return n, w.TryError
}
