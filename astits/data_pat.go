package astits

import "github.com/icza/bitio"

// PATData represents a PAT data
// https://en.wikipedia.org/wiki/Program-specific_information
type PATData struct {
	Programs          []*PATProgram
	TransportStreamID uint16
}

// PATProgram represents a PAT program
type PATProgram struct {
	ProgramMapID  uint16 // The packet identifier that contains the associated PMT
	ProgramNumber uint16 // Relates to the Table ID extension in the associated PMT. A value of 0 is reserved for a NIT packet identifier.
}

// parsePATSection parses a PAT section
func parsePATSection(r *bitio.CountReader, offsetSectionsEnd int64, tableIDExtension uint16) (d *PATData, err error) {
	// Init
	d = &PATData{TransportStreamID: tableIDExtension}

	// Loop until end of section data is reached
	for r.BitsCount/8 < offsetSectionsEnd {
		programNumber := uint16(r.TryReadBits(16))

		_ = r.TryReadBits(3) // Reserved.
		programMapID := uint16(r.TryReadBits(13))

		d.Programs = append(d.Programs, &PATProgram{
			ProgramMapID:  programMapID,
			ProgramNumber: programNumber,
		})
	}
	return d, r.TryError
}

func calcPATSectionLength(d *PATData) uint16 {
	return uint16(4 * len(d.Programs))
}

func writePATSection(w *bitio.Writer, d *PATData) (int, error) {
	for _, p := range d.Programs {
		w.TryWriteBits(uint64(p.ProgramNumber), 16)
		w.TryWriteBits(0xff, 3) // Reserved.
		w.TryWriteBits(uint64(p.ProgramMapID), 13)
	}
	return 4 * len(d.Programs), w.TryError
}
