package astiepg

// MapParentalRating maps a raw DVB parental_rating descriptor byte to a
// minimum age. 0x01-0x0F map to the DVB "rating + 3 years" convention,
// 0x11/0x12/0x13 are broadcaster-specific extensions to fixed ages, and
// everything else (including 0x00, "no rating") maps to 0. The mapping is
// total and idempotent over the whole byte range.
func MapParentalRating(raw uint8) int {
	switch {
	case raw >= 0x01 && raw <= 0x0f:
		return int(raw) + 3
	case raw == 0x11:
		return 10
	case raw == 0x12:
		return 12
	case raw == 0x13:
		return 16
	default:
		return 0
	}
}
