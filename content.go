package astiepg

// PackContent packs a content descriptor's nibble pair into a single byte,
// nibble1 in the upper four bits.
func PackContent(nibble1, nibble2 uint8) byte {
	return (nibble1 << 4) | (nibble2 & 0x0f)
}
