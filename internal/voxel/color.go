package voxel

// RGB332 is the one-byte voxel color format: red in bits 7..5, green in
// bits 4..3, blue in bits 1..0. Bit 2 is unused on the wire and must be
// zero. Channels expand to 8-bit intensities for bit-plane encoding.

// Pack332 packs quantized channels (r in [0,8), g and b in [0,4)).
func Pack332(r, g, b uint8) byte {
	return (r&0x07)<<5 | (g&0x03)<<3 | b&0x03
}

// FromRGB quantizes full 8-bit channels down to RGB332.
func FromRGB(r, g, b uint8) byte {
	return Pack332(r>>5, g>>6, b>>6)
}

// Channels expands an RGB332 byte to 8-bit intensities. Expansion scales
// so that a full channel maps to 255 and zero stays zero.
func Channels(c byte) (r, g, b uint8) {
	r3 := uint16(c >> 5 & 0x07)
	g2 := uint16(c >> 3 & 0x03)
	b2 := uint16(c & 0x03)
	return uint8(r3 * 255 / 7), uint8(g2 * 255 / 3), uint8(b2 * 255 / 3)
}
