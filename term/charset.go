package term

// translateChar applies the DEC Special Graphics mapping when cs is
// '0' (spec.md §4.10 "DesignateCharacterSet/SelectCharacterSet"); all
// other designations (USASCII 'B', UK 'A') pass the character through
// unchanged. The mapping covers the printable range 0x5F-0x7E.
func translateChar(cs byte, ch uint32) uint32 {
	if cs != '0' || ch < 0x5F || ch > 0x7E {
		return ch
	}
	if r, ok := decSpecialGraphics[byte(ch)]; ok {
		return r
	}
	return ch
}

// decSpecialGraphics is the VT100 line-drawing character set.
var decSpecialGraphics = map[byte]uint32{
	0x5F: 0x00A0, // blank
	0x60: 0x25C6, // diamond
	0x61: 0x2592, // checkerboard
	0x62: 0x2409, // HT symbol
	0x63: 0x240C, // FF symbol
	0x64: 0x240D, // CR symbol
	0x65: 0x240A, // LF symbol
	0x66: 0x00B0, // degree
	0x67: 0x00B1, // plus/minus
	0x68: 0x2424, // NL symbol
	0x69: 0x240B, // VT symbol
	0x6A: 0x2518, // lower-right corner
	0x6B: 0x2510, // upper-right corner
	0x6C: 0x250C, // upper-left corner
	0x6D: 0x2514, // lower-left corner
	0x6E: 0x253C, // crossing lines
	0x6F: 0x23BA, // scan line 1
	0x70: 0x23BB, // scan line 3
	0x71: 0x2500, // horizontal line
	0x72: 0x23BC, // scan line 7
	0x73: 0x23BD, // scan line 9
	0x74: 0x251C, // left tee
	0x75: 0x2524, // right tee
	0x76: 0x2534, // bottom tee
	0x77: 0x252C, // top tee
	0x78: 0x2502, // vertical line
	0x79: 0x2264, // less-or-equal
	0x7A: 0x2265, // greater-or-equal
	0x7B: 0x03C0, // pi
	0x7C: 0x2260, // not equal
	0x7D: 0x00A3, // UK pound
	0x7E: 0x00B7, // bullet
}
