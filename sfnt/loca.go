package sfnt

import "encoding/binary"

// Loca models the 'loca' table: a per-glyph offset index into 'glyf'.
// Format 0 stores offset/2 as uint16 (short), format 1 stores the offset
// directly as uint32 (long); see Head.IndexToLocFormat.
type Loca struct {
	Format int16
	data   []byte
}

// NewLoca wraps a raw 'loca' table body for reading, in the given index format.
func NewLoca(format int16, data []byte) *Loca {
	return &Loca{Format: format, data: data}
}

// Len returns the number of entries (numGlyphs + 1) the table holds.
func (loca *Loca) Len() uint16 {
	if loca.Format == 0 {
		return uint16(len(loca.data) / 2)
	}
	return uint16(len(loca.data) / 4)
}

// Get returns the glyf-table byte offset for glyphID, and whether the lookup was in bounds.
func (loca *Loca) Get(glyphID uint16) (uint32, bool) {
	if loca.Format == 0 && int(glyphID)*2+2 <= len(loca.data) {
		return 2 * uint32(binary.BigEndian.Uint16(loca.data[int(glyphID)*2:])), true
	} else if loca.Format == 1 && int(glyphID)*4+4 <= len(loca.data) {
		return binary.BigEndian.Uint32(loca.data[int(glyphID)*4:]), true
	}
	return 0, false
}

// ExpectedLocaLength returns the byte length a 'loca' table must have for numGlyphs glyphs in format format.
func ExpectedLocaLength(format int16, numGlyphs uint16) uint32 {
	n := (uint32(numGlyphs) + 1) * 2
	if format != 0 {
		n *= 2
	}
	return n
}
