package sfnt

import "fmt"

// Maxp models the subset of the 'maxp' table the codec needs: the glyph count.
type Maxp struct {
	NumGlyphs uint16
}

// ParseMaxp parses a raw 'maxp' table body. Both the CFF (version 0.5, 6 bytes)
// and TrueType (version 1.0, 32 bytes) layouts share the same leading numGlyphs field.
func ParseMaxp(b []byte) (*Maxp, error) {
	if len(b) < 6 {
		return nil, fmt.Errorf("maxp: %w", ErrInvalidFontData)
	}
	r := NewReader(b)
	version := r.ReadUint32()
	maxp := &Maxp{NumGlyphs: r.ReadUint16()}
	if version == 0x00005000 && len(b) == 6 {
		return maxp, nil
	} else if version == 0x00010000 && len(b) == 32 {
		return maxp, nil
	}
	return nil, fmt.Errorf("maxp: bad table")
}
