package sfnt

import "fmt"

// HMetric is one entry of the leading, explicit-advance-width run of 'hmtx'.
type HMetric struct {
	AdvanceWidth    uint16
	LeftSideBearing int16
}

// Hmtx models the 'hmtx' table: numHMetrics explicit (advance, lsb) pairs
// followed by numGlyphs-numHMetrics trailing lsb-only entries that share the
// last advance width.
type Hmtx struct {
	HMetrics         []HMetric
	LeftSideBearings []int16
}

// ParseHmtx parses a raw 'hmtx' table body.
func ParseHmtx(b []byte, numHMetrics, numGlyphs uint16) (*Hmtx, error) {
	if numGlyphs < numHMetrics {
		return nil, fmt.Errorf("hmtx: more metrics than glyphs")
	}
	length := 4*uint32(numHMetrics) + 2*uint32(numGlyphs-numHMetrics)
	if uint32(len(b)) != length {
		return nil, fmt.Errorf("hmtx: %w", ErrInvalidFontData)
	}

	hmtx := &Hmtx{
		HMetrics:         make([]HMetric, numHMetrics),
		LeftSideBearings: make([]int16, numGlyphs-numHMetrics),
	}
	r := NewReader(b)
	for i := range hmtx.HMetrics {
		hmtx.HMetrics[i].AdvanceWidth = r.ReadUint16()
		hmtx.HMetrics[i].LeftSideBearing = r.ReadInt16()
	}
	for i := range hmtx.LeftSideBearings {
		hmtx.LeftSideBearings[i] = r.ReadInt16()
	}
	if r.EOF() {
		return nil, fmt.Errorf("hmtx: %w", ErrInvalidFontData)
	}
	return hmtx, nil
}

// Advance returns the (horizontal) advance width of glyphID.
func (hmtx *Hmtx) Advance(glyphID uint16) uint16 {
	if uint16(len(hmtx.HMetrics)) <= glyphID {
		glyphID = uint16(len(hmtx.HMetrics)) - 1
	}
	return hmtx.HMetrics[glyphID].AdvanceWidth
}
