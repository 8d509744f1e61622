package sfnt

import "fmt"

const hheaTableLength = 36

// Hhea models the subset of the 'hhea' table needed to know how many of the
// numGlyphs entries in 'hmtx' carry an explicit advance width.
type Hhea struct {
	NumberOfHMetrics uint16
}

// ParseHhea parses a raw 'hhea' table body.
func ParseHhea(b []byte) (*Hhea, error) {
	if len(b) != hheaTableLength {
		return nil, fmt.Errorf("hhea: %w", ErrInvalidFontData)
	}
	r := NewReader(b)
	_ = r.ReadUint16() // majorVersion
	_ = r.ReadUint16() // minorVersion
	_ = r.ReadInt16()  // ascender
	_ = r.ReadInt16()  // descender
	_ = r.ReadInt16()  // lineGap
	_ = r.ReadUint16() // advanceWidthMax
	_ = r.ReadInt16()  // minLeftSideBearing
	_ = r.ReadInt16()  // minRightSideBearing
	_ = r.ReadInt16()  // xMaxExtent
	_ = r.ReadInt16()  // caretSlopeRise
	_ = r.ReadInt16()  // caretSlopeRun
	_ = r.ReadInt16()  // caretOffset
	_ = r.ReadInt16()  // reserved
	_ = r.ReadInt16()  // reserved
	_ = r.ReadInt16()  // reserved
	_ = r.ReadInt16()  // reserved
	_ = r.ReadInt16()  // metricDataFormat
	hhea := &Hhea{NumberOfHMetrics: r.ReadUint16()}
	if r.EOF() {
		return nil, fmt.Errorf("hhea: %w", ErrInvalidFontData)
	} else if hhea.NumberOfHMetrics < 1 {
		return nil, fmt.Errorf("hhea: numberOfHMetrics must be at least 1")
	}
	return hhea, nil
}
