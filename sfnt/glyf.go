package sfnt

import "fmt"

// Contour is the flattened point data of a simple (non-composite) glyph,
// as laid out in the standard SFNT simple glyph body.
type Contour struct {
	GlyphID                uint16
	XMin, YMin, XMax, YMax int16
	EndPoints              []uint16
	Instructions           []byte
	OnCurve                []bool
	OverlapSimple          []bool
	XCoordinates           []int16
	YCoordinates           []int16
}

// Glyf models the 'glyf' table: a loca-indexed sequence of per-glyph records.
// Composite glyphs are never flattened here — the WOFF2 glyf transform scans
// their raw component records directly (see woff2.glyfCompositeLength), since
// interpreting composite transforms is a shaping concern the codec doesn't
// otherwise need.
type Glyf struct {
	data []byte
	loca *Loca
}

// NewGlyf wraps a raw 'glyf' table body together with its loca index.
func NewGlyf(data []byte, loca *Loca) *Glyf {
	return &Glyf{data: data, loca: loca}
}

// Get returns the raw glyph record for glyphID, or nil if the index is out of range.
func (glyf *Glyf) Get(glyphID uint16) []byte {
	start, ok1 := glyf.loca.Get(glyphID)
	end, ok2 := glyf.loca.Get(glyphID + 1)
	if !ok1 || !ok2 || end < start || uint32(len(glyf.data)) < end {
		return nil
	}
	return glyf.data[start:end]
}

// IsComposite reports whether glyphID's own record is a composite glyph.
func (glyf *Glyf) IsComposite(glyphID uint16) bool {
	b := glyf.Get(glyphID)
	if len(b) < 2 {
		return false
	}
	return b[0]&0x80 != 0 // sign bit of numberOfContours
}

// Contour parses and returns the point data of a simple glyph. It returns an
// error if glyphID names a composite glyph; callers must check IsComposite first.
func (glyf *Glyf) Contour(glyphID uint16) (*Contour, error) {
	b := glyf.Get(glyphID)
	if b == nil {
		return nil, fmt.Errorf("glyf: bad glyphID %d", glyphID)
	} else if len(b) == 0 {
		return &Contour{GlyphID: glyphID}, nil
	}
	r := NewReader(b)
	if r.Len() < 10 {
		return nil, fmt.Errorf("glyf: bad table for glyphID %d", glyphID)
	}

	contour := &Contour{GlyphID: glyphID}
	numberOfContours := r.ReadInt16()
	contour.XMin = r.ReadInt16()
	contour.YMin = r.ReadInt16()
	contour.XMax = r.ReadInt16()
	contour.YMax = r.ReadInt16()
	if numberOfContours < 0 {
		return nil, fmt.Errorf("glyf: glyphID %d is a composite glyph", glyphID)
	}

	if r.Len() < 2*uint32(numberOfContours)+2 {
		return nil, fmt.Errorf("glyf: bad table for glyphID %d", glyphID)
	}
	contour.EndPoints = make([]uint16, numberOfContours)
	for i := 0; i < int(numberOfContours); i++ {
		contour.EndPoints[i] = r.ReadUint16()
	}

	instructionLength := r.ReadUint16()
	if r.Len() < uint32(instructionLength) {
		return nil, fmt.Errorf("glyf: bad table for glyphID %d", glyphID)
	}
	contour.Instructions = r.ReadBytes(uint32(instructionLength))

	if numberOfContours == 0 {
		return contour, nil
	}
	numPoints := int(contour.EndPoints[numberOfContours-1]) + 1

	flags := make([]byte, numPoints)
	contour.OnCurve = make([]bool, numPoints)
	contour.OverlapSimple = make([]bool, numPoints)
	for i := 0; i < numPoints; i++ {
		if r.Len() < 1 {
			return nil, fmt.Errorf("glyf: bad table for glyphID %d", glyphID)
		}
		flags[i] = r.ReadUint8()
		contour.OnCurve[i] = flags[i]&0x01 != 0
		contour.OverlapSimple[i] = flags[i]&0x40 != 0
		if flags[i]&0x08 != 0 { // REPEAT_FLAG
			repeats := int(r.ReadUint8())
			if numPoints < i+1+repeats {
				return nil, fmt.Errorf("glyf: bad table for glyphID %d", glyphID)
			}
			for j := 1; j <= repeats; j++ {
				flags[i+j] = flags[i]
				contour.OnCurve[i+j] = contour.OnCurve[i]
				contour.OverlapSimple[i+j] = contour.OverlapSimple[i]
			}
			i += repeats
		}
	}

	var x int16
	contour.XCoordinates = make([]int16, numPoints)
	for i := 0; i < numPoints; i++ {
		xShort := flags[i]&0x02 != 0
		xSameOrPositive := flags[i]&0x10 != 0
		if xShort {
			if r.Len() < 1 {
				return nil, fmt.Errorf("glyf: bad table for glyphID %d", glyphID)
			}
			if xSameOrPositive {
				x += int16(r.ReadUint8())
			} else {
				x -= int16(r.ReadUint8())
			}
		} else if !xSameOrPositive {
			if r.Len() < 2 {
				return nil, fmt.Errorf("glyf: bad table for glyphID %d", glyphID)
			}
			x += r.ReadInt16()
		}
		contour.XCoordinates[i] = x
	}

	var y int16
	contour.YCoordinates = make([]int16, numPoints)
	for i := 0; i < numPoints; i++ {
		yShort := flags[i]&0x04 != 0
		ySameOrPositive := flags[i]&0x20 != 0
		if yShort {
			if r.Len() < 1 {
				return nil, fmt.Errorf("glyf: bad table for glyphID %d", glyphID)
			}
			if ySameOrPositive {
				y += int16(r.ReadUint8())
			} else {
				y -= int16(r.ReadUint8())
			}
		} else if !ySameOrPositive {
			if r.Len() < 2 {
				return nil, fmt.Errorf("glyf: bad table for glyphID %d", glyphID)
			}
			y += r.ReadInt16()
		}
		contour.YCoordinates[i] = y
	}
	return contour, nil
}
