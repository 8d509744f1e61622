package woff2

import (
	"fmt"
	"math"

	"github.com/gofont/webfont/sfnt"
)

// reconstructGlyfLoca inverts the WOFF2 glyf transform (transform version 0),
// rebuilding standard SFNT 'glyf' and 'loca' table bodies from the seven
// substreams packed into the transformed table.
func reconstructGlyfLoca(b []byte, origLocaLength uint32) (glyfData, locaData []byte, err error) {
	r := sfnt.NewReader(b)
	_ = r.ReadUint16() // reserved
	optionFlags := r.ReadUint16()
	numGlyphs := r.ReadUint16()
	indexFormat := r.ReadInt16()
	nContourStreamSize := r.ReadUint32()
	nPointsStreamSize := r.ReadUint32()
	flagStreamSize := r.ReadUint32()
	glyphStreamSize := r.ReadUint32()
	compositeStreamSize := r.ReadUint32()
	bboxStreamSize := r.ReadUint32()
	instructionStreamSize := r.ReadUint32()
	if r.EOF() || nContourStreamSize != 2*uint32(numGlyphs) {
		return nil, nil, newErr(KindBadTransform, "glyf", fmt.Errorf("%w", sfnt.ErrInvalidFontData))
	}

	bitmapSize := sfnt.BitmapSize(numGlyphs)
	if bboxStreamSize < bitmapSize {
		return nil, nil, newErr(KindBadTransform, "glyf", fmt.Errorf("bboxBitmap overruns bboxStream"))
	}
	nContourStream := sfnt.NewReader(r.ReadBytes(nContourStreamSize))
	nPointsStream := sfnt.NewReader(r.ReadBytes(nPointsStreamSize))
	flagStream := sfnt.NewReader(r.ReadBytes(flagStreamSize))
	glyphStream := sfnt.NewReader(r.ReadBytes(glyphStreamSize))
	compositeStream := sfnt.NewReader(r.ReadBytes(compositeStreamSize))
	bboxBitmap := sfnt.NewBitmapReader(r.ReadBytes(bitmapSize))
	bboxStream := sfnt.NewReader(r.ReadBytes(bboxStreamSize - bitmapSize))
	instructionStream := sfnt.NewReader(r.ReadBytes(instructionStreamSize))
	var overlapSimpleBitmap *sfnt.BitmapReader
	if optionFlags&0x0001 != 0 {
		overlapSimpleBitmap = sfnt.NewBitmapReader(r.ReadBytes(bitmapSize))
	}
	if r.EOF() {
		return nil, nil, newErr(KindBadTransform, "glyf", fmt.Errorf("%w", sfnt.ErrInvalidFontData))
	}

	locaLength := sfnt.ExpectedLocaLength(indexFormat, numGlyphs)
	if locaLength != origLocaLength {
		return nil, nil, newErr(KindBadTransform, "loca", fmt.Errorf("origLength must match numGlyphs+1 entries"))
	}

	w := sfnt.NewWriter(0)
	loca := sfnt.NewWriter(int(locaLength))
	for glyphID := uint16(0); glyphID < numGlyphs; glyphID++ {
		if indexFormat == 0 {
			loca.WriteUint16(uint16(w.Len() >> 1))
		} else {
			loca.WriteUint32(w.Len())
		}

		explicitBbox := bboxBitmap.Read()
		overlapSimple := overlapSimpleBitmap != nil && overlapSimpleBitmap.Read()
		nContours := nContourStream.ReadInt16()
		if nContours == 0 {
			if explicitBbox {
				return nil, nil, newGlyphErr(KindBadTransform, "glyf", int(glyphID), fmt.Errorf("empty glyph cannot have bbox"))
			}
			continue
		} else if 0 < nContours {
			if err := reconstructSimpleGlyph(w, nContours, explicitBbox, bboxStream, nPointsStream, flagStream, glyphStream, instructionStream, overlapSimple); err != nil {
				return nil, nil, newGlyphErr(KindBadTransform, "glyf", int(glyphID), err)
			}
		} else {
			if err := reconstructCompositeGlyph(w, nContours, explicitBbox, bboxStream, compositeStream, glyphStream, instructionStream); err != nil {
				return nil, nil, newGlyphErr(KindBadTransform, "glyf", int(glyphID), err)
			}
		}
		for w.Len()%4 != 0 {
			w.WriteByte(0)
		}
	}
	if indexFormat == 0 {
		loca.WriteUint16(uint16(w.Len() >> 1))
	} else {
		loca.WriteUint32(w.Len())
	}
	return w.Bytes(), loca.Bytes(), nil
}

func reconstructSimpleGlyph(w *sfnt.Writer, nContours int16, explicitBbox bool, bboxStream, nPointsStream, flagStream, glyphStream, instructionStream *sfnt.Reader, overlapSimple bool) error {
	var xMin, yMin, xMax, yMax int16
	if explicitBbox {
		xMin = bboxStream.ReadInt16()
		yMin = bboxStream.ReadInt16()
		xMax = bboxStream.ReadInt16()
		yMax = bboxStream.ReadInt16()
		if bboxStream.EOF() {
			return fmt.Errorf("%w", sfnt.ErrInvalidFontData)
		}
	}

	var nPoints uint16
	endPoints := make([]uint16, nContours)
	for i := int16(0); i < nContours; i++ {
		n := read255Uint16(nPointsStream)
		if math.MaxUint16-nPoints < n {
			return fmt.Errorf("%w", sfnt.ErrInvalidFontData)
		}
		nPoints += n
		endPoints[i] = nPoints - 1
	}
	if nPointsStream.EOF() {
		return fmt.Errorf("%w", sfnt.ErrInvalidFontData)
	}

	var x, y int16
	flags := make([]byte, 0, nPoints)
	xs := make([]int16, 0, nPoints)
	ys := make([]int16, 0, nPoints)
	for i := uint16(0); i < nPoints; i++ {
		flag := flagStream.ReadByte()
		onCurve := flag&0x80 == 0
		flag &= 0x7F

		var dx, dy int16
		switch {
		case flag < 10:
			c0 := int16(glyphStream.ReadByte())
			dy = signOf(flag, 0) * (int16(flag&0x0E)<<7 + c0)
		case flag < 20:
			c0 := int16(glyphStream.ReadByte())
			dx = signOf(flag, 0) * (int16((flag-10)&0x0E)<<7 + c0)
		case flag < 84:
			c0 := int16(glyphStream.ReadByte())
			dx = signOf(flag, 0) * (1 + int16((flag-20)&0x30) + c0>>4)
			dy = signOf(flag, 1) * (1 + int16((flag-20)&0x0C)<<2 + (c0 & 0x0F))
		case flag < 120:
			c0 := int16(glyphStream.ReadByte())
			c1 := int16(glyphStream.ReadByte())
			dx = signOf(flag, 0) * (1 + int16((flag-84)/12)<<8 + c0)
			dy = signOf(flag, 1) * (1 + (int16((flag-84)%12)>>2)<<8 + c1)
		case flag < 124:
			c0 := int16(glyphStream.ReadByte())
			c1 := int16(glyphStream.ReadByte())
			c2 := int16(glyphStream.ReadByte())
			dx = signOf(flag, 0) * (c0<<4 + c1>>4)
			dy = signOf(flag, 1) * ((c1&0x0F)<<8 + c2)
		default:
			c0 := int16(glyphStream.ReadByte())
			c1 := int16(glyphStream.ReadByte())
			c2 := int16(glyphStream.ReadByte())
			c3 := int16(glyphStream.ReadByte())
			dx = signOf(flag, 0) * (c0<<8 + c1)
			dy = signOf(flag, 1) * (c2<<8 + c3)
		}
		xs = append(xs, dx)
		ys = append(ys, dy)

		var outlineFlag byte
		if onCurve {
			outlineFlag |= 0x01
		}
		if overlapSimple && i == 0 {
			outlineFlag |= 0x40
		}
		flags = append(flags, outlineFlag)

		if !explicitBbox {
			if (0 < x && math.MaxInt16-x < dx) || (x < 0 && dx < math.MinInt16-x) ||
				(0 < y && math.MaxInt16-y < dy) || (y < 0 && dy < math.MinInt16-y) {
				return fmt.Errorf("%w", sfnt.ErrInvalidFontData)
			}
			x += dx
			y += dy
			if i == 0 {
				xMin, xMax = x, x
				yMin, yMax = y, y
			} else {
				if x < xMin {
					xMin = x
				} else if xMax < x {
					xMax = x
				}
				if y < yMin {
					yMin = y
				} else if yMax < y {
					yMax = y
				}
			}
		}
	}
	if flagStream.EOF() || glyphStream.EOF() {
		return fmt.Errorf("%w", sfnt.ErrInvalidFontData)
	}

	instructionLength := read255Uint16(glyphStream)
	instructions := instructionStream.ReadBytes(uint32(instructionLength))
	if instructionStream.EOF() {
		return fmt.Errorf("%w", sfnt.ErrInvalidFontData)
	}

	w.WriteInt16(nContours)
	w.WriteInt16(xMin)
	w.WriteInt16(yMin)
	w.WriteInt16(xMax)
	w.WriteInt16(yMax)
	for _, e := range endPoints {
		w.WriteUint16(e)
	}
	w.WriteUint16(instructionLength)
	w.WriteBytes(instructions)
	for _, flag := range flags {
		w.WriteByte(flag)
	}
	for _, dx := range xs {
		w.WriteInt16(dx)
	}
	for _, dy := range ys {
		w.WriteInt16(dy)
	}
	return nil
}

func reconstructCompositeGlyph(w *sfnt.Writer, nContours int16, explicitBbox bool, bboxStream, compositeStream, glyphStream, instructionStream *sfnt.Reader) error {
	if !explicitBbox {
		return fmt.Errorf("composite glyph must have bbox definition")
	}
	xMin := bboxStream.ReadInt16()
	yMin := bboxStream.ReadInt16()
	xMax := bboxStream.ReadInt16()
	yMax := bboxStream.ReadInt16()
	if bboxStream.EOF() {
		return fmt.Errorf("%w", sfnt.ErrInvalidFontData)
	}

	w.WriteInt16(nContours)
	w.WriteInt16(xMin)
	w.WriteInt16(yMin)
	w.WriteInt16(xMax)
	w.WriteInt16(yMax)

	hasInstructions := false
	for {
		flags := compositeStream.ReadUint16()
		length, more := glyfCompositeLength(flags)
		body := compositeStream.ReadBytes(length - 2)
		if compositeStream.EOF() {
			return fmt.Errorf("%w", sfnt.ErrInvalidFontData)
		}
		w.WriteUint16(flags)
		w.WriteBytes(body)
		if flags&0x0100 != 0 {
			hasInstructions = true
		}
		if !more {
			break
		}
	}
	if hasInstructions {
		instructionLength := read255Uint16(glyphStream)
		instructions := instructionStream.ReadBytes(uint32(instructionLength))
		if instructionStream.EOF() {
			return fmt.Errorf("%w", sfnt.ErrInvalidFontData)
		}
		w.WriteUint16(instructionLength)
		w.WriteBytes(instructions)
	}
	return nil
}

// glyfCompositeLength returns the byte length (including the 2-byte flags
// word) of one composite glyph component record, and whether MORE_COMPONENTS
// is set.
func glyfCompositeLength(flags uint16) (length uint32, more bool) {
	length = 4 + 2
	if flags&0x0001 != 0 { // ARGS_ARE_WORDS
		length += 2
	}
	if flags&0x0008 != 0 { // WE_HAVE_A_SCALE
		length += 2
	} else if flags&0x0040 != 0 { // WE_HAVE_AN_X_AND_Y_SCALE
		length += 4
	} else if flags&0x0080 != 0 { // WE_HAVE_A_TWO_BY_TWO
		length += 8
	}
	more = flags&0x0020 != 0 // MORE_COMPONENTS
	return
}

// transformGlyf applies the WOFF2 glyf transform (version 0) to a font's
// glyf/loca pair, returning the transformed table body and, per glyph, the
// xMin used by the hmtx transform to elide redundant left side bearings.
// It returns a nil slice if any glyph record can't be parsed, signaling the
// caller to fall back to storing glyf/loca untransformed.
func transformGlyf(numGlyphs uint16, glyf *sfnt.Glyf, loca *sfnt.Loca) ([]byte, []int16) {
	bitmapSize := sfnt.BitmapSize(numGlyphs)
	nContourStream := sfnt.NewWriter(0)
	nPointsStream := sfnt.NewWriter(0)
	flagStream := sfnt.NewWriter(0)
	glyphStream := sfnt.NewWriter(0)
	compositeStream := sfnt.NewWriter(0)
	bboxBitmap := sfnt.NewBitmapWriter(make([]byte, bitmapSize))
	bboxStream := sfnt.NewWriter(0)
	instructionStream := sfnt.NewWriter(0)
	overlapSimpleBitmap := sfnt.NewBitmapWriter(make([]byte, bitmapSize))

	var optionFlags uint16
	xMins := make([]int16, numGlyphs)
	for glyphID := uint16(0); glyphID < numGlyphs; glyphID++ {
		bboxEqual := false
		hasOverlap := false
		var xMin, yMin, xMax, yMax int16

		if !glyf.IsComposite(glyphID) {
			contour, err := glyf.Contour(glyphID)
			if err != nil {
				return nil, nil
			}
			if len(contour.EndPoints) == 0 {
				nContourStream.WriteInt16(0)
				bboxBitmap.Write(false)
				overlapSimpleBitmap.Write(false)
				continue
			}
			xMins[glyphID] = contour.XMin

			nContourStream.WriteInt16(int16(len(contour.EndPoints)))
			for i, end := range contour.EndPoints {
				if 0 < i {
					end -= contour.EndPoints[i-1]
				} else {
					end++
				}
				write255Uint16(nPointsStream, end)
			}

			for i := range contour.XCoordinates {
				dx, dy := contour.XCoordinates[i], contour.YCoordinates[i]
				if 0 < i {
					dx -= contour.XCoordinates[i-1]
					dy -= contour.YCoordinates[i-1]
				}
				dxSign, dySign := byte(1), byte(1)
				if dx < 0 {
					dxSign, dx = 0, -dx
				}
				if dy < 0 {
					dySign, dy = 0, -dy
				}

				var flag byte
				switch {
				case dx == 0 && dy < 1280:
					delta := dy >> 8
					flag = byte(delta<<1) + dySign
					glyphStream.WriteByte(byte(dy - delta<<8))
				case dx < 1280 && dy == 0:
					delta := dx >> 8
					flag = 10 + byte(delta<<1) + dxSign
					glyphStream.WriteByte(byte(dx - delta<<8))
				case dx < 65 && dy < 65:
					dxx := (dx - 1) >> 4
					dyy := (dy - 1) >> 4
					flag = 20 + byte(dxx<<4) + byte(dyy<<2) + dySign<<1 + dxSign
					glyphStream.WriteByte(byte(dx-1-dxx<<4)<<4 | byte(dy-1-dyy<<4))
				case dx < 769 && dy < 769:
					dxx := (dx - 1) >> 8
					dyy := (dy - 1) >> 8
					flag = 84 + byte(dxx<<2)*3 + byte(dyy<<2) + dySign<<1 + dxSign
					glyphStream.WriteByte(byte(dx - 1 - dxx<<8))
					glyphStream.WriteByte(byte(dy - 1 - dyy<<8))
				case dx < 4096 && dy < 4096:
					flag = 120 + dySign<<1 + dxSign
					glyphStream.WriteByte(byte(dx & 0x0FF0 >> 4))
					glyphStream.WriteByte(byte(dx&0x000F)<<4 | byte(dy&0x0F00>>8))
					glyphStream.WriteByte(byte(dy & 0x00FF))
				default:
					flag = 124 + dySign<<1 + dxSign
					glyphStream.WriteInt16(dx)
					glyphStream.WriteInt16(dy)
				}
				if dxSign == 0 {
					dx = -dx
				}
				if dySign == 0 {
					dy = -dy
				}

				if !contour.OnCurve[i] {
					flag |= 0x80
				}
				flagStream.WriteByte(flag)
				if contour.OverlapSimple[i] {
					hasOverlap = true
					optionFlags |= 0x01
				}
			}

			xMin, xMax = contour.XCoordinates[0], contour.XCoordinates[0]
			yMin, yMax = contour.YCoordinates[0], contour.YCoordinates[0]
			for _, x := range contour.XCoordinates[1:] {
				if x < xMin {
					xMin = x
				}
				if xMax < x {
					xMax = x
				}
			}
			if xMin == contour.XMin && xMax == contour.XMax {
				for _, y := range contour.YCoordinates[1:] {
					if y < yMin {
						yMin = y
					}
					if yMax < y {
						yMax = y
					}
				}
				if yMin == contour.YMin && yMax == contour.YMax {
					bboxEqual = true
				}
			}
			if !bboxEqual {
				xMin, xMax = contour.XMin, contour.XMax
				yMin, yMax = contour.YMin, contour.YMax
			}

			write255Uint16(glyphStream, uint16(len(contour.Instructions)))
			instructionStream.WriteBytes(contour.Instructions)
		} else {
			r := sfnt.NewReader(glyf.Get(glyphID))
			_ = r.ReadInt16()
			xMin = r.ReadInt16()
			yMin = r.ReadInt16()
			xMax = r.ReadInt16()
			yMax = r.ReadInt16()
			nContourStream.WriteInt16(-1)
			xMins[glyphID] = xMin

			hasInstructions := false
			for {
				flags := r.ReadUint16()
				length, more := glyfCompositeLength(flags)
				if flags&0x0100 != 0 {
					hasInstructions = true
				}
				compositeStream.WriteUint16(flags)
				compositeStream.WriteBytes(r.ReadBytes(length - 2))
				if r.EOF() {
					return nil, nil
				}
				if !more {
					break
				}
			}
			if hasInstructions {
				instructionLength := r.ReadUint16()
				write255Uint16(glyphStream, instructionLength)
				instructionStream.WriteBytes(r.ReadBytes(uint32(instructionLength)))
			}
			if r.EOF() {
				return nil, nil
			}
		}

		bboxBitmap.Write(!bboxEqual)
		if !bboxEqual {
			bboxStream.WriteInt16(xMin)
			bboxStream.WriteInt16(yMin)
			bboxStream.WriteInt16(xMax)
			bboxStream.WriteInt16(yMax)
		}
		overlapSimpleBitmap.Write(hasOverlap)
	}

	n := uint32(36)
	n += nContourStream.Len() + nPointsStream.Len()
	n += flagStream.Len() + glyphStream.Len() + compositeStream.Len()
	n += bboxBitmap.Len() + bboxStream.Len() + instructionStream.Len()
	if optionFlags&0x01 != 0 {
		n += overlapSimpleBitmap.Len()
	}
	w := sfnt.NewWriter(int(n))
	w.WriteUint16(0) // reserved
	w.WriteUint16(optionFlags)
	w.WriteUint16(numGlyphs)
	w.WriteUint16(uint16(loca.Format))
	w.WriteUint32(nContourStream.Len())
	w.WriteUint32(nPointsStream.Len())
	w.WriteUint32(flagStream.Len())
	w.WriteUint32(glyphStream.Len())
	w.WriteUint32(compositeStream.Len())
	w.WriteUint32(bboxBitmap.Len() + bboxStream.Len())
	w.WriteUint32(instructionStream.Len())
	w.WriteBytes(nContourStream.Bytes())
	w.WriteBytes(nPointsStream.Bytes())
	w.WriteBytes(flagStream.Bytes())
	w.WriteBytes(glyphStream.Bytes())
	w.WriteBytes(compositeStream.Bytes())
	w.WriteBytes(bboxBitmap.Bytes())
	w.WriteBytes(bboxStream.Bytes())
	w.WriteBytes(instructionStream.Bytes())
	if optionFlags&0x01 != 0 {
		w.WriteBytes(overlapSimpleBitmap.Bytes())
	}
	return w.Bytes(), xMins
}
