package woff2

import (
	"fmt"

	"github.com/gofont/webfont/sfnt"
)

// reconstructHmtx inverts the WOFF2 hmtx transform (version 1), rebuilding a
// standard 'hmtx' table body by recovering elided left side bearings from
// the reconstructed glyf/loca pair's per-glyph xMin.
func reconstructHmtx(b, headData, glyfData, locaData, maxpData, hheaData []byte) ([]byte, error) {
	head, err := sfnt.ParseHead(headData)
	if err != nil {
		return nil, newErr(KindBadTransform, "hmtx", err)
	}
	maxp, err := sfnt.ParseMaxp(maxpData)
	if err != nil {
		return nil, newErr(KindBadTransform, "hmtx", err)
	}
	hhea, err := sfnt.ParseHhea(hheaData)
	if err != nil {
		return nil, newErr(KindBadTransform, "hmtx", err)
	}
	numGlyphs := maxp.NumGlyphs
	numHMetrics := hhea.NumberOfHMetrics
	if numGlyphs < numHMetrics {
		return nil, newErr(KindBadTransform, "hmtx", fmt.Errorf("more entries than glyphs in glyf"))
	}
	if uint32(len(locaData)) != sfnt.ExpectedLocaLength(head.IndexToLocFormat, numGlyphs) {
		return nil, newErr(KindBadTransform, "hmtx", fmt.Errorf("%w", sfnt.ErrInvalidFontData))
	}
	loca := sfnt.NewLoca(head.IndexToLocFormat, locaData)

	r := sfnt.NewReader(b)
	flags := r.ReadByte()
	reconstructProportional := flags&0x01 != 0
	reconstructMonospaced := flags&0x02 != 0
	if flags&0xFC != 0 {
		return nil, newErr(KindBadTransform, "hmtx", fmt.Errorf("reserved bits in flags must not be set"))
	}
	if !reconstructProportional && !reconstructMonospaced {
		return nil, newErr(KindBadTransform, "hmtx", fmt.Errorf("must reconstruct at least one left side bearing array"))
	}

	expected := 1 + uint32(numHMetrics)*2
	if !reconstructProportional {
		expected += uint32(numHMetrics) * 2
	} else if !reconstructMonospaced {
		expected += (uint32(numGlyphs) - uint32(numHMetrics)) * 2
	}
	if expected != uint32(len(b)) {
		return nil, newErr(KindBadTransform, "hmtx", fmt.Errorf("%w", sfnt.ErrInvalidFontData))
	}

	advanceWidths := make([]uint16, numHMetrics)
	lsbs := make([]int16, numGlyphs)
	for i := uint16(0); i < numHMetrics; i++ {
		advanceWidths[i] = r.ReadUint16()
	}
	if !reconstructProportional {
		for i := uint16(0); i < numHMetrics; i++ {
			lsbs[i] = r.ReadInt16()
		}
	}
	if !reconstructMonospaced {
		for i := numHMetrics; i < numGlyphs; i++ {
			lsbs[i] = r.ReadInt16()
		}
	}
	if r.EOF() {
		return nil, newErr(KindBadTransform, "hmtx", fmt.Errorf("%w", sfnt.ErrInvalidFontData))
	}

	glyf := sfnt.NewGlyf(glyfData, loca)
	glyphMin, glyphMax := uint16(0), numGlyphs
	if !reconstructProportional {
		glyphMin = numHMetrics
	} else if !reconstructMonospaced {
		glyphMax = numHMetrics
	}
	for glyphID := glyphMin; glyphID < glyphMax; glyphID++ {
		body := glyf.Get(glyphID)
		if len(body) < 4 {
			lsbs[glyphID] = 0
			continue
		}
		lsbs[glyphID] = int16(uint16(body[2])<<8 | uint16(body[3])) // xMin, the second int16 field
	}

	w := sfnt.NewWriter(2*int(numGlyphs) + 2*int(numHMetrics))
	for i := uint16(0); i < numHMetrics; i++ {
		w.WriteUint16(advanceWidths[i])
		w.WriteInt16(lsbs[i])
	}
	for i := numHMetrics; i < numGlyphs; i++ {
		w.WriteInt16(lsbs[i])
	}
	return w.Bytes(), nil
}

// transformHmtx applies the WOFF2 hmtx transform (version 1) by eliding
// left side bearings that equal the corresponding glyph's xMin, returning
// nil if neither the proportional nor the monospaced lsb array can be
// fully elided, or if the transformed body would not be smaller than the
// original table (the transform doesn't help, caller stores hmtx untransformed).
func transformHmtx(hmtx *sfnt.Hmtx, xMins []int16) []byte {
	if len(xMins) != len(hmtx.HMetrics)+len(hmtx.LeftSideBearings) {
		return nil
	}

	omitLSBs, omitLeftSideBearings := true, true
	for i, m := range hmtx.HMetrics {
		if m.LeftSideBearing != xMins[i] {
			omitLSBs = false
			break
		}
	}
	for i, lsb := range hmtx.LeftSideBearings {
		if lsb != xMins[len(hmtx.HMetrics)+i] {
			omitLeftSideBearings = false
			break
		}
	}
	if !omitLSBs && !omitLeftSideBearings {
		return nil
	}

	var flags byte
	n := 1 + len(hmtx.HMetrics)*2
	if omitLSBs {
		flags |= 0x01
	} else {
		n += len(hmtx.HMetrics) * 2
	}
	if omitLeftSideBearings {
		flags |= 0x02
	} else {
		n += len(hmtx.LeftSideBearings) * 2
	}
	if 4*len(hmtx.HMetrics)+2*len(hmtx.LeftSideBearings) <= n {
		return nil
	}

	w := sfnt.NewWriter(n)
	w.WriteUint8(flags)
	for _, m := range hmtx.HMetrics {
		w.WriteUint16(m.AdvanceWidth)
	}
	if !omitLSBs {
		for _, m := range hmtx.HMetrics {
			w.WriteInt16(m.LeftSideBearing)
		}
	}
	if !omitLeftSideBearings {
		for _, lsb := range hmtx.LeftSideBearings {
			w.WriteInt16(lsb)
		}
	}
	return w.Bytes()
}
