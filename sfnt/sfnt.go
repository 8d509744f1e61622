// Package sfnt models the narrow slice of the SFNT (TrueType/OpenType)
// container format that the WOFF/WOFF2 codec needs: the table directory,
// and the head/hhea/maxp/hmtx/glyf/loca tables the glyf+loca and hmtx
// transforms operate on. Every other table (cmap, name, OS/2, post, CFF,
// GPOS, GSUB, kern, ...) is carried as an opaque byte slice and never
// interpreted — font validity semantics beyond what the transforms
// require are out of scope.
package sfnt

import (
	"fmt"
	"sort"
)

// Font is a parsed SFNT font, with only the tables the WOFF2 transforms
// need given semantic structure. Non-TrueType fonts (flavor OTTO) leave
// Glyf/Loca nil; Head/Hhea/Maxp/Hmtx are parsed for every flavor.
type Font struct {
	Flavor string // "\x00\x01\x00\x00" or "OTTO"
	Tables map[string][]byte

	Head *Head
	Hhea *Hhea
	Maxp *Maxp
	Hmtx *Hmtx

	Glyf *Glyf
	Loca *Loca
}

// IsTrueType reports whether the font has an outline glyf/loca pair.
func (f *Font) IsTrueType() bool {
	return f.Glyf != nil && f.Loca != nil
}

// NumGlyphs returns the glyph count from 'maxp'.
func (f *Font) NumGlyphs() uint16 {
	return f.Maxp.NumGlyphs
}

// NumHMetrics returns the explicit-metric count from 'hhea'.
func (f *Font) NumHMetrics() uint16 {
	return f.Hhea.NumberOfHMetrics
}

// Parse parses a bare, single-font SFNT byte stream (TrueType or
// CFF-flavored OpenType) whose header starts at offset 0. Use ParseTTC for a
// TrueType Collection.
func Parse(b []byte) (*Font, error) {
	return parseAt(b, 0)
}

// parseAt parses the SFNT font whose 12-byte offset table begins at
// headerOffset within b. Table directory offsets inside a TTC are absolute
// positions within the whole file, not relative to headerOffset, so every
// table body is still sliced directly out of b.
func parseAt(b []byte, headerOffset uint32) (*Font, error) {
	if uint32(len(b)) < headerOffset || uint32(len(b))-headerOffset < 12 {
		return nil, fmt.Errorf("sfnt: %w", ErrInvalidFontData)
	}

	r := NewReader(b)
	r.Seek(headerOffset)
	flavor := r.ReadString(4)
	if flavor != "OTTO" && flavor != "true" && TagToUint32(flavor) != 0x00010000 {
		return nil, fmt.Errorf("sfnt: unsupported flavor %q", flavor)
	}
	isCFF := flavor == "OTTO"

	numTables := r.ReadUint16()
	_ = r.ReadUint16() // searchRange
	_ = r.ReadUint16() // entrySelector
	_ = r.ReadUint16() // rangeShift
	if r.Len() < 16*uint32(numTables) {
		return nil, fmt.Errorf("sfnt: %w", ErrInvalidFontData)
	}

	tables := make(map[string][]byte, numTables)
	for i := 0; i < int(numTables); i++ {
		tag := r.ReadString(4)
		_ = r.ReadUint32() // checksum
		offset := r.ReadUint32()
		length := r.ReadUint32()
		padding := PadLen(length)
		if uint32(len(b)) <= offset || uint32(len(b))-offset < length || uint32(len(b))-offset-length < padding {
			return nil, fmt.Errorf("sfnt: %w", ErrInvalidFontData)
		}
		if _, dup := tables[tag]; dup {
			return nil, fmt.Errorf("sfnt: %s: table defined more than once", tag)
		}
		tables[tag] = b[offset : offset+length : offset+length]
	}
	if r.EOF() {
		return nil, fmt.Errorf("sfnt: %w", ErrInvalidFontData)
	}

	font := &Font{Flavor: flavor, Tables: tables}
	required := []string{"head", "hhea", "hmtx", "maxp"}
	if !isCFF {
		required = append(required, "glyf", "loca")
	} else if _, hasCFF := tables["CFF "]; !hasCFF {
		return nil, fmt.Errorf("sfnt: CFF: missing table")
	}
	for _, tag := range required {
		if _, ok := tables[tag]; !ok {
			return nil, fmt.Errorf("sfnt: %s: missing table", tag)
		}
	}

	var err error
	if font.Head, err = ParseHead(tables["head"]); err != nil {
		return nil, err
	}
	if font.Maxp, err = ParseMaxp(tables["maxp"]); err != nil {
		return nil, err
	}
	if font.Hhea, err = ParseHhea(tables["hhea"]); err != nil {
		return nil, err
	}
	if font.Hmtx, err = ParseHmtx(tables["hmtx"], font.Hhea.NumberOfHMetrics, font.Maxp.NumGlyphs); err != nil {
		return nil, err
	}
	if !isCFF {
		loca := tables["loca"]
		if uint32(len(loca)) != ExpectedLocaLength(font.Head.IndexToLocFormat, font.Maxp.NumGlyphs) {
			return nil, fmt.Errorf("loca: %w", ErrInvalidFontData)
		}
		font.Loca = NewLoca(font.Head.IndexToLocFormat, loca)
		glyf := tables["glyf"]
		if last, _ := font.Loca.Get(font.Maxp.NumGlyphs); uint32(len(glyf)) < last {
			return nil, fmt.Errorf("glyf: %w", ErrInvalidFontData)
		}
		font.Glyf = NewGlyf(glyf, font.Loca)
	}
	return font, nil
}

// Assemble writes a complete single-font SFNT byte stream from a tag→body
// map, computing per-table checksums, the sorted directory, and the
// head.checkSumAdjustment fixup (spec invariant 6: the stored value makes
// 0xB1B0AFBA minus the sum of all big-endian words of the whole file). Table
// bodies need not be pre-padded; Assemble pads each to a 4-byte boundary.
// A "head" table must be present in tables.
func Assemble(flavor string, tables map[string][]byte) ([]byte, error) {
	tags := make([]string, 0, len(tables))
	for tag := range tables {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	numTables := uint16(len(tags))

	var searchRange uint16 = 1
	var entrySelector uint16
	for searchRange*2 <= numTables {
		searchRange *= 2
		entrySelector++
	}
	searchRange *= 16
	rangeShift := numTables*16 - searchRange

	headerLen := 12 + 16*uint32(numTables)
	w := NewWriter(int(headerLen))
	w.WriteString(flavor)
	w.WriteUint16(numTables)
	w.WriteUint16(searchRange)
	w.WriteUint16(entrySelector)
	w.WriteUint16(rangeShift)
	w.WriteBytes(make([]byte, 16*numTables)) // directory, patched below

	sfntOffset := headerLen
	offsets := make([]uint32, numTables)
	lengths := make([]uint32, numTables)
	for i, tag := range tags {
		body := tables[tag]
		padding := PadLen(uint32(len(body)))
		offsets[i] = sfntOffset
		lengths[i] = uint32(len(body))
		w.WriteBytes(body)
		for j := uint32(0); j < padding; j++ {
			w.WriteByte(0)
		}
		sfntOffset += uint32(len(body)) + padding
	}

	buf := w.Bytes()
	var checkSumAdjustmentPos uint32
	hasHead := false
	for i, tag := range tags {
		pos := 12 + uint32(i)*16
		copy(buf[pos:], tag)
		padding := PadLen(lengths[i])
		checksum := Checksum(buf[offsets[i] : offsets[i]+lengths[i]+padding])
		putUint32(buf[pos+4:], checksum)
		putUint32(buf[pos+8:], offsets[i])
		putUint32(buf[pos+12:], lengths[i])
		if tag == "head" {
			if lengths[i] < 12 {
				return nil, fmt.Errorf("head: %w", ErrInvalidFontData)
			}
			checkSumAdjustmentPos = offsets[i] + 8
			hasHead = true
		}
	}
	if !hasHead {
		return nil, fmt.Errorf("head: missing table")
	}
	putUint32(buf[checkSumAdjustmentPos:], 0) // zero before computing the whole-file sum
	checkSumAdjustment := 0xB1B0AFBA - Checksum(buf)
	putUint32(buf[checkSumAdjustmentPos:], checkSumAdjustment)
	return buf, nil
}

func putUint32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

func putUint16(b []byte, v uint16) {
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}
