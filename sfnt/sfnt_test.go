package sfnt

import (
	"testing"

	"github.com/tdewolff/test"
)

// buildMinimalTrueType returns the table set of the smallest valid TrueType
// font this package accepts: one glyph, empty outline, one explicit hmtx
// entry, head.flags bit 11 already set (as a WOFF2-compressed font requires).
func buildMinimalTrueType() map[string][]byte {
	head := NewWriter(headTableLength)
	head.WriteUint32(0x00010000) // version
	head.WriteUint32(0x00010000) // fontRevision
	head.WriteUint32(0)          // checkSumAdjustment, fixed up by Assemble
	head.WriteUint32(headMagicNumber)
	head.WriteUint16(0x0800) // flags, bit 11 set
	head.WriteUint16(1000)   // unitsPerEm
	head.WriteBytes(make([]byte, 16))
	head.WriteInt16(0) // xMin
	head.WriteInt16(0) // yMin
	head.WriteInt16(0) // xMax
	head.WriteInt16(0) // yMax
	head.WriteUint16(0)
	head.WriteUint16(2) // lowestRecPPEM
	head.WriteInt16(2)  // fontDirectionHint
	head.WriteInt16(0)  // indexToLocFormat (short)
	head.WriteInt16(0)  // glyphDataFormat

	hhea := NewWriter(hheaTableLength)
	hhea.WriteBytes(make([]byte, 4))  // version
	hhea.WriteInt16(800)              // ascender
	hhea.WriteInt16(-200)             // descender
	hhea.WriteInt16(0)                // lineGap
	hhea.WriteUint16(500)             // advanceWidthMax
	hhea.WriteBytes(make([]byte, 22)) // remaining metric fields
	hhea.WriteUint16(1)               // numberOfHMetrics

	maxp := NewWriter(32)
	maxp.WriteUint32(0x00010000) // version
	maxp.WriteUint16(1)          // numGlyphs
	maxp.WriteBytes(make([]byte, 26))

	hmtx := NewWriter(4)
	hmtx.WriteUint16(500) // advanceWidth
	hmtx.WriteInt16(0)    // leftSideBearing

	loca := NewWriter(4)
	loca.WriteUint16(0)
	loca.WriteUint16(0)

	return map[string][]byte{
		"head": head.Bytes(),
		"hhea": hhea.Bytes(),
		"maxp": maxp.Bytes(),
		"hmtx": hmtx.Bytes(),
		"loca": loca.Bytes(),
		"glyf": {},
	}
}

func TestAssembleParse(t *testing.T) {
	b, err := Assemble("\x00\x01\x00\x00", buildMinimalTrueType())
	test.Error(t, err)

	font, err := Parse(b)
	test.Error(t, err)
	test.T(t, font.NumGlyphs(), uint16(1))
	test.T(t, font.NumHMetrics(), uint16(1))
	test.That(t, font.IsTrueType())
	test.T(t, font.Hmtx.Advance(0), uint16(500))
	test.T(t, font.Head.UnitsPerEm, uint16(1000))
	test.That(t, font.Head.FlagBit11Set())
}

func TestAssembleChecksum(t *testing.T) {
	b, err := Assemble("\x00\x01\x00\x00", buildMinimalTrueType())
	test.Error(t, err)
	test.T(t, Checksum(b), uint32(0xB1B0AFBA))
}

func TestParseMissingTable(t *testing.T) {
	tables := buildMinimalTrueType()
	delete(tables, "maxp")
	b, err := Assemble("\x00\x01\x00\x00", tables)
	test.Error(t, err)

	_, err = Parse(b)
	test.That(t, err != nil)
}

func TestParseShort(t *testing.T) {
	_, err := Parse([]byte{0, 1})
	test.That(t, err != nil)
}
