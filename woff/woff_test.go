package woff

import (
	"testing"

	"github.com/tdewolff/test"

	"github.com/gofont/webfont/sfnt"
)

func buildMinimalFont(t *testing.T) *sfnt.Font {
	head := sfnt.NewWriter(54)
	head.WriteUint32(0x00010000)
	head.WriteUint32(0x00010000)
	head.WriteUint32(0)
	head.WriteUint32(0x5F0F3CF5)
	head.WriteUint16(0)
	head.WriteUint16(1000)
	head.WriteBytes(make([]byte, 16))
	head.WriteInt16(0)
	head.WriteInt16(0)
	head.WriteInt16(0)
	head.WriteInt16(0)
	head.WriteUint16(0)
	head.WriteUint16(2)
	head.WriteInt16(2)
	head.WriteInt16(0)
	head.WriteInt16(0)

	hhea := sfnt.NewWriter(36)
	hhea.WriteBytes(make([]byte, 4))
	hhea.WriteInt16(800)
	hhea.WriteInt16(-200)
	hhea.WriteInt16(0)
	hhea.WriteUint16(500)
	hhea.WriteBytes(make([]byte, 22))
	hhea.WriteUint16(1)

	maxp := sfnt.NewWriter(32)
	maxp.WriteUint32(0x00010000)
	maxp.WriteUint16(1)
	maxp.WriteBytes(make([]byte, 26))

	hmtx := sfnt.NewWriter(4)
	hmtx.WriteUint16(500)
	hmtx.WriteInt16(0)

	loca := sfnt.NewWriter(4)
	loca.WriteUint16(0)
	loca.WriteUint16(0)

	tables := map[string][]byte{
		"head": head.Bytes(),
		"hhea": hhea.Bytes(),
		"maxp": maxp.Bytes(),
		"hmtx": hmtx.Bytes(),
		"loca": loca.Bytes(),
		"glyf": {},
	}
	b, err := sfnt.Assemble("\x00\x01\x00\x00", tables)
	test.Error(t, err)

	font, err := sfnt.Parse(b)
	test.Error(t, err)
	return font
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	font := buildMinimalFont(t)
	orig, err := sfnt.Assemble(font.Flavor, font.Tables)
	test.Error(t, err)

	packed, err := Encode(font, EncodeOptions{})
	test.Error(t, err)

	decoded, err := Decode(packed)
	test.Error(t, err)
	test.T(t, decoded, orig)
}

func TestDecodeBadSignature(t *testing.T) {
	b := make([]byte, headerLength)
	copy(b, "wOF2")
	_, err := Decode(b)
	test.That(t, err != nil)
}

func TestDecodeLengthMismatch(t *testing.T) {
	b := make([]byte, headerLength)
	copy(b, "wOFF")
	_, err := Decode(b)
	test.That(t, err != nil)
}

func TestDecodeTruncated(t *testing.T) {
	_, err := Decode(make([]byte, 4))
	test.That(t, err != nil)
}

func TestEncodeNoTables(t *testing.T) {
	font := &sfnt.Font{Flavor: "\x00\x01\x00\x00", Tables: map[string][]byte{}}
	_, err := Encode(font, EncodeOptions{})
	test.That(t, err != nil)
}
