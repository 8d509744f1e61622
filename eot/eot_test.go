package eot

import (
	"encoding/binary"
	"testing"

	"github.com/tdewolff/test"

	"github.com/gofont/webfont/sfnt"
)

func buildMinimalSfnt(t *testing.T) []byte {
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
	return b
}

// buildEOT wraps fontData in a minimal, unobfuscated, uncompressed version
// 1.0 EOT header.
func buildEOT(fontData []byte, flags uint32) []byte {
	var nameFields [4][]byte // empty UTF-16LE names
	eotSize := uint32(82)
	for range nameFields {
		eotSize += 4 // u16 length + u16 pad, no name bytes
	}
	eotSize += uint32(len(fontData))

	b := make([]byte, 0, eotSize)
	put32 := func(v uint32) { var a [4]byte; binary.LittleEndian.PutUint32(a[:], v); b = append(b, a[:]...) }
	put16 := func(v uint16) { var a [2]byte; binary.LittleEndian.PutUint16(a[:], v); b = append(b, a[:]...) }

	put32(eotSize)
	put32(uint32(len(fontData)))
	put32(version1)
	put32(flags)
	b = append(b, make([]byte, 10)...) // PANOSE
	b = append(b, 0)                   // Charset
	b = append(b, 0)                   // Italic
	put32(400)                         // Weight
	put16(0)                           // fsType
	put16(magicNumber)
	b = append(b, make([]byte, 24)...) // Unicode/CodePage ranges
	put32(0)                           // CheckSumAdjustment
	b = append(b, make([]byte, 16)...) // Reserved
	put16(0)                           // Padding1

	for range nameFields {
		put16(0) // name length
		put16(0) // pad
	}

	b = append(b, fontData...)
	return b
}

func TestDecode(t *testing.T) {
	fontData := buildMinimalSfnt(t)
	b := buildEOT(fontData, 0)

	decoded, err := Decode(b)
	test.Error(t, err)
	test.T(t, decoded, fontData)
}

func TestDecodeXORObfuscated(t *testing.T) {
	fontData := buildMinimalSfnt(t)
	obfuscated := append([]byte(nil), fontData...)
	for i := range obfuscated {
		obfuscated[i] ^= 0x50
	}
	b := buildEOT(obfuscated, 0x10000000)

	decoded, err := Decode(b)
	test.Error(t, err)
	test.T(t, decoded, fontData)
}

func TestDecodeBadMagic(t *testing.T) {
	b := buildEOT(buildMinimalSfnt(t), 0)
	binary.LittleEndian.PutUint16(b[34:], 0xFFFF) // corrupt MagicNumber field
	_, err := Decode(b)
	test.That(t, err != nil)
}

func TestDecodeCompressedUnsupported(t *testing.T) {
	b := buildEOT(buildMinimalSfnt(t), 0x00000004)
	_, err := Decode(b)
	test.That(t, err != nil)
}
