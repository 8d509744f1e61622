package sfnt

import (
	"testing"

	"github.com/tdewolff/test"
)

func TestAssembleTTCParseTTC(t *testing.T) {
	a := buildMinimalTrueType()
	bTables := buildMinimalTrueType()
	bTables["maxp"] = append([]byte(nil), bTables["maxp"]...)

	b, err := AssembleTTC(ttcVersion1, []string{"\x00\x01\x00\x00", "\x00\x01\x00\x00"}, []map[string][]byte{a, bTables})
	test.Error(t, err)

	ttc, err := ParseTTC(b)
	test.Error(t, err)
	test.T(t, len(ttc.Fonts), 2)
	test.T(t, ttc.Version, uint32(ttcVersion1))
	for _, font := range ttc.Fonts {
		test.T(t, font.NumGlyphs(), uint16(1))
		test.T(t, font.NumHMetrics(), uint16(1))
		test.That(t, font.IsTrueType())
	}
}

func TestAssembleTTCSharedTable(t *testing.T) {
	shared := buildMinimalTrueType()
	same := make(map[string][]byte, len(shared))
	for tag, body := range shared {
		same[tag] = body
	}

	b, err := AssembleTTC(ttcVersion1, []string{"\x00\x01\x00\x00", "\x00\x01\x00\x00"}, []map[string][]byte{shared, same})
	test.Error(t, err)

	ttc, err := ParseTTC(b)
	test.Error(t, err)
	test.T(t, len(ttc.Fonts), 2)
	test.T(t, ttc.Fonts[0].Head.UnitsPerEm, ttc.Fonts[1].Head.UnitsPerEm)
}

func TestAssembleTTCMismatchedLengths(t *testing.T) {
	_, err := AssembleTTC(ttcVersion1, []string{"\x00\x01\x00\x00"}, nil)
	test.That(t, err != nil)
}

func TestParseTTCBadTag(t *testing.T) {
	b := make([]byte, 16)
	copy(b, "wOFF")
	_, err := ParseTTC(b)
	test.That(t, err != nil)
}

func TestParseTTCZeroFonts(t *testing.T) {
	b := make([]byte, 16)
	copy(b, "ttcf")
	putUint32(b[4:], ttcVersion1)
	putUint32(b[8:], 0)
	_, err := ParseTTC(b)
	test.That(t, err != nil)
}
