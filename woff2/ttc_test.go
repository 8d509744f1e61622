package woff2

import (
	"testing"

	"github.com/tdewolff/test"

	"github.com/gofont/webfont/sfnt"
)

func TestEncodeTTCDecodeRoundTrip(t *testing.T) {
	origA := buildMinimalFont(t)
	origB := buildMinimalFont(t)
	fontA, err := sfnt.Parse(origA)
	test.Error(t, err)
	fontB, err := sfnt.Parse(origB)
	test.Error(t, err)

	packed, err := EncodeTTC(&sfnt.TTC{Fonts: []*sfnt.Font{fontA, fontB}}, EncodeOptions{})
	test.Error(t, err)

	decoded, err := Decode(packed)
	test.Error(t, err)

	ttc, err := sfnt.ParseTTC(decoded)
	test.Error(t, err)
	test.T(t, len(ttc.Fonts), 2)
	for _, font := range ttc.Fonts {
		test.T(t, font.NumGlyphs(), uint16(1))
		test.T(t, font.NumHMetrics(), uint16(1))
		test.That(t, font.IsTrueType())
	}
}

func TestEncodeTTCNoFonts(t *testing.T) {
	_, err := EncodeTTC(&sfnt.TTC{}, EncodeOptions{})
	test.That(t, err != nil)
}

func TestDecodeTTCTruncated(t *testing.T) {
	origA := buildMinimalFont(t)
	origB := buildMinimalFont(t)
	fontA, err := sfnt.Parse(origA)
	test.Error(t, err)
	fontB, err := sfnt.Parse(origB)
	test.Error(t, err)

	packed, err := EncodeTTC(&sfnt.TTC{Fonts: []*sfnt.Font{fontA, fontB}}, EncodeOptions{})
	test.Error(t, err)

	_, err = Decode(packed[:headerLength+2])
	test.That(t, err != nil)
}
