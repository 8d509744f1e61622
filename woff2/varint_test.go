package woff2

import (
	"testing"

	"github.com/tdewolff/test"

	"github.com/gofont/webfont/sfnt"
)

func TestUintBase128RoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 1, 127, 128, 16384, 0x0FFFFFFF} {
		w := sfnt.NewWriter(0)
		writeUintBase128(w, v)

		r := sfnt.NewReader(w.Bytes())
		got, err := readUintBase128(r)
		test.Error(t, err)
		test.T(t, got, v)
	}
}

func TestUintBase128LeadingZero(t *testing.T) {
	r := sfnt.NewReader([]byte{0x80, 0x00})
	_, err := readUintBase128(r)
	test.That(t, err != nil)
}

func TestUintBase128TooLong(t *testing.T) {
	r := sfnt.NewReader([]byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x00})
	_, err := readUintBase128(r)
	test.That(t, err != nil)
}

func TestUintBase128Overflow(t *testing.T) {
	r := sfnt.NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x7F})
	_, err := readUintBase128(r)
	test.That(t, err != nil)
}

func Test255Uint16RoundTrip(t *testing.T) {
	for _, v := range []uint16{0, 100, 252, 253, 300, 600, 2000, 65535} {
		w := sfnt.NewWriter(0)
		write255Uint16(w, v)

		r := sfnt.NewReader(w.Bytes())
		test.T(t, read255Uint16(r), v)
	}
}

func TestSignOf(t *testing.T) {
	test.T(t, signOf(0x01, 0), int16(1))
	test.T(t, signOf(0x00, 0), int16(-1))
	test.T(t, signOf(0x02, 1), int16(1))
	test.T(t, signOf(0x00, 1), int16(-1))
}
