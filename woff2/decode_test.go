package woff2

import (
	"testing"

	"github.com/tdewolff/test"
)

func TestDecodeTruncated(t *testing.T) {
	_, err := Decode(make([]byte, 10))
	test.That(t, err != nil)
	test.T(t, err.(*Error).Kind, KindTruncated)
}

func TestDecodeBadSignature(t *testing.T) {
	b := make([]byte, headerLength)
	copy(b, "wOFF") // not 'wOF2'
	_, err := Decode(b)
	test.That(t, err != nil)
	test.T(t, err.(*Error).Kind, KindBadSignature)
}

func TestDecodeLengthMismatch(t *testing.T) {
	b := make([]byte, headerLength)
	copy(b, "wOF2")
	// length field (offset 8) left zero, won't match len(b)
	_, err := Decode(b)
	test.That(t, err != nil)
	test.T(t, err.(*Error).Kind, KindBadDirectory)
}

func TestDecodeZeroTables(t *testing.T) {
	b := make([]byte, headerLength)
	copy(b, "wOF2")
	putUint32(b[8:], uint32(len(b)))
	_, err := Decode(b)
	test.That(t, err != nil)
	test.T(t, err.(*Error).Kind, KindBadDirectory)
}

func putUint32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}
