package sfnt

import (
	"testing"

	"github.com/tdewolff/test"
)

func TestReaderWriter(t *testing.T) {
	w := NewWriter(0)
	w.WriteUint8(0x12)
	w.WriteInt16(-300)
	w.WriteUint16(0xBEEF)
	w.WriteUint32(0xDEADBEEF)
	w.WriteUint64(0x0102030405060708)
	w.WriteString("true")
	w.WriteBytes([]byte{1, 2, 3})

	r := NewReader(w.Bytes())
	test.T(t, r.ReadUint8(), uint8(0x12))
	test.T(t, r.ReadInt16(), int16(-300))
	test.T(t, r.ReadUint16(), uint16(0xBEEF))
	test.T(t, r.ReadUint32(), uint32(0xDEADBEEF))
	test.T(t, r.ReadUint64(), uint64(0x0102030405060708))
	test.T(t, r.ReadString(4), "true")
	test.T(t, r.ReadBytes(3), []byte{1, 2, 3})
	test.That(t, !r.EOF())
}

func TestReaderEOF(t *testing.T) {
	r := NewReader([]byte{0x00, 0x01})
	test.T(t, r.ReadUint16(), uint16(1))
	test.T(t, r.ReadUint16(), uint16(0)) // past the end: sticky zero
	test.That(t, r.EOF())
	test.T(t, r.ReadByte(), byte(0)) // stays sticky
	test.That(t, r.EOF())
}

func TestReaderSeek(t *testing.T) {
	r := NewReader([]byte{1, 2, 3, 4})
	r.Seek(2)
	test.T(t, r.ReadByte(), byte(3))
	r.Seek(10)
	test.That(t, r.EOF())
}

func TestBitmap(t *testing.T) {
	bits := []bool{true, false, true, true, false, false, false, true, true}
	w := NewBitmapWriter(make([]byte, BitmapSize(uint16(len(bits)))))
	for _, b := range bits {
		w.Write(b)
	}

	r := NewBitmapReader(w.Bytes())
	for i, want := range bits {
		got := r.Read()
		if got != want {
			test.Fail(t, "bit", i, "got", got, "want", want)
		}
	}
}

func TestBitmapSize(t *testing.T) {
	test.T(t, BitmapSize(0), uint32(0))
	test.T(t, BitmapSize(1), uint32(4))
	test.T(t, BitmapSize(32), uint32(4))
	test.T(t, BitmapSize(33), uint32(8))
}

func TestChecksumAndPadding(t *testing.T) {
	test.T(t, PadLen(0), uint32(0))
	test.T(t, PadLen(1), uint32(3))
	test.T(t, PadLen(4), uint32(0))
	test.T(t, PadLen(5), uint32(3))

	test.T(t, Checksum([]byte{0, 0, 0, 1, 0, 0, 0, 2}), uint32(3))
}

func TestTag(t *testing.T) {
	test.T(t, TagToUint32("head"), uint32(0x68656164))
	test.T(t, Uint32ToTag(0x68656164), "head")
}
