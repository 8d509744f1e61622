package woff2

import (
	"fmt"

	"github.com/gofont/webfont/sfnt"
)

// readUintBase128 reads a UIntBase128 value: a base-128 varint with no
// leading zero byte and at most 5 bytes, per the WOFF2 DataTypes section.
func readUintBase128(r *sfnt.Reader) (uint32, error) {
	var accum uint32
	for i := 0; i < 5; i++ {
		b := r.ReadByte()
		if r.EOF() {
			return 0, fmt.Errorf("UIntBase128: %w", sfnt.ErrInvalidFontData)
		}
		if i == 0 && b == 0x80 {
			return 0, fmt.Errorf("UIntBase128: leading zero byte")
		}
		if accum&0xFE000000 != 0 {
			return 0, fmt.Errorf("UIntBase128: overflow")
		}
		accum = accum<<7 | uint32(b&0x7F)
		if b&0x80 == 0 {
			return accum, nil
		}
	}
	return 0, fmt.Errorf("UIntBase128: exceeds 5 bytes")
}

// writeUintBase128 writes v as a UIntBase128 value.
func writeUintBase128(w *sfnt.Writer, v uint32) {
	if v == 0 {
		w.WriteByte(0)
		return
	}
	started := false
	for i := 4; 0 <= i; i-- {
		mask := uint32(0x7F) << (i * 7)
		chunk := v & mask
		if !started && chunk == 0 {
			continue
		}
		chunk >>= i * 7
		if i != 0 {
			chunk |= 0x80
		}
		w.WriteByte(byte(chunk))
		started = true
	}
}

// read255Uint16 reads a 255UShort value: a one-byte-biased encoding of
// 16-bit quantities that favors small values, per the WOFF2 DataTypes section.
func read255Uint16(r *sfnt.Reader) uint16 {
	const (
		oneMoreByteCode1 = 255
		oneMoreByteCode2 = 254
		wordCode         = 253
		lowestUCode      = 253
	)
	code := r.ReadByte()
	switch code {
	case wordCode:
		return r.ReadUint16()
	case oneMoreByteCode1:
		return uint16(r.ReadByte()) + lowestUCode
	case oneMoreByteCode2:
		return uint16(r.ReadByte()) + lowestUCode*2
	default:
		return uint16(code)
	}
}

// write255Uint16 writes v as a 255UShort value.
func write255Uint16(w *sfnt.Writer, v uint16) {
	switch {
	case v < 253:
		w.WriteByte(byte(v))
	case v < 256+253:
		w.WriteByte(255)
		w.WriteByte(byte(v - 253))
	case v < 256+253*2:
		w.WriteByte(254)
		w.WriteByte(byte(v - 253*2))
	default:
		w.WriteByte(253)
		w.WriteUint16(v)
	}
}

// signOf returns 1 if bit pos of flag is set, else -1; used to decode the
// point-triplet glyph stream's packed sign bits.
func signOf(flag byte, pos uint) int16 {
	if flag&(1<<pos) != 0 {
		return 1
	}
	return -1
}
