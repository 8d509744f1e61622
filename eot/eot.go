// Package eot decodes the legacy Embedded OpenType container
// (https://www.w3.org/Submission/EOT/) back to a plain SFNT font. EOT
// predates WOFF and WOFF2 and is decode-only in this codec: browsers that still need EOT generate it from a TrueType
// font with a platform tool, so only the inverse (decode) operation is
// implemented here.
package eot

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/tdewolff/parse/v2"

	"github.com/gofont/webfont/sfnt"
)

const magicNumber = 0x504C

// versions are the three EOT header revisions this decoder recognizes.
const (
	version1  = 0x00010000
	version20 = 0x00020001
	version22 = 0x00020002
)

// Decode parses an EOT byte stream and returns its embedded SFNT font data.
// MTX-compressed EOT fonts (flags bit 2) are rejected: that compression
// scheme was never widely adopted and no library in this module's dependency
// set implements it.
func Decode(b []byte) ([]byte, error) {
	r := parse.NewBinaryReaderBytes(b)
	r.ByteOrder = binary.LittleEndian

	_ = r.ReadUint32()             // EOTSize
	fontDataSize := r.ReadUint32() // FontDataSize
	version := r.ReadUint32()
	if version != version1 && version != version20 && version != version22 {
		return nil, fmt.Errorf("eot: unsupported version")
	}

	flags := r.ReadUint32()
	_ = r.ReadBytes(10) // FontPANOSE
	_ = r.ReadUint8()   // Charset
	_ = r.ReadUint8()   // Italic
	_ = r.ReadUint32()  // Weight
	_ = r.ReadUint16()  // fsType
	if magic := r.ReadUint16(); magic != magicNumber {
		return nil, fmt.Errorf("eot: invalid magic number")
	}
	_ = r.ReadBytes(24) // UnicodeRange1-4, CodePageRange1-2
	_ = r.ReadUint32()  // CheckSumAdjustment
	_ = r.ReadBytes(16) // Reserved
	_ = r.ReadUint16()  // Padding1

	for i := 0; i < 4; i++ {
		// FamilyName, StyleName, VersionName, FullName: each a u16 byte
		// count followed by that many bytes of UTF-16LE, then a u16 pad.
		n := r.ReadUint16()
		_ = r.ReadBytes(int64(n))
		_ = r.ReadUint16()
	}

	if version == version20 || version == version22 {
		_ = r.ReadUint16() // Padding5
		n := r.ReadUint16()
		_ = r.ReadBytes(int64(n)) // RootString
	}
	if version == version22 {
		_ = r.ReadUint32() // RootStringCheckSum
		_ = r.ReadUint32() // EUDCCodePage
		_ = r.ReadUint16() // Padding6
		n := r.ReadUint16()
		_ = r.ReadBytes(int64(n)) // SignatureSize/Signature
		_ = r.ReadUint32()        // EUDCFlags
		eudcSize := r.ReadUint32()
		_ = r.ReadBytes(int64(eudcSize)) // EUDCFontData
	}

	fontData := r.ReadBytes(int64(fontDataSize))
	if r.Err() == io.EOF {
		return nil, fmt.Errorf("eot: %w", sfnt.ErrInvalidFontData)
	} else if err := r.Err(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("eot: %w", err)
	}

	const (
		flagCompressed = 0x00000004
		flagXORed      = 0x10000000
	)
	if flags&flagCompressed != 0 {
		return nil, fmt.Errorf("eot: MTX-compressed fonts are unsupported")
	}
	if flags&flagXORed != 0 {
		for i := range fontData {
			fontData[i] ^= 0x50
		}
	}

	if _, err := sfnt.Parse(fontData); err != nil {
		return nil, fmt.Errorf("eot: embedded font: %w", err)
	}
	return fontData, nil
}
