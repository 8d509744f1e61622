// Package woff implements the WOFF 1.0 web font container: a fixed-size
// table directory wrapping each SFNT table in its own independent zlib
// (Deflate) stream. Compared to WOFF2 it has no glyf/loca or hmtx
// transforms and no Brotli payload; each table is compressed (or, if
// compression doesn't help, stored raw) on its own.
package woff

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/gofont/webfont/sfnt"
)

// MaxMemory bounds any single declared table or font size Decode will
// allocate for.
var MaxMemory uint32 = 30 * 1024 * 1024

const headerLength = 44
const directoryEntryLength = 20

// EncodeOptions configures Encode's zlib compression level.
type EncodeOptions struct {
	// Level is the zlib compression level, 1 (fastest) to 9 (smallest).
	// Zero means the package default (9).
	Level int
}

func (o EncodeOptions) level() int {
	if o.Level == 0 {
		return 9
	}
	return o.Level
}

type directoryEntry struct {
	tag          string
	offset       uint32
	compLength   uint32
	origLength   uint32
	origChecksum uint32
}

// Decode parses a WOFF 1.0 byte stream and returns the reconstructed SFNT font.
func Decode(b []byte) ([]byte, error) {
	if len(b) < headerLength {
		return nil, fmt.Errorf("woff: %w", sfnt.ErrInvalidFontData)
	}

	r := sfnt.NewReader(b)
	signature := r.ReadString(4)
	if signature != "wOFF" {
		return nil, fmt.Errorf("woff: bad signature %q", signature)
	}
	flavor := r.ReadUint32()
	length := r.ReadUint32()
	numTables := r.ReadUint16()
	reserved := r.ReadUint16()
	totalSfntSize := r.ReadUint32()
	_ = r.ReadUint16() // majorVersion
	_ = r.ReadUint16() // minorVersion
	metaOffset := r.ReadUint32()
	metaLength := r.ReadUint32()
	_ = r.ReadUint32() // metaOrigLength
	privOffset := r.ReadUint32()
	privLength := r.ReadUint32()
	if r.EOF() {
		return nil, fmt.Errorf("woff: %w", sfnt.ErrInvalidFontData)
	}
	if length != uint32(len(b)) {
		return nil, fmt.Errorf("woff: length must match file size")
	}
	if numTables == 0 {
		return nil, fmt.Errorf("woff: numTables must not be zero")
	}
	if reserved != 0 {
		return nil, fmt.Errorf("woff: reserved must be zero")
	}
	if MaxMemory < totalSfntSize {
		return nil, fmt.Errorf("woff: %w", sfnt.ErrExceedsMemory)
	}
	if metaOffset != 0 && (uint32(len(b)) <= metaOffset || uint32(len(b))-metaOffset < metaLength) {
		return nil, fmt.Errorf("woff: metadata block out of bounds")
	}
	if privOffset != 0 && (uint32(len(b)) <= privOffset || uint32(len(b))-privOffset < privLength) {
		return nil, fmt.Errorf("woff: private data block out of bounds")
	}

	entries := make([]directoryEntry, numTables)
	seen := make(map[string]bool, numTables)
	for i := range entries {
		tag := r.ReadString(4)
		offset := r.ReadUint32()
		compLength := r.ReadUint32()
		origLength := r.ReadUint32()
		origChecksum := r.ReadUint32()
		if r.EOF() {
			return nil, fmt.Errorf("woff: %w", sfnt.ErrInvalidFontData)
		}
		if seen[tag] {
			return nil, fmt.Errorf("woff: %s: table defined more than once", tag)
		}
		seen[tag] = true
		if uint32(len(b)) <= offset || uint32(len(b))-offset < compLength {
			return nil, fmt.Errorf("woff: %s: table out of bounds", tag)
		}
		if MaxMemory < origLength {
			return nil, fmt.Errorf("woff: %s: %w", tag, sfnt.ErrExceedsMemory)
		}
		entries[i] = directoryEntry{tag: tag, offset: offset, compLength: compLength, origLength: origLength, origChecksum: origChecksum}
	}

	tables := make(map[string][]byte, numTables)
	for _, e := range entries {
		raw := b[e.offset : e.offset+e.compLength]
		var body []byte
		if e.compLength == e.origLength {
			body = raw
		} else {
			zr, err := zlib.NewReader(bytes.NewReader(raw))
			if err != nil {
				return nil, fmt.Errorf("woff: %s: %v", e.tag, err)
			}
			var buf bytes.Buffer
			buf.Grow(int(e.origLength))
			if _, err := io.Copy(&buf, zr); err != nil {
				return nil, fmt.Errorf("woff: %s: %v", e.tag, err)
			}
			body = buf.Bytes()
		}
		if uint32(len(body)) != e.origLength {
			return nil, fmt.Errorf("woff: %s: decompressed length does not match origLength", e.tag)
		}
		tables[e.tag] = body
	}

	return sfnt.Assemble(sfnt.Uint32ToTag(flavor), tables)
}

// Encode packs an SFNT font into a WOFF 1.0 byte stream, independently
// zlib-compressing each table at opts.Level (or storing it raw when
// compression doesn't shrink it).
func Encode(font *sfnt.Font, opts EncodeOptions) ([]byte, error) {
	tags := make([]string, 0, len(font.Tables))
	for tag := range font.Tables {
		tags = append(tags, tag)
	}
	if len(tags) == 0 {
		return nil, fmt.Errorf("woff: font has no tables to encode")
	}
	sort.Strings(tags)

	sfntSize := uint32(12 + 16*len(tags))
	compressed := make([][]byte, len(tags))
	for i, tag := range tags {
		body := font.Tables[tag]
		sfntSize += uint32(len(body)) + sfnt.PadLen(uint32(len(body)))

		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, opts.level())
		if err != nil {
			return nil, err
		}
		if _, err := zw.Write(body); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		if buf.Len() < len(body) {
			compressed[i] = buf.Bytes()
		} else {
			compressed[i] = body
		}
	}

	var directoryBody, tableBody bytes.Buffer
	offset := uint32(headerLength) + uint32(len(tags))*directoryEntryLength
	for i, tag := range tags {
		body := font.Tables[tag]
		comp := compressed[i]

		var tagBuf [4]byte
		copy(tagBuf[:], tag)
		directoryBody.Write(tagBuf[:])
		writeUint32(&directoryBody, offset)
		writeUint32(&directoryBody, uint32(len(comp)))
		writeUint32(&directoryBody, uint32(len(body)))
		writeUint32(&directoryBody, sfnt.Checksum(padTo4(body)))

		tableBody.Write(comp)
		padding := sfnt.PadLen(uint32(len(comp)))
		for j := uint32(0); j < padding; j++ {
			tableBody.WriteByte(0)
		}
		offset += uint32(len(comp)) + padding
	}

	var out bytes.Buffer
	out.WriteString("wOFF")
	writeUint32(&out, sfnt.TagToUint32(font.Flavor))
	writeUint32(&out, 0) // length, patched below
	writeUint16(&out, uint16(len(tags)))
	writeUint16(&out, 0) // reserved
	writeUint32(&out, sfntSize)
	writeUint16(&out, 1) // majorVersion
	writeUint16(&out, 0) // minorVersion
	writeUint32(&out, 0) // metaOffset
	writeUint32(&out, 0) // metaLength
	writeUint32(&out, 0) // metaOrigLength
	writeUint32(&out, 0) // privOffset
	writeUint32(&out, 0) // privLength
	out.Write(directoryBody.Bytes())
	out.Write(tableBody.Bytes())

	result := out.Bytes()
	binary.BigEndian.PutUint32(result[8:], uint32(len(result)))
	return result, nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func padTo4(b []byte) []byte {
	padding := sfnt.PadLen(uint32(len(b)))
	if padding == 0 {
		return b
	}
	padded := make([]byte, len(b)+int(padding))
	copy(padded, b)
	return padded
}
