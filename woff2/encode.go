package woff2

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/andybalholm/brotli"

	"github.com/gofont/webfont/sfnt"
)

// EncodeOptions configures Encode's Brotli compression level.
type EncodeOptions struct {
	// BrotliQuality is the Brotli quality level, 0-11. Zero means the
	// package default (11, maximum compression, matching reference encoders).
	BrotliQuality int
}

func (o EncodeOptions) quality() int {
	if o.BrotliQuality <= 0 {
		return 11
	}
	return o.BrotliQuality
}

// Encode packs an SFNT font (TrueType or CFF-flavored OpenType) into a
// WOFF2 byte stream. It applies the glyf/loca transform to a TrueType font
// whenever every glyph record parses, and the hmtx transform (only together
// with glyf/loca) whenever it shrinks the table; otherwise it stores them
// untransformed (transform version 3 for glyf/loca, version 0 for hmtx). The 'DSIG' table,
// if present, is dropped: a WOFF2 font always carries no signature table,
// since the container framing invalidates any signature computed over the
// original SFNT bytes.
func Encode(font *sfnt.Font, opts EncodeOptions) ([]byte, error) {
	if font.Head == nil || font.Hhea == nil || font.Maxp == nil || font.Hmtx == nil {
		return nil, newErr(KindSfntInvalid, "", fmt.Errorf("head, hhea, maxp, and hmtx are required"))
	}

	tags := make([]string, 0, len(font.Tables))
	for tag := range font.Tables {
		if tag == "DSIG" {
			continue
		}
		tags = append(tags, tag)
	}
	if len(tags) == 0 {
		return nil, newErr(KindSfntInvalid, "", fmt.Errorf("font has no tables to encode"))
	}
	tags = orderTagsForEncode(tags)

	var glyfData, hmtxData []byte
	var xMins []int16
	if font.IsTrueType() {
		glyfData, xMins = transformGlyf(font.NumGlyphs(), font.Glyf, font.Loca)
		if glyfData != nil {
			hmtxData = transformHmtx(font.Hmtx, xMins)
		}
	}

	numTables := len(tags)
	w := sfnt.NewWriter(headerLength + numTables*5)
	w.WriteString("wOF2")
	w.WriteString(font.Flavor)
	w.WriteUint32(0) // length, patched below
	w.WriteUint16(uint16(numTables))
	w.WriteUint16(0) // reserved
	w.WriteUint32(estimateSfntSize(font, tags))
	w.WriteUint32(0) // totalCompressedSize, patched below
	w.WriteUint16(1) // majorVersion
	w.WriteUint16(0) // minorVersion
	w.WriteUint32(0) // metaOffset
	w.WriteUint32(0) // metaLength
	w.WriteUint32(0) // metaOrigLength
	w.WriteUint32(0) // privOffset
	w.WriteUint32(0) // privLength

	for _, tag := range tags {
		tagIndex := knownTagIndex(tag)
		transformVersion := 0
		switch {
		case (tag == "glyf" || tag == "loca") && glyfData == nil:
			transformVersion = 3
		case tag == "hmtx" && hmtxData != nil:
			transformVersion = 1
		}
		w.WriteUint8(byte(transformVersion)<<6 | byte(tagIndex)&0x3F)
		if tagIndex == arbitraryTagIndex {
			w.WriteString(tag)
		}
		writeUintBase128(w, uint32(len(font.Tables[tag])))
		switch {
		case glyfData != nil && tag == "glyf":
			writeUintBase128(w, uint32(len(glyfData)))
		case glyfData != nil && tag == "loca":
			writeUintBase128(w, 0)
		case hmtxData != nil && tag == "hmtx":
			writeUintBase128(w, uint32(len(hmtxData)))
		}
	}

	headerBytes := w.Bytes()
	var compBuf bytes.Buffer
	brotliWriter := brotli.NewWriterLevel(&compBuf, opts.quality())
	for _, tag := range tags {
		body := font.Tables[tag]
		switch {
		case tag == "head":
			head := append([]byte(nil), body...)
			flags := binary.BigEndian.Uint16(head[16:])
			flags |= 0x0800
			binary.BigEndian.PutUint16(head[16:], flags)
			body = head
		case glyfData != nil && tag == "glyf":
			body = glyfData
		case glyfData != nil && tag == "loca":
			continue // transformed loca carries no bytes of its own
		case hmtxData != nil && tag == "hmtx":
			body = hmtxData
		}
		if _, err := brotliWriter.Write(body); err != nil {
			return nil, newErr(KindBrotliFailed, tag, err)
		}
	}
	if err := brotliWriter.Close(); err != nil {
		return nil, newErr(KindBrotliFailed, "", err)
	}

	out := append(headerBytes, compBuf.Bytes()...)
	totalCompressedSize := uint32(compBuf.Len())
	for len(out)%4 != 0 {
		out = append(out, 0)
	}
	binary.BigEndian.PutUint32(out[8:], uint32(len(out)))
	binary.BigEndian.PutUint32(out[20:], totalCompressedSize)
	return out, nil
}

// estimateSfntSize computes the totalSfntSize header field: the SFNT header,
// directory, and every table's original body padded to 4 bytes. A glyf table
// that Decode rebuilds from the transform can differ in size from the
// original, so this is not always the exact size of Decode's output.
func estimateSfntSize(font *sfnt.Font, tags []string) uint32 {
	n := 12 + 16*uint32(len(tags))
	for _, tag := range tags {
		body := font.Tables[tag]
		n += uint32(len(body)) + sfnt.PadLen(uint32(len(body)))
	}
	return n
}

// EncodeTTC packs a TrueType Collection into a "ttcf"-flavored WOFF2 byte
// stream: every member font's tables are transformed independently (each
// font's own glyf/loca and hmtx shrink on their own terms), concatenated
// into one Brotli stream, and described by a top-level table directory plus
// the TTC sub-header that assigns each font its slice of that directory.
// Member fonts are not deduplicated against each other even when two carry
// byte-identical tables; see the package design notes for why.
func EncodeTTC(ttc *sfnt.TTC, opts EncodeOptions) ([]byte, error) {
	if len(ttc.Fonts) == 0 {
		return nil, newErr(KindSfntInvalid, "", fmt.Errorf("collection has no fonts"))
	}
	version := ttc.Version
	if version == 0 {
		version = ttcVersion1
	}
	if version != ttcVersion1 && version != ttcVersion2 {
		return nil, newErr(KindSfntInvalid, "", fmt.Errorf("ttc: bad version"))
	}
	flat, fontEntries, err := flattenTTCFonts(ttc.Fonts)
	if err != nil {
		return nil, err
	}

	glyfData := make([][]byte, len(flat))
	hmtxData := make([][]byte, len(flat))
	for fontIdx, fe := range fontEntries {
		font := ttc.Fonts[fontIdx]
		if !font.IsTrueType() {
			continue
		}
		body, xMins := transformGlyf(font.NumGlyphs(), font.Glyf, font.Loca)
		if body == nil {
			continue
		}
		for _, idx := range fe.tableIndices {
			if flat[idx].tag == "glyf" {
				glyfData[idx] = body
			}
		}
		hBody := transformHmtx(font.Hmtx, xMins)
		for _, idx := range fe.tableIndices {
			if flat[idx].tag == "hmtx" {
				hmtxData[idx] = hBody
			}
		}
	}

	numTables := len(flat)
	w := sfnt.NewWriter(headerLength + numTables*5)
	w.WriteString("wOF2")
	w.WriteUint32(sfnt.TagToUint32("ttcf"))
	w.WriteUint32(0) // length, patched below
	w.WriteUint16(uint16(numTables))
	w.WriteUint16(0) // reserved
	w.WriteUint32(estimateTTCSfntSize(flat, fontEntries))
	w.WriteUint32(0) // totalCompressedSize, patched below
	w.WriteUint16(1) // majorVersion
	w.WriteUint16(0) // minorVersion
	w.WriteUint32(0) // metaOffset
	w.WriteUint32(0) // metaLength
	w.WriteUint32(0) // metaOrigLength
	w.WriteUint32(0) // privOffset
	w.WriteUint32(0) // privLength

	for i, t := range flat {
		tagIndex := knownTagIndex(t.tag)
		transformVersion := 0
		switch {
		case t.tag == "glyf" && glyfData[i] == nil:
			transformVersion = 3
		case t.tag == "loca" && !(i > 0 && glyfData[i-1] != nil):
			transformVersion = 3
		case t.tag == "hmtx" && hmtxData[i] != nil:
			transformVersion = 1
		}
		w.WriteUint8(byte(transformVersion)<<6 | byte(tagIndex)&0x3F)
		if tagIndex == arbitraryTagIndex {
			w.WriteString(t.tag)
		}
		writeUintBase128(w, uint32(len(t.body)))
		switch {
		case t.tag == "glyf" && glyfData[i] != nil:
			writeUintBase128(w, uint32(len(glyfData[i])))
		case t.tag == "loca" && i > 0 && glyfData[i-1] != nil:
			writeUintBase128(w, 0)
		case t.tag == "hmtx" && hmtxData[i] != nil:
			writeUintBase128(w, uint32(len(hmtxData[i])))
		}
	}

	writeTTCHeader(w, version, fontEntries)

	headerBytes := w.Bytes()
	var compBuf bytes.Buffer
	brotliWriter := brotli.NewWriterLevel(&compBuf, opts.quality())
	for i, t := range flat {
		body := t.body
		switch {
		case t.tag == "head":
			head := append([]byte(nil), body...)
			flags := binary.BigEndian.Uint16(head[16:])
			flags |= 0x0800
			binary.BigEndian.PutUint16(head[16:], flags)
			body = head
		case t.tag == "glyf" && glyfData[i] != nil:
			body = glyfData[i]
		case t.tag == "loca" && i > 0 && glyfData[i-1] != nil:
			continue // transformed loca carries no bytes of its own
		case t.tag == "hmtx" && hmtxData[i] != nil:
			body = hmtxData[i]
		}
		if _, err := brotliWriter.Write(body); err != nil {
			return nil, newErr(KindBrotliFailed, t.tag, err)
		}
	}
	if err := brotliWriter.Close(); err != nil {
		return nil, newErr(KindBrotliFailed, "", err)
	}

	out := append(headerBytes, compBuf.Bytes()...)
	totalCompressedSize := uint32(compBuf.Len())
	for len(out)%4 != 0 {
		out = append(out, 0)
	}
	binary.BigEndian.PutUint32(out[8:], uint32(len(out)))
	binary.BigEndian.PutUint32(out[20:], totalCompressedSize)
	return out, nil
}

// estimateTTCSfntSize computes the totalSfntSize header field for a TTC:
// the TTC header, each member's own offset table and directory, and every
// table's padded body (tables aren't deduplicated across members, matching
// EncodeTTC's own layout decision).
func estimateTTCSfntSize(flat []flatTTCTable, fontEntries []ttcFontEntry) uint32 {
	n := uint32(12) + 4*uint32(len(fontEntries))
	for _, fe := range fontEntries {
		n += 12 + 16*uint32(len(fe.tableIndices))
	}
	for _, t := range flat {
		n += uint32(len(t.body)) + sfnt.PadLen(uint32(len(t.body)))
	}
	return n
}
