// Package woff2 implements the WOFF2 web font container: decoding it back
// to a plain SFNT font and encoding an SFNT font into it.
//
// Decoding inverts the glyf/loca point-triplet transform and the hmtx
// left-side-bearing elision, then reassembles a standard SFNT byte stream
// with a freshly computed table directory and head.checkSumAdjustment.
// Encoding is the reverse: applies the glyf/loca transform to TrueType
// fonts and the hmtx transform where it shrinks the table, Brotli-compresses
// the concatenated result, and writes a WOFF2 directory referencing it.
package woff2

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/andybalholm/brotli"

	"github.com/gofont/webfont/sfnt"
)

// MaxMemory bounds any single declared size (uncompressed payload,
// totalSfntSize) Decode will allocate for, guarding against a small input
// claiming an enormous decompressed size.
var MaxMemory uint32 = 30 * 1024 * 1024

const headerLength = 48

// Decode parses a WOFF2 byte stream and returns the reconstructed SFNT byte
// stream it contains: a single TrueType/CFF-flavored OpenType font, or, when
// the flavor is "ttcf", a complete TrueType Collection with its member
// fonts' table directories and per-member head.checkSumAdjustment values
// rebuilt from the shared WOFF2 table pool.
func Decode(b []byte) ([]byte, error) {
	if len(b) < headerLength {
		return nil, newErr(KindTruncated, "", fmt.Errorf("%w", sfnt.ErrInvalidFontData))
	}

	r := sfnt.NewReader(b)
	signature := r.ReadString(4)
	if signature != "wOF2" {
		return nil, newErr(KindBadSignature, "", fmt.Errorf("got %q", signature))
	}
	flavor := r.ReadUint32()
	isCollection := sfnt.Uint32ToTag(flavor) == "ttcf"
	length := r.ReadUint32()
	numTables := r.ReadUint16()
	reserved := r.ReadUint16()
	totalSfntSize := r.ReadUint32()
	totalCompressedSize := r.ReadUint32()
	_ = r.ReadUint16() // majorVersion
	_ = r.ReadUint16() // minorVersion
	metaOffset := r.ReadUint32()
	metaLength := r.ReadUint32()
	_ = r.ReadUint32() // metaOrigLength
	privOffset := r.ReadUint32()
	privLength := r.ReadUint32()
	if r.EOF() {
		return nil, newErr(KindTruncated, "", fmt.Errorf("%w", sfnt.ErrInvalidFontData))
	}
	if length != uint32(len(b)) {
		return nil, newErr(KindBadDirectory, "", fmt.Errorf("length must match file size"))
	}
	if numTables == 0 {
		return nil, newErr(KindBadDirectory, "", fmt.Errorf("numTables must not be zero"))
	}
	if reserved != 0 {
		return nil, newErr(KindBadDirectory, "", fmt.Errorf("reserved must be zero"))
	}
	if metaOffset != 0 && (uint32(len(b)) <= metaOffset || uint32(len(b))-metaOffset < metaLength) {
		return nil, newErr(KindBadDirectory, "", fmt.Errorf("metadata block out of bounds"))
	}
	if privOffset != 0 && (uint32(len(b)) <= privOffset || uint32(len(b))-privOffset < privLength) {
		return nil, newErr(KindBadDirectory, "", fmt.Errorf("private data block out of bounds"))
	}

	index := map[string]int{}
	tables := make([]tableEntry, 0, numTables)
	var uncompressedSize uint32
	for i := 0; i < int(numTables); i++ {
		flagsByte := r.ReadByte()
		tagIndex := int(flagsByte & 0x3F)
		transformVersion := int(flagsByte&0xC0) >> 6

		var tag string
		if tagIndex == arbitraryTagIndex {
			tag = sfnt.Uint32ToTag(r.ReadUint32())
		} else {
			tag = knownTags[tagIndex]
		}

		origLength, err := readUintBase128(r)
		if err != nil {
			return nil, newErr(KindTruncated, tag, err)
		}
		if !validTransform(tag, transformVersion) {
			return nil, newErr(KindBadDirectory, tag, fmt.Errorf("invalid transformation"))
		}

		var transformLength uint32
		if usesTransformLength(tag, transformVersion) {
			transformLength, err = readUintBase128(r)
			if err != nil || (tag != "loca" && transformLength == 0) {
				return nil, newErr(KindBadDirectory, tag, fmt.Errorf("transformLength must be set"))
			}
			if math.MaxUint32-uncompressedSize < transformLength {
				return nil, newErr(KindBadDirectory, tag, fmt.Errorf("%w", sfnt.ErrInvalidFontData))
			}
			uncompressedSize += transformLength
		} else {
			if math.MaxUint32-uncompressedSize < origLength {
				return nil, newErr(KindBadDirectory, tag, fmt.Errorf("%w", sfnt.ErrInvalidFontData))
			}
			uncompressedSize += origLength
		}

		if isCollection && tag == "loca" {
			if i == 0 || tables[i-1].tag != "glyf" {
				return nil, newErr(KindBadDirectory, "loca", fmt.Errorf("must come directly after glyf table"))
			}
		}
		if !isCollection {
			if _, dup := index[tag]; dup {
				return nil, newErr(KindBadDirectory, tag, fmt.Errorf("table defined more than once"))
			}
			index[tag] = len(tables)
		}

		tables = append(tables, tableEntry{tag: tag, origLength: origLength, transformVersion: transformVersion, transformLength: transformLength})
	}

	// A collection's transformed loca is required (above) to sit directly
	// after its glyf, so its pairs are found positionally; a standalone
	// font's glyf and loca are paired by tag lookup instead, requiring only
	// that glyf comes before loca, not that they're adjacent — other tables
	// (head, hhea, hmtx, kern, ...) sort between them under plain ascending
	// order and that's fine. Either way, a pair must share a transform
	// version.
	var glyfLocaPairs [][2]int
	if isCollection {
		for i, t := range tables {
			if t.tag != "glyf" {
				continue
			}
			if i+1 >= len(tables) || tables[i+1].tag != "loca" {
				return nil, newErr(KindBadDirectory, "glyf", fmt.Errorf("glyf and loca must both be present and share a transform version"))
			}
			if t.transformVersion != tables[i+1].transformVersion {
				return nil, newErr(KindBadDirectory, "glyf", fmt.Errorf("glyf and loca must both be present and share a transform version"))
			}
			if tables[i+1].transformLength != 0 {
				return nil, newErr(KindBadDirectory, "loca", fmt.Errorf("transformLength must be zero"))
			}
			glyfLocaPairs = append(glyfLocaPairs, [2]int{i, i + 1})
		}
	} else {
		iGlyf, hasGlyf := index["glyf"]
		iLoca, hasLoca := index["loca"]
		if hasGlyf != hasLoca {
			return nil, newErr(KindBadDirectory, "glyf", fmt.Errorf("glyf and loca must both be present and share a transform version"))
		}
		if hasGlyf && hasLoca {
			if iLoca < iGlyf {
				return nil, newErr(KindBadDirectory, "loca", fmt.Errorf("must come after glyf table"))
			}
			if tables[iGlyf].transformVersion != tables[iLoca].transformVersion {
				return nil, newErr(KindBadDirectory, "glyf", fmt.Errorf("glyf and loca must both be present and share a transform version"))
			}
			if tables[iLoca].transformLength != 0 {
				return nil, newErr(KindBadDirectory, "loca", fmt.Errorf("transformLength must be zero"))
			}
			glyfLocaPairs = append(glyfLocaPairs, [2]int{iGlyf, iLoca})
		}
	}

	var ttcVersion uint32
	var fontEntries []ttcFontEntry
	if isCollection {
		var err error
		ttcVersion, fontEntries, err = readTTCHeader(r, len(tables))
		if err != nil {
			return nil, newErr(KindBadDirectory, "", err)
		}
	} else {
		indices := make([]int, len(tables))
		for i := range indices {
			indices[i] = i
		}
		fontEntries = []ttcFontEntry{{flavor: sfnt.Uint32ToTag(flavor), tableIndices: indices}}
	}

	compData := r.ReadBytes(totalCompressedSize)
	if r.EOF() {
		return nil, newErr(KindTruncated, "", fmt.Errorf("%w", sfnt.ErrInvalidFontData))
	}
	if MaxMemory < uncompressedSize || MaxMemory < totalSfntSize {
		return nil, newErr(KindExceedsMemory, "", fmt.Errorf("%w", sfnt.ErrExceedsMemory))
	}

	data, err := brotliDecompress(compData, uncompressedSize)
	if err != nil {
		return nil, newErr(KindBrotliFailed, "", err)
	}
	if uint32(len(data)) != uncompressedSize {
		return nil, newErr(KindBadDirectory, "", fmt.Errorf("sum of table lengths must match decompressed size"))
	}

	var offset uint32
	for i := range tables {
		if tables[i].tag == "loca" && tables[i].transformVersion == 0 {
			continue // reconstructed alongside glyf below
		}
		n := tables[i].origLength
		if tables[i].transformLength != 0 {
			n = tables[i].transformLength
		}
		if uint32(len(data))-offset < n {
			return nil, newErr(KindBadDirectory, tables[i].tag, fmt.Errorf("%w", sfnt.ErrInvalidFontData))
		}
		tables[i].data = data[offset : offset+n : offset+n]
		offset += n
	}

	for _, pair := range glyfLocaPairs {
		iGlyf, iLoca := pair[0], pair[1]
		if tables[iGlyf].transformVersion == 0 {
			var err error
			tables[iGlyf].data, tables[iLoca].data, err = reconstructGlyfLoca(tables[iGlyf].data, tables[iLoca].origLength)
			if err != nil {
				return nil, err
			}
			if tables[iLoca].origLength != uint32(len(tables[iLoca].data)) {
				return nil, newErr(KindBadTransform, "loca", fmt.Errorf("invalid value for origLength"))
			}
		}
		// transform version 3: glyf and loca were sliced above at their
		// origLength and pass through unchanged.
	}

	// hmtx reconstruction needs the head/maxp/hhea/glyf/loca that belong to
	// the SAME member font as the hmtx table being rebuilt, so it's done per
	// font entry rather than globally; a table index is only ever rebuilt
	// once even if two member fonts reference it.
	hmtxDone := map[int]bool{}
	for _, fe := range fontEntries {
		local := map[string]int{}
		for _, idx := range fe.tableIndices {
			local[tables[idx].tag] = idx
		}
		iHmtx, hasHmtx := local["hmtx"]
		if !hasHmtx || tables[iHmtx].transformVersion != 1 || hmtxDone[iHmtx] {
			continue
		}
		iHead, ok := local["head"]
		if !ok {
			return nil, newErr(KindBadDirectory, "hmtx", fmt.Errorf("head table required to rebuild hmtx"))
		}
		iGlyf, hasGlyf := local["glyf"]
		iLoca, hasLoca := local["loca"]
		if !hasGlyf || !hasLoca {
			return nil, newErr(KindBadDirectory, "hmtx", fmt.Errorf("glyf/loca required to rebuild hmtx"))
		}
		iMaxp, ok := local["maxp"]
		if !ok {
			return nil, newErr(KindBadDirectory, "hmtx", fmt.Errorf("maxp table required to rebuild hmtx"))
		}
		iHhea, ok := local["hhea"]
		if !ok {
			return nil, newErr(KindBadDirectory, "hmtx", fmt.Errorf("hhea table required to rebuild hmtx"))
		}
		var err error
		tables[iHmtx].data, err = reconstructHmtx(tables[iHmtx].data, tables[iHead].data, tables[iGlyf].data, tables[iLoca].data, tables[iMaxp].data, tables[iHhea].data)
		if err != nil {
			return nil, err
		}
		hmtxDone[iHmtx] = true
	}

	// Every member font needs its own "head" table (checkSumAdjustment
	// differs per font, so sharing one across members isn't meaningful);
	// normalize each physical head table exactly once.
	for _, fe := range fontEntries {
		hasHead := false
		for _, idx := range fe.tableIndices {
			if tables[idx].tag == "head" {
				hasHead = true
				break
			}
		}
		if !hasHead {
			return nil, newErr(KindSfntInvalid, "head", fmt.Errorf("must be present"))
		}
	}
	headDone := map[int]bool{}
	for i := range tables {
		if tables[i].tag != "head" || headDone[i] {
			continue
		}
		if len(tables[i].data) < 18 {
			return nil, newErr(KindSfntInvalid, "head", fmt.Errorf("must be present"))
		}
		headCopy := append([]byte(nil), tables[i].data...)
		binary.BigEndian.PutUint32(headCopy[8:], 0) // clear checkSumAdjustment, recomputed on assembly
		if flags := binary.BigEndian.Uint16(headCopy[16:]); flags&0x0800 == 0 {
			return nil, newErr(KindSfntInvalid, "head", fmt.Errorf("bit 11 in flags must be set"))
		}
		tables[i].data = headCopy
		headDone[i] = true
	}

	for _, t := range tables {
		if t.tag == "DSIG" {
			return nil, newErr(KindSfntInvalid, "DSIG", fmt.Errorf("must be removed from a WOFF2 font"))
		}
	}

	if !isCollection {
		assembled := make(map[string][]byte, len(tables))
		for _, t := range tables {
			assembled[t.tag] = t.data
		}
		out, err := sfnt.Assemble(sfnt.Uint32ToTag(flavor), assembled)
		if err != nil {
			return nil, newErr(KindSfntInvalid, "", err)
		}
		return out, nil
	}

	flavors := make([]string, len(fontEntries))
	fontTables := make([]map[string][]byte, len(fontEntries))
	for i, fe := range fontEntries {
		m := make(map[string][]byte, len(fe.tableIndices))
		for _, idx := range fe.tableIndices {
			m[tables[idx].tag] = tables[idx].data
		}
		flavors[i] = fe.flavor
		fontTables[i] = m
	}
	out, err := sfnt.AssembleTTC(ttcVersion, flavors, fontTables)
	if err != nil {
		return nil, newErr(KindSfntInvalid, "", err)
	}
	return out, nil
}

func brotliDecompress(compData []byte, uncompressedSize uint32) ([]byte, error) {
	rBrotli := brotli.NewReader(bytes.NewReader(compData))
	buf := bytes.NewBuffer(make([]byte, 0, uncompressedSize))
	if _, err := io.Copy(buf, rBrotli); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
