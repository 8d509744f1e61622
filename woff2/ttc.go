package woff2

import (
	"fmt"

	"github.com/gofont/webfont/sfnt"
)

// ttcVersion1 and ttcVersion2 are the two TrueType Collection header
// versions a WOFF2 TTC sub-header may declare.
const (
	ttcVersion1 = 0x00010000
	ttcVersion2 = 0x00020000
)

// ttcFontEntry is one member font of a TTC sub-header: its own SFNT flavor
// plus the indices into the top-level WOFF2 table directory it references.
// A table index may appear in more than one entry's tableIndices when
// member fonts share a physical table.
type ttcFontEntry struct {
	flavor       string
	tableIndices []int
}

// readTTCHeader reads the TTC sub-header that, for a "ttcf"-flavored WOFF2
// font, follows the main per-table directory in cleartext and precedes the
// Brotli payload: a version, a font count, and per font a table count, an
// SFNT flavor, and that many directory indices into the shared top-level
// table array.
func readTTCHeader(r *sfnt.Reader, numTables int) (version uint32, fonts []ttcFontEntry, err error) {
	version = r.ReadUint32()
	if version != ttcVersion1 && version != ttcVersion2 {
		return 0, nil, fmt.Errorf("ttc: bad version")
	}
	numFonts := read255Uint16(r)
	if numFonts == 0 {
		return 0, nil, fmt.Errorf("ttc: numFonts must not be zero")
	}
	fonts = make([]ttcFontEntry, numFonts)
	for i := range fonts {
		numFontTables := read255Uint16(r)
		flavor := sfnt.Uint32ToTag(r.ReadUint32())
		indices := make([]int, numFontTables)
		for j := range indices {
			idx := read255Uint16(r)
			if numTables <= int(idx) {
				return 0, nil, fmt.Errorf("ttc: table index out of range")
			}
			indices[j] = int(idx)
		}
		fonts[i] = ttcFontEntry{flavor: flavor, tableIndices: indices}
	}
	if r.EOF() {
		return 0, nil, fmt.Errorf("ttc: %w", sfnt.ErrInvalidFontData)
	}
	return version, fonts, nil
}

// writeTTCHeader writes the TTC sub-header described by readTTCHeader.
func writeTTCHeader(w *sfnt.Writer, version uint32, fonts []ttcFontEntry) {
	w.WriteUint32(version)
	write255Uint16(w, uint16(len(fonts)))
	for _, fe := range fonts {
		write255Uint16(w, uint16(len(fe.tableIndices)))
		w.WriteUint32(sfnt.TagToUint32(fe.flavor))
		for _, idx := range fe.tableIndices {
			write255Uint16(w, uint16(idx))
		}
	}
}

// flatTTCTable is one physical table contributed by a single member font
// during TTC encoding: this codec does not attempt cross-font content
// deduplication, so every member font gets its own directory entry even
// when two members carry byte-identical tables.
type flatTTCTable struct {
	tag  string
	body []byte
}

// flattenTTCFonts lays out every member font's tables, in font order, tags
// ordered within each font by orderTagsForTTCFont (so a font's own "glyf"
// always immediately precedes its own "loca"), and records which flattened
// indices belong to each font for the TTC sub-header.
func flattenTTCFonts(fonts []*sfnt.Font) ([]flatTTCTable, []ttcFontEntry, error) {
	var flat []flatTTCTable
	entries := make([]ttcFontEntry, len(fonts))
	for i, font := range fonts {
		if font.Head == nil || font.Hhea == nil || font.Maxp == nil || font.Hmtx == nil {
			return nil, nil, newErr(KindSfntInvalid, "", fmt.Errorf("font %d: head, hhea, maxp, and hmtx are required", i))
		}
		tags := make([]string, 0, len(font.Tables))
		for tag := range font.Tables {
			if tag == "DSIG" {
				continue
			}
			tags = append(tags, tag)
		}
		if len(tags) == 0 {
			return nil, nil, newErr(KindSfntInvalid, "", fmt.Errorf("font %d has no tables to encode", i))
		}
		tags = orderTagsForTTCFont(tags)

		indices := make([]int, len(tags))
		for j, tag := range tags {
			indices[j] = len(flat)
			flat = append(flat, flatTTCTable{tag: tag, body: font.Tables[tag]})
		}
		entries[i] = ttcFontEntry{flavor: font.Flavor, tableIndices: indices}
	}
	return flat, entries, nil
}
