package woff2

import "sort"

// orderTagsForEncode sorts a single font's table tags ascending: this
// determines both the WOFF2 directory order and the Brotli substream
// concatenation order. Decode pairs a single font's glyf/loca by tag lookup,
// not by position, so no further reordering is needed here.
func orderTagsForEncode(tags []string) []string {
	sort.Strings(tags)
	return tags
}

// orderTagsForTTCFont sorts one TTC member font's table tags ascending,
// then — if both are present — relocates "loca" to immediately follow
// "glyf", overriding the plain alphabetical position. Unlike a standalone
// font, a TTC member's transformed loca must sit directly after its glyf in
// directory order, since decode pairs a collection's glyf/loca tables
// positionally rather than by tag lookup.
func orderTagsForTTCFont(tags []string) []string {
	sort.Strings(tags)
	iGlyf, iLoca := -1, -1
	for i, t := range tags {
		switch t {
		case "glyf":
			iGlyf = i
		case "loca":
			iLoca = i
		}
	}
	if iGlyf < 0 || iLoca < 0 || iLoca == iGlyf+1 {
		return tags
	}

	loca := tags[iLoca]
	rest := append(append([]string(nil), tags[:iLoca]...), tags[iLoca+1:]...)
	if iLoca < iGlyf {
		iGlyf--
	}
	out := make([]string, 0, len(tags))
	out = append(out, rest[:iGlyf+1]...)
	out = append(out, loca)
	out = append(out, rest[iGlyf+1:]...)
	return out
}

// knownTags is the fixed 63-entry table of well-known SFNT table tags that
// the WOFF2 directory can reference by a single 6-bit index instead of
// spelling out all 4 bytes. Index 63 is reserved as an escape meaning "the
// tag follows as an explicit 4-byte value".
var knownTags = [63]string{
	"cmap", "head", "hhea", "hmtx",
	"maxp", "name", "OS/2", "post",
	"cvt ", "fpgm", "glyf", "loca",
	"prep", "CFF ", "VORG", "EBDT",
	"EBLC", "gasp", "hdmx", "kern",
	"LTSH", "PCLT", "VDMX", "vhea",
	"vmtx", "BASE", "GDEF", "GPOS",
	"GSUB", "EBSC", "JSTF", "MATH",
	"CBDT", "CBLC", "COLR", "CPAL",
	"SVG ", "sbix", "acnt", "avar",
	"bdat", "bloc", "bsln", "cvar",
	"fdsc", "feat", "fmtx", "fvar",
	"gvar", "hsty", "just", "lcar",
	"mort", "morx", "opbd", "prop",
	"trak", "Zapf", "Silf", "Glat",
	"Gloc", "Feat", "Sill",
}

const arbitraryTagIndex = 63

// knownTagIndex returns tag's index into knownTags, or arbitraryTagIndex if
// it isn't one of the well-known tags.
func knownTagIndex(tag string) int {
	for i, t := range knownTags {
		if t == tag {
			return i
		}
	}
	return arbitraryTagIndex
}

// tableEntry is one parsed directory entry: a table's identity plus its
// declared (not yet validated against the decompressed stream) lengths.
type tableEntry struct {
	tag              string
	origLength       uint32
	transformVersion int
	transformLength  uint32 // 0 when the table carries no separate transformed length
	data             []byte // populated once the Brotli stream is sliced up
}

// usesTransformLength reports whether the WOFF2 directory format stores a
// second, transformLength, varint for this tag/transformVersion combination.
func usesTransformLength(tag string, transformVersion int) bool {
	switch {
	case (tag == "glyf" || tag == "loca") && transformVersion == 0:
		return true
	case tag == "hmtx" && transformVersion == 1:
		return true
	default:
		return false
	}
}

// isNullTransform reports whether transformVersion leaves tag's bytes
// unmodified (stored at their original length, no semantic transform applied).
// glyf/loca use version 3 for "no transform" (0 is their transform); every
// other tag, including hmtx, uses version 0 for "no transform".
func isNullTransform(tag string, transformVersion int) bool {
	if tag == "glyf" || tag == "loca" {
		return transformVersion == 3
	}
	return transformVersion == 0
}

// validTransform reports whether transformVersion is one of the two values
// WOFF2 defines for tag (a transform or the null transform); any other
// combination is a directory error.
func validTransform(tag string, transformVersion int) bool {
	return usesTransformLength(tag, transformVersion) || isNullTransform(tag, transformVersion)
}
