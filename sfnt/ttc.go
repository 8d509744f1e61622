package sfnt

import (
	"fmt"
	"sort"
)

// ttcVersion1 and ttcVersion2 are the two TrueType Collection header
// versions; version 2 adds a trailing (zeroed, in this codec) DSIG pointer.
const (
	ttcVersion1 = 0x00010000
	ttcVersion2 = 0x00020000
)

// TTC is a parsed TrueType Collection: several fonts whose table directories
// may reference shared table bodies at a common file offset.
type TTC struct {
	Version uint32
	Fonts   []*Font
}

// ParseTTC parses a TrueType Collection ('ttcf') byte stream into its member
// fonts. Each member font is parsed independently with Parse's own table
// validation; tables a TTC shares across members simply parse into
// byte-identical, independently-owned slices of b for each member that
// references them.
func ParseTTC(b []byte) (*TTC, error) {
	if len(b) < 16 {
		return nil, fmt.Errorf("ttc: %w", ErrInvalidFontData)
	}
	r := NewReader(b)
	if tag := r.ReadString(4); tag != "ttcf" {
		return nil, fmt.Errorf("ttc: bad tag %q", tag)
	}
	version := r.ReadUint32()
	if version != ttcVersion1 && version != ttcVersion2 {
		return nil, fmt.Errorf("ttc: bad version")
	}
	numFonts := r.ReadUint32()
	if numFonts == 0 {
		return nil, fmt.Errorf("ttc: numFonts must not be zero")
	}
	offsets := make([]uint32, numFonts)
	for i := range offsets {
		offsets[i] = r.ReadUint32()
	}
	if version == ttcVersion2 {
		_ = r.ReadUint32() // dsigTag
		_ = r.ReadUint32() // dsigLength
		_ = r.ReadUint32() // dsigOffset
	}
	if r.EOF() {
		return nil, fmt.Errorf("ttc: %w", ErrInvalidFontData)
	}

	fonts := make([]*Font, numFonts)
	for i, off := range offsets {
		font, err := parseAt(b, off)
		if err != nil {
			return nil, fmt.Errorf("ttc: font %d: %w", i, err)
		}
		fonts[i] = font
	}
	return &TTC{Version: version, Fonts: fonts}, nil
}

// AssembleTTC writes a complete TrueType Collection SFNT byte stream from
// per-member flavor/table maps. Table bodies identical in tag and content
// across members are written once and shared at a single file offset, as
// the TTC format permits; each member's head.checkSumAdjustment is computed
// over its own offset table, its own directory, and every table it
// references (shared or not), per the specification.
func AssembleTTC(version uint32, flavors []string, fontTables []map[string][]byte) ([]byte, error) {
	if len(flavors) == 0 || len(flavors) != len(fontTables) {
		return nil, fmt.Errorf("ttc: flavors/fontTables length mismatch")
	}
	if version != ttcVersion1 && version != ttcVersion2 {
		return nil, fmt.Errorf("ttc: bad version")
	}
	numFonts := uint32(len(flavors))

	ttcHeaderLen := uint32(12) + 4*numFonts
	if version == ttcVersion2 {
		ttcHeaderLen += 12
	}
	perFontHeaderLen := make([]uint32, numFonts)
	for i, tables := range fontTables {
		perFontHeaderLen[i] = 12 + 16*uint32(len(tables))
	}

	w := NewWriter(int(ttcHeaderLen))
	w.WriteString("ttcf")
	w.WriteUint32(version)
	w.WriteUint32(numFonts)
	offsetTablePos := w.Len()
	w.WriteBytes(make([]byte, 4*numFonts)) // per-font offsets, patched below
	if version == ttcVersion2 {
		w.WriteUint32(0)
		w.WriteUint32(0)
		w.WriteUint32(0)
	}

	fontHeaderPos := make([]uint32, numFonts)
	for i := range fontTables {
		fontHeaderPos[i] = w.Len()
		w.WriteBytes(make([]byte, perFontHeaderLen[i])) // header+directory, patched below
	}

	type poolKey struct{ tag, body string }
	pool := map[poolKey]uint32{}
	tableOffset := make([]map[string]uint32, numFonts)
	for i, tables := range fontTables {
		tableOffset[i] = map[string]uint32{}
		for _, tag := range sortedKeys(tables) {
			body := tables[tag]
			key := poolKey{tag, string(body)}
			offset, ok := pool[key]
			if !ok {
				offset = w.Len()
				pool[key] = offset
				w.WriteBytes(body)
				for j := PadLen(uint32(len(body))); 0 < j; j-- {
					w.WriteByte(0)
				}
			}
			tableOffset[i][tag] = offset
		}
	}

	buf := w.Bytes()
	for i, pos := range fontHeaderPos {
		putUint32(buf[offsetTablePos+4*uint32(i):], pos)
	}

	for i, tables := range fontTables {
		tags := sortedKeys(tables)
		numTables := uint16(len(tags))

		var searchRange uint16 = 1
		var entrySelector uint16
		for searchRange*2 <= numTables {
			searchRange *= 2
			entrySelector++
		}
		searchRange *= 16
		rangeShift := numTables*16 - searchRange

		pos := fontHeaderPos[i]
		copy(buf[pos:], flavors[i])
		putUint16(buf[pos+4:], numTables)
		putUint16(buf[pos+6:], searchRange)
		putUint16(buf[pos+8:], entrySelector)
		putUint16(buf[pos+10:], rangeShift)

		hasHead := false
		var checkSumAdjustmentPos uint32
		for j, tag := range tags {
			body := tables[tag]
			offset := tableOffset[i][tag]
			length := uint32(len(body))
			padding := PadLen(length)
			entryPos := pos + 12 + uint32(j)*16
			copy(buf[entryPos:], tag)
			putUint32(buf[entryPos+4:], Checksum(buf[offset:offset+length+padding]))
			putUint32(buf[entryPos+8:], offset)
			putUint32(buf[entryPos+12:], length)
			if tag == "head" {
				if length < 12 {
					return nil, fmt.Errorf("ttc: font %d: head: %w", i, ErrInvalidFontData)
				}
				checkSumAdjustmentPos = offset + 8
				hasHead = true
			}
		}
		if !hasHead {
			return nil, fmt.Errorf("ttc: font %d: head: missing table", i)
		}

		putUint32(buf[checkSumAdjustmentPos:], 0)
		sum := Checksum(buf[pos : pos+perFontHeaderLen[i]])
		for _, tag := range tags {
			offset := tableOffset[i][tag]
			length := uint32(len(tables[tag]))
			sum += Checksum(buf[offset : offset+length+PadLen(length)])
		}
		putUint32(buf[checkSumAdjustmentPos:], 0xB1B0AFBA-sum)
	}
	return buf, nil
}

func sortedKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
