package sfnt

import "fmt"

// MaxMemory is the maximum amount of memory a single decode may allocate
// for reconstructed table data. Fonts that would exceed it are rejected
// rather than decoded, since WOFF2 streams carry their own (attacker
// controlled) size hints.
var MaxMemory uint32 = 30 * 1024 * 1024

// ErrInvalidFontData is returned when the font data is malformed.
var ErrInvalidFontData = fmt.Errorf("invalid font data")

// ErrExceedsMemory is returned when a font would require more than MaxMemory bytes to reconstruct.
var ErrExceedsMemory = fmt.Errorf("memory limit exceeded")
