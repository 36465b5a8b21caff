package term

import (
	"sync"
	"unicode/utf16"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"
)

// extendedHighBit marks an interned (non-base) character code returned
// by Append/IsExtended (spec.md §4.12 "return the index with the high
// bit set").
const extendedHighBit = 1 << 31

// ExtendedCharRegistry is the single process-wide grapheme interner
// (spec.md §4.12). Base BMP/non-BMP scalars are returned directly;
// multi-rune graphemes (combining marks, ZWJ sequences) are interned
// once and referenced by index with the high bit set. The registry
// never shrinks (spec.md §5).
type ExtendedCharRegistry struct {
	mu           sync.Mutex
	internBy     map[string]uint32
	strings      []string
	doubleWidth  []bool
}

// globalRegistry is the process-wide instance other packages share.
var globalRegistry = NewExtendedCharRegistry()

// GlobalRegistry returns the shared process-wide registry.
func GlobalRegistry() *ExtendedCharRegistry { return globalRegistry }

// NewExtendedCharRegistry creates an (ordinarily test-local) registry.
func NewExtendedCharRegistry() *ExtendedCharRegistry {
	return &ExtendedCharRegistry{internBy: map[string]uint32{}}
}

// AppendResult is the {newchar, eaten} pair Append returns.
type AppendResult struct {
	NewChar uint32
	Eaten   int // bytes of input consumed to form NewChar
}

// Append implements spec.md §4.12: normalizes input+initial to NFC,
// decides a grapheme boundary, and returns either a base scalar or an
// interned index.
func (r *ExtendedCharRegistry) Append(input string, initial rune) AppendResult {
	if initial == 0 && len(input) == 0 {
		return AppendResult{0, 0}
	}

	var sb []byte
	if initial != 0 {
		sb = append(sb, string(initial)...)
	}
	sb = append(sb, input...)

	normalized := norm.NFC.String(string(sb))
	runes := []rune(normalized)

	if len(runes) == 0 {
		return AppendResult{0, len(input)}
	}

	if len(runes) == 1 && !isCombining(runes[0]) {
		return AppendResult{uint32(runes[0]), len(input)}
	}

	idx := r.intern(normalized)
	return AppendResult{idx | extendedHighBit, len(input)}
}

// isCombining is a narrow grapheme-boundary heuristic covering the
// combining-mark and ZWJ ranges spec.md §4.12 calls out explicitly
// ("extend, zwj ... spacing marks"); full Unicode GB-rule segmentation
// is out of scope for this registry (see DESIGN.md).
func isCombining(r rune) bool {
	switch {
	case r >= 0x0300 && r <= 0x036F: // combining diacritical marks
		return true
	case r == 0x200D: // ZWJ
		return true
	case r >= 0x1AB0 && r <= 0x1AFF: // combining diacritical marks extended
		return true
	case r >= 0x20D0 && r <= 0x20FF: // combining diacritical marks for symbols
		return true
	}
	return false
}

func (r *ExtendedCharRegistry) intern(s string) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if idx, ok := r.internBy[s]; ok {
		return idx
	}
	idx := uint32(len(r.strings))
	r.strings = append(r.strings, s)
	r.doubleWidth = append(r.doubleWidth, computeDoubleWidth(s))
	r.internBy[s] = idx
	return idx
}

// IsBase reports whether c is a directly-encoded base scalar (spec.md
// §8 "IsBase(c) xor IsExtended(c)").
func IsBase(c uint32) bool { return c&extendedHighBit == 0 }

// IsExtended reports whether c is an interned grapheme index.
func IsExtended(c uint32) bool { return c&extendedHighBit != 0 }

// Decode returns the interned string for an extended char, or "" for a
// base char (spec.md §8 "Decode(c) is non-empty iff IsExtended(c)").
func (r *ExtendedCharRegistry) Decode(c uint32) string {
	if IsBase(c) {
		return ""
	}
	idx := c &^ extendedHighBit
	r.mu.Lock()
	defer r.mu.Unlock()
	if int(idx) >= len(r.strings) {
		return ""
	}
	return r.strings[idx]
}

// IsDoubleWidth reports whether c occupies two terminal columns: cached
// at intern time for extended chars, computed per-call via East Asian
// Width for base chars (spec.md §4.12).
func (r *ExtendedCharRegistry) IsDoubleWidth(c uint32) bool {
	if IsBase(c) {
		return runewidth.RuneWidth(rune(c)) >= 2
	}
	idx := c &^ extendedHighBit
	r.mu.Lock()
	defer r.mu.Unlock()
	if int(idx) >= len(r.doubleWidth) {
		return false
	}
	return r.doubleWidth[idx]
}

func computeDoubleWidth(s string) bool {
	return runewidth.StringWidth(s) >= 2
}

// UTF16Units returns the UTF-16 code units for an extended char's
// interned string, used when the interpreter composes a cell's
// DumpUTF16StringWithLayout form (spec.md §4.11).
func (r *ExtendedCharRegistry) UTF16Units(c uint32) []uint16 {
	s := r.Decode(c)
	if s == "" {
		return nil
	}
	return utf16.Encode([]rune(s))
}
