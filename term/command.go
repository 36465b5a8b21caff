// Package term implements the terminal emulator core (spec.md §4.9-
// §4.13): a byte-stream Parser, a screen-mutating Interpreter, the
// Screen/ScreenBuffer model, the process-wide ExtendedCharRegistry, and
// an InputTranslator for host keyboard/mouse events.
package term

// CommandKind tags the Command union the Parser emits.
type CommandKind int

const (
	CmdText CommandKind = iota
	CmdC0
	CmdEscSimple
	CmdOSC
	CmdCSI
	CmdCharsetDesignation
	CmdDECALN
)

// C0 is a control-code identifier (spec.md §4.9 "Control").
type C0 int

const (
	C0BS C0 = iota
	C0HT
	C0LF
	C0CR
	C0SO
	C0SI
	C0BEL
)

// EscCode names the one-byte escapes recognised in the Esc sub-state
// (spec.md §4.9 "Esc").
type EscCode int

const (
	EscDECSC EscCode = iota // 7
	EscDECRC                // 8
	EscIND                  // D, same effect as LF
	EscNEL                  // E, CR+LF
	EscHTS                  // H
	EscRI                   // M
	EscRIS                  // c
	EscNumericKeypad        // =
	EscApplKeypad           // >
)

// Command is the single tagged-union value the Parser produces; the
// Interpreter switches on Kind and reads only the matching fields.
type Command struct {
	Kind CommandKind

	Text string // CmdText

	C0 C0 // CmdC0

	Esc EscCode // CmdEscSimple

	// CmdOSC
	OSCNum  int
	OSCText string

	// CmdCSI
	CSIPrivate bool   // '?' prefix
	CSIParams  []int  // up to 8 semicolon-separated unsigned integers
	CSIInter   string // intermediate characters, e.g. " " before 'q'
	CSIFinal   byte

	// CmdCharsetDesignation
	CharsetSlot  int  // 0..3 (G0..G3)
	CharsetFinal byte // the designating final byte
}

// Param returns CSIParams[i] or def if the parameter was omitted
// (absent, or present but zero where zero means "use default" per
// ECMA-48 — callers that need to distinguish an explicit 0 check len
// directly).
func (c Command) Param(i, def int) int {
	if i >= len(c.CSIParams) || c.CSIParams[i] == 0 {
		return def
	}
	return c.CSIParams[i]
}

// ParamRaw returns CSIParams[i] or def without the zero-means-default
// substitution, for handlers where 0 is a meaningful value (e.g. SGR).
func (c Command) ParamRaw(i, def int) int {
	if i >= len(c.CSIParams) {
		return def
	}
	return c.CSIParams[i]
}
