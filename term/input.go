package term

import "fmt"

// Modifier bits for key and mouse events (spec.md §4.13 "InputTranslator").
type Modifier int

const (
	ModShift Modifier = 1 << iota
	ModAlt
	ModControl
)

// MouseEventKind enumerates the host-reported mouse actions.
type MouseEventKind int

const (
	MouseLDown MouseEventKind = iota
	MouseLDrag
	MouseLUp
	MouseMDown
	MouseMDrag
	MouseMUp
	MouseRDown
	MouseRDrag
	MouseRUp
	MouseMotion
)

// MouseEvent is a host-reported pointer action at a 0-based cell
// coordinate.
type MouseEvent struct {
	Kind MouseEventKind
	X, Y int
	Mods Modifier
}

// InputTranslator turns host key/mouse events into the byte sequences
// the interpreted program expects on its input stream (spec.md §4.13).
type InputTranslator struct {
	ApplicationCursorKeys bool
	BracketedPaste        bool
	MouseMode             MouseMode

	Output func([]byte)
}

func NewInputTranslator(out func([]byte)) *InputTranslator {
	return &InputTranslator{Output: out}
}

func (t *InputTranslator) emit(b []byte) {
	if t.Output != nil {
		t.Output(b)
	}
}

// Key names for the non-printing keys SendKey recognises.
type Key int

const (
	KeyUp Key = iota
	KeyDown
	KeyRight
	KeyLeft
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert
	KeyDelete
	KeyF1
	KeyF2
	KeyF3
	KeyF4
)

// SendKey encodes a non-printing key, honoring ApplicationCursorKeys
// for the arrow/Home/End keys (spec.md §4.13 "arrow keys encode as CSI
// or SS3 depending on ApplicationCursorKeys").
func (t *InputTranslator) SendKey(k Key, mods Modifier) {
	csi := "\x1b["
	if t.ApplicationCursorKeys {
		switch k {
		case KeyUp, KeyDown, KeyRight, KeyLeft, KeyHome, KeyEnd:
			csi = "\x1bO"
		}
	}
	switch k {
	case KeyUp:
		t.emit([]byte(csi + "A"))
	case KeyDown:
		t.emit([]byte(csi + "B"))
	case KeyRight:
		t.emit([]byte(csi + "C"))
	case KeyLeft:
		t.emit([]byte(csi + "D"))
	case KeyHome:
		t.emit([]byte(csi + "H"))
	case KeyEnd:
		t.emit([]byte(csi + "F"))
	case KeyPageUp:
		t.emit([]byte("\x1b[5~"))
	case KeyPageDown:
		t.emit([]byte("\x1b[6~"))
	case KeyInsert:
		t.emit([]byte("\x1b[2~"))
	case KeyDelete:
		t.emit([]byte("\x1b[3~"))
	case KeyF1:
		t.emit([]byte("\x1bOP"))
	case KeyF2:
		t.emit([]byte("\x1bOQ"))
	case KeyF3:
		t.emit([]byte("\x1bOR"))
	case KeyF4:
		t.emit([]byte("\x1bOS"))
	}
}

// SendText encodes printable text verbatim, wrapping it in bracketed
// paste markers when BracketedPaste is enabled and the caller marks it
// as a paste (spec.md §4.13 "BracketedPaste wrapping").
func (t *InputTranslator) SendText(s string, isPaste bool) {
	if isPaste && t.BracketedPaste {
		t.emit([]byte("\x1b[200~"))
		t.emit([]byte(s))
		t.emit([]byte("\x1b[201~"))
		return
	}
	t.emit([]byte(s))
}

// SendMouse encodes a mouse event per the active MouseMode (spec.md
// §4.13 "mouse event encoding"); it is a no-op when mouse reporting is
// off.
func (t *InputTranslator) SendMouse(ev MouseEvent) {
	if t.MouseMode == MouseOff {
		return
	}
	button, release := mouseButtonCode(ev.Kind)
	button |= mouseModBits(ev.Mods)
	if ev.Kind == MouseMotion {
		button |= 32
	}

	switch t.MouseMode {
	case MouseSGR:
		final := byte('M')
		if release {
			final = 'm'
		}
		t.emit([]byte(fmt.Sprintf("\x1b[<%d;%d;%d%c", button, ev.X+1, ev.Y+1, final)))
	default:
		b := button
		if release {
			b = 3
		}
		t.emit([]byte{0x1b, '[', 'M', byte(b + 32), byte(ev.X + 1 + 32), byte(ev.Y + 1 + 32)})
	}
}

func mouseButtonCode(k MouseEventKind) (code int, release bool) {
	switch k {
	case MouseLDown, MouseLDrag:
		return 0, false
	case MouseMDown, MouseMDrag:
		return 1, false
	case MouseRDown, MouseRDrag:
		return 2, false
	case MouseLUp, MouseMUp, MouseRUp:
		return 0, true
	case MouseMotion:
		return 3, false
	}
	return 0, false
}

func mouseModBits(m Modifier) int {
	bits := 0
	if m&ModShift != 0 {
		bits |= 4
	}
	if m&ModAlt != 0 {
		bits |= 8
	}
	if m&ModControl != 0 {
		bits |= 16
	}
	return bits
}
