package term

import (
	"fmt"
)

// Extent is the logical viewport: [Top, Bottom) is the scrolling region
// (spec.md §3 "Interpreter state").
type Extent struct {
	Width, Height int
	Top, Bottom   int
}

// TitleKind distinguishes the icon vs window title string/stack.
type TitleKind int

const (
	TitleIcon TitleKind = iota
	TitleWindow
)

// MouseMode selects how mouse events are reported.
type MouseMode int

const (
	MouseOff MouseMode = iota
	MouseX10
	MouseNormal
	MouseUTF8
	MouseSGR
)

// CursorStyle wire values from DECSCUSR (spec.md §6).
type CursorStyle int

const (
	CursorReset CursorStyle = iota
	CursorBlinkingBlock
	CursorSteadyBlock
	CursorBlinkingUnderline
	CursorSteadyUnderline
	CursorBlinkingBar
	CursorSteadyBar
)

// savedState is the DECSC/DECRC snapshot (spec.md §4.10 "SaveState").
type savedState struct {
	x, y     int
	attr     CharacterAttributes
	g        [4]byte
	gSlot    int
}

// Callbacks is the Interpreter's output surface (spec.md §6 "Terminal
// Interpreter callbacks").
type Callbacks struct {
	Output                     func([]byte)
	Bell                       func()
	TitleChanged               func(title string, kind TitleKind)
	ShownCursorChanged         func(shown bool)
	CursorStyleChanged         func(style CursorStyle, has bool)
	RequestedMouseEventsChanged func(mode MouseMode)
}

// Interpreter consumes Commands and mutates a Screen (spec.md §4.10).
type Interpreter struct {
	screen *Screen
	cb     Callbacks

	extent Extent

	tabStops [1024 / 64]uint64 // 1024-bit vector, bit i == a tab stop at column i

	g     [4]byte // G0..G3 designation: 'B' USASCII, 'A' UK, '0' DEC special graphics
	gSlot int     // 0..3, which of G0..G3 is GL

	autoWrap    bool
	originMode  bool
	insertMode  bool
	cursorShown bool

	rendition CharacterAttributes
	saved     savedState

	iconTitle, windowTitle string
	iconStack, windowStack []string

	mouseMode MouseMode
	bracketedPaste bool
}

// NewInterpreter creates an Interpreter driving screen, with tab stops
// initialised every 8 columns (spec.md §3).
func NewInterpreter(screen *Screen, cb Callbacks) *Interpreter {
	ip := &Interpreter{
		screen:      screen,
		cb:          cb,
		autoWrap:    true,
		cursorShown: true,
		g:           [4]byte{'B', 'B', 'B', 'B'},
	}
	ip.extent = Extent{Width: screen.Buffer().Width(), Height: screen.Buffer().Height(), Top: 0, Bottom: screen.Buffer().Height()}
	for i := 0; i < ip.extent.Width; i += 8 {
		ip.setTabStop(i)
	}
	return ip
}

func (ip *Interpreter) setTabStop(col int) {
	if col < 0 || col >= 1024 {
		return
	}
	ip.tabStops[col/64] |= 1 << uint(col%64)
}

func (ip *Interpreter) clearTabStop(col int) {
	if col < 0 || col >= 1024 {
		return
	}
	ip.tabStops[col/64] &^= 1 << uint(col%64)
}

func (ip *Interpreter) isTabStop(col int) bool {
	if col < 0 || col >= 1024 {
		return false
	}
	return ip.tabStops[col/64]&(1<<uint(col%64)) != 0
}

// Feed processes every Command, mutating the screen and invoking
// callbacks (spec.md §4.10).
func (ip *Interpreter) Feed(cmds []Command) {
	for _, c := range cmds {
		ip.one(c)
	}
}

func (ip *Interpreter) one(c Command) {
	switch c.Kind {
	case CmdText:
		ip.handleText(c.Text)
	case CmdC0:
		ip.handleC0(c.C0)
	case CmdEscSimple:
		ip.handleEsc(c.Esc)
	case CmdOSC:
		ip.handleOSC(c)
	case CmdCSI:
		ip.handleCSI(c)
	case CmdCharsetDesignation:
		if c.CharsetSlot >= 0 && c.CharsetSlot < 4 {
			ip.g[c.CharsetSlot] = c.CharsetFinal
		}
	case CmdDECALN:
		ip.screenAlignmentTest()
	}
}

func (ip *Interpreter) handleText(text string) {
	reg := GlobalRegistry()
	for _, r := range text {
		ch := translateChar(ip.g[ip.gSlot], uint32(r))
		double := reg.IsDoubleWidth(ch)
		ip.writeCell(ch, double)
	}
}

func (ip *Interpreter) writeCell(ch uint32, double bool) {
	width := ip.extent.Width
	needed := 1
	if double {
		needed = 2
	}
	if ip.autoWrap && ip.screen.X+needed > width {
		ip.screen.PutWrap(ip.screen.Y)
		ip.carriageReturn()
		ip.lineFeed()
	}
	if ip.insertMode {
		ip.screen.DoShiftRowRight(ip.screen.Y, ip.screen.X, needed)
	}
	ip.screen.PutCh(ip.screen.X, ip.screen.Y, ch, ip.rendition)
	ip.screen.X += needed
	if ip.screen.X > width {
		ip.screen.X = width
	}
}

func (ip *Interpreter) handleC0(c C0) {
	switch c {
	case C0BS:
		ip.cursorLeft(1)
	case C0HT:
		ip.horizontalTab(1)
	case C0LF:
		ip.lineFeed()
	case C0CR:
		ip.carriageReturn()
	case C0BEL:
		if ip.cb.Bell != nil {
			ip.cb.Bell()
		}
	case C0SO:
		ip.gSlot = 1
	case C0SI:
		ip.gSlot = 0
	}
}

func (ip *Interpreter) lineFeed() {
	if ip.screen.Y == ip.extent.Bottom-1 {
		ip.screen.DoScrollUp(ip.extent.Top, ip.extent.Bottom)
		return
	}
	ip.cursorDown(1)
}

func (ip *Interpreter) carriageReturn() { ip.screen.X = 0 }

func (ip *Interpreter) cursorDown(n int) {
	ip.screen.Y += n
	if ip.screen.Y >= ip.extent.Bottom {
		ip.screen.Y = ip.extent.Bottom - 1
	}
}

func (ip *Interpreter) cursorUp(n int) {
	ip.screen.Y -= n
	floor := 0
	if ip.originMode {
		floor = ip.extent.Top
	}
	if ip.screen.Y < floor {
		ip.screen.Y = floor
	}
}

func (ip *Interpreter) cursorLeft(n int) {
	ip.screen.X -= n
	if ip.screen.X < 0 {
		ip.screen.X = 0
	}
}

func (ip *Interpreter) cursorRight(n int) {
	ip.screen.X += n
	if ip.screen.X >= ip.extent.Width {
		ip.screen.X = ip.extent.Width - 1
	}
}

// horizontalTab moves the cursor to the n-th next (n>0) or previous
// (n<0) tab stop (spec.md §4.10 "HT(±n)").
func (ip *Interpreter) horizontalTab(n int) {
	x := ip.screen.X
	if n >= 0 {
		for ; n > 0; n-- {
			x++
			for x < ip.extent.Width && !ip.isTabStop(x) {
				x++
			}
		}
	} else {
		for ; n < 0; n++ {
			x--
			for x > 0 && !ip.isTabStop(x) {
				x--
			}
		}
	}
	if x < 0 {
		x = 0
	}
	if x >= ip.extent.Width {
		x = ip.extent.Width - 1
	}
	ip.screen.X = x
}

func (ip *Interpreter) reverseIndex() {
	if ip.screen.Y == ip.extent.Top {
		ip.screen.ScrollDown(ip.extent.Top, ip.extent.Bottom)
		return
	}
	ip.cursorUp(1)
}

func (ip *Interpreter) handleEsc(e EscCode) {
	switch e {
	case EscDECSC:
		ip.saveState()
	case EscDECRC:
		ip.restoreState()
	case EscIND:
		ip.lineFeed()
	case EscNEL:
		ip.carriageReturn()
		ip.lineFeed()
	case EscHTS:
		ip.setTabStop(ip.screen.X)
	case EscRI:
		ip.reverseIndex()
	case EscRIS:
		ip.reset()
	}
}

func (ip *Interpreter) saveState() {
	ip.saved = savedState{x: ip.screen.X, y: ip.screen.Y, attr: ip.rendition, g: ip.g, gSlot: ip.gSlot}
}

func (ip *Interpreter) restoreState() {
	ip.screen.X, ip.screen.Y = ip.saved.x, ip.saved.y
	ip.rendition = ip.saved.attr
	ip.g = ip.saved.g
	ip.gSlot = ip.saved.gSlot
}

func (ip *Interpreter) reset() {
	ip.rendition = CharacterAttributes{}
	ip.autoWrap = true
	ip.originMode = false
	ip.insertMode = false
	ip.screen.X, ip.screen.Y = 0, 0
	ip.extent.Top, ip.extent.Bottom = 0, ip.extent.Height
}

func (ip *Interpreter) screenAlignmentTest() {
	ip.screen.EraseRect(0, 0, ip.extent.Width, ip.extent.Height)
	buf := ip.screen.Buffer()
	for y := 0; y < buf.Height(); y++ {
		for x := 0; x < buf.Width(); x++ {
			ip.screen.PutCh(x, y, uint32('E'), CharacterAttributes{})
		}
	}
	ip.screen.X, ip.screen.Y = 0, 0
}

func (ip *Interpreter) handleOSC(c Command) {
	switch c.OSCNum {
	case 0:
		ip.setTitle(c.OSCText, TitleIcon)
		ip.setTitle(c.OSCText, TitleWindow)
	case 1:
		ip.setTitle(c.OSCText, TitleIcon)
	case 2:
		ip.setTitle(c.OSCText, TitleWindow)
	}
}

func (ip *Interpreter) setTitle(title string, kind TitleKind) {
	changed := false
	if kind == TitleIcon {
		changed = ip.iconTitle != title
		ip.iconTitle = title
	} else {
		changed = ip.windowTitle != title
		ip.windowTitle = title
	}
	if changed && ip.cb.TitleChanged != nil {
		ip.cb.TitleChanged(title, kind)
	}
}

// titleManipulation implements the XTWINOPS title push/pop subset: 22
// pushes the current icon+window titles, 23 pops them, firing
// TitleChanged only when the restored value differs (spec.md §4.10
// "TitleManipulation ... change-only callback firing").
func (ip *Interpreter) titleManipulation(op int) {
	switch op {
	case 22:
		ip.iconStack = append(ip.iconStack, ip.iconTitle)
		ip.windowStack = append(ip.windowStack, ip.windowTitle)
	case 23:
		if n := len(ip.iconStack); n > 0 {
			ip.setTitle(ip.iconStack[n-1], TitleIcon)
			ip.iconStack = ip.iconStack[:n-1]
		}
		if n := len(ip.windowStack); n > 0 {
			ip.setTitle(ip.windowStack[n-1], TitleWindow)
			ip.windowStack = ip.windowStack[:n-1]
		}
	}
}

func (ip *Interpreter) writeOutput(b []byte) {
	if ip.cb.Output != nil {
		ip.cb.Output(b)
	}
}

func (ip *Interpreter) reportTerminalID() { ip.writeOutput([]byte("\x1b[?6c")) }
func (ip *Interpreter) reportOK()         { ip.writeOutput([]byte("\x1b[0n")) }

func (ip *Interpreter) reportCursorPosition() {
	y, x := ip.screen.Y+1, ip.screen.X+1
	if ip.originMode {
		y = ip.screen.Y - ip.extent.Top + 1
	}
	ip.writeOutput([]byte(fmt.Sprintf("\x1b[%d;%dR", y, x)))
}
