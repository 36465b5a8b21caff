package term

import "sync"

// CharacterAttributes mirrors the SGR-decoded cell rendition (spec.md
// §4.10 "SetCharacterAttributes").
type CharacterAttributes struct {
	Bold, Faint, Italic, Underline, Blink, Reverse, Invisible, Strike bool
	Foreground, Background ColorRef
}

// ColorKind discriminates a ColorRef's encoding.
type ColorKind int

const (
	ColorDefault ColorKind = iota
	ColorBasic             // 0-15
	ColorIndexed           // 0-255, quantised from 8-bit/24-bit input
)

// ColorRef is a single foreground/background color slot.
type ColorRef struct {
	Kind ColorKind
	Idx  uint8
}

// Cell is one screen position: a character code (base or interned
// extended, see ExtendedCharRegistry) plus its rendition.
type Cell struct {
	Char uint32
	Attr CharacterAttributes
}

// lineMeta tracks per-line metadata the buffer needs for reflow and
// rendering (spec.md §4.11).
type lineMeta struct {
	length  int // occupied length, <= width
	wrapped bool
}

// ScreenBuffer holds the on-screen grid plus a back-scroll history. It
// is not thread-safe in isolation; Screen is its only thread-aware
// owner (spec.md §5).
type ScreenBuffer struct {
	width, height int
	lines         [][]Cell
	meta          []lineMeta
	backscroll    [][]Cell
	backscrollMeta []lineMeta
	maxBackscroll int
}

// NewScreenBuffer creates a width x height buffer, each cell set to
// erase.
func NewScreenBuffer(width, height int, erase Cell, maxBackscroll int) *ScreenBuffer {
	b := &ScreenBuffer{width: width, height: height, maxBackscroll: maxBackscroll}
	b.lines = make([][]Cell, height)
	b.meta = make([]lineMeta, height)
	for y := range b.lines {
		b.lines[y] = newLine(width, erase)
	}
	return b
}

func newLine(width int, erase Cell) []Cell {
	line := make([]Cell, width)
	for i := range line {
		line[i] = erase
	}
	return line
}

// Width/Height expose the buffer's current dimensions.
func (b *ScreenBuffer) Width() int  { return b.width }
func (b *ScreenBuffer) Height() int { return b.height }

// Line returns the on-screen row y (0 = top).
func (b *ScreenBuffer) Line(y int) []Cell { return b.lines[y] }

// LineWrapped reports whether row y continues onto y+1 (spec.md §8
// "LineWrapped(y) == true implies y+1 exists and is the physical
// continuation").
func (b *ScreenBuffer) LineWrapped(y int) bool { return b.meta[y].wrapped }

// SetLineWrapped sets the wrapped flag for row y.
func (b *ScreenBuffer) SetLineWrapped(y int, wrapped bool) { b.meta[y].wrapped = wrapped }

// OccupiedChars trims trailing erase-chars for rendering (spec.md
// §4.11), returning line y without the trailing cells equal to erase.
func (b *ScreenBuffer) OccupiedChars(y int, erase Cell) []Cell {
	line := b.lines[y]
	end := len(line)
	for end > 0 && line[end-1] == erase {
		end--
	}
	return line[:end]
}

// PushBackscroll appends a copy of row (with its meta) to the
// back-scroll history, typically the row a scroll-up vacates.
func (b *ScreenBuffer) PushBackscroll(row []Cell, meta lineMeta) {
	cp := append([]Cell(nil), row...)
	b.backscroll = append(b.backscroll, cp)
	b.backscrollMeta = append(b.backscrollMeta, meta)
	if b.maxBackscroll > 0 && len(b.backscroll) > b.maxBackscroll {
		over := len(b.backscroll) - b.maxBackscroll
		b.backscroll = b.backscroll[over:]
		b.backscrollMeta = b.backscrollMeta[over:]
	}
}

// BackscrollLen reports how many rows of history are retained.
func (b *ScreenBuffer) BackscrollLen() int { return len(b.backscroll) }

// ComposeContinuousLines merges wrapped runs of on-screen rows back
// into one logical line per run (spec.md §4.11 reflow).
func (b *ScreenBuffer) ComposeContinuousLines() [][]Cell {
	var out [][]Cell
	var cur []Cell
	for y := 0; y < b.height; y++ {
		cur = append(cur, b.lines[y]...)
		if !b.meta[y].wrapped {
			out = append(out, cur)
			cur = nil
		}
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// DecomposeContinuousLines re-splits logical lines at the given width,
// returning physical rows and their wrapped flags (spec.md §4.11).
func DecomposeContinuousLines(logical [][]Cell, width int, erase Cell) ([][]Cell, []bool) {
	var rows [][]Cell
	var wrapped []bool
	for _, line := range logical {
		if len(line) == 0 {
			rows = append(rows, newLine(width, erase))
			wrapped = append(wrapped, false)
			continue
		}
		for start := 0; start < len(line); start += width {
			end := start + width
			cont := end < len(line)
			if end > len(line) {
				end = len(line)
			}
			row := newLine(width, erase)
			copy(row, line[start:end])
			rows = append(rows, row)
			wrapped = append(wrapped, cont)
		}
	}
	return rows, wrapped
}

// Snapshot clones a rectangular range of on-screen rows plus their
// meta, for lock-free rendering (spec.md §5 "renderer takes a snapshot
// ... under the lock, then renders without the lock held").
type Snapshot struct {
	Rows []([]Cell)
	Meta []lineMeta
}

func (b *ScreenBuffer) Snapshot(top, bottom int) Snapshot {
	s := Snapshot{}
	for y := top; y < bottom && y < b.height; y++ {
		s.Rows = append(s.Rows, append([]Cell(nil), b.lines[y]...))
		s.Meta = append(s.Meta, b.meta[y])
	}
	return s
}

// Screen owns a ScreenBuffer plus the cursor and alternate-screen state
// (spec.md §4.11). All mutations serialise under mu.
type Screen struct {
	mu sync.Mutex

	buf          *ScreenBuffer
	altBuf       *ScreenBuffer
	onAltScreen  bool

	X, Y         int
	EraseChar    Cell
	ReverseVideo bool
	LineOverflown bool
}

// NewScreen creates a Screen with a fresh primary buffer.
func NewScreen(width, height int, erase Cell, maxBackscroll int) *Screen {
	return &Screen{
		buf:       NewScreenBuffer(width, height, erase, maxBackscroll),
		EraseChar: erase,
	}
}

// Buffer returns the currently active buffer (primary or alternate).
func (s *Screen) Buffer() *ScreenBuffer { return s.buf }

// WithLock runs fn with the screen mutex held; used by the interpreter
// for multi-step mutations that must appear atomic to a renderer.
func (s *Screen) WithLock(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// PutCh writes ch at (x,y) with attr, per spec.md §4.11 "PutCh writes at
// (x,y), applying the current attributes from the stored rendition".
func (s *Screen) PutCh(x, y int, ch uint32, attr CharacterAttributes) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if y < 0 || y >= s.buf.height || x < 0 || x >= s.buf.width {
		return
	}
	s.buf.lines[y][x] = Cell{Char: ch, Attr: attr}
	if x+1 > s.buf.meta[y].length {
		s.buf.meta[y].length = x + 1
	}
}

// PutWrap marks row y as wrapped.
func (s *Screen) PutWrap(y int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.meta[y].wrapped = true
}

// DoScrollUp shifts rows [top, bottom) up by one, pushing the vacated
// top row of the region into back-scroll only when top==0 (true
// history), and filling the newly vacated bottom row with EraseChar.
func (s *Screen) DoScrollUp(top, bottom int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrollUpLocked(top, bottom)
}

func (s *Screen) scrollUpLocked(top, bottom int) {
	if top < 0 || bottom > s.buf.height || top >= bottom {
		return
	}
	if top == 0 && !s.onAltScreen {
		s.buf.PushBackscroll(s.buf.lines[0], s.buf.meta[0])
	}
	copy(s.buf.lines[top:bottom-1], s.buf.lines[top+1:bottom])
	copy(s.buf.meta[top:bottom-1], s.buf.meta[top+1:bottom])
	s.buf.lines[bottom-1] = newLine(s.buf.width, s.EraseChar)
	s.buf.meta[bottom-1] = lineMeta{}
}

// ScrollDown shifts rows [top, bottom) down by one (used by RI at the
// scrolling-region top).
func (s *Screen) ScrollDown(top, bottom int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if top < 0 || bottom > s.buf.height || top >= bottom {
		return
	}
	copy(s.buf.lines[top+1:bottom], s.buf.lines[top:bottom-1])
	copy(s.buf.meta[top+1:bottom], s.buf.meta[top:bottom-1])
	s.buf.lines[top] = newLine(s.buf.width, s.EraseChar)
	s.buf.meta[top] = lineMeta{}
}

// DoShiftRowLeft/Right implement insert/delete character operations on
// row y within [from, width).
func (s *Screen) DoShiftRowLeft(y, from, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := s.buf.lines[y]
	if from+n > len(line) {
		n = len(line) - from
	}
	copy(line[from:], line[from+n:])
	for i := len(line) - n; i < len(line); i++ {
		if i >= 0 {
			line[i] = s.EraseChar
		}
	}
}

func (s *Screen) DoShiftRowRight(y, from, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := s.buf.lines[y]
	copy(line[from+n:], line[from:len(line)-n])
	for i := from; i < from+n && i < len(line); i++ {
		line[i] = s.EraseChar
	}
}

// EraseRect fills [x0,x1) x [y0,y1) with EraseChar.
func (s *Screen) EraseRect(x0, y0, x1, y1 int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for y := y0; y < y1 && y < s.buf.height; y++ {
		for x := x0; x < x1 && x < s.buf.width; x++ {
			s.buf.lines[y][x] = s.EraseChar
		}
	}
}

// ToggleAlternateScreen swaps the primary/alternate buffer, matching
// DEC mode ?47/?1049 (spec.md §4.10 "ChangeMode").
func (s *Screen) ToggleAlternateScreen(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if on == s.onAltScreen {
		return
	}
	if on {
		s.altBuf = NewScreenBuffer(s.buf.width, s.buf.height, s.EraseChar, 0)
		s.buf, s.altBuf = s.altBuf, s.buf
	} else {
		s.buf, s.altBuf = s.altBuf, s.buf
	}
	s.onAltScreen = on
}

// ResizeScreen asks the buffer to reflow to new dimensions via
// Compose/Decompose (spec.md §4.11 "ResizeScreen asks the buffer to
// reflow").
func (s *Screen) ResizeScreen(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	logical := s.buf.ComposeContinuousLines()
	rows, wrapped := DecomposeContinuousLines(logical, width, s.EraseChar)

	// Bottom alignment: keep the bottom-most `height` rows as on-screen,
	// the rest becomes back-scroll (spec.md §4.11 "bottom line remains
	// bottom line unless back-scroll can absorb more").
	nb := NewScreenBuffer(width, height, s.EraseChar, s.buf.maxBackscroll)
	start := len(rows) - height
	if start < 0 {
		start = 0
	}
	for i := start; i < len(rows); i++ {
		y := i - start
		if y >= height {
			break
		}
		nb.lines[y] = rows[i]
		nb.meta[y] = lineMeta{length: len(rows[i]), wrapped: wrapped[i]}
	}
	for i := 0; i < start; i++ {
		nb.PushBackscroll(rows[i], lineMeta{length: len(rows[i]), wrapped: wrapped[i]})
	}
	s.buf = nb
}
