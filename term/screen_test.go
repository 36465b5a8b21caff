package term

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScreenPutChWritesCellAndTracksLineLength(t *testing.T) {
	s := NewScreen(10, 3, Cell{Char: ' '}, 100)
	s.PutCh(2, 1, 'x', CharacterAttributes{Bold: true})

	line := s.Buffer().Line(1)
	assert.Equal(t, uint32('x'), line[2].Char)
	assert.True(t, line[2].Attr.Bold)
}

func TestScreenPutChOutOfBoundsIsNoop(t *testing.T) {
	s := NewScreen(10, 3, Cell{Char: ' '}, 100)
	assert.NotPanics(t, func() {
		s.PutCh(-1, 0, 'x', CharacterAttributes{})
		s.PutCh(100, 0, 'x', CharacterAttributes{})
		s.PutCh(0, 100, 'x', CharacterAttributes{})
	})
}

func TestScreenDoScrollUpPushesTopRowToBackscrollOnlyAtTrueTop(t *testing.T) {
	s := NewScreen(5, 3, Cell{Char: ' '}, 100)
	s.PutCh(0, 0, 'a', CharacterAttributes{})
	s.DoScrollUp(0, 3)

	assert.Equal(t, 1, s.Buffer().BackscrollLen())

	// scrolling a sub-region (top != 0) must not push to backscroll.
	s2 := NewScreen(5, 3, Cell{Char: ' '}, 100)
	s2.DoScrollUp(1, 3)
	assert.Equal(t, 0, s2.Buffer().BackscrollLen())
}

func TestScreenDoScrollUpFillsVacatedBottomRowWithErase(t *testing.T) {
	erase := Cell{Char: ' '}
	s := NewScreen(5, 3, erase, 100)
	s.PutCh(0, 2, 'z', CharacterAttributes{})
	s.DoScrollUp(0, 3)

	line := s.Buffer().Line(2)
	assert.Equal(t, erase, line[0])
}

func TestScreenBackscrollRespectsMaxBound(t *testing.T) {
	s := NewScreen(5, 2, Cell{Char: ' '}, 2)
	for i := 0; i < 5; i++ {
		s.DoScrollUp(0, 2)
	}
	assert.Equal(t, 2, s.Buffer().BackscrollLen())
}

func TestScreenScrollDownShiftsRowsAndFillsTop(t *testing.T) {
	erase := Cell{Char: ' '}
	s := NewScreen(5, 3, erase, 100)
	s.PutCh(0, 1, 'y', CharacterAttributes{})
	s.ScrollDown(0, 3)

	assert.Equal(t, uint32('y'), s.Buffer().Line(2)[0].Char)
	assert.Equal(t, erase, s.Buffer().Line(0)[0])
}

func TestScreenDoShiftRowLeftDeletesCharacters(t *testing.T) {
	erase := Cell{Char: ' '}
	s := NewScreen(5, 1, erase, 100)
	s.PutCh(0, 0, 'a', CharacterAttributes{})
	s.PutCh(1, 0, 'b', CharacterAttributes{})
	s.PutCh(2, 0, 'c', CharacterAttributes{})

	s.DoShiftRowLeft(0, 0, 1) // delete the char at column 0

	line := s.Buffer().Line(0)
	assert.Equal(t, uint32('b'), line[0].Char)
	assert.Equal(t, uint32('c'), line[1].Char)
	assert.Equal(t, erase, line[4])
}

func TestScreenDoShiftRowRightInsertsBlanks(t *testing.T) {
	erase := Cell{Char: ' '}
	s := NewScreen(5, 1, erase, 100)
	s.PutCh(0, 0, 'a', CharacterAttributes{})
	s.PutCh(1, 0, 'b', CharacterAttributes{})

	s.DoShiftRowRight(0, 0, 1) // insert one blank at column 0

	line := s.Buffer().Line(0)
	assert.Equal(t, erase, line[0])
	assert.Equal(t, uint32('a'), line[1].Char)
	assert.Equal(t, uint32('b'), line[2].Char)
}

func TestScreenEraseRectFillsRange(t *testing.T) {
	erase := Cell{Char: ' '}
	s := NewScreen(5, 2, erase, 100)
	s.PutCh(0, 0, 'a', CharacterAttributes{})
	s.EraseRect(0, 0, 5, 1)
	assert.Equal(t, erase, s.Buffer().Line(0)[0])
}

func TestScreenToggleAlternateScreenSwapsBuffersAndIsReversible(t *testing.T) {
	s := NewScreen(5, 2, Cell{Char: ' '}, 100)
	s.PutCh(0, 0, 'p', CharacterAttributes{})

	s.ToggleAlternateScreen(true)
	assert.NotEqual(t, uint32('p'), s.Buffer().Line(0)[0].Char, "alt screen starts blank")

	s.PutCh(0, 0, 'q', CharacterAttributes{})
	s.ToggleAlternateScreen(false)
	assert.Equal(t, uint32('p'), s.Buffer().Line(0)[0].Char, "primary screen content survives the alt-screen round trip")
}

func TestScreenToggleAlternateScreenNoopWhenAlreadyInState(t *testing.T) {
	s := NewScreen(5, 2, Cell{Char: ' '}, 100)
	s.ToggleAlternateScreen(false) // already primary
	assert.Equal(t, 5, s.Buffer().Width())
}

func TestScreenResizeScreenReflowsAndKeepsBottomAligned(t *testing.T) {
	erase := Cell{Char: ' '}
	s := NewScreen(5, 3, erase, 100)
	s.PutCh(0, 2, 'x', CharacterAttributes{})

	s.ResizeScreen(5, 2)

	require.Equal(t, 2, s.Buffer().Height())
	assert.Equal(t, uint32('x'), s.Buffer().Line(1)[0].Char, "bottom-most row must remain the bottom row after shrink")
}

func TestScreenBufferComposeDecomposeRoundTrip(t *testing.T) {
	erase := Cell{Char: ' '}
	b := NewScreenBuffer(3, 2, erase, 0)
	b.lines[0][0] = Cell{Char: 'a'}
	b.lines[0][1] = Cell{Char: 'b'}
	b.lines[0][2] = Cell{Char: 'c'}
	b.SetLineWrapped(0, true)
	b.lines[1][0] = Cell{Char: 'd'}

	logical := b.ComposeContinuousLines()
	require.Len(t, logical, 1)
	assert.Len(t, logical[0], 6)

	rows, wrapped := DecomposeContinuousLines(logical, 3, erase)
	require.Len(t, rows, 2)
	assert.True(t, wrapped[0])
	assert.False(t, wrapped[1])
}

func TestScreenBufferOccupiedCharsTrimsTrailingErase(t *testing.T) {
	erase := Cell{Char: ' '}
	b := NewScreenBuffer(5, 1, erase, 0)
	b.lines[0][0] = Cell{Char: 'a'}
	b.lines[0][1] = Cell{Char: 'b'}

	occ := b.OccupiedChars(0, erase)
	assert.Len(t, occ, 2)
}

func TestScreenBufferSnapshotClonesRows(t *testing.T) {
	erase := Cell{Char: ' '}
	b := NewScreenBuffer(3, 2, erase, 0)
	b.lines[0][0] = Cell{Char: 'a'}

	snap := b.Snapshot(0, 2)
	require.Len(t, snap.Rows, 2)

	// mutating the live buffer must not affect the snapshot.
	b.lines[0][0] = Cell{Char: 'z'}
	assert.Equal(t, uint32('a'), snap.Rows[0][0].Char)
}
