package term

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampBoundsValue(t *testing.T) {
	assert.Equal(t, 0, clamp(-5, 0, 10))
	assert.Equal(t, 10, clamp(15, 0, 10))
	assert.Equal(t, 5, clamp(5, 0, 10))
}

func TestParseExtendedColorIndexed(t *testing.T) {
	n, ref := parseExtendedColor([]int{38, 5, 42}, 0)
	assert.Equal(t, 2, n)
	assert.Equal(t, ColorRef{Kind: ColorIndexed, Idx: 42}, ref)
}

func TestParseExtendedColorTruncatedFallsBackToDefault(t *testing.T) {
	n, ref := parseExtendedColor([]int{38, 5}, 0)
	assert.Equal(t, 1, n)
	assert.Equal(t, ColorRef{}, ref)
}

func TestParseExtendedColorUnknownSubModeFallsBackToDefault(t *testing.T) {
	n, ref := parseExtendedColor([]int{38, 9}, 0)
	assert.Equal(t, 1, n)
	assert.Equal(t, ColorRef{}, ref)
}

func TestQuantizeRGBBlackIsCubeOrigin(t *testing.T) {
	assert.EqualValues(t, 16, quantizeRGB(0, 0, 0))
}

func TestQuantizeRGBClampsOutOfRangeInput(t *testing.T) {
	assert.EqualValues(t, 231, quantizeRGB(999, 999, 999))
	assert.EqualValues(t, 16, quantizeRGB(-10, -10, -10))
}

func TestInterpreterSetScrollingRegionRelocatesCursor(t *testing.T) {
	_, ip := newTestInterpreter(10, 10)
	ip.Feed([]Command{{Kind: CmdCSI, CSIFinal: 'r', CSIParams: []int{2, 8}}})
	assert.Equal(t, 1, ip.extent.Top)
	assert.Equal(t, 8, ip.extent.Bottom)
	assert.Equal(t, 0, ip.screen.X)
	assert.Equal(t, 0, ip.screen.Y)
}

func TestInterpreterInsertDeleteLinesGatedToScrollingRegion(t *testing.T) {
	screen, ip := newTestInterpreter(5, 5)
	ip.screen.PutCh(0, 4, 'x', CharacterAttributes{})
	ip.screen.Y = 10 // outside the region entirely (never reachable via cursor ops, forced for the test)
	ip.Feed([]Command{{Kind: CmdCSI, CSIFinal: 'L', CSIParams: []int{1}}})
	// out-of-region insertLines must be a no-op; the forced Y leaves bounds
	// checks moot, so just assert the call didn't panic and content at
	// row 4 is untouched when Y is legitimately inside the region instead.
	ip.screen.Y = 4
	ip.Feed([]Command{{Kind: CmdCSI, CSIFinal: 'L', CSIParams: []int{1}}})
	assert.Equal(t, uint32(' '), screen.Buffer().Line(4)[0].Char, "insertLines at the last row of the region scrolls the row itself away")
}

func TestInterpreterInsertCharactersShiftsRight(t *testing.T) {
	screen, ip := newTestInterpreter(5, 2)
	ip.screen.PutCh(0, 0, 'a', CharacterAttributes{})
	ip.screen.X = 0
	ip.Feed([]Command{{Kind: CmdCSI, CSIFinal: '@', CSIParams: []int{1}}})
	assert.Equal(t, uint32('a'), screen.Buffer().Line(0)[1].Char)
}

func TestInterpreterEraseCharactersClampsToWidth(t *testing.T) {
	screen, ip := newTestInterpreter(3, 2)
	ip.screen.PutCh(0, 0, 'a', CharacterAttributes{})
	ip.screen.PutCh(1, 0, 'b', CharacterAttributes{})
	ip.screen.X = 0
	ip.Feed([]Command{{Kind: CmdCSI, CSIFinal: 'X', CSIParams: []int{10}}})
	assert.Equal(t, uint32(' '), screen.Buffer().Line(0)[0].Char)
	assert.Equal(t, uint32(' '), screen.Buffer().Line(0)[1].Char)
}

func TestInterpreterTabClearAllResetsStops(t *testing.T) {
	_, ip := newTestInterpreter(40, 2)
	ip.Feed([]Command{{Kind: CmdCSI, CSIFinal: 'g', CSIParams: []int{3}}})
	assert.False(t, ip.isTabStop(8))
}

func TestInterpreterCursorStyleCallback(t *testing.T) {
	_, ip := newTestInterpreter(5, 5)
	var style CursorStyle
	var has bool
	ip.cb.CursorStyleChanged = func(s CursorStyle, h bool) { style, has = s, h }

	ip.Feed([]Command{{Kind: CmdCSI, CSIFinal: 'q', CSIInter: " ", CSIParams: []int{2}}})
	assert.True(t, has)
	assert.Equal(t, CursorSteadyBlock, style)
}

func TestInterpreterReportOK(t *testing.T) {
	_, ip := newTestInterpreter(5, 5)
	var got []byte
	ip.cb.Output = func(b []byte) { got = b }
	ip.Feed([]Command{{Kind: CmdCSI, CSIFinal: 'n', CSIParams: []int{5}}})
	assert.Equal(t, "\x1b[0n", string(got))
}

func TestInterpreterReportTerminalID(t *testing.T) {
	_, ip := newTestInterpreter(5, 5)
	var got []byte
	ip.cb.Output = func(b []byte) { got = b }
	ip.Feed([]Command{{Kind: CmdCSI, CSIFinal: 'c'}})
	assert.Equal(t, "\x1b[?6c", string(got))
}
