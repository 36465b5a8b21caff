package term

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputTranslatorSendKeyNormalMode(t *testing.T) {
	var got []byte
	tr := NewInputTranslator(func(b []byte) { got = b })
	tr.SendKey(KeyUp, 0)
	assert.Equal(t, "\x1b[A", string(got))
}

func TestInputTranslatorSendKeyApplicationCursorKeys(t *testing.T) {
	var got []byte
	tr := NewInputTranslator(func(b []byte) { got = b })
	tr.ApplicationCursorKeys = true
	tr.SendKey(KeyUp, 0)
	assert.Equal(t, "\x1bOA", string(got))
}

func TestInputTranslatorSendKeyFunctionKeysUnaffectedByApplicationMode(t *testing.T) {
	var got []byte
	tr := NewInputTranslator(func(b []byte) { got = b })
	tr.ApplicationCursorKeys = true
	tr.SendKey(KeyF1, 0)
	assert.Equal(t, "\x1bOP", string(got))
}

func TestInputTranslatorSendKeyPageAndEditingKeys(t *testing.T) {
	var got []byte
	tr := NewInputTranslator(func(b []byte) { got = b })
	tr.SendKey(KeyDelete, 0)
	assert.Equal(t, "\x1b[3~", string(got))
}

func TestInputTranslatorSendTextPlain(t *testing.T) {
	var got []byte
	tr := NewInputTranslator(func(b []byte) { got = b })
	tr.SendText("hello", false)
	assert.Equal(t, "hello", string(got))
}

func TestInputTranslatorSendTextBracketedPaste(t *testing.T) {
	var chunks [][]byte
	tr := NewInputTranslator(func(b []byte) { chunks = append(chunks, append([]byte(nil), b...)) })
	tr.BracketedPaste = true
	tr.SendText("pasted", true)

	require.Len(t, chunks, 3)
	assert.Equal(t, "\x1b[200~", string(chunks[0]))
	assert.Equal(t, "pasted", string(chunks[1]))
	assert.Equal(t, "\x1b[201~", string(chunks[2]))
}

func TestInputTranslatorSendTextPasteWithoutBracketedPasteIsPlain(t *testing.T) {
	var got []byte
	tr := NewInputTranslator(func(b []byte) { got = b })
	tr.SendText("pasted", true)
	assert.Equal(t, "pasted", string(got))
}

func TestInputTranslatorSendMouseOffIsNoop(t *testing.T) {
	called := false
	tr := NewInputTranslator(func(b []byte) { called = true })
	tr.SendMouse(MouseEvent{Kind: MouseLDown, X: 1, Y: 1})
	assert.False(t, called)
}

func TestInputTranslatorSendMouseSGREncoding(t *testing.T) {
	var got []byte
	tr := NewInputTranslator(func(b []byte) { got = b })
	tr.MouseMode = MouseSGR
	tr.SendMouse(MouseEvent{Kind: MouseLDown, X: 4, Y: 9})
	assert.Equal(t, "\x1b[<0;5;10M", string(got))
}

func TestInputTranslatorSendMouseSGRReleaseUsesLowercaseFinal(t *testing.T) {
	var got []byte
	tr := NewInputTranslator(func(b []byte) { got = b })
	tr.MouseMode = MouseSGR
	tr.SendMouse(MouseEvent{Kind: MouseLUp, X: 0, Y: 0})
	assert.Equal(t, "\x1b[<0;1;1m", string(got))
}

func TestInputTranslatorSendMouseModifierBits(t *testing.T) {
	var got []byte
	tr := NewInputTranslator(func(b []byte) { got = b })
	tr.MouseMode = MouseSGR
	tr.SendMouse(MouseEvent{Kind: MouseLDown, X: 0, Y: 0, Mods: ModShift | ModControl})
	assert.Equal(t, "\x1b[<20;1;1M", string(got))
}
