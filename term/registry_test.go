package term

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtendedCharRegistryBaseScalarPassesThrough(t *testing.T) {
	r := NewExtendedCharRegistry()
	res := r.Append("", 'A')
	assert.True(t, IsBase(res.NewChar))
	assert.False(t, IsExtended(res.NewChar))
	assert.EqualValues(t, 'A', res.NewChar)
}

func TestExtendedCharRegistryCombiningMarkInterns(t *testing.T) {
	r := NewExtendedCharRegistry()
	// 'q' + combining acute accent (U+0301) has no precomposed NFC form, so
	// the grapheme must be interned rather than returned as a base scalar.
	res := r.Append(string(rune(0x0301)), 'q')
	assert.True(t, IsExtended(res.NewChar))
	assert.False(t, IsBase(res.NewChar))

	decoded := r.Decode(res.NewChar)
	assert.NotEmpty(t, decoded)
}

func TestExtendedCharRegistryInterningIsIdempotent(t *testing.T) {
	r := NewExtendedCharRegistry()
	a := r.Append(string(rune(0x0301)), 'q')
	b := r.Append(string(rune(0x0301)), 'q')
	assert.Equal(t, a.NewChar, b.NewChar, "the same grapheme must reuse the same interned index")
}

func TestExtendedCharRegistryDecodeOfBaseIsEmpty(t *testing.T) {
	r := NewExtendedCharRegistry()
	assert.Equal(t, "", r.Decode('A'))
}

func TestExtendedCharRegistryDecodeOfUnknownExtendedIsEmpty(t *testing.T) {
	r := NewExtendedCharRegistry()
	assert.Equal(t, "", r.Decode(extendedHighBit|0xFFFF))
}

func TestExtendedCharRegistryIsDoubleWidthForBaseCJK(t *testing.T) {
	r := NewExtendedCharRegistry()
	// U+4E2D (中) is a wide East Asian character.
	assert.True(t, r.IsDoubleWidth(0x4E2D))
	assert.False(t, r.IsDoubleWidth('A'))
}

func TestExtendedCharRegistryEmptyInputReturnsZero(t *testing.T) {
	r := NewExtendedCharRegistry()
	res := r.Append("", 0)
	assert.Zero(t, res.NewChar)
	assert.Zero(t, res.Eaten)
}

func TestExtendedCharRegistryUTF16UnitsRoundTrip(t *testing.T) {
	r := NewExtendedCharRegistry()
	res := r.Append(string(rune(0x0301)), 'q')
	require.True(t, IsExtended(res.NewChar))

	units := r.UTF16Units(res.NewChar)
	assert.NotEmpty(t, units)
}

func TestExtendedCharRegistryUTF16UnitsOfBaseIsNil(t *testing.T) {
	r := NewExtendedCharRegistry()
	assert.Nil(t, r.UTF16Units('A'))
}

func TestGlobalRegistryIsSharedSingleton(t *testing.T) {
	assert.Same(t, GlobalRegistry(), GlobalRegistry())
}
