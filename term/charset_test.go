package term

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateCharDECSpecialGraphicsMapsLineDrawing(t *testing.T) {
	assert.Equal(t, uint32(0x2500), translateChar('0', 'q'))
	assert.Equal(t, uint32(0x2518), translateChar('0', 'j'))
}

func TestTranslateCharPassesThroughOutsideMappedRange(t *testing.T) {
	assert.Equal(t, uint32('A'), translateChar('0', 'A'))
}

func TestTranslateCharPassesThroughForUSASCIIDesignation(t *testing.T) {
	assert.Equal(t, uint32('q'), translateChar('B', 'q'))
}

func TestTranslateCharPassesThroughForUKDesignation(t *testing.T) {
	assert.Equal(t, uint32('q'), translateChar('A', 'q'))
}
