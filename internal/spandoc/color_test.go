package spandoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#4CAF50")
	require.NoError(t, err)
	assert.Equal(t, Color(0xFF4CAF50), c)
	assert.Equal(t, "#4CAF50", c.Hex())

	c, err = ParseColor("#804CAF50")
	require.NoError(t, err)
	assert.Equal(t, uint8(0x80), c.A())
	assert.Equal(t, "#804CAF50", c.Hex())

	for _, bad := range []string{"", "4CAF50", "#4CAF5", "#GGGGGG", "#123456789"} {
		_, err := ParseColor(bad)
		assert.Error(t, err, bad)
	}

	assert.Panics(t, func() { MustParseColor("red") })
	assert.Equal(t, "#FF0000", Red.Hex())
}
