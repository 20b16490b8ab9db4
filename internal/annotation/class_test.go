package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClasses_Resolve(t *testing.T) {
	classes := Classes{
		{ID: 0, Name: "cat", Color: "#ff0000"},
		{ID: 2, Name: "dog", Color: "bogus"},
	}

	c, ok := classes.Resolve(0)
	assert.True(t, ok)
	assert.Equal(t, "cat", c.Name)
	assert.Equal(t, "#ff0000", c.Color)

	c, ok = classes.Resolve(2)
	assert.True(t, ok)
	assert.Equal(t, FallbackColor(2), c.Color)

	c, ok = classes.Resolve(7)
	assert.False(t, ok)
	assert.Equal(t, "class_7", c.Name)
	assert.Equal(t, FallbackColor(7), c.Color)
}

func TestFallbackColor_Deterministic(t *testing.T) {
	assert.Equal(t, FallbackColor(3), FallbackColor(3))
	assert.NotEqual(t, FallbackColor(3), FallbackColor(4))

	for _, id := range []int{-5, 0, 1, 99} {
		_, err := ParseColor(FallbackColor(id))
		require.NoError(t, err)
	}
}

func TestClasses_Names(t *testing.T) {
	classes := Classes{{ID: 0, Name: "a"}, {ID: 2, Name: "c"}}
	assert.Equal(t, []string{"a", "class_1", "c"}, classes.Names())
	assert.Empty(t, Classes(nil).Names())
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#F00")
	require.NoError(t, err)
	r, g, b := c.RGB255()
	assert.Equal(t, []uint8{255, 0, 0}, []uint8{r, g, b})

	_, err = ParseColor("00ff00")
	assert.NoError(t, err)

	_, err = ParseColor("")
	assert.Error(t, err)
}
