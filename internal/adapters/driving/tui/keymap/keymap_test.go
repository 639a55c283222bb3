package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, Matches("ctrl+c", km.Quit))
	assert.True(t, Matches("esc", km.Quit))
	assert.True(t, Matches("enter", km.Submit))
	assert.True(t, Matches("pgup", km.ScrollUp))
	assert.True(t, Matches("pgdown", km.ScrollDown))
	assert.True(t, Matches("ctrl+l", km.Clear))
}

func TestDefaultKeyMap_PrintableKeysFree(t *testing.T) {
	km := DefaultKeyMap()
	for _, k := range []string{"q", "j", "k", "n", "?", " "} {
		for _, b := range km.ShortHelp() {
			assert.False(t, Matches(k, b), "key %q must be typeable", k)
		}
	}
}

func TestShortHelp(t *testing.T) {
	km := DefaultKeyMap()
	help := km.ShortHelp()
	assert.Len(t, help, 5)
	assert.Equal(t, "ask", help[0].Help().Desc)
}
