package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModal_OpenEscapeClosesOnce(t *testing.T) {
	var m Modal
	assert.Equal(t, ModalClosed, m.State())
	assert.False(t, m.ScrollLocked())

	assert.True(t, m.Open("7", "<div>detail</div>"))
	assert.Equal(t, ModalOpen, m.State())
	assert.True(t, m.ScrollLocked())
	assert.Equal(t, "7", m.ItemID())

	assert.True(t, m.Close(CloseEscape))
	assert.False(t, m.Close(CloseEscape))
	assert.False(t, m.Close(CloseBackdrop))

	assert.Equal(t, ModalClosed, m.State())
	assert.False(t, m.ScrollLocked())
	assert.Equal(t, CloseEscape, m.LastReason())
	assert.Equal(t, 2, m.Transitions())
	assert.Empty(t, m.Content())
}

func TestModal_ReopenReplacesContent(t *testing.T) {
	var m Modal
	m.Open("1", "first")
	assert.False(t, m.Open("2", "second"))
	assert.Equal(t, "second", m.Content())
	assert.Equal(t, 1, m.Transitions())
}

func TestParseCloseReason(t *testing.T) {
	for in, want := range map[string]CloseReason{"button": CloseButton, "Backdrop": CloseBackdrop, "escape": CloseEscape, "": CloseButton} {
		got, err := ParseCloseReason(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseCloseReason("swipe")
	assert.Error(t, err)
	assert.Equal(t, "escape", CloseEscape.String())
}
