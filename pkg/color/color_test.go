package color

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func saveState(t *testing.T) {
	t.Helper()
	origEnabled := state.enabled.Load()
	origOverridden := state.overridden.Load()
	t.Cleanup(func() {
		state.enabled.Store(origEnabled)
		state.overridden.Store(origOverridden)
	})
}

func TestEnableDisable(t *testing.T) {
	saveState(t)

	Enable()
	assert.True(t, Enabled())

	Disable()
	assert.False(t, Enabled())
}

func TestColorFuncs(t *testing.T) {
	saveState(t)
	Enable()

	assert.Equal(t, Green+"+ /a"+Reset, Added("+ /a"))
	assert.Equal(t, Red+"- /a"+Reset, Removed("- /a"))
	assert.Equal(t, Yellow+"~ /a"+Reset, Modified("~ /a"))
	assert.Equal(t, Bold+"title"+Reset, Header("title"))
	assert.Equal(t, DimCode+"x"+Reset, Dim("x"))
	assert.Equal(t, Cyan+"abc"+Reset, SnapshotID("abc"))
	assert.Equal(t, Red+"fsnap:"+Reset, Error("fsnap:"))
	assert.Equal(t, Yellow+"careful"+Reset, Warning("careful"))
	assert.Equal(t, Green+"ok 3"+Reset, Successf("ok %d", 3))
}

func TestColorFuncsDisabled(t *testing.T) {
	saveState(t)
	Disable()

	assert.Equal(t, "+ /a", Added("+ /a"))
	assert.Equal(t, "- /a", Removed("- /a"))
	assert.Equal(t, "plain", Success("plain"))
	assert.Equal(t, "plain", Header("plain"))
}
