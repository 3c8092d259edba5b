package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to State }{
		{StateUpload, StateProcessing},
		{StateProcessing, StateValidated},
		{StateProcessing, StateBlocked},
		{StateProcessing, StateFailed},
		{StateValidated, StatePreview},
		{StateValidated, StateFailed},
		{StatePreview, StateImporting},
		{StatePreview, StateFailed},
		{StateImporting, StateDone},
		{StateImporting, StateFailed},
	}
	for _, tt := range allowed {
		assert.True(t, CanTransition(tt.from, tt.to), "%s -> %s must be legal", tt.from, tt.to)
	}

	denied := []struct{ from, to State }{
		{StateUpload, StateValidated},
		{StateUpload, StateDone},
		{StateValidated, StateImporting},
		{StatePreview, StateDone},
		{StateDone, StateImporting},
		{StateBlocked, StateValidated},
		{StateFailed, StateProcessing},
		{StateImporting, StateImporting},
	}
	for _, tt := range denied {
		assert.False(t, CanTransition(tt.from, tt.to), "%s -> %s must be illegal", tt.from, tt.to)
	}
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, StateDone.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.True(t, StateBlocked.Terminal())

	assert.False(t, StateUpload.Terminal())
	assert.False(t, StateProcessing.Terminal())
	assert.False(t, StateValidated.Terminal())
	assert.False(t, StatePreview.Terminal())
	assert.False(t, StateImporting.Terminal())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "validated", StateValidated.String())
	assert.Equal(t, "state(99)", State(99).String())
}
