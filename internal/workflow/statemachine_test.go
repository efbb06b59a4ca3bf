package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidTransitionTable(t *testing.T) {
	assert.True(t, isValidTransition(StateDraft, StateContextReady))
	assert.True(t, isValidTransition(StateFeasibilityReady, StateRejected))
	assert.False(t, isValidTransition(StateDraft, StateApproved))
	assert.False(t, isValidTransition(StateArchived, StateDraft))
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, StateRejected.IsTerminal())
	assert.True(t, StateArchived.IsTerminal())
	assert.False(t, StateFeasibilityReady.IsTerminal())
}
