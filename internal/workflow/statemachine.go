package workflow

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when the requested transition does not
// match the session's current state or is not in the allowed-transitions
// table.
var ErrInvalidTransition = errors.New("invalid workflow transition")

// validTransitions enumerates every State -> []State edge in the
// lifecycle graph. Anything not listed here is rejected.
var validTransitions = map[State][]State{
	StateDraft:                {StateContextReady},
	StateContextReady:         {StateFeasibilityRequested},
	StateFeasibilityRequested: {StateFeasibilityReady},
	StateFeasibilityReady:     {StateApproved, StateRejected, StateDesignRevisionRequired},
	StateDesignRevisionRequired: {StateContextReady},
	StateApproved:             {StateToolpathsRequested},
	StateToolpathsRequested:   {StateToolpathsReady},
	StateToolpathsReady:       {StateArchived},
}

// isValidTransition reports whether to is reachable from from in one
// step of the lifecycle graph.
func isValidTransition(from, to State) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

func requireTransition(sess *Session, from, to State) error {
	if sess.State != from {
		return fmt.Errorf("%w: session %s is in %s, expected %s", ErrInvalidTransition, sess.SessionID, sess.State, from)
	}
	if !isValidTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
