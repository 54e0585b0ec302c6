// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import "fmt"

// State is a text unit's position in the pipeline.
type State string

const (
	StatePending    State = "pending-classification"
	StateExtracting State = "extracting"
	StateReconciled State = "reconciled"
	StateSkipped    State = "skipped"
)

// transitions lists the legal next states. States only move forward.
var transitions = map[State][]State{
	StatePending:    {StateExtracting, StateSkipped},
	StateExtracting: {StateReconciled},
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether s may move to next.
func (s State) CanTransition(next State) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// advance moves r to next and records it in the trace. An illegal transition
// is a programming error.
func (r *Result) advance(next State) {
	if !r.State.CanTransition(next) {
		panic(fmt.Sprintf("pipeline: illegal transition %s -> %s", r.State, next))
	}
	r.State = next
	r.Trace = append(r.Trace, next)
}
