package store

import (
	"github.com/google/uuid"
)

// probeTypePrefix marks the random action types used by CheckShape.
const probeTypePrefix = "@@store/PROBE_UNKNOWN_ACTION_"

// CheckShape probes every slice reducer with an undefined state, once with
// ActionInit and once with an action of a random, unique type, both targeted
// at the slice. A reducer that fails or returns nil for either probe is
// reported. The random type catches reducers that only special-case the
// literal ActionInit instead of returning their state for unknown types.
//
// Empty slice names and names equal to TargetAll are reported with
// ErrInvalidSliceName. Entries with a nil reducer are skipped. The result is
// empty when every slice is well-formed.
func CheckShape(entries ...SliceEntry) []ShapeViolation {
	var violations []ShapeViolation
	for _, e := range entries {
		if e.Reducer == nil {
			continue
		}
		if e.Name == "" || e.Name == TargetAll {
			violations = append(violations, ShapeViolation{Slice: e.Name, Err: ErrInvalidSliceName})
			continue
		}

		probes := []Action{
			{Type: ActionInit, Target: e.Name},
			{Type: probeTypePrefix + uuid.NewString(), Target: e.Name},
		}
		for _, probe := range probes {
			if v, ok := probeSlice(e, probe); !ok {
				violations = append(violations, v)
				break
			}
		}
	}
	return violations
}

func probeSlice(e SliceEntry, probe Action) (ShapeViolation, bool) {
	state, err := e.Reducer(nil, probe)
	if err != nil {
		return ShapeViolation{Slice: e.Name, Action: probe, Err: err}, false
	}
	if state == nil {
		return ShapeViolation{Slice: e.Name, Action: probe, Err: ErrUndefinedState}, false
	}
	return ShapeViolation{}, true
}
