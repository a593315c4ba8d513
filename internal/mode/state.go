package mode

import (
	"microlight/internal/equation"
	"microlight/internal/pattern"
)

func freeComponentState(state *ComponentState) {
	equation.FreePattern(&state.Equation)
}

func compileComponentState(state *ComponentState, component *ModeComponent) *equation.CompileError {
	if component == nil || component.Pattern.Kind != PatternEquation {
		return nil
	}
	return equation.CompilePattern(&state.Equation, component.Pattern.Equation)
}

// Initialize releases every compiled handle currently held by state, zeroes
// it, and recompiles every equation pattern present in mode (base front,
// base case, and each trigger's front/case). It attempts to compile all of
// them even after an earlier one fails, returning only the first error
// encountered with a dotted Path (e.g. "accel[1].front.red.sections[2]").
func Initialize(state *State, mode *Mode, initialMs uint32) *equation.CompileError {
	freeComponentState(&state.Front)
	freeComponentState(&state.Case)
	for i := range state.Accel {
		freeComponentState(&state.Accel[i].Front)
		freeComponentState(&state.Accel[i].Case)
	}

	*state = State{}
	state.LastPatternUpdateMs = initialMs

	var first *equation.CompileError
	note := func(err *equation.CompileError) {
		if err != nil && first == nil {
			first = err
		}
	}

	if mode.Front != nil {
		if err := compileComponentState(&state.Front, mode.Front); err != nil {
			err.Path = prependPath(err.Path, "front")
			note(err)
		}
	}
	if mode.Case != nil {
		if err := compileComponentState(&state.Case, mode.Case); err != nil {
			err.Path = prependPath(err.Path, "caseComp")
			note(err)
		}
	}
	if mode.Accel != nil {
		for i, trig := range mode.Accel.Triggers {
			if i >= MaxAccelTriggers {
				break
			}
			if trig.Front != nil {
				if err := compileComponentState(&state.Accel[i].Front, trig.Front); err != nil {
					err.Path = prependPath(err.Path, "front")
					err.Path = prependIndexedPath(err.Path, "accel", i)
					note(err)
				}
			}
			if trig.Case != nil {
				if err := compileComponentState(&state.Accel[i].Case, trig.Case); err != nil {
					err.Path = prependPath(err.Path, "caseComp")
					err.Path = prependIndexedPath(err.Path, "accel", i)
					note(err)
				}
			}
		}
	}

	return first
}

func advanceComponentState(state *ComponentState, component *ModeComponent, deltaMs uint32) {
	if component == nil {
		return
	}
	switch component.Pattern.Kind {
	case PatternSimple:
		sp := component.Pattern.Simple
		if sp == nil || len(sp.ChangeAt) == 0 {
			state.Simple.ElapsedMs = 0
			state.Simple.ChangeIndex = 0
			return
		}
		pattern.Advance(&state.Simple, sp, deltaMs)
	case PatternEquation:
		if component.Pattern.Equation != nil {
			equation.AdvancePattern(&state.Equation, component.Pattern.Equation, deltaMs)
		}
	}
}

// Advance computes deltaMs from ms and state.LastPatternUpdateMs and
// advances every present component by it. Non-monotonic ms (less than the
// last observed tick) is ignored entirely — neither component state nor
// LastPatternUpdateMs changes — so retrograde time can never roll a
// pattern's cursor backward.
func Advance(state *State, mode *Mode, ms uint32) {
	if ms < state.LastPatternUpdateMs {
		return
	}
	deltaMs := ms - state.LastPatternUpdateMs
	state.LastPatternUpdateMs = ms
	if deltaMs == 0 {
		return
	}

	advanceComponentState(&state.Front, mode.Front, deltaMs)
	advanceComponentState(&state.Case, mode.Case, deltaMs)

	if mode.Accel != nil {
		for i, trig := range mode.Accel.Triggers {
			if i >= MaxAccelTriggers {
				break
			}
			advanceComponentState(&state.Accel[i].Front, trig.Front, deltaMs)
			advanceComponentState(&state.Accel[i].Case, trig.Case, deltaMs)
		}
	}
}

// GetSimpleOutput resolves component's current output from state. A simple
// pattern with no change points yields false; an equation pattern always
// yields an Rgb output (possibly all zero, if uncompiled).
func GetSimpleOutput(state *ComponentState, component *ModeComponent, equationEvalIntervalMs uint8) (pattern.SimpleOutput, bool) {
	if component == nil {
		return pattern.SimpleOutput{}, false
	}
	switch component.Pattern.Kind {
	case PatternSimple:
		sp := component.Pattern.Simple
		if sp == nil || len(sp.ChangeAt) == 0 {
			return pattern.SimpleOutput{}, false
		}
		return pattern.Output(&state.Simple, sp)
	case PatternEquation:
		if component.Pattern.Equation == nil {
			return pattern.SimpleOutput{Kind: pattern.OutputRGB}, true
		}
		r, g, b := equation.Eval(&state.Equation, equationEvalIntervalMs)
		return pattern.SimpleOutput{Kind: pattern.OutputRGB, R: r, G: g, B: b}, true
	}
	return pattern.SimpleOutput{}, false
}
