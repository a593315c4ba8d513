// Package mode implements the mode state lifecycle (compiling and advancing
// a Mode's patterns) and the mode manager that resolves which component —
// base or an overriding accelerometer trigger — drives each LED output on
// every tick. Ported from mode_state.c and mode_manager.c.
package mode

import (
	"fmt"

	"microlight/internal/equation"
	"microlight/internal/pattern"
)

// MaxAccelTriggers bounds Mode.Accel.Triggers, matching the firmware's
// fixed per-mode trigger array.
const MaxAccelTriggers = 4

// FakeOffModeIndex is the reserved, non-user-writable mode slot the
// orchestrator loads when entering fake-off.
const FakeOffModeIndex = 255

// PatternKind discriminates ModeComponent's pattern variant.
type PatternKind uint8

const (
	PatternSimple PatternKind = iota
	PatternEquation
)

// Pattern is the tagged union of the two pattern kinds a ModeComponent may
// drive from. Exactly one of Simple/Equation is meaningful, per Kind.
type Pattern struct {
	Kind     PatternKind
	Simple   *pattern.SimplePattern
	Equation *equation.Pattern
}

// ModeComponent is a single front- or case-facing pattern, owned by either
// a Mode directly (the base component) or an AccelTrigger (an override).
type ModeComponent struct {
	Pattern Pattern
}

// AccelTrigger overrides the base front/case components once the
// accelerometer's squared-jerk statistic exceeds Threshold. Front and Case
// are optional independently: a trigger may override just one of them.
type AccelTrigger struct {
	Threshold uint8
	Front     *ModeComponent
	Case      *ModeComponent
}

// AccelConfig is a mode's ordered trigger list. Triggers must be in
// ascending Threshold order — ValidateAscending enforces this at parse
// time so the runtime trigger-resolution cascade can safely stop at the
// first non-matching trigger.
type AccelConfig struct {
	Triggers []AccelTrigger
}

// ValidateAscending reports whether every trigger's threshold is no less
// than the previous one's, the ordering the trigger-resolution cascade in
// resolveActive depends on.
func (c *AccelConfig) ValidateAscending() bool {
	for i := 1; i < len(c.Triggers); i++ {
		if c.Triggers[i].Threshold < c.Triggers[i-1].Threshold {
			return false
		}
	}
	return true
}

// Mode is a complete user-selectable program: an optional base front/case
// pattern plus an optional accelerometer override table.
type Mode struct {
	Name  string
	Front *ModeComponent
	Case  *ModeComponent
	Accel *AccelConfig
}

// ComponentState is the mutable cursor for one ModeComponent — whichever
// half (Simple or Equation) matches the component's Pattern.Kind is the one
// in active use; the other is left zeroed.
type ComponentState struct {
	Simple   pattern.State
	Equation equation.PatternState
}

// TriggerState is the pair of component cursors (front, case) for one
// accelerometer trigger slot.
type TriggerState struct {
	Front ComponentState
	Case  ComponentState
}

// State is the full mutable cursor set for one loaded Mode: base front and
// case, one TriggerState per accel trigger slot, and the last tick's
// timestamp used to compute monotonic deltas.
type State struct {
	Front                ComponentState
	Case                 ComponentState
	Accel                [MaxAccelTriggers]TriggerState
	LastPatternUpdateMs uint32
}

// FrontKind reports which variant of SimpleOutput a resolved front output
// carries, so the orchestrator knows whether to mux the front pin to GPIO
// (Bulb) or PWM/AF (RGB).
type FrontKind uint8

const (
	FrontBulb FrontKind = iota
	FrontRGB
)

// Outputs summarizes one modeTask resolution: whether front/case produced a
// usable color and, for the front, which pin mode it wants.
type Outputs struct {
	FrontValid bool
	CaseValid  bool
	FrontType  FrontKind
}

func prependPath(path, segment string) string {
	if path == "" {
		return segment
	}
	return segment + "." + path
}

func prependIndexedPath(path, segment string, index int) string {
	if path == "" {
		return fmt.Sprintf("%s[%d]", segment, index)
	}
	return fmt.Sprintf("%s[%d].%s", segment, index, path)
}
