// Package equation implements the real-valued, time-driven light pattern:
// per-channel (red/green/blue) sections each holding a compiled expression
// of the free variable t (seconds since the section started), with sin,
// cos, and tan as the only supported unary functions. Ported from the
// channel/pattern advance and te_compile/te_free handle lifecycle in
// mode_state.c.
package equation

import "sync/atomic"

// SectionsMax bounds the number of sections in a ChannelConfig, matching
// the firmware's fixed per-channel section array.
const SectionsMax = 4

// Section is one timed segment of a channel: for Duration milliseconds,
// Equation is evaluated against t (seconds elapsed within the section).
type Section struct {
	Duration uint32
	Equation string
}

// ChannelConfig is the ordered section list driving one of a pattern's
// three color channels.
type ChannelConfig struct {
	Sections         []Section
	LoopAfterDuration bool
}

// Pattern is a three-channel (red, green, blue) equation-driven light
// pattern with an overall loop Duration.
type Pattern struct {
	Duration          uint32
	Red, Green, Blue ChannelConfig
}

var (
	compiledCount atomic.Int64
	freedCount    atomic.Int64
)

// CompiledCount and FreedCount let tests assert the handle-conservation
// property: each re-initialization releases the handles compiled by the
// previous one before compiling new ones, so once the last state is freed
// the two counters are equal again.
func CompiledCount() int64 { return compiledCount.Load() }
func FreedCount() int64    { return freedCount.Load() }

// Handle is an opaque compiled expression. The zero value evaluates to 0,
// matching the firmware's "null handle evaluates to 0" rule.
type Handle struct {
	expr node
}

// Eval evaluates the compiled expression at the given t (seconds). A nil
// Handle, or one whose expr is nil, yields 0.
func (h *Handle) Eval(t float64) float64 {
	if h == nil || h.expr == nil {
		return 0
	}
	return h.expr.eval(t)
}

// Compile lower-cases and parses equation against the fixed symbol set
// (t, sin, cos, tan). On success it returns a non-nil Handle; on failure
// it returns a CompileError with Position set to the byte offset of the
// parse failure in the (lower-cased) source.
func Compile(equation string) (*Handle, *CompileError) {
	n, err := parse(lowercase(equation))
	if err != nil {
		ce := err.(*CompileError)
		ce.Equation = equation
		return nil, ce
	}
	compiledCount.Add(1)
	return &Handle{expr: n}, nil
}

// Release frees a compiled handle. Safe to call on nil.
func Release(h *Handle) {
	if h == nil {
		return
	}
	freedCount.Add(1)
}

// ChannelState is the mutable cursor and compiled-handle set for one
// channel of one EquationPatternState.
type ChannelState struct {
	CurrentSectionIndex int
	SectionElapsedMs     uint32
	TVar                 float64
	LastEvalMs           uint32
	CachedOutput         uint8
	handles              []*Handle
}

// PatternState is the full mutable state of an equation pattern: overall
// elapsed time plus the three channel states.
type PatternState struct {
	ElapsedMs          uint32
	Red, Green, Blue ChannelState
}

// FreeChannel releases every compiled handle held by state and clears the
// slice. Must be called before CompileChannel re-populates it, so that no
// handle from a prior mode load survives into the new one.
func FreeChannel(state *ChannelState) {
	for i, h := range state.handles {
		Release(h)
		state.handles[i] = nil
	}
	state.handles = nil
}

// CompileChannel frees any handles already held by state, then compiles
// every section of config in order. It attempts all sections even after a
// failure (so later genuinely-compilable sections still get handles and
// don't leak), returning only the first error encountered with Path set to
// "sections[i]".
func CompileChannel(state *ChannelState, config *ChannelConfig) *CompileError {
	FreeChannel(state)
	state.handles = make([]*Handle, len(config.Sections))
	var first *CompileError
	for i, sec := range config.Sections {
		h, err := Compile(sec.Equation)
		if err != nil {
			if first == nil {
				err.Path = sectionPath(i)
				first = err
			}
			continue
		}
		state.handles[i] = h
	}
	return first
}

func sectionPath(i int) string {
	digits := [8]byte{}
	n := len(digits)
	if i == 0 {
		return "sections[0]"
	}
	for i > 0 {
		n--
		digits[n] = byte('0' + i%10)
		i /= 10
	}
	return "sections[" + string(digits[n:]) + "]"
}

// FreePattern releases every handle in all three channels of state.
func FreePattern(state *PatternState) {
	FreeChannel(&state.Red)
	FreeChannel(&state.Green)
	FreeChannel(&state.Blue)
}

// CompilePattern compiles all three channels of pattern into state,
// attempting every channel regardless of earlier failures, and returns the
// first error encountered (with Path prefixed by "red"/"green"/"blue").
func CompilePattern(state *PatternState, pattern *Pattern) *CompileError {
	var first *CompileError
	if err := CompileChannel(&state.Red, &pattern.Red); err != nil {
		err.Path = "red." + err.Path
		if first == nil {
			first = err
		}
	}
	if err := CompileChannel(&state.Green, &pattern.Green); err != nil {
		err.Path = "green." + err.Path
		if first == nil {
			first = err
		}
	}
	if err := CompileChannel(&state.Blue, &pattern.Blue); err != nil {
		err.Path = "blue." + err.Path
		if first == nil {
			first = err
		}
	}
	return first
}

func allowsLoop(p *Pattern) bool {
	return p.Red.LoopAfterDuration && p.Green.LoopAfterDuration && p.Blue.LoopAfterDuration
}

// elapsedTimeCapMs is the hard reset threshold for pattern elapsed time:
// beyond this, float seconds lose enough precision in equation evaluation
// that the firmware prefers a clean reset over continuing to drift.
const elapsedTimeCapMs = 10_000_000

// AdvanceChannel moves one channel's section cursor forward by deltaMs and
// recomputes TVar (seconds within the current section).
func AdvanceChannel(state *ChannelState, config *ChannelConfig, deltaMs uint32) {
	if len(config.Sections) == 0 {
		return
	}

	state.SectionElapsedMs += deltaMs

	isLast := state.CurrentSectionIndex >= len(config.Sections)-1
	shouldCheck := !isLast || config.LoopAfterDuration

	if shouldCheck && state.CurrentSectionIndex < len(config.Sections) {
		section := config.Sections[state.CurrentSectionIndex]
		if state.SectionElapsedMs >= section.Duration {
			state.SectionElapsedMs -= section.Duration
			state.CurrentSectionIndex++
			if state.CurrentSectionIndex >= len(config.Sections) {
				state.CurrentSectionIndex = 0
			}
		}
	}

	state.TVar = float64(state.SectionElapsedMs) * 0.001
}

// AdvancePattern moves the whole pattern forward by deltaMs: it first
// resolves the pattern-level elapsed time (handling loop-wrap and the
// precision-cap reset), then advances all three channels by the resulting
// channel delta.
func AdvancePattern(state *PatternState, pattern *Pattern, deltaMs uint32) {
	duration := pattern.Duration
	loop := duration > 0 && allowsLoop(pattern)
	nextElapsed := state.ElapsedMs + deltaMs
	reset := false

	switch {
	case loop && nextElapsed >= duration:
		state.ElapsedMs = nextElapsed % duration
		reset = true
	case nextElapsed > elapsedTimeCapMs:
		state.ElapsedMs = 0
		reset = true
	default:
		state.ElapsedMs = nextElapsed
	}

	channelAdvanceMs := deltaMs
	if reset {
		state.Red.CurrentSectionIndex = 0
		state.Red.SectionElapsedMs = 0
		state.Green.CurrentSectionIndex = 0
		state.Green.SectionElapsedMs = 0
		state.Blue.CurrentSectionIndex = 0
		state.Blue.SectionElapsedMs = 0
		channelAdvanceMs = state.ElapsedMs
	}

	AdvanceChannel(&state.Red, &pattern.Red, channelAdvanceMs)
	AdvanceChannel(&state.Green, &pattern.Green, channelAdvanceMs)
	AdvanceChannel(&state.Blue, &pattern.Blue, channelAdvanceMs)
}

// EvalChannel returns the channel's current output, clamped to [0, 255].
// If less than equationEvalIntervalMs has elapsed since the last
// evaluation, the cached output is returned unchanged (bounds re-evaluation
// frequency, and keeps output deterministic between calls within one
// interval).
func EvalChannel(state *ChannelState, equationEvalIntervalMs uint8) uint8 {
	if state.SectionElapsedMs > 0 &&
		state.SectionElapsedMs >= state.LastEvalMs &&
		state.SectionElapsedMs-state.LastEvalMs < uint32(equationEvalIntervalMs) {
		return state.CachedOutput
	}

	if state.CurrentSectionIndex >= len(state.handles) {
		return 0
	}
	h := state.handles[state.CurrentSectionIndex]
	val := h.Eval(state.TVar)
	if val < 0 {
		val = 0
	}
	if val > 255 {
		val = 255
	}

	state.CachedOutput = uint8(val)
	state.LastEvalMs = state.SectionElapsedMs
	return state.CachedOutput
}

// Eval evaluates all three channels, returning (r, g, b).
func Eval(state *PatternState, equationEvalIntervalMs uint8) (r, g, b uint8) {
	return EvalChannel(&state.Red, equationEvalIntervalMs),
		EvalChannel(&state.Green, equationEvalIntervalMs),
		EvalChannel(&state.Blue, equationEvalIntervalMs)
}
