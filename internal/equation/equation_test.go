package equation

import (
	"math"
	"testing"
)

func TestCompileAndEvalConstant(t *testing.T) {
	h, err := Compile("128")
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	if got := h.Eval(0); got != 128 {
		t.Fatalf("expected 128, got %v", got)
	}
}

func TestCompileLowercasesAndEvalsT(t *testing.T) {
	h, err := Compile("T * 2")
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	if got := h.Eval(3); got != 6 {
		t.Fatalf("expected 6, got %v", got)
	}
}

func TestCompileTrig(t *testing.T) {
	h, err := Compile("sin(t) * 100 + 100")
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	got := h.Eval(math.Pi / 2)
	if math.Abs(got-200) > 0.01 {
		t.Fatalf("expected ~200, got %v", got)
	}
}

func TestCompileErrorPosition(t *testing.T) {
	_, err := Compile("1 + @")
	if err == nil {
		t.Fatal("expected compile error for invalid token")
	}
	if err.Position != 4 {
		t.Fatalf("expected error position 4, got %d", err.Position)
	}
}

func TestNilHandleEvaluatesZero(t *testing.T) {
	var h *Handle
	if got := h.Eval(5); got != 0 {
		t.Fatalf("expected 0 from nil handle, got %v", got)
	}
}

func TestHandleConservationAcrossRecompile(t *testing.T) {
	before := CompiledCount() - FreedCount()

	state := &ChannelState{}
	cfg := &ChannelConfig{Sections: []Section{{Duration: 100, Equation: "t"}, {Duration: 100, Equation: "sin(t)"}}}

	if err := CompileChannel(state, cfg); err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	if err := CompileChannel(state, cfg); err != nil { // simulate mode reload
		t.Fatalf("unexpected compile error: %v", err)
	}
	FreeChannel(state)

	after := CompiledCount() - FreedCount()
	if after != before {
		t.Fatalf("handle leak: outstanding delta before=%d after=%d", before, after)
	}
}

func TestCompileChannelPartialFailureStillCompilesOthers(t *testing.T) {
	state := &ChannelState{}
	cfg := &ChannelConfig{Sections: []Section{{Duration: 10, Equation: "1 +"}, {Duration: 10, Equation: "t"}}}
	err := CompileChannel(state, cfg)
	if err == nil {
		t.Fatal("expected error from first bad section")
	}
	if err.Path != "sections[0]" {
		t.Fatalf("expected sections[0] path, got %q", err.Path)
	}
	if state.handles[1] == nil {
		t.Fatal("expected second section to still compile despite first failing")
	}
	FreeChannel(state)
}

func TestAdvanceChannelSectionTransition(t *testing.T) {
	state := &ChannelState{}
	cfg := &ChannelConfig{Sections: []Section{{Duration: 100, Equation: "t"}, {Duration: 200, Equation: "t"}}}
	AdvanceChannel(state, cfg, 60)
	if state.CurrentSectionIndex != 0 || state.SectionElapsedMs != 60 {
		t.Fatalf("unexpected state %+v", state)
	}
	AdvanceChannel(state, cfg, 60) // 120 >= 100, rolls to section 1 with 20ms carried
	if state.CurrentSectionIndex != 1 || state.SectionElapsedMs != 20 {
		t.Fatalf("expected section 1 at 20ms, got %+v", state)
	}
	if math.Abs(state.TVar-0.02) > 1e-9 {
		t.Fatalf("expected t_var 0.02, got %v", state.TVar)
	}
}

func TestAdvanceChannelLastSectionNoLoopHoldsIndefinitely(t *testing.T) {
	state := &ChannelState{CurrentSectionIndex: 0}
	cfg := &ChannelConfig{Sections: []Section{{Duration: 50, Equation: "t"}}, LoopAfterDuration: false}
	AdvanceChannel(state, cfg, 1000)
	if state.CurrentSectionIndex != 0 {
		t.Fatalf("expected to stay on only section without looping, got index %d", state.CurrentSectionIndex)
	}
	if state.SectionElapsedMs != 1000 {
		t.Fatalf("expected section elapsed to keep accumulating, got %d", state.SectionElapsedMs)
	}
}

func TestAdvanceChannelLastSectionWithLoopWraps(t *testing.T) {
	state := &ChannelState{CurrentSectionIndex: 0}
	cfg := &ChannelConfig{Sections: []Section{{Duration: 50, Equation: "t"}}, LoopAfterDuration: true}
	AdvanceChannel(state, cfg, 70)
	if state.CurrentSectionIndex != 0 {
		t.Fatalf("expected wrap back to section 0 (only section), got %d", state.CurrentSectionIndex)
	}
	if state.SectionElapsedMs != 20 {
		t.Fatalf("expected 20ms after wrap, got %d", state.SectionElapsedMs)
	}
}

func buildTestPattern() *Pattern {
	ch := ChannelConfig{Sections: []Section{{Duration: 500, Equation: "t"}}, LoopAfterDuration: true}
	return &Pattern{Duration: 1000, Red: ch, Green: ch, Blue: ch}
}

func TestAdvancePatternLoopWrap(t *testing.T) {
	p := buildTestPattern()
	state := &PatternState{}
	AdvancePattern(state, p, 1200)
	if state.ElapsedMs != 200 {
		t.Fatalf("expected elapsed 200 after wrap, got %d", state.ElapsedMs)
	}
	if state.Red.SectionElapsedMs != 200 {
		t.Fatalf("expected channel reset and re-advanced to 200, got %d", state.Red.SectionElapsedMs)
	}
}

func TestAdvancePatternPrecisionCapReset(t *testing.T) {
	p := &Pattern{Duration: 0} // no loop possible with duration 0
	state := &PatternState{ElapsedMs: 9_999_999}
	AdvancePattern(state, p, 2)
	if state.ElapsedMs != 0 {
		t.Fatalf("expected hard reset past 10,000,000ms cap, got %d", state.ElapsedMs)
	}
}

func TestEvalClampAndCache(t *testing.T) {
	state := &ChannelState{}
	cfg := &ChannelConfig{Sections: []Section{{Duration: 1000, Equation: "1000"}}}
	if err := CompileChannel(state, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	AdvanceChannel(state, cfg, 10)
	got := EvalChannel(state, 5)
	if got != 255 {
		t.Fatalf("expected clamp to 255, got %d", got)
	}
	if state.LastEvalMs != 10 {
		t.Fatalf("expected lastEvalMs updated to 10, got %d", state.LastEvalMs)
	}
	FreeChannel(state)
}

func TestEvalCachesWithinInterval(t *testing.T) {
	callCount := 0
	state := &ChannelState{}
	// Use a section whose value depends on t so we can detect re-evaluation
	// indirectly via the cached value not changing despite t changing.
	cfg := &ChannelConfig{Sections: []Section{{Duration: 10000, Equation: "t*1000"}}}
	if err := CompileChannel(state, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	AdvanceChannel(state, cfg, 5)
	first := EvalChannel(state, 50) // interval 50ms
	AdvanceChannel(state, cfg, 5)   // sectionElapsedMs=10, still < 50ms since lastEval
	second := EvalChannel(state, 50)
	if first != second {
		t.Fatalf("expected cached output within interval, got %d then %d", first, second)
	}
	_ = callCount
	FreeChannel(state)
}
