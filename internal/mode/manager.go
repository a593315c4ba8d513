package mode

import "microlight/internal/pattern"

// Accelerometer is the narrow view the mode manager needs of the
// accelerometer driver: enable/disable sampling, and the squared-jerk
// threshold predicate that drives trigger resolution.
type Accelerometer interface {
	SetEnabled(enabled bool)
	IsOverThreshold(threshold uint8) bool
}

// FrontSink is the front light's output surface: either the legacy
// monochrome bulb pin or the front RGB channel.
type FrontSink interface {
	ShowBulb(high bool)
	ShowRGB(r, g, b uint8)
}

// CaseSink is the case LED's user-color output surface.
type CaseSink interface {
	ShowUserColor(r, g, b uint8)
	ClearUserColor()
}

// Logger receives structured diagnostic lines the manager cannot surface
// to the USB response path (corrupt-mode fallback, equation compile
// errors).
type Logger interface {
	Logf(format string, args ...any)
}

// Decoder turns a stored or built-in JSON document into a Mode. Kept as an
// interface (rather than importing the command-parser package directly) so
// the parser's validation rules stay the single source of truth without
// creating an import cycle between mode and cli.
type Decoder interface {
	DecodeMode(data []byte) (*Mode, error)
}

// Storage is the narrow persistence surface the manager needs: read the
// stored JSON for a mode index, or report none saved.
type Storage interface {
	ReadMode(index uint8) (data []byte, ok bool)
}

// fakeOffModeJSON and defaultModeJSON are the two built-in modes the
// manager can load without going through storage: fake-off when the chip
// is powered down but not unplugged, and the fallback when a stored mode
// page is corrupt.
const (
	fakeOffModeJSON = `{"name":"fakeOff"}`
	defaultModeJSON = `{"name":"default","front":{"pattern":{"type":"simple","duration":1000,"changeAt":[{"ms":0,"output":{"type":"bulb","high":true}}]}}}`
)

// Manager owns the currently loaded Mode and its compiled State, and
// resolves which component (base or an overriding accel trigger) drives
// each output on every tick.
type Manager struct {
	decoder Decoder
	storage Storage
	accel   Accelerometer
	log     Logger

	currentMode      *Mode
	currentModeIndex uint8
	state            State
	shouldResetState bool
}

// NewManager wires a Manager to its collaborators. decoder turns JSON into
// Mode values (normally the command parser); storage reads persisted mode
// pages; accel and log may be nil in tests that don't exercise those
// paths.
func NewManager(decoder Decoder, storage Storage, accel Accelerometer, log Logger) *Manager {
	return &Manager{decoder: decoder, storage: storage, accel: accel, log: log}
}

// CurrentMode returns the currently loaded mode and its index.
func (m *Manager) CurrentMode() (*Mode, uint8) {
	return m.currentMode, m.currentModeIndex
}

// IsFakeOff reports whether the currently loaded mode is the reserved
// fake-off slot.
func (m *Manager) IsFakeOff() bool {
	return m.currentModeIndex == FakeOffModeIndex
}

func (m *Manager) logf(format string, args ...any) {
	if m.log != nil {
		m.log.Logf(format, args...)
	}
}

// LoadMode loads the mode at index: FakeOffModeIndex loads the built-in
// fake-off JSON; any other index reads storage, falling back to the
// built-in default mode (and logging a corrupt-mode diagnostic) if the
// stored page is missing or fails to decode.
func (m *Manager) LoadMode(index uint8) {
	var raw []byte
	if index == FakeOffModeIndex {
		raw = []byte(fakeOffModeJSON)
	} else {
		data, ok := m.storage.ReadMode(index)
		if !ok {
			m.logf(`{"error":"corrupt saved mode","mode":%d}`, index)
			raw = []byte(defaultModeJSON)
		} else {
			raw = data
		}
	}

	decoded, err := m.decoder.DecodeMode(raw)
	if err != nil {
		m.logf(`{"error":"corrupt saved mode","mode":%d}`, index)
		decoded, err = m.decoder.DecodeMode([]byte(defaultModeJSON))
		if err != nil {
			// The built-in default must always decode; a failure here is a
			// programming error in the decoder, not a runtime condition.
			decoded = &Mode{Name: "default"}
		}
	}

	m.SetMode(decoded, index)
}

// SetMode installs mode as current, marks state for re-initialization on
// the next modeTask, and enables or disables the accelerometer according
// to whether the mode defines any triggers.
func (m *Manager) SetMode(newMode *Mode, index uint8) {
	m.currentMode = newMode
	m.currentModeIndex = index
	m.shouldResetState = true
	if m.accel != nil {
		m.accel.SetEnabled(newMode.Accel != nil && len(newMode.Accel.Triggers) > 0)
	}
}

// FakeOffMode loads the fake-off mode and explicitly clears front outputs,
// since the fake-off mode may not define a front component itself.
func (m *Manager) FakeOffMode(front FrontSink) {
	m.LoadMode(FakeOffModeIndex)
	front.ShowBulb(false)
	front.ShowRGB(0, 0, 0)
}

// resolveActive walks mode's accel triggers in ascending order, overriding
// front/case with the first run of matching triggers and stopping at the
// first trigger that does not match — triggers are cumulative ascending
// thresholds, so nothing above a failing trigger can match either.
func (m *Manager) resolveActive(mode *Mode) (front, caseComp *ModeComponent, frontState, caseState *ComponentState) {
	front, caseComp = mode.Front, mode.Case
	frontState, caseState = &m.state.Front, &m.state.Case

	if mode.Accel == nil || m.accel == nil {
		return
	}
	for i, trig := range mode.Accel.Triggers {
		if i >= MaxAccelTriggers {
			break
		}
		if !m.accel.IsOverThreshold(trig.Threshold) {
			break
		}
		if trig.Front != nil {
			front = trig.Front
			frontState = &m.state.Accel[i].Front
		}
		if trig.Case != nil {
			caseComp = trig.Case
			caseState = &m.state.Accel[i].Case
		}
	}
	return
}

// ModeTask runs one tick of the mode manager: re-initializes state if a
// mode was just (re)loaded, advances all patterns by the elapsed time
// implied by ms, resolves the active front/case components, and pushes
// their resolved output to the given sinks. canUpdateCaseLed is false
// while a button press is being evaluated, so button cue colors on the
// case LED aren't clobbered mid-evaluation.
func (m *Manager) ModeTask(ms uint32, canUpdateCaseLed bool, equationEvalIntervalMs uint8, front FrontSink, caseLED CaseSink) Outputs {
	mode := m.currentMode
	if mode == nil {
		return Outputs{}
	}

	if m.shouldResetState {
		if err := Initialize(&m.state, mode, ms); err != nil {
			m.logf(`{"error":"Equation compile error","path":"%s","position":%d,"equation":"%s"}`,
				err.Path, err.Position, err.Equation)
		}
		m.shouldResetState = false
	}

	Advance(&m.state, mode, ms)

	activeFront, activeCase, frontState, caseState := m.resolveActive(mode)

	var out Outputs

	frontOut, frontOK := GetSimpleOutput(frontState, activeFront, equationEvalIntervalMs)
	if !frontOK {
		front.ShowBulb(false)
	} else if frontOut.Kind == pattern.OutputBulb {
		front.ShowBulb(frontOut.BulbHigh)
		out.FrontValid = true
		out.FrontType = FrontBulb
	} else {
		front.ShowBulb(false)
		front.ShowRGB(frontOut.R, frontOut.G, frontOut.B)
		out.FrontValid = true
		out.FrontType = FrontRGB
	}

	if canUpdateCaseLed {
		caseOut, caseOK := GetSimpleOutput(caseState, activeCase, equationEvalIntervalMs)
		if !caseOK || caseOut.Kind != pattern.OutputRGB {
			caseLED.ClearUserColor()
		} else {
			caseLED.ShowUserColor(caseOut.R, caseOut.G, caseOut.B)
			out.CaseValid = true
		}
	}

	return out
}
