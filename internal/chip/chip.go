// Package chip is the top-level orchestrator: one stateTask per main-loop
// iteration fuses button input, charger state, auto-off timing, and mode
// output, the way chip_state.c's stateTask drives every subsystem. The two
// ISR-shared words (chipTick, autoOffTimerTriggered) are atomic.Uint32 /
// atomic.Bool, the hosted-Go analogue of the teacher's atomic.LoadUint32 /
// StoreUint32 pattern in protocol.Transport (isSynchronized, nextSequence).
package chip

import (
	"sync/atomic"

	"microlight/internal/button"
	"microlight/internal/charger"
	"microlight/internal/hal"
	"microlight/internal/led"
	"microlight/internal/mode"
	"microlight/internal/settings"
)

// AccelSampler is the narrow view the orchestrator needs of an
// accelerometer driver: advance its sample clock once per tick. Both
// accel.Driver (MC3479) and accel.AdxlDriver (ADXL345) satisfy this, so a
// board variant can wire either part in without changing Orchestrator.
type AccelSampler interface {
	Task(ms uint32)
}

// ticksPerMinute converts the ~0.1Hz auto-off timer interrupt into
// minutes: 6 ticks at that rate is approximately one minute.
const ticksPerMinute = 6

// Flags carries the per-tick inputs the orchestrator can't read from a
// shared field (the button interrupt is edge-triggered, not level state).
type Flags struct {
	ButtonInterruptTriggered bool
}

// FrontPinMux switches the front pin between GPIO (bulb) and PWM/AF (RGB)
// mode. stateTask calls this only when the resolved front output kind
// actually changes, never redundantly every tick (§4.11 step 2, "Timer
// Policy Skips Redundant Calls" / testable property 9).
type FrontPinMux interface {
	EnableGPIOMode()
	EnablePWMMode()
}

// frontSink adapts a GPIO bulb pin and an RGB LED to mode.FrontSink, since
// the front light is either a monochrome bulb or an RGB channel depending
// on the loaded mode's pattern kind.
type frontSink struct {
	gpio    hal.GPIO
	bulbPin hal.GPIOPin
	rgb     *led.LED
}

func (f *frontSink) ShowBulb(high bool)    { _ = f.gpio.SetPin(f.bulbPin, high) }
func (f *frontSink) ShowRGB(r, g, b uint8) { f.rgb.ShowUserColor(r, g, b) }

// Orchestrator wires every subsystem together and drives them from one
// StateTask call per main-loop iteration.
type Orchestrator struct {
	modes    *mode.Manager
	accelDrv AccelSampler
	charger  *charger.Driver
	caseLED  *led.LED
	front    frontSink
	frontMux FrontPinMux
	settings *settings.Manager

	buttonGPIO hal.GPIO
	buttonPin  hal.GPIOPin
	buttonState button.State

	ticksSinceLastUserActivity uint32
	hasFrontType               bool
	lastFrontType              mode.FrontKind

	chipTick              atomic.Uint32
	autoOffTimerTriggered atomic.Bool
}

// New wires an Orchestrator to its collaborators. frontMux may be nil on
// targets where the front is always GPIO-only (no PWM channel to mux).
func New(
	modes *mode.Manager,
	accelDrv AccelSampler,
	chargerDrv *charger.Driver,
	caseLED *led.LED,
	frontRGB *led.LED,
	frontGPIO hal.GPIO,
	frontBulbPin hal.GPIOPin,
	frontMux FrontPinMux,
	buttonGPIO hal.GPIO,
	buttonPin hal.GPIOPin,
	settingsMgr *settings.Manager,
) *Orchestrator {
	return &Orchestrator{
		modes:       modes,
		accelDrv:    accelDrv,
		charger:     chargerDrv,
		caseLED:     caseLED,
		front:       frontSink{gpio: frontGPIO, bulbPin: frontBulbPin, rgb: frontRGB},
		frontMux:    frontMux,
		settings:    settingsMgr,
		buttonGPIO:  buttonGPIO,
		buttonPin:   buttonPin,
	}
}

// ChipTickInterrupt is the ISR-equivalent high-rate tick callback.
func (o *Orchestrator) ChipTickInterrupt() {
	o.chipTick.Add(1)
}

// AutoOffTimerInterrupt is the ISR-equivalent ~0.1Hz auto-off callback.
func (o *Orchestrator) AutoOffTimerInterrupt() {
	o.autoOffTimerTriggered.Store(true)
}

// ChipTick returns the current tick count, for a host harness that wants
// to drive time from this counter rather than a wall clock.
func (o *Orchestrator) ChipTick() uint32 {
	return o.chipTick.Load()
}

func (o *Orchestrator) isCharging() bool {
	return o.charger.State() != charger.NotConnected
}

// handleAutoOff implements stateTask step 1: accumulate inactivity ticks
// and, once the relevant threshold is crossed, either lock (if already
// fake-off) or enter fake-off.
func (o *Orchestrator) handleAutoOff() {
	if !o.autoOffTimerTriggered.CompareAndSwap(true, false) {
		return
	}

	if !o.isCharging() {
		o.ticksSinceLastUserActivity++
	}

	cfg := o.settings.Current()
	isFakeOff := o.modes.IsFakeOff()

	threshold := uint32(cfg.MinutesUntilAutoOff) * ticksPerMinute
	if isFakeOff {
		threshold = uint32(cfg.MinutesUntilLockAfterAutoOff) * ticksPerMinute
	}

	if o.ticksSinceLastUserActivity <= threshold {
		return
	}

	if isFakeOff {
		o.charger.Lock()
		return
	}

	o.enterFakeOff()
	o.ticksSinceLastUserActivity = 0
}

func (o *Orchestrator) enterFakeOff() {
	o.modes.FakeOffMode(&o.front)
	if o.isCharging() {
		o.caseLED.StartLedTimers()
	}
}

// pressed reads the debounced button pin level (active-low through a
// pull-up, so a low reading means pressed).
func (o *Orchestrator) pressed() bool {
	high, _ := o.buttonGPIO.ReadPin(o.buttonPin)
	return !high
}

// applyFrontMux switches the front pin mode only when it actually changes,
// matching the redundant-call-skipping timer policy.
func (o *Orchestrator) applyFrontMux(out mode.Outputs) {
	if !out.FrontValid || o.frontMux == nil {
		return
	}
	if o.hasFrontType && o.lastFrontType == out.FrontType {
		return
	}
	o.hasFrontType = true
	o.lastFrontType = out.FrontType
	if out.FrontType == mode.FrontBulb {
		o.frontMux.EnableGPIOMode()
	} else {
		o.frontMux.EnablePWMMode()
	}
}

// StateTask runs one main-loop iteration, ported from chip_state.c's
// stateTask.
func (o *Orchestrator) StateTask(ms uint32, flags Flags) {
	o.caseLED.Tick(ms)
	if o.front.rgb != nil {
		o.front.rgb.Tick(ms)
	}

	o.handleAutoOff()

	cfg := o.settings.Current()
	canUpdateCaseLed := !o.buttonState.IsEvaluating()
	out := o.modes.ModeTask(ms, canUpdateCaseLed, cfg.EquationEvalIntervalMs, &o.front, o.caseLED)
	o.applyFrontMux(out)

	result := button.Task(&o.buttonState, ms, o.pressed(), flags.ButtonInterruptTriggered, o.caseLED)
	switch result {
	case button.Clicked:
		_, currentIndex := o.modes.CurrentMode()
		modeCount := uint32(cfg.ModeCount)
		if modeCount == 0 {
			modeCount = 1
		}
		newIndex := (uint32(currentIndex) + 1) % modeCount
		o.modes.LoadMode(uint8(newIndex))
	case button.Shutdown:
		o.enterFakeOff()
	case button.LockOrHardwareReset:
		o.charger.Lock()
	}
	if result != button.Ignore {
		o.ticksSinceLastUserActivity = 0
	}

	o.caseLED.TransientTask()
	if o.front.rgb != nil {
		o.front.rgb.TransientTask()
	}
	o.accelDrv.Task(ms)

	isFakeOff := o.modes.IsFakeOff()
	o.charger.Task(ms, isFakeOff, isFakeOff && canUpdateCaseLed)
}
