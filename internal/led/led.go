// Package led drives a PWM-backed RGB (or front bulb) output with a
// transient-status overlay: a short-lived cue color that automatically
// reverts to the user's chosen color after a fixed window. Ported from
// rgb_led.c.
package led

import "microlight/internal/hal"

// revertWindowMs is how long a transient cue is shown before rgbTask
// reverts to the user color.
const revertWindowMs = 300

// Cue colors, matching rgb_led.c's rgbShow* helpers.
var (
	cueSuccess      = [3]uint8{10, 10, 10}
	cueLocked       = [3]uint8{0, 0, 20}
	cueShutdown     = [3]uint8{20, 20, 20}
	cueNotCharging  = [3]uint8{10, 0, 10}
	cueConstCurrent = [3]uint8{2, 0, 0}
	cueConstVoltage = [3]uint8{2, 2, 0}
	cueDone         = [3]uint8{0, 2, 0}
)

// LED is one PWM-backed RGB output (case LED or the front LED when it is
// RGB-capable). Cue methods take no timestamp; the orchestrator calls Tick
// once per loop iteration to tell the LED what "now" is, matching the
// firmware's reliance on a global millisecond clock.
type LED struct {
	pwm    hal.PWM
	red    hal.PWMChannel
	green  hal.PWMChannel
	blue   hal.PWMChannel
	period uint32

	nowMs            uint32
	userColor        [3]uint8
	showingTransient bool
	msOfColorChange  uint32
}

// New constructs an LED bound to three PWM channels with the given period
// (ticks per full duty cycle).
func New(pwm hal.PWM, red, green, blue hal.PWMChannel, period uint32) *LED {
	l := &LED{pwm: pwm, red: red, green: green, blue: blue, period: period}
	_ = pwm.ConfigurePWM(red, period)
	_ = pwm.ConfigurePWM(green, period)
	_ = pwm.ConfigurePWM(blue, period)
	return l
}

// Tick records the current tick's millisecond timestamp. Call once per
// loop iteration before any cue method or TransientTask.
func (l *LED) Tick(ms uint32) {
	l.nowMs = ms
}

func (l *LED) colorRangeToDuty(value uint8) uint32 {
	return uint32(value) * (l.period / 255)
}

func (l *LED) writePWM(r, g, b uint8) {
	_ = l.pwm.SetDuty(l.red, l.colorRangeToDuty(r))
	_ = l.pwm.SetDuty(l.green, l.colorRangeToDuty(g))
	_ = l.pwm.SetDuty(l.blue, l.colorRangeToDuty(b))
}

// show writes r/g/b to the PWM channels and records the change time. When
// transient is true, TransientTask will revert to the user color after
// revertWindowMs.
func (l *LED) show(r, g, b uint8, transient bool) {
	l.writePWM(r, g, b)
	l.showingTransient = transient
	l.msOfColorChange = l.nowMs
}

// ShowUserColor sets the LED's persistent user color and displays it
// immediately (never a transient cue — this is what the mode manager
// calls each tick with the resolved pattern output).
func (l *LED) ShowUserColor(r, g, b uint8) {
	l.userColor = [3]uint8{r, g, b}
	l.show(r, g, b, false)
}

// ClearUserColor sets and shows a black user color.
func (l *LED) ClearUserColor() {
	l.ShowUserColor(0, 0, 0)
}

func (l *LED) showTransientCue(c [3]uint8) {
	l.show(c[0], c[1], c[2], true)
}

// ShowNoColor is the button's "input is being evaluated" cue: off, but
// non-transient so it holds until a real outcome overwrites it.
func (l *LED) ShowNoColor() {
	l.show(0, 0, 0, false)
}

func (l *LED) ShowSuccess()  { l.showTransientCue(cueSuccess) }
func (l *LED) ShowLocked()   { l.showTransientCue(cueLocked) }
func (l *LED) ShowShutdown() { l.showTransientCue(cueShutdown) }

func (l *LED) ShowNotCharging()             { l.showTransientCue(cueNotCharging) }
func (l *LED) ShowConstantCurrentCharging() { l.showTransientCue(cueConstCurrent) }
func (l *LED) ShowConstantVoltageCharging() { l.showTransientCue(cueConstVoltage) }
func (l *LED) ShowDoneCharging()            { l.showTransientCue(cueDone) }

// StartLedTimers is a no-op hook on hosted/simulator targets; real MCU
// targets override PWM-timer enable state through the Hal directly, so
// this only exists to satisfy charger.StatusCues.
func (l *LED) StartLedTimers() {}

// TransientTask reverts to the user color once a transient cue has been
// showing for more than revertWindowMs. Call after Tick(ms).
func (l *LED) TransientTask() {
	if !l.showingTransient {
		return
	}
	if l.nowMs-l.msOfColorChange > revertWindowMs {
		l.show(l.userColor[0], l.userColor[1], l.userColor[2], false)
	}
}
