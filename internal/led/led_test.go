package led

import (
	"testing"

	"microlight/internal/hal"
	"microlight/internal/hal/halmock"
)

func newTestLED() (*LED, *halmock.PWM) {
	pwm := halmock.NewPWM()
	l := New(pwm, 0, 1, 2, 255)
	return l, pwm
}

func TestColorRangeToDuty(t *testing.T) {
	l, pwm := newTestLED()
	l.Tick(0)
	l.ShowUserColor(255, 128, 0)
	if got := pwm.Duty(hal.PWMChannel(0)); got != 255 {
		t.Fatalf("expected full duty for 255, got %d", got)
	}
	if got := pwm.Duty(hal.PWMChannel(2)); got != 0 {
		t.Fatalf("expected zero duty for 0, got %d", got)
	}
}

func TestTransientRevertsAfterWindow(t *testing.T) {
	l, pwm := newTestLED()
	l.Tick(0)
	l.ShowUserColor(1, 2, 3)

	l.Tick(100)
	l.ShowSuccess()
	if got := pwm.Duty(hal.PWMChannel(0)); got == 0 {
		t.Fatal("expected success cue to change red duty from user color")
	}

	l.Tick(200) // only 100ms elapsed, still within window
	l.TransientTask()
	if got := pwm.Duty(hal.PWMChannel(1)); got != 10 {
		t.Fatalf("expected cue still showing within window, got green duty %d", got)
	}

	l.Tick(450) // 350ms since cue started at 100
	l.TransientTask()
	wantRed := uint32(1) * (255 / 255)
	if got := pwm.Duty(hal.PWMChannel(0)); got != wantRed {
		t.Fatalf("expected revert to user color red=1, got duty %d", got)
	}
}

func TestNonTransientNeverReverts(t *testing.T) {
	l, pwm := newTestLED()
	l.Tick(0)
	l.ShowUserColor(5, 5, 5)
	l.Tick(1000)
	l.ShowNoColor() // non-transient
	l.Tick(5000)
	l.TransientTask()
	if got := pwm.Duty(hal.PWMChannel(0)); got != 0 {
		t.Fatalf("expected ShowNoColor (black, non-transient) to persist, got %d", got)
	}
}
