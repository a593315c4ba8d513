package chip

import (
	"testing"

	"microlight/internal/accel"
	"microlight/internal/charger"
	"microlight/internal/cli"
	"microlight/internal/hal"
	"microlight/internal/hal/halmock"
	"microlight/internal/led"
	"microlight/internal/logx"
	"microlight/internal/mode"
	"microlight/internal/settings"
	"microlight/internal/storage"
)

type fakeFrontMux struct {
	gpioCalls, pwmCalls int
}

func (m *fakeFrontMux) EnableGPIOMode() { m.gpioCalls++ }
func (m *fakeFrontMux) EnablePWMMode()  { m.pwmCalls++ }

const (
	buttonPin   hal.GPIOPin = 0
	frontBulbPin hal.GPIOPin = 1
	chargerAddr  hal.I2CAddress = 0x6A
	accelAddr    hal.I2CAddress = 0x4C
)

func buildOrchestrator(t *testing.T) (*Orchestrator, *halmock.GPIO, *halmock.I2C, *fakeFrontMux, *storage.Storage, *settings.Manager) {
	t.Helper()
	gpio := halmock.NewGPIO()
	i2c := halmock.NewI2C()
	flash := halmock.NewFlash(2048)
	pwm := halmock.NewPWM()

	gpio.SetInput(buttonPin, true) // idle-high (not pressed)

	st := storage.New(flash)
	settingsMgr := settings.NewManager(cli.SettingsDecoder{}, st)

	accelDrv := accel.New(i2c, accelAddr, logx.Discard{})
	decoder := cli.ModeDecoder{}
	modes := mode.NewManager(decoder, st, accelDrv, logx.Discard{})

	chargerCues := led.New(pwm, 0, 1, 2, 255)
	chargerDrv := charger.New(i2c, chargerAddr, chargerCues)
	caseLED := chargerCues
	frontRGB := led.New(pwm, 3, 4, 5, 255)
	mux := &fakeFrontMux{}

	orch := New(modes, accelDrv, chargerDrv, caseLED, frontRGB, gpio, frontBulbPin, mux, gpio, buttonPin, settingsMgr)

	modes.LoadMode(0)
	return orch, gpio, i2c, mux, st, settingsMgr
}

func TestStateTaskRunsWithoutPanicking(t *testing.T) {
	orch, _, _, _, _, _ := buildOrchestrator(t)
	orch.StateTask(0, Flags{})
	orch.StateTask(100, Flags{})
}

// TestAutoOffEntersFakeOffAfterThreshold implements scenario S3.
func TestAutoOffEntersFakeOffAfterThreshold(t *testing.T) {
	orch, _, i2c, _, _, settingsMgr := buildOrchestrator(t)
	i2c.SetRegister(chargerAddr, 0x00, 0b00000000) // not connected: not charging

	cfg := settingsMgr.Current()
	cfg.MinutesUntilAutoOff = 1 // threshold = 1*6 = 6 ticks
	settingsMgr.Update(cfg)

	orch.StateTask(0, Flags{})
	for i := 0; i < 8; i++ {
		orch.AutoOffTimerInterrupt()
		orch.StateTask(uint32(i+1)*1000, Flags{})
	}

	if !orch.modes.IsFakeOff() {
		t.Fatal("expected fake-off to be entered after auto-off threshold exceeded")
	}
}

// TestAutoOffLocksWhenAlreadyFakeOff continues from scenario S3's
// auto-off: once in fake-off, exceeding the lock-after-auto-off threshold
// calls charger.Lock (ship-mode register write, since nothing is
// connected).
func TestAutoOffLocksWhenAlreadyFakeOff(t *testing.T) {
	orch, _, i2c, _, _, settingsMgr := buildOrchestrator(t)
	i2c.SetRegister(chargerAddr, 0x00, 0b00000000)

	cfg := settingsMgr.Current()
	cfg.MinutesUntilAutoOff = 1
	cfg.MinutesUntilLockAfterAutoOff = 1
	settingsMgr.Update(cfg)

	orch.StateTask(0, Flags{})
	for i := 0; i < 8; i++ {
		orch.AutoOffTimerInterrupt()
		orch.StateTask(uint32(i+1)*1000, Flags{})
	}
	if !orch.modes.IsFakeOff() {
		t.Fatal("expected fake-off after first threshold")
	}

	for i := 0; i < 8; i++ {
		orch.AutoOffTimerInterrupt()
		orch.StateTask(uint32(i+9)*1000, Flags{})
	}

	if got := i2c.Register(chargerAddr, 0x09); got != 0b01000001 {
		t.Fatalf("expected ship-mode lock register write, got %08b", got)
	}
}

// TestFrontMuxSkipsRedundantCalls implements testable property 9: the
// front pin mux callback fires only when the resolved front output kind
// changes, not on every tick.
func TestFrontMuxSkipsRedundantCalls(t *testing.T) {
	orch, _, _, mux, st, _ := buildOrchestrator(t)

	bulbMode := []byte(`{"name":"bulb","front":{"pattern":{"type":"simple","duration":1000,
		"changeAt":[{"ms":0,"output":{"type":"bulb","high":true}}]}}}`)
	st.WriteMode(0, bulbMode)
	orch.modes.LoadMode(0)

	orch.StateTask(0, Flags{})
	orch.StateTask(10, Flags{})
	orch.StateTask(20, Flags{})

	if mux.gpioCalls != 1 {
		t.Fatalf("expected exactly one GPIO-mode mux call, got %d", mux.gpioCalls)
	}
}

func TestButtonClickCyclesMode(t *testing.T) {
	orch, gpio, _, _, _, settingsMgr := buildOrchestrator(t)
	cfg := settingsMgr.Current()
	cfg.ModeCount = 3
	settingsMgr.Update(cfg)

	gpio.SetInput(buttonPin, false) // pressed
	orch.StateTask(0, Flags{ButtonInterruptTriggered: true})

	gpio.SetInput(buttonPin, true) // released after a short click
	orch.StateTask(200, Flags{})

	_, index := orch.modes.CurrentMode()
	if index != 1 {
		t.Fatalf("expected mode to advance to index 1, got %d", index)
	}
}
