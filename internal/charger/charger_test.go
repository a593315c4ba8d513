package charger

import (
	"testing"

	"microlight/internal/hal/halmock"
)

type recordingCues struct {
	notCharging, cc, cv, done, started int
}

func (c *recordingCues) ShowNotCharging()             { c.notCharging++ }
func (c *recordingCues) ShowConstantCurrentCharging()  { c.cc++ }
func (c *recordingCues) ShowConstantVoltageCharging()  { c.cv++ }
func (c *recordingCues) ShowDoneCharging()             { c.done++ }
func (c *recordingCues) StartLedTimers()               { c.started++ }

const addr = 0x6A

func TestGetChargingStateDecoding(t *testing.T) {
	cases := []struct {
		reg  byte
		want ChargeState
	}{
		{0b00000000, NotConnected},
		{0b00000001, NotCharging},
		{0b00100000, ConstantCurrent},
		{0b01000000, ConstantVoltage},
		{0b01100000, Done},
	}
	for _, c := range cases {
		bus := halmock.NewI2C()
		bus.SetRegister(addr, regSTAT0, c.reg)
		d := New(bus, addr, &recordingCues{})
		if got := d.readState(); got != c.want {
			t.Fatalf("reg=%08b: got %v want %v", c.reg, got, c.want)
		}
	}
}

func TestTaskPollsOnFirstCallRegardlessOfInterval(t *testing.T) {
	bus := halmock.NewI2C()
	bus.SetRegister(addr, regSTAT0, 0b00100000) // constant current
	cues := &recordingCues{}
	d := New(bus, addr, cues)

	d.Task(100, false, false)
	if d.State() != ConstantCurrent {
		t.Fatalf("expected state decoded on first task, got %v", d.State())
	}
}

func TestTaskFlashesOnlyWithinLedWindow(t *testing.T) {
	bus := halmock.NewI2C()
	bus.SetRegister(addr, regSTAT0, 0b00100000)
	cues := &recordingCues{}
	d := New(bus, addr, cues)

	d.Task(0, false, true) // ms & 0x3FF == 0 < 50: inside window
	if cues.cc != 1 {
		t.Fatalf("expected flash cue inside window, got %d", cues.cc)
	}

	d.Task(500, false, true) // 500 & 0x3FF == 500, outside window
	if cues.cc != 1 {
		t.Fatalf("expected no additional flash outside window, got %d", cues.cc)
	}
}

func TestInterruptDisconnectLocksWhenEnabled(t *testing.T) {
	bus := halmock.NewI2C()
	bus.SetRegister(addr, regSTAT0, 0b00100000) // connected initially
	cues := &recordingCues{}
	d := New(bus, addr, cues)
	d.Task(1000, false, false)
	if d.State() == NotConnected {
		t.Fatal("expected initially connected")
	}

	bus.SetRegister(addr, regSTAT0, 0b00000000) // now disconnected
	d.NotifyInterrupt()
	d.Task(2000, true, false)

	shipRst := bus.Register(addr, regShipRst)
	if shipRst != 0b01000001 {
		t.Fatalf("expected ship-mode register write on disconnect-lock, got %08b", shipRst)
	}
}

func TestInterruptConnectStartsLedTimers(t *testing.T) {
	bus := halmock.NewI2C()
	bus.SetRegister(addr, regSTAT0, 0b00000000) // disconnected initially
	cues := &recordingCues{}
	d := New(bus, addr, cues)
	d.Task(1000, false, false)

	bus.SetRegister(addr, regSTAT0, 0b00100000) // now connected
	d.NotifyInterrupt()
	d.Task(2000, false, true)

	if cues.started != 1 {
		t.Fatalf("expected StartLedTimers on connect, got %d", cues.started)
	}
	if cues.cc == 0 {
		t.Fatal("expected immediate state cue on connect")
	}
}

func TestLockHardwareResetsWhenConnected(t *testing.T) {
	bus := halmock.NewI2C()
	bus.SetRegister(addr, regSTAT0, 0b00100000) // connected
	d := New(bus, addr, &recordingCues{})

	d.Lock()
	if got := bus.Register(addr, regShipRst); got != 0b01100001 {
		t.Fatalf("expected hardware-reset register write, got %08b", got)
	}
}
