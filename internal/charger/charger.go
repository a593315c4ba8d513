// Package charger drives the BQ25180 battery-management IC: decodes its
// status register into a charge-state enum, periodically polls it, flashes
// the case LED to reflect state, and carries out lock/ship-mode
// transitions. Ported from bq25180.c.
package charger

import "microlight/internal/hal"

// ChargeState is the decoded charge status.
type ChargeState uint8

const (
	NotConnected ChargeState = iota
	NotCharging
	ConstantCurrent
	ConstantVoltage
	Done
)

const (
	regSTAT0    = 0x00
	regShipRst  = 0x09
	regICCtrl   = 0x02
	regICHGCtrl = 0x04
	regVBatCtrl = 0x03
	regChgCtrl1 = 0x05
	regSysReg   = 0x07
	regMaskID   = 0x0F
)

// pollIntervalMs bounds how often the status register is re-read absent
// an interrupt: the charger's internal I2C watchdog resets if untouched
// for 40s (15s once plugged in), so 30s keeps well inside that window.
const pollIntervalMs = 30_000

// ledFlashWindowMask/ledFlashWindowMs implement a ~1Hz flash: the LED cue
// is shown only while (ms & ledFlashWindowMask) < ledFlashWindowMs.
const (
	ledFlashWindowMask = 0x3FF
	ledFlashWindowMs   = 50
)

// StatusCues is the case-LED surface the charger drives to reflect state.
type StatusCues interface {
	ShowNotCharging()
	ShowConstantCurrentCharging()
	ShowConstantVoltageCharging()
	ShowDoneCharging()
	StartLedTimers()
}

// Driver is one BQ25180 instance.
type Driver struct {
	bus  hal.I2C
	addr hal.I2CAddress
	cues StatusCues

	chargingState ChargeState
	checkedAtMs   uint32
	interrupted   bool
}

// New constructs a Driver and writes the IC's steady-state configuration
// registers, matching configureChargerIC.
func New(bus hal.I2C, addr hal.I2CAddress, cues StatusCues) *Driver {
	d := &Driver{bus: bus, addr: addr, cues: cues, chargingState: NotConnected}
	_ = bus.WriteRegister(addr, regICCtrl, 0b01111111)
	_ = bus.WriteRegister(addr, regICHGCtrl, 0b00100010)
	_ = bus.WriteRegister(addr, regVBatCtrl, 0b01011010)
	_ = bus.WriteRegister(addr, regChgCtrl1, 0b00000011)
	_ = bus.WriteRegister(addr, regSysReg, 0b00000010)
	_ = bus.WriteRegister(addr, regMaskID, 0b00000000)
	return d
}

// NotifyInterrupt marks that the charger's interrupt line fired since the
// last Task call, the ISR-equivalent callback for on-demand status reads.
func (d *Driver) NotifyInterrupt() {
	d.interrupted = true
}

// State returns the most recently observed charging state.
func (d *Driver) State() ChargeState {
	return d.chargingState
}

func (d *Driver) readState() ChargeState {
	var buf [1]byte
	ok, err := d.bus.ReadRegisters(d.addr, regSTAT0, buf[:])
	if err != nil || !ok {
		return d.chargingState
	}
	reg := buf[0]
	switch {
	case reg&0b01000000 != 0:
		if reg&0b00100000 != 0 {
			return Done
		}
		return ConstantVoltage
	case reg&0b00100000 != 0:
		return ConstantCurrent
	case reg&0b00000001 != 0:
		return NotCharging
	default:
		return NotConnected
	}
}

func (d *Driver) showState(state ChargeState) {
	switch state {
	case NotCharging:
		d.cues.ShowNotCharging()
	case ConstantCurrent:
		d.cues.ShowConstantCurrentCharging()
	case ConstantVoltage:
		d.cues.ShowConstantVoltageCharging()
	case Done:
		d.cues.ShowDoneCharging()
	case NotConnected:
		// no cue
	}
}

// Task runs one tick: polls the status register on the ~30s cadence (or
// immediately after an interrupt), flashes the current state onto the
// case LED at ~1Hz when ledEnabled, and — on a connect/disconnect
// transition observed via interrupt — updates the LED immediately and,
// if this was a disconnect while unplugLockEnabled, calls Lock.
func (d *Driver) Task(ms uint32, unplugLockEnabled bool, ledEnabled bool) {
	previousState := d.chargingState

	var elapsedMs uint32
	if d.checkedAtMs != 0 {
		elapsedMs = ms - d.checkedAtMs
	}
	if elapsedMs > pollIntervalMs || d.checkedAtMs == 0 {
		d.chargingState = d.readState()
		d.checkedAtMs = ms
	}

	if ledEnabled && d.chargingState != NotConnected && (ms&ledFlashWindowMask) < ledFlashWindowMs {
		d.showState(d.chargingState)
	}

	if d.interrupted {
		d.interrupted = false
		state := d.readState()
		d.chargingState = state

		wasDisconnected := previousState != NotConnected && state == NotConnected
		if ms != 0 && wasDisconnected && unplugLockEnabled {
			d.Lock()
		}

		wasConnected := previousState == NotConnected && state != NotConnected
		if wasConnected && ledEnabled {
			d.cues.StartLedTimers()
			d.showState(state)
		}
	}
}

// Lock ships the battery (if nothing is plugged in) or hardware-resets
// (if it is), matching lock() in the firmware.
func (d *Driver) Lock() {
	if d.readState() == NotConnected {
		_ = d.bus.WriteRegister(d.addr, regShipRst, 0b01000001)
	} else {
		_ = d.bus.WriteRegister(d.addr, regShipRst, 0b01100001)
	}
}
