// Package accel drives the MC3479 3-axis accelerometer: periodic sampling,
// a squared-jerk statistic, and a threshold predicate used by the mode
// manager to activate accel-triggered overrides. Ported from mc3479.c.
package accel

import "microlight/internal/hal"

// sensitivityLSBPerG is the LSB/g scale factor for the +/-16g range the
// sensor is configured into at init.
const sensitivityLSBPerG = 2048

// samplePeriodMs is the minimum interval between samples.
const samplePeriodMs = 50

const (
	regRange   = 0x20
	regCtrl1   = 0x07
	regXOutLow = 0x0D
)

// Logger receives an optional diagnostic line when a sample read fails.
type Logger interface {
	Logf(format string, args ...any)
}

// Driver is one MC3479 instance on a given I2C address.
type Driver struct {
	bus     hal.I2C
	addr    hal.I2CAddress
	log     Logger
	enabled bool

	lastSampleMs uint32
	lastRawX     int16
	lastRawY     int16
	lastRawZ     int16

	currentJerkSquaredSum uint64
	lastDtMs              uint32
}

// New constructs a Driver and puts the sensor into standby with the
// +/-16g range selected, matching mc3479Init.
func New(bus hal.I2C, addr hal.I2CAddress, log Logger) *Driver {
	d := &Driver{bus: bus, addr: addr, log: log}
	d.reset()
	_ = bus.WriteRegister(addr, regRange, 0b00110000)
	return d
}

func (d *Driver) reset() {
	d.lastSampleMs = 0
	d.currentJerkSquaredSum = 0
	d.lastDtMs = 0
	d.lastRawX, d.lastRawY, d.lastRawZ = 0, 0, 0
}

// SetEnabled switches the sensor between wake and standby, clearing sample
// history either way so the next Task call samples immediately.
func (d *Driver) SetEnabled(enabled bool) {
	if enabled {
		_ = d.bus.WriteRegister(d.addr, regCtrl1, 0b00000001)
	} else {
		_ = d.bus.WriteRegister(d.addr, regCtrl1, 0x00)
	}
	d.enabled = enabled
	d.reset()
}

func (d *Driver) logf(format string, args ...any) {
	if d.log != nil {
		d.log.Logf(format, args...)
	}
}

// sampleNow reads all three axes and updates the squared-jerk statistic
// against the previous sample. It reports whether the read succeeded.
func (d *Driver) sampleNow(ms uint32) bool {
	var buf [6]byte
	ok, err := d.bus.ReadRegisters(d.addr, regXOutLow, buf[:])
	if err != nil || !ok {
		return false
	}

	rawX := int16(uint16(buf[1])<<8 | uint16(buf[0]))
	rawY := int16(uint16(buf[3])<<8 | uint16(buf[2]))
	rawZ := int16(uint16(buf[5])<<8 | uint16(buf[4]))

	if d.lastSampleMs != 0 && ms > d.lastSampleMs {
		dtMs := ms - d.lastSampleMs
		dax := int64(rawX) - int64(d.lastRawX)
		day := int64(rawY) - int64(d.lastRawY)
		daz := int64(rawZ) - int64(d.lastRawZ)
		d.currentJerkSquaredSum = uint64(dax*dax + day*day + daz*daz)
		d.lastDtMs = dtMs
	} else {
		d.currentJerkSquaredSum = 0
		d.lastDtMs = 0
	}

	d.lastRawX, d.lastRawY, d.lastRawZ = rawX, rawY, rawZ
	d.lastSampleMs = ms
	return true
}

// Task samples the sensor once samplePeriodMs have elapsed since the last
// sample. A failed read logs a diagnostic but still advances the sample
// clock, so a persistently failing sensor does not retry every tick.
func (d *Driver) Task(ms uint32) {
	if !d.enabled {
		return
	}
	if ms-d.lastSampleMs < samplePeriodMs {
		return
	}
	if !d.sampleNow(ms) {
		d.logf("mc3479: sample failed")
		d.lastSampleMs = ms
	}
}

// IsOverThreshold reports whether the jerk rate implied by the most recent
// sample pair exceeds thresholdGPerS (in G/s), avoiding sqrt/division by
// comparing squared quantities:
//
//	jerkSquaredSum * 1_000_000 > (threshold * sensitivityLSBPerG * lastDtMs)^2
func (d *Driver) IsOverThreshold(thresholdGPerS uint8) bool {
	if !d.enabled || d.lastDtMs == 0 {
		return false
	}
	lhs := d.currentJerkSquaredSum * 1_000_000
	rhsTerm := uint64(thresholdGPerS) * sensitivityLSBPerG * uint64(d.lastDtMs)
	rhs := rhsTerm * rhsTerm
	return lhs > rhs
}
