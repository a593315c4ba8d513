package accel

import (
	"microlight/internal/hal"

	"tinygo.org/x/drivers/adxl345"
)

// adxlSensitivityLSBPerG is the counts/g scale applied to the ADXL345's raw
// readings, distinct from the MC3479's 2048 LSB/g.
const adxlSensitivityLSBPerG = 256

// i2cTxAdapter narrows hal.I2C to the Tx-based transaction shape
// tinygo.org/x/drivers expects (the same shape machine.I2C satisfies
// natively on a real board), so the library driver can run against either
// halmock.I2C or a real bus without its own hal dependency.
type i2cTxAdapter struct {
	bus  hal.I2C
	addr hal.I2CAddress
}

func (a *i2cTxAdapter) Tx(addr uint16, w, r []byte) error {
	if len(r) == 0 {
		for i := 0; i+1 < len(w); i += 2 {
			if err := a.bus.WriteRegister(a.addr, w[i], w[i+1]); err != nil {
				return err
			}
		}
		return nil
	}
	var startReg uint8
	if len(w) > 0 {
		startReg = w[0]
	}
	_, err := a.bus.ReadRegisters(a.addr, startReg, r)
	return err
}

// AdxlDriver drives an ADXL345 through tinygo.org/x/drivers/adxl345 for
// board variants wired to that part instead of the MC3479, computing the
// same squared-jerk-over-threshold statistic Driver does so both satisfy
// mode.Accelerometer identically.
type AdxlDriver struct {
	dev     adxl345.Device
	enabled bool

	lastSampleMs          uint32
	lastX, lastY, lastZ   int16
	currentJerkSquaredSum uint64
	lastDtMs              uint32
}

// NewAdxl345 constructs an AdxlDriver over an ADXL345 at the given bus/address,
// configuring the +/-16g range to match the MC3479 path's scale.
func NewAdxl345(bus hal.I2C, addr hal.I2CAddress) *AdxlDriver {
	dev := adxl345.New(&i2cTxAdapter{bus: bus, addr: addr})
	dev.Configure()
	dev.SetRange(adxl345.RANGE_16G)
	return &AdxlDriver{dev: dev}
}

func (d *AdxlDriver) SetEnabled(enabled bool) {
	d.enabled = enabled
	d.lastSampleMs = 0
	d.currentJerkSquaredSum = 0
	d.lastDtMs = 0
}

// Task samples once samplePeriodMs have elapsed, mirroring Driver.Task.
func (d *AdxlDriver) Task(ms uint32) {
	if !d.enabled {
		return
	}
	if ms-d.lastSampleMs < samplePeriodMs {
		return
	}

	x, y, z := d.dev.ReadRawAcceleration()

	if d.lastSampleMs != 0 && ms > d.lastSampleMs {
		dtMs := ms - d.lastSampleMs
		dx := int64(x) - int64(d.lastX)
		dy := int64(y) - int64(d.lastY)
		dz := int64(z) - int64(d.lastZ)
		d.currentJerkSquaredSum = uint64(dx*dx + dy*dy + dz*dz)
		d.lastDtMs = dtMs
	} else {
		d.currentJerkSquaredSum = 0
		d.lastDtMs = 0
	}

	d.lastX, d.lastY, d.lastZ = x, y, z
	d.lastSampleMs = ms
}

func (d *AdxlDriver) IsOverThreshold(thresholdGPerS uint8) bool {
	if !d.enabled || d.lastDtMs == 0 {
		return false
	}
	lhs := d.currentJerkSquaredSum * 1_000_000
	rhsTerm := uint64(thresholdGPerS) * adxlSensitivityLSBPerG * uint64(d.lastDtMs)
	rhs := rhsTerm * rhsTerm
	return lhs > rhs
}
