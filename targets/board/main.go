//go:build tinygo && !adxl345

// Command board wires the chip orchestrator to real silicon: USB CDC for
// the command line, one I2C bus for the accelerometer and charger, and two
// PWM slices for the case and front RGB LEDs. Pin assignments are
// board-specific placeholders; a real board brings its own copy of this
// file with the right machine.Pin values, the way targets/rp2040/main.go
// and targets/rp2350/main.go each hold their own pin tables.
//
// This variant wires the MC3479 accelerometer; a board built with the
// adxl345 tag instead links main_adxl345.go, which wires the ADXL345 part
// through the same Orchestrator.
package main

import (
	"bufio"
	"log"
	"machine"
	"time"

	"microlight/internal/accel"
	"microlight/internal/charger"
	"microlight/internal/chip"
	"microlight/internal/cli"
	"microlight/internal/hal"
	"microlight/internal/led"
	"microlight/internal/logx"
	"microlight/internal/mode"
	"microlight/internal/settings"
	"microlight/internal/storage"
	"microlight/internal/usbio"
	"microlight/targets/mcu"
)

const (
	buttonPin    hal.GPIOPin    = 0
	frontBulbPin hal.GPIOPin    = 1
	chargerAddr  hal.I2CAddress = 0x6A
	accelAddr    hal.I2CAddress = 0x4C
	pwmPeriod    uint32         = 255

	settingsPage hal.FlashPage = 56 // matches storage.h's SETTINGS_PAGE
	flashPageSz  uint32        = 2048
)

// cdcWriter adapts the USB CDC serial port to usbio.Writer.
type cdcWriter struct {
	port *machine.USBCDC
}

func (w *cdcWriter) WriteLine(data []byte) {
	w.port.Write(data)
}

// resetDFU jumps to the bootloader via the board's reset-to-UF2 hook.
type resetDFU struct{}

func (resetDFU) EnterDFU() {
	machine.EnterBootloader()
}

// serialLogWriter routes diagnostic lines to USB CDC as plain text, the
// same destination the original firmware's debug console uses.
type serialLogWriter struct{}

func (serialLogWriter) Write(p []byte) (int, error) {
	return machine.USBCDC.Write(p)
}

func main() {
	machine.USBCDC.Configure(machine.USBCDCConfig{})
	logger := logx.New(log.New(serialLogWriter{}, "", 0))

	buttonGPIO := mcu.NewGPIO(map[hal.GPIOPin]machine.Pin{buttonPin: machine.GPIO2})
	buttonGPIO.ConfigureInputPullUp(buttonPin)

	frontGPIO := mcu.NewGPIO(map[hal.GPIOPin]machine.Pin{frontBulbPin: machine.GPIO3})
	frontGPIO.ConfigureOutput(frontBulbPin)

	machine.I2C0.Configure(machine.I2CConfig{Frequency: 400_000})
	i2c := mcu.NewI2C(machine.I2C0)

	flash := mcu.NewFlash(flashPageSz, settingsPage)
	st := storage.New(flash)
	settingsMgr := settings.NewManager(cli.SettingsDecoder{}, st)

	accelDrv := accel.New(i2c, accelAddr, logger)
	accelDrv.SetEnabled(true)

	casePWM := mcu.NewPWM(machine.PWM0, map[hal.PWMChannel]machine.Pin{0: machine.GPIO4, 1: machine.GPIO5, 2: machine.GPIO6})
	frontPWM := mcu.NewPWM(machine.PWM1, map[hal.PWMChannel]machine.Pin{3: machine.GPIO7, 4: machine.GPIO8, 5: machine.GPIO9})
	caseLED := led.New(casePWM, 0, 1, 2, pwmPeriod)
	frontRGB := led.New(frontPWM, 3, 4, 5, pwmPeriod)

	chargerDrv := charger.New(i2c, chargerAddr, caseLED)
	modes := mode.NewManager(cli.ModeDecoder{}, st, accelDrv, logger)
	modes.LoadMode(0)

	// nil mux: this board wires the front bulb and front RGB to separate
	// pins rather than multiplexing one pin between GPIO and PWM modes.
	orch := chip.New(modes, accelDrv, chargerDrv, caseLED, frontRGB, frontGPIO, frontBulbPin, nil, buttonGPIO, buttonPin, settingsMgr)

	usb := usbio.NewManager(&cdcWriter{port: machine.USBCDC}, modes, st, settingsMgr, resetDFU{}, caseLED)

	go readCommandLines(usb)

	var ms, lastAutoOffMs uint32
	// autoOffPeriodMs paces AutoOffTimerInterrupt at the ~0.1Hz rate
	// chip's ticksPerMinute assumes.
	const autoOffPeriodMs = 10_000
	for {
		time.Sleep(10 * time.Millisecond)
		ms += 10
		if ms-lastAutoOffMs >= autoOffPeriodMs {
			lastAutoOffMs = ms
			orch.AutoOffTimerInterrupt()
		}
		orch.StateTask(ms, chip.Flags{})
	}
}

func readCommandLines(usb *usbio.Manager) {
	scanner := bufio.NewScanner(machine.USBCDC)
	for scanner.Scan() {
		usb.Feed(append(scanner.Bytes(), '\n'))
	}
}
