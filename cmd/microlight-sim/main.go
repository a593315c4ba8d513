// Command microlight-sim hosts the chip orchestrator entirely on a
// development machine: halmock stands in for the silicon, and either a
// real serial device or stdin/stdout carries the line-oriented command
// protocol. It plays the role the teacher's gopper-host tool plays for
// Klipper, minus the dictionary/VLQ machinery this protocol doesn't use.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"microlight/host/serial"
	"microlight/internal/accel"
	"microlight/internal/charger"
	"microlight/internal/chip"
	"microlight/internal/cli"
	"microlight/internal/hal"
	"microlight/internal/hal/halmock"
	"microlight/internal/led"
	"microlight/internal/logx"
	"microlight/internal/mode"
	"microlight/internal/settings"
	"microlight/internal/storage"
	"microlight/internal/usbio"
)

var (
	device   = flag.String("device", "", "Serial device path (empty uses stdin/stdout)")
	baud     = flag.Int("baud", 115200, "Baud rate when -device is set")
	tickMs   = flag.Uint("tick-ms", 10, "Simulated StateTask period in milliseconds")
)

const (
	buttonPin    hal.GPIOPin    = 0
	frontBulbPin hal.GPIOPin    = 1
	chargerAddr  hal.I2CAddress = 0x6A
	accelAddr    hal.I2CAddress = 0x4C
	pwmPeriod    uint32         = 255
)

// lineWriter adapts an io.Writer to usbio.Writer.
type lineWriter struct {
	out *bufio.Writer
}

func (w *lineWriter) WriteLine(data []byte) {
	w.out.Write(data)
	w.out.Flush()
}

// simDFU logs and exits, since there is no bootloader to jump to here.
type simDFU struct {
	logger *log.Logger
}

func (d *simDFU) EnterDFU() {
	d.logger.Printf("dfu requested, exiting simulator")
	os.Exit(0)
}

// gpioFrontMux is a no-op front pin mux: halmock's GPIO pin already carries
// either role, so there is no physical alternate-function register to flip.
type gpioFrontMux struct {
	logger *log.Logger
}

func (m *gpioFrontMux) EnableGPIOMode() { m.logger.Printf("front pin -> gpio mode") }
func (m *gpioFrontMux) EnablePWMMode()  { m.logger.Printf("front pin -> pwm mode") }

func main() {
	flag.Parse()

	logger := log.New(os.Stderr, "microlight-sim: ", log.LstdFlags)
	sink := logx.New(logger)

	h := halmock.New()
	h.GPIO.ConfigureInputPullUp(buttonPin)
	h.GPIO.ConfigureOutput(frontBulbPin)

	st := storage.New(h.Flash)
	settingsMgr := settings.NewManager(cli.SettingsDecoder{}, st)

	accelDrv := accel.New(h.I2C, accelAddr, sink)
	accelDrv.SetEnabled(true)

	caseLED := led.New(h.PWM, 0, 1, 2, pwmPeriod)
	frontRGB := led.New(h.PWM, 3, 4, 5, pwmPeriod)
	chargerDrv := charger.New(h.I2C, chargerAddr, caseLED)

	modes := mode.NewManager(cli.ModeDecoder{}, st, accelDrv, sink)
	modes.LoadMode(0)

	mux := &gpioFrontMux{logger: logger}
	orch := chip.New(modes, accelDrv, chargerDrv, caseLED, frontRGB, h.GPIO, frontBulbPin, mux, h.GPIO, buttonPin, settingsMgr)

	reader, writer, closeFn := openTransport()
	defer closeFn()

	usb := usbio.NewManager(writer, modes, st, settingsMgr, &simDFU{logger: logger}, caseLED)

	go readCommands(reader, usb)
	driveTicks(orch, h.GPIO, time.Duration(*tickMs)*time.Millisecond)
}

// openTransport wires either a real serial port (-device) or stdin/stdout
// as the command line's read/write surface.
func openTransport() (io.Reader, usbio.Writer, func()) {
	if *device == "" {
		return os.Stdin, &lineWriter{out: bufio.NewWriter(os.Stdout)}, func() {}
	}

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud
	port, err := serial.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open %s: %v\n", *device, err)
		os.Exit(1)
	}
	return port, &lineWriter{out: bufio.NewWriter(port)}, func() { port.Close() }
}

func readCommands(r io.Reader, usb *usbio.Manager) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		usb.Feed(append(scanner.Bytes(), '\n'))
	}
}

// driveTicks stands in for the real firmware's timer interrupts: a regular
// StateTask call plus, every 10s of simulated time, the auto-off timer
// interrupt, matching ticksPerMinute's ~0.1Hz calibration. It also
// edge-detects the button
// pin itself, since there is no real ISR to report the press edge; a
// future hardware target replaces this with a genuine GPIO interrupt.
func driveTicks(orch *chip.Orchestrator, gpio hal.GPIO, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	var ms, lastAutoOffMs uint32
	const autoOffPeriodMs = 10_000
	wasHigh := true

	for range ticker.C {
		ms += uint32(period.Milliseconds())
		if ms-lastAutoOffMs >= autoOffPeriodMs {
			lastAutoOffMs = ms
			orch.AutoOffTimerInterrupt()
		}

		high, _ := gpio.ReadPin(buttonPin)
		edge := wasHigh && !high
		wasHigh = high

		orch.StateTask(ms, chip.Flags{ButtonInterruptTriggered: edge})
	}
}
