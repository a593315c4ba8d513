//go:build tinygo

// Package mcu wires internal/hal's interfaces to TinyGo's machine package
// for a real microcontroller build, the way targets/rp2040 and
// targets/rp2350 wire core's driver interfaces to the same package.
package mcu

import (
	"machine"

	"microlight/internal/hal"
)

// GPIO implements hal.GPIO over a fixed pin table supplied at construction,
// since the chip only ever touches two digital pins (button, front bulb).
type GPIO struct {
	pins map[hal.GPIOPin]machine.Pin
}

// NewGPIO builds a GPIO adapter from a pin-number table, e.g.
// map[hal.GPIOPin]machine.Pin{buttonPin: machine.GPIO2, bulbPin: machine.GPIO3}.
func NewGPIO(pins map[hal.GPIOPin]machine.Pin) *GPIO {
	return &GPIO{pins: pins}
}

func (g *GPIO) pin(p hal.GPIOPin) machine.Pin {
	return g.pins[p]
}

func (g *GPIO) ConfigureOutput(pin hal.GPIOPin) error {
	g.pin(pin).Configure(machine.PinConfig{Mode: machine.PinOutput})
	return nil
}

func (g *GPIO) ConfigureInputPullUp(pin hal.GPIOPin) error {
	g.pin(pin).Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return nil
}

func (g *GPIO) SetPin(pin hal.GPIOPin, high bool) error {
	g.pin(pin).Set(high)
	return nil
}

func (g *GPIO) ReadPin(pin hal.GPIOPin) (bool, error) {
	return g.pin(pin).Get(), nil
}
