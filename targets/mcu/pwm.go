//go:build tinygo

package mcu

import (
	"machine"

	"microlight/internal/hal"
)

// pwmPeripheral narrows TinyGo's per-slice PWM type to what this driver
// needs, the same narrowing targets/rp2040/pwm.go applies over machine.PWM.
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// PWM implements hal.PWM over a fixed channel-to-pin table: the case LED's
// three channels, the front LED's three channels when front is RGB-capable.
type PWM struct {
	peripheral pwmPeripheral
	pins       map[hal.PWMChannel]machine.Pin
	channels   map[hal.PWMChannel]uint8
}

// NewPWM binds one hardware PWM peripheral (a slice, on RP2040/RP2350) to a
// channel-number-to-pin table.
func NewPWM(peripheral pwmPeripheral, pins map[hal.PWMChannel]machine.Pin) *PWM {
	return &PWM{peripheral: peripheral, pins: pins, channels: make(map[hal.PWMChannel]uint8)}
}

func (p *PWM) ConfigurePWM(ch hal.PWMChannel, periodTicks uint32) error {
	if err := p.peripheral.Configure(machine.PWMConfig{Period: uint64(periodTicks)}); err != nil {
		return err
	}
	channel, err := p.peripheral.Channel(p.pins[ch])
	if err != nil {
		return err
	}
	p.channels[ch] = channel
	return nil
}

func (p *PWM) SetDuty(ch hal.PWMChannel, duty uint32) error {
	p.peripheral.Set(p.channels[ch], duty)
	return nil
}
