// Package halmock implements internal/hal.Hal entirely in memory, the way
// the teacher keeps a hosted-Go build (!tinygo) path for every hardware
// interface (core/interrupt_go.go, core/timer_go.go) so core logic can run
// under `go test` without real silicon.
package halmock

import "microlight/internal/hal"

// GPIO is an in-memory GPIO mock: pins are just a map of latched state.
type GPIO struct {
	outputs map[hal.GPIOPin]bool
	inputs  map[hal.GPIOPin]bool
}

func NewGPIO() *GPIO {
	return &GPIO{
		outputs: make(map[hal.GPIOPin]bool),
		inputs:  make(map[hal.GPIOPin]bool),
	}
}

func (g *GPIO) ConfigureOutput(pin hal.GPIOPin) error {
	g.outputs[pin] = false
	return nil
}

func (g *GPIO) ConfigureInputPullUp(pin hal.GPIOPin) error {
	g.inputs[pin] = true // idle-high, like a real pull-up
	return nil
}

func (g *GPIO) SetPin(pin hal.GPIOPin, high bool) error {
	g.outputs[pin] = high
	return nil
}

func (g *GPIO) ReadPin(pin hal.GPIOPin) (bool, error) {
	if v, ok := g.inputs[pin]; ok {
		return v, nil
	}
	return g.outputs[pin], nil
}

// SetInput lets a test drive an input pin directly, e.g. simulating a
// button press.
func (g *GPIO) SetInput(pin hal.GPIOPin, high bool) {
	g.inputs[pin] = high
}

// OutputState lets a test observe what the core wrote to an output pin.
func (g *GPIO) OutputState(pin hal.GPIOPin) bool {
	return g.outputs[pin]
}

// PWM is an in-memory PWM mock recording the last duty written per channel.
type PWM struct {
	periods map[hal.PWMChannel]uint32
	duties  map[hal.PWMChannel]uint32
}

func NewPWM() *PWM {
	return &PWM{
		periods: make(map[hal.PWMChannel]uint32),
		duties:  make(map[hal.PWMChannel]uint32),
	}
}

func (p *PWM) ConfigurePWM(ch hal.PWMChannel, periodTicks uint32) error {
	p.periods[ch] = periodTicks
	return nil
}

func (p *PWM) SetDuty(ch hal.PWMChannel, duty uint32) error {
	p.duties[ch] = duty
	return nil
}

// Duty returns the last duty value written to a channel.
func (p *PWM) Duty(ch hal.PWMChannel) uint32 {
	return p.duties[ch]
}

// I2C is an in-memory I2C mock backed by a per-device register file, with
// optional injected read failures for fault-path tests.
type I2C struct {
	registers map[hal.I2CAddress]map[uint8]uint8
	failNext  map[hal.I2CAddress]int
}

func NewI2C() *I2C {
	return &I2C{
		registers: make(map[hal.I2CAddress]map[uint8]uint8),
		failNext:  make(map[hal.I2CAddress]int),
	}
}

func (i *I2C) regFile(addr hal.I2CAddress) map[uint8]uint8 {
	f, ok := i.registers[addr]
	if !ok {
		f = make(map[uint8]uint8)
		i.registers[addr] = f
	}
	return f
}

func (i *I2C) WriteRegister(addr hal.I2CAddress, reg uint8, value uint8) error {
	i.regFile(addr)[reg] = value
	return nil
}

func (i *I2C) ReadRegisters(addr hal.I2CAddress, startReg uint8, buf []byte) (bool, error) {
	if i.failNext[addr] > 0 {
		i.failNext[addr]--
		return false, nil
	}
	f := i.regFile(addr)
	for idx := range buf {
		buf[idx] = f[startReg+uint8(idx)]
	}
	return true, nil
}

// SetRegister lets a test prime a device register directly.
func (i *I2C) SetRegister(addr hal.I2CAddress, reg uint8, value uint8) {
	i.regFile(addr)[reg] = value
}

// Register returns a previously written register value (test helper).
func (i *I2C) Register(addr hal.I2CAddress, reg uint8) uint8 {
	return i.regFile(addr)[reg]
}

// FailNextReads makes the next n ReadRegisters calls for addr report failure,
// simulating an I2C transaction timeout.
func (i *I2C) FailNextReads(addr hal.I2CAddress, n int) {
	i.failNext[addr] = n
}

// Flash is an in-memory flash mock: erased pages read as 0xFF, matching the
// real part's erased-cell behavior.
type Flash struct {
	pageSize uint32
	pages    map[hal.FlashPage][]byte
	failErase  map[hal.FlashPage]bool
	failWrites map[uint32]bool
}

func NewFlash(pageSize uint32) *Flash {
	return &Flash{
		pageSize:   pageSize,
		pages:      make(map[hal.FlashPage][]byte),
		failErase:  make(map[hal.FlashPage]bool),
		failWrites: make(map[uint32]bool),
	}
}

func (f *Flash) pageFor(addr uint32) hal.FlashPage {
	return hal.FlashPage(addr / f.pageSize)
}

func (f *Flash) ensure(page hal.FlashPage) []byte {
	buf, ok := f.pages[page]
	if !ok {
		buf = make([]byte, f.pageSize)
		for i := range buf {
			buf[i] = 0xFF
		}
		f.pages[page] = buf
	}
	return buf
}

func (f *Flash) Erase(page hal.FlashPage) bool {
	if f.failErase[page] {
		delete(f.failErase, page)
		return false
	}
	buf := f.ensure(page)
	for i := range buf {
		buf[i] = 0xFF
	}
	return true
}

func (f *Flash) ProgramDoubleWord(addr uint32, word uint64) bool {
	if f.failWrites[addr] {
		return false
	}
	page := f.pageFor(addr)
	buf := f.ensure(page)
	offset := addr % f.pageSize
	if offset+8 > uint32(len(buf)) {
		return false
	}
	for i := uint32(0); i < 8; i++ {
		buf[offset+i] = byte(word >> (8 * i))
	}
	return true
}

func (f *Flash) ReadRange(addr uint32, buf []byte) bool {
	page := f.pageFor(addr)
	src := f.ensure(page)
	offset := addr % f.pageSize
	if offset+uint32(len(buf)) > uint32(len(src)) {
		return false
	}
	copy(buf, src[offset:offset+uint32(len(buf))])
	return true
}

func (f *Flash) PageAddress(page hal.FlashPage) uint32 {
	return uint32(page) * f.pageSize
}

func (f *Flash) PageSize() uint32 {
	return f.pageSize
}

// FailEraseOnce makes the next Erase of a page report failure.
func (f *Flash) FailEraseOnce(page hal.FlashPage) {
	f.failErase[page] = true
}

// New builds a fully-wired mock Hal for tests and the simulator.
func New() *hal.Hal {
	return &hal.Hal{
		GPIO:  NewGPIO(),
		PWM:   NewPWM(),
		I2C:   NewI2C(),
		Flash: NewFlash(2048),
	}
}
