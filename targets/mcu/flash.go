//go:build tinygo

package mcu

import (
	"runtime/volatile"
	"unsafe"

	"microlight/internal/hal"
)

// Register offsets and bit positions from the FLASH peripheral's
// KEYR/CR/SR block, the same registers storage.c pokes through
// HAL_FLASH_Unlock/FLASH_PageErase/HAL_FLASH_Program. The unlock key
// sequence and PER/STRT/PG bit positions are standard across the STM32
// mainstream FLASH IP; flashBase and pageSize must match the target part's
// reference manual.
const (
	flashPeriphBase = 0x40022000
	flashBase       = 0x08000000

	offsetKEYR = 0x08
	offsetCR   = 0x14
	offsetSR   = 0x10

	keyrKey1 = 0x45670123
	keyrKey2 = 0xCDEF89AB

	crPG   = 1 << 0
	crPER  = 1 << 1
	crSTRT = 1 << 16
	crLOCK = 1 << 31

	srBSY = 1 << 16
	srEOP = 1 << 0
)

func flashReg(offset uintptr) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(flashPeriphBase + offset))
}

func flashWaitBusy() {
	for flashReg(offsetSR).Get()&srBSY != 0 {
	}
}

func flashUnlock() {
	flashReg(offsetKEYR).Set(keyrKey1)
	flashReg(offsetKEYR).Set(keyrKey2)
}

func flashLock() {
	cr := flashReg(offsetCR)
	cr.Set(cr.Get() | crLOCK)
}

// Flash implements hal.Flash over the on-chip program-flash peripheral,
// porting memoryPageErase/writeString/readString's register sequence.
type Flash struct {
	pageSize uint32
	pageBase uint32
}

// NewFlash builds a Flash adapter. pageBase is the flash page index the
// chip's first storage page starts at (SETTINGS_PAGE in the original
// firmware's storage.h); pageSize is the erase-unit size in bytes.
func NewFlash(pageSize uint32, pageBase hal.FlashPage) *Flash {
	return &Flash{pageSize: pageSize, pageBase: uint32(pageBase)}
}

func (f *Flash) PageAddress(page hal.FlashPage) uint32 {
	return flashBase + (f.pageBase+uint32(page))*f.pageSize
}

func (f *Flash) PageSize() uint32 {
	return f.pageSize
}

func (f *Flash) Erase(page hal.FlashPage) bool {
	flashWaitBusy()
	flashUnlock()
	defer flashLock()

	cr := flashReg(offsetCR)
	cr.Set(cr.Get() | crPER)

	pageAddrReg := (*volatile.Register32)(unsafe.Pointer(uintptr(f.PageAddress(page))))
	pageAddrReg.Set(0)

	cr.Set(cr.Get() | crSTRT)
	flashWaitBusy()
	cr.Set(cr.Get() &^ crPER)

	return true
}

func (f *Flash) ProgramDoubleWord(addr uint32, word uint64) bool {
	flashWaitBusy()
	flashUnlock()
	defer flashLock()

	cr := flashReg(offsetCR)
	cr.Set(cr.Get() | crPG)

	lowReg := (*volatile.Register32)(unsafe.Pointer(uintptr(addr)))
	highReg := (*volatile.Register32)(unsafe.Pointer(uintptr(addr + 4)))
	lowReg.Set(uint32(word))
	highReg.Set(uint32(word >> 32))

	flashWaitBusy()
	cr.Set(cr.Get() &^ crPG)

	return true
}

func (f *Flash) ReadRange(addr uint32, buf []byte) bool {
	src := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr))), len(buf))
	copy(buf, src)
	return true
}
