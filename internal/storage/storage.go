// Package storage persists settings and mode documents to on-chip flash:
// one page for settings, one page per mode slot. Ported from storage.c's
// writeString/readString, generalized from raw C strings to byte slices
// and built on internal/hal.Flash instead of the STM32 HAL directly.
package storage

import (
	"encoding/binary"

	"microlight/internal/hal"
)

// MaxModes bounds how many mode slots are reserved, mirroring the modeCount
// ceiling enforced elsewhere.
const MaxModes = 7

const (
	settingsPage hal.FlashPage = 0
	modePage0    hal.FlashPage = 1
)

// wordSize is the flash program granularity (a double word on the STM32C0).
const wordSize = 8

// Storage wraps a hal.Flash with the settings/mode page layout.
type Storage struct {
	flash hal.Flash
}

// New constructs a Storage over the given flash surface.
func New(flash hal.Flash) *Storage {
	return &Storage{flash: flash}
}

// ReadSettings returns the stored settings document, or ok=false if the
// settings page has never been written (still erased).
func (s *Storage) ReadSettings() ([]byte, bool) {
	return s.read(settingsPage)
}

// WriteSettings persists the settings document, erasing and reprogramming
// the settings page.
func (s *Storage) WriteSettings(data []byte) bool {
	return s.write(settingsPage, data)
}

// ReadMode returns the stored mode document for a slot, or ok=false if that
// slot has never been written.
func (s *Storage) ReadMode(index uint8) ([]byte, bool) {
	return s.read(modePageFor(index))
}

// WriteMode persists the mode document for a slot.
func (s *Storage) WriteMode(index uint8, data []byte) bool {
	return s.write(modePageFor(index), data)
}

func modePageFor(index uint8) hal.FlashPage {
	return modePage0 + hal.FlashPage(index)
}

// read loads a whole page, treats a leading 0xFF (erased) cell as "empty",
// and otherwise returns the bytes up to (not including) the first \0
// terminator, matching readString's null-terminated-C-string semantics.
func (s *Storage) read(page hal.FlashPage) ([]byte, bool) {
	pageSize := s.flash.PageSize()
	buf := make([]byte, pageSize)
	if !s.flash.ReadRange(s.flash.PageAddress(page), buf) {
		return nil, false
	}
	if buf[0] == 0xFF {
		return nil, false
	}
	for i, b := range buf {
		if b == 0 {
			return buf[:i], true
		}
	}
	return buf, true
}

// write erases the page and reprograms it with data padded to a multiple
// of wordSize with trailing \0 bytes, guaranteeing at least one terminator
// byte follows the data (even when len(data) is itself a multiple of
// wordSize), exactly as writeString's emptyPaddingLength computation does.
func (s *Storage) write(page hal.FlashPage, data []byte) bool {
	pageSize := s.flash.PageSize()
	if uint32(len(data)) >= pageSize {
		data = data[:pageSize-1]
	}

	emptyPaddingLength := wordSize - (len(data) % wordSize)
	total := len(data) + emptyPaddingLength

	padded := make([]byte, total)
	copy(padded, data)

	if !s.flash.Erase(page) {
		return false
	}

	base := s.flash.PageAddress(page)
	for i := 0; i < total; i += wordSize {
		word := binary.LittleEndian.Uint64(padded[i : i+wordSize])
		if !s.flash.ProgramDoubleWord(base+uint32(i), word) {
			return false
		}
	}
	return true
}
