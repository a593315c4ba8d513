package cli

import (
	"microlight/internal/mode"
	"microlight/internal/settings"
)

// ModeDecoder adapts decodeMode to mode.Decoder, the seam the mode manager
// uses to turn stored or built-in JSON into a Mode without importing this
// package directly (which would create an import cycle, since this package
// already imports mode for the Mode/ModeComponent types it builds).
type ModeDecoder struct{}

func (ModeDecoder) DecodeMode(data []byte) (*mode.Mode, error) {
	return decodeMode(data, "")
}

// SettingsDecoder adapts decodeSettings to settings.Decoder: it merges a
// stored document onto the factory defaults, mirroring
// loadSettingsFromFlash's "defaults first in case stored bytes fail to
// parse" ordering.
type SettingsDecoder struct{}

func (SettingsDecoder) DecodeSettings(data []byte) (*settings.ChipSettings, bool) {
	decoded, err := decodeSettings(data, settings.DefaultChipSettings())
	if err != nil {
		return nil, false
	}
	return &decoded, true
}
