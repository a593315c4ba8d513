// Package settings holds ChipSettings — the small set of persisted,
// user-tunable knobs outside of modes — and the manager that loads them
// (merged with defaults) from storage and serializes them for the
// readSettings command. Ported from settings_manager.c; the original's
// X-macro default table (CHIP_SETTINGS_MAP) becomes the plain struct
// literal returned by DefaultChipSettings, rather than a
// preprocessor-generated table.
package settings

import "encoding/json"

// ChipSettings is the full set of persisted configuration knobs. JSON tags
// define the wire field names used by both the command parser and the
// defaults/response serializer.
type ChipSettings struct {
	ModeCount                    uint8 `json:"modeCount"`
	MinutesUntilAutoOff          uint8 `json:"minutesUntilAutoOff"`
	MinutesUntilLockAfterAutoOff uint8 `json:"minutesUntilLockAfterAutoOff"`
	EquationEvalIntervalMs       uint8 `json:"equationEvalIntervalMs"`
	EnableChargerSerial          bool  `json:"enableChargerSerial"`
	EnableI2cFailureReporting    bool  `json:"enableI2cFailureReporting"`
}

// DefaultChipSettings returns the factory defaults, matching
// CHIP_SETTINGS_MAP's default column.
func DefaultChipSettings() ChipSettings {
	return ChipSettings{
		ModeCount:                    0,
		MinutesUntilAutoOff:          90,
		MinutesUntilLockAfterAutoOff: 10,
		EquationEvalIntervalMs:       20,
		EnableChargerSerial:          false,
		EnableI2cFailureReporting:    false,
	}
}

// Decoder turns a stored (or absent) settings JSON document into a
// ChipSettings value. Implemented by the command parser; kept as an
// interface here to avoid an import cycle (the parser already depends on
// this package for the ChipSettings type).
type Decoder interface {
	DecodeSettings(data []byte) (*ChipSettings, bool)
}

// Storage is the narrow persistence surface the manager needs.
type Storage interface {
	ReadSettings() (data []byte, ok bool)
}

// Manager owns the current ChipSettings, initialized from storage merged
// with defaults and updatable via writeSettings commands.
type Manager struct {
	decoder Decoder
	current ChipSettings
	loaded  bool
}

// NewManager loads current settings from storage immediately: defaults
// first, then overridden by whatever storage holds, matching
// loadSettingsFromFlash's "defaults first in case load fails" ordering.
func NewManager(decoder Decoder, storage Storage) *Manager {
	m := &Manager{decoder: decoder, current: DefaultChipSettings()}
	if storage == nil {
		return m
	}
	data, ok := storage.ReadSettings()
	if !ok {
		return m
	}
	if decoded, ok := decoder.DecodeSettings(data); ok {
		m.current = *decoded
		m.loaded = true
	}
	return m
}

// Current returns the active settings.
func (m *Manager) Current() ChipSettings {
	return m.current
}

// Update replaces the current settings wholesale — the command parser has
// already merged any partial writeSettings body with the prior values
// before calling this.
func (m *Manager) Update(newSettings ChipSettings) {
	m.current = newSettings
	m.loaded = true
}

// HasLoadedSettings reports whether a writeSettings document was ever
// successfully decoded (from storage at init, or via Update), matching
// hasSettings in getSettingsResponse — it gates whether the readSettings
// response's "settings" field is the current value or null.
func (m *Manager) HasLoadedSettings() bool {
	return m.loaded
}

// Document serializes settings back to a JSON document suitable for
// persisting to flash, matching the shape decodeSettings/parseSettingsJson
// expects to re-parse (property 8's round-trip requirement).
func (s ChipSettings) Document() []byte {
	data, err := json.Marshal(s)
	if err != nil {
		// ChipSettings contains only JSON-marshalable scalar fields; a
		// failure here would be a programming error, not a runtime one.
		return []byte("{}")
	}
	return data
}

// readSettingsResponse mirrors getSettingsResponse's compound shape.
type readSettingsResponse struct {
	Settings *ChipSettings `json:"settings"`
	Defaults ChipSettings  `json:"defaults"`
}

// Response builds the readSettings command's compound body: the current
// settings (or null, if none were ever successfully loaded) alongside the
// factory defaults.
func (m *Manager) Response() []byte {
	resp := readSettingsResponse{Defaults: DefaultChipSettings()}
	if m.loaded {
		current := m.current
		resp.Settings = &current
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return []byte(`{"settings":null,"defaults":{}}`)
	}
	return data
}
