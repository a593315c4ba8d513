package cli

import (
	"encoding/json"

	"microlight/internal/mode"
	"microlight/internal/settings"
)

// ParsedType discriminates which CliInput field is meaningful.
type ParsedType uint8

const (
	TypeError ParsedType = iota
	TypeWriteMode
	TypeReadMode
	TypeWriteSettings
	TypeReadSettings
	TypeDFU
)

// CliInput is the parsed result of one command line: exactly the fields
// named by ParsedType are populated.
type CliInput struct {
	Type         ParsedType
	Mode         *mode.Mode
	ModeIndex    uint8
	Settings     settings.ChipSettings
	ErrorContext ErrorContext
}

// ParseCommand decodes one JSON command line per §4.9's dispatch table.
// currentSettings is the settings writeSettings merges partial updates
// into, matching loadSettingsFromFlash's defaults-then-overlay pattern.
func ParseCommand(line []byte, currentSettings settings.ChipSettings) CliInput {
	obj, err := rawObject(line, "")
	if err != nil {
		return errorInput(err)
	}

	commandRaw, ok := obj["command"]
	if !ok {
		return errorInput(fail("command", MissingField))
	}
	var command string
	if err := json.Unmarshal(commandRaw, &command); err != nil {
		return errorInput(fail("command", InvalidVariant))
	}

	switch command {
	case "writeMode":
		return parseWriteMode(obj)
	case "readMode":
		return parseReadMode(obj)
	case "writeSettings":
		return parseWriteSettings(obj, currentSettings)
	case "readSettings":
		return CliInput{Type: TypeReadSettings}
	case "dfu":
		return CliInput{Type: TypeDFU}
	default:
		return errorInput(fail("command", InvalidVariant))
	}
}

func errorInput(err error) CliInput {
	pe, ok := err.(*ParseError)
	if !ok {
		return CliInput{Type: TypeError, ErrorContext: ErrorContext{Error: ValidationFailed}}
	}
	return CliInput{Type: TypeError, ErrorContext: pe.Context}
}

func parseWriteMode(obj map[string]json.RawMessage) CliInput {
	indexRaw, ok := obj["index"]
	if !ok {
		return errorInput(fail("index", MissingField))
	}
	var index int
	if err := json.Unmarshal(indexRaw, &index); err != nil {
		return errorInput(fail("index", InvalidVariant))
	}
	if index < 0 {
		return errorInput(fail("index", ValueTooSmall))
	}
	if index > 255 {
		return errorInput(fail("index", ValueTooLarge))
	}

	modeRaw, ok := obj["mode"]
	if !ok {
		return errorInput(fail("mode", MissingField))
	}
	m, err := decodeMode(modeRaw, "mode")
	if err != nil {
		return errorInput(err)
	}

	return CliInput{Type: TypeWriteMode, Mode: m, ModeIndex: uint8(index)}
}

func parseReadMode(obj map[string]json.RawMessage) CliInput {
	indexRaw, ok := obj["index"]
	if !ok {
		return errorInput(fail("index", MissingField))
	}
	var index int
	if err := json.Unmarshal(indexRaw, &index); err != nil {
		return errorInput(fail("index", InvalidVariant))
	}
	if index < 0 {
		return errorInput(fail("index", ValueTooSmall))
	}
	if index > 255 {
		return errorInput(fail("index", ValueTooLarge))
	}
	return CliInput{Type: TypeReadMode, ModeIndex: uint8(index)}
}

func parseWriteSettings(obj map[string]json.RawMessage, currentSettings settings.ChipSettings) CliInput {
	settingsRaw, ok := obj["settings"]
	if !ok {
		// The wire shape places settings fields at the top level alongside
		// "command" (there is no nested "settings" object), matching
		// parseSettingsJson's direct top-level lwjson_find calls.
		full, err := json.Marshal(obj)
		if err != nil {
			return errorInput(fail("", ValidationFailed))
		}
		settingsRaw = full
	}
	s, err := decodeSettings(settingsRaw, currentSettings)
	if err != nil {
		return errorInput(err)
	}
	return CliInput{Type: TypeWriteSettings, Settings: s}
}
