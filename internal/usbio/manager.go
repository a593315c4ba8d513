package usbio

import (
	"fmt"

	"microlight/internal/cli"
	"microlight/internal/mode"
	"microlight/internal/settings"
)

// Writer is the serial transmit surface — a single line-buffered write per
// command, matching chip_state_write_serial.
type Writer interface {
	WriteLine(data []byte)
}

// ModeManager is the narrow mode-manager surface the dispatch loop needs:
// install a newly parsed mode as current.
type ModeManager interface {
	SetMode(m *mode.Mode, index uint8)
}

// Storage is the persistence surface for mode and settings documents.
type Storage interface {
	WriteMode(index uint8, data []byte) bool
	ReadMode(index uint8) (data []byte, ok bool)
	WriteSettings(data []byte) bool
}

// SettingsManager is the narrow settings surface: apply a parsed update and
// render the compound readSettings response.
type SettingsManager interface {
	Current() settings.ChipSettings
	Update(s settings.ChipSettings)
	Response() []byte
}

// DFU enters the bootloader. EnterDFU does not return on real hardware;
// the hosted/simulator implementation may just record the call.
type DFU interface {
	EnterDFU()
}

// SuccessCue is shown after a writeMode or writeSettings command has been
// applied; read and dfu commands show no cue.
type SuccessCue interface {
	ShowSuccess()
}

// Manager owns one LineReader and dispatches each completed line through
// internal/cli, ported from handleJson's switch over ParsedType.
type Manager struct {
	reader LineReader

	writer   Writer
	modes    ModeManager
	storage  Storage
	settings SettingsManager
	dfu      DFU
	cue      SuccessCue
}

// NewManager wires a Manager to its collaborators.
func NewManager(writer Writer, modes ModeManager, storage Storage, settingsMgr SettingsManager, dfu DFU, cue SuccessCue) *Manager {
	return &Manager{writer: writer, modes: modes, storage: storage, settings: settingsMgr, dfu: dfu, cue: cue}
}

// Feed appends incoming serial bytes and dispatches every complete line.
func (m *Manager) Feed(data []byte) {
	for _, line := range m.reader.FeedAll(data) {
		m.handleLine(line)
	}
}

func (m *Manager) handleLine(line []byte) {
	input := cli.ParseCommand(line, m.settings.Current())

	switch input.Type {
	case cli.TypeError:
		m.writer.WriteLine(errorResponse(input.ErrorContext))
		return

	case cli.TypeWriteMode:
		if input.Mode.Name != "transientTest" {
			m.storage.WriteMode(input.ModeIndex, line)
		}
		m.modes.SetMode(input.Mode, input.ModeIndex)

	case cli.TypeReadMode:
		data, _ := m.storage.ReadMode(input.ModeIndex)
		m.writer.WriteLine(append(append([]byte{}, data...), '\n'))
		return

	case cli.TypeWriteSettings:
		m.storage.WriteSettings(input.Settings.Document())
		m.settings.Update(input.Settings)

	case cli.TypeReadSettings:
		m.writer.WriteLine(append(m.settings.Response(), '\n'))
		return

	case cli.TypeDFU:
		m.dfu.EnterDFU()
		return
	}

	if m.cue != nil {
		m.cue.ShowSuccess()
	}
}

// errorResponse renders the `{"error":...}` line: a generic message for a
// top-level parse failure (empty path), or the specific taxonomy/path pair
// for a field-level validation failure, matching handleJson/§4.10.
func errorResponse(ctx cli.ErrorContext) []byte {
	if ctx.Path == "" {
		return []byte("{\"error\":\"unable to parse json\"}\n")
	}
	return []byte(fmt.Sprintf("{\"error\":%q,\"path\":%q}\n", string(ctx.Error), ctx.Path))
}
