package settings

import "testing"

type fakeDecoder struct {
	result *ChipSettings
	ok     bool
}

func (f *fakeDecoder) DecodeSettings(data []byte) (*ChipSettings, bool) {
	return f.result, f.ok
}

type fakeStorage struct {
	data []byte
	ok   bool
}

func (f *fakeStorage) ReadSettings() ([]byte, bool) {
	return f.data, f.ok
}

func TestNewManagerUsesDefaultsWhenStorageEmpty(t *testing.T) {
	m := NewManager(&fakeDecoder{}, &fakeStorage{ok: false})
	if m.Current() != DefaultChipSettings() {
		t.Fatalf("expected defaults, got %+v", m.Current())
	}
	if m.HasLoadedSettings() {
		t.Fatal("expected HasLoadedSettings false with nothing stored")
	}
}

func TestNewManagerMergesStoredSettings(t *testing.T) {
	stored := ChipSettings{
		ModeCount:                    3,
		MinutesUntilAutoOff:          5,
		MinutesUntilLockAfterAutoOff: 2,
		EquationEvalIntervalMs:       10,
		EnableChargerSerial:          true,
		EnableI2cFailureReporting:    true,
	}
	m := NewManager(&fakeDecoder{result: &stored, ok: true}, &fakeStorage{data: []byte("x"), ok: true})
	if m.Current() != stored {
		t.Fatalf("expected stored settings, got %+v", m.Current())
	}
	if !m.HasLoadedSettings() {
		t.Fatal("expected HasLoadedSettings true after successful decode")
	}
}

func TestNewManagerFallsBackToDefaultsOnDecodeFailure(t *testing.T) {
	m := NewManager(&fakeDecoder{ok: false}, &fakeStorage{data: []byte("garbage"), ok: true})
	if m.Current() != DefaultChipSettings() {
		t.Fatalf("expected defaults on decode failure, got %+v", m.Current())
	}
	if m.HasLoadedSettings() {
		t.Fatal("expected HasLoadedSettings false on decode failure")
	}
}

func TestUpdateReplacesCurrentAndMarksLoaded(t *testing.T) {
	m := NewManager(&fakeDecoder{}, &fakeStorage{})
	next := DefaultChipSettings()
	next.ModeCount = 4
	m.Update(next)
	if m.Current().ModeCount != 4 {
		t.Fatalf("expected updated mode count, got %d", m.Current().ModeCount)
	}
	if !m.HasLoadedSettings() {
		t.Fatal("expected HasLoadedSettings true after Update")
	}
}
