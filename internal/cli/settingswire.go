package cli

import (
	"encoding/json"

	"microlight/internal/settings"
)

const maxSettingsRange = 255

// decodeSettings parses any subset of known settings fields, merging with
// base (the current settings, or defaults) for everything left unspecified
// — §4.9's "parse any subset of known fields, merging with defaults".
func decodeSettings(data json.RawMessage, base settings.ChipSettings) (settings.ChipSettings, error) {
	obj, err := rawObject(data, "")
	if err != nil {
		return settings.ChipSettings{}, err
	}
	result := base

	if err := decodeUint8Field(obj, "modeCount", 0, 7, &result.ModeCount); err != nil {
		return settings.ChipSettings{}, err
	}
	if err := decodeUint8Field(obj, "minutesUntilAutoOff", 0, maxSettingsRange, &result.MinutesUntilAutoOff); err != nil {
		return settings.ChipSettings{}, err
	}
	if err := decodeUint8Field(obj, "minutesUntilLockAfterAutoOff", 0, maxSettingsRange, &result.MinutesUntilLockAfterAutoOff); err != nil {
		return settings.ChipSettings{}, err
	}
	if err := decodeUint8Field(obj, "equationEvalIntervalMs", 0, maxSettingsRange, &result.EquationEvalIntervalMs); err != nil {
		return settings.ChipSettings{}, err
	}
	if err := decodeBoolField(obj, "enableChargerSerial", &result.EnableChargerSerial); err != nil {
		return settings.ChipSettings{}, err
	}
	if err := decodeBoolField(obj, "enableI2cFailureReporting", &result.EnableI2cFailureReporting); err != nil {
		return settings.ChipSettings{}, err
	}

	return result, nil
}

func decodeUint8Field(obj map[string]json.RawMessage, field string, min, max int, out *uint8) error {
	raw, ok := obj[field]
	if !ok {
		return nil
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		return fail(field, InvalidVariant)
	}
	if v < min {
		return fail(field, ValueTooSmall)
	}
	if v > max {
		return fail(field, ValueTooLarge)
	}
	*out = uint8(v)
	return nil
}

func decodeBoolField(obj map[string]json.RawMessage, field string, out *bool) error {
	raw, ok := obj[field]
	if !ok {
		return nil
	}
	// encoding/json already rejects a JSON number unmarshaled into a Go
	// bool (json: cannot unmarshal number into Go value of type bool), so
	// the "boolean fields refuse integer coercion" rule in §4.9 falls out
	// of the standard decoder rather than needing a hand-rolled check.
	if err := json.Unmarshal(raw, out); err != nil {
		return fail(field, InvalidVariant)
	}
	return nil
}
