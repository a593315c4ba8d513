package cli

import (
	"encoding/json"

	"microlight/internal/equation"
	"microlight/internal/mode"
	"microlight/internal/pattern"
)

const maxNameLen = 32

// rawObject decodes a JSON value into its field map, used at every level so
// path-building stays explicit rather than relying on struct-tag errors.
func rawObject(data json.RawMessage, path string) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fail(path, InvalidVariant)
	}
	return obj, nil
}

// decodeMode parses the Mode JSON shape from §6: name, optional front,
// optional caseComp, optional accel.
func decodeMode(data json.RawMessage, path string) (*mode.Mode, error) {
	obj, err := rawObject(data, path)
	if err != nil {
		return nil, err
	}

	nameRaw, ok := obj["name"]
	if !ok {
		return nil, fail(joinPath(path, "name"), MissingField)
	}
	var name string
	if err := json.Unmarshal(nameRaw, &name); err != nil {
		return nil, fail(joinPath(path, "name"), InvalidVariant)
	}
	if len(name) == 0 {
		return nil, fail(joinPath(path, "name"), StringTooShort)
	}
	if len(name) > maxNameLen {
		return nil, fail(joinPath(path, "name"), StringTooLong)
	}

	m := &mode.Mode{Name: name}

	if frontRaw, ok := obj["front"]; ok {
		front, err := decodeComponent(frontRaw, joinPath(path, "front"))
		if err != nil {
			return nil, err
		}
		m.Front = front
	}
	if caseRaw, ok := obj["caseComp"]; ok {
		caseComp, err := decodeComponent(caseRaw, joinPath(path, "caseComp"))
		if err != nil {
			return nil, err
		}
		m.Case = caseComp
	}
	if accelRaw, ok := obj["accel"]; ok {
		accel, err := decodeAccel(accelRaw, joinPath(path, "accel"))
		if err != nil {
			return nil, err
		}
		m.Accel = accel
	}

	return m, nil
}

func decodeComponent(data json.RawMessage, path string) (*mode.ModeComponent, error) {
	obj, err := rawObject(data, path)
	if err != nil {
		return nil, err
	}
	patternRaw, ok := obj["pattern"]
	if !ok {
		return nil, fail(joinPath(path, "pattern"), MissingField)
	}
	p, err := decodePattern(patternRaw, joinPath(path, "pattern"))
	if err != nil {
		return nil, err
	}
	return &mode.ModeComponent{Pattern: p}, nil
}

func decodePattern(data json.RawMessage, path string) (mode.Pattern, error) {
	obj, err := rawObject(data, path)
	if err != nil {
		return mode.Pattern{}, err
	}

	typeRaw, ok := obj["type"]
	if !ok {
		return mode.Pattern{}, fail(joinPath(path, "type"), MissingField)
	}
	var kind string
	if err := json.Unmarshal(typeRaw, &kind); err != nil {
		return mode.Pattern{}, fail(joinPath(path, "type"), InvalidVariant)
	}

	var duration uint32
	if durRaw, ok := obj["duration"]; ok {
		if err := json.Unmarshal(durRaw, &duration); err != nil {
			return mode.Pattern{}, fail(joinPath(path, "duration"), InvalidVariant)
		}
	}

	switch kind {
	case "simple":
		changeAtRaw, ok := obj["changeAt"]
		if !ok {
			return mode.Pattern{}, fail(joinPath(path, "changeAt"), MissingField)
		}
		var rawList []json.RawMessage
		if err := json.Unmarshal(changeAtRaw, &rawList); err != nil {
			return mode.Pattern{}, fail(joinPath(path, "changeAt"), InvalidVariant)
		}
		if len(rawList) > pattern.MaxChanges {
			return mode.Pattern{}, fail(joinPath(path, "changeAt"), ValueTooLarge)
		}
		var changes []pattern.ChangeAt
		for i, entryRaw := range rawList {
			entryPath := indexedPath(path, "changeAt", i)
			c, err := decodeChangeAt(entryRaw, entryPath)
			if err != nil {
				return mode.Pattern{}, err
			}
			changes = append(changes, c)
		}
		return mode.Pattern{
			Kind:   mode.PatternSimple,
			Simple: &pattern.SimplePattern{Duration: duration, ChangeAt: changes},
		}, nil

	case "equation":
		red, err := decodeChannel(obj, "red", path)
		if err != nil {
			return mode.Pattern{}, err
		}
		green, err := decodeChannel(obj, "green", path)
		if err != nil {
			return mode.Pattern{}, err
		}
		blue, err := decodeChannel(obj, "blue", path)
		if err != nil {
			return mode.Pattern{}, err
		}
		return mode.Pattern{
			Kind: mode.PatternEquation,
			Equation: &equation.Pattern{
				Duration: duration,
				Red:      red,
				Green:    green,
				Blue:     blue,
			},
		}, nil

	default:
		return mode.Pattern{}, fail(joinPath(path, "type"), InvalidVariant)
	}
}

func decodeChangeAt(data json.RawMessage, path string) (pattern.ChangeAt, error) {
	obj, err := rawObject(data, path)
	if err != nil {
		return pattern.ChangeAt{}, err
	}
	var ms uint32
	if msRaw, ok := obj["ms"]; ok {
		if err := json.Unmarshal(msRaw, &ms); err != nil {
			return pattern.ChangeAt{}, fail(joinPath(path, "ms"), InvalidVariant)
		}
	} else {
		return pattern.ChangeAt{}, fail(joinPath(path, "ms"), MissingField)
	}

	outputRaw, ok := obj["output"]
	if !ok {
		return pattern.ChangeAt{}, fail(joinPath(path, "output"), MissingField)
	}
	output, err := decodeOutput(outputRaw, joinPath(path, "output"))
	if err != nil {
		return pattern.ChangeAt{}, err
	}
	return pattern.ChangeAt{Ms: ms, Output: output}, nil
}

func decodeOutput(data json.RawMessage, path string) (pattern.SimpleOutput, error) {
	obj, err := rawObject(data, path)
	if err != nil {
		return pattern.SimpleOutput{}, err
	}
	typeRaw, ok := obj["type"]
	if !ok {
		return pattern.SimpleOutput{}, fail(joinPath(path, "type"), MissingField)
	}
	var kind string
	if err := json.Unmarshal(typeRaw, &kind); err != nil {
		return pattern.SimpleOutput{}, fail(joinPath(path, "type"), InvalidVariant)
	}

	switch kind {
	case "bulb":
		var high bool
		if highRaw, ok := obj["high"]; ok {
			if err := json.Unmarshal(highRaw, &high); err != nil {
				return pattern.SimpleOutput{}, fail(joinPath(path, "high"), InvalidVariant)
			}
		}
		return pattern.SimpleOutput{Kind: pattern.OutputBulb, BulbHigh: high}, nil
	case "rgb":
		r, err := decodeColorComponent(obj, "r", path)
		if err != nil {
			return pattern.SimpleOutput{}, err
		}
		g, err := decodeColorComponent(obj, "g", path)
		if err != nil {
			return pattern.SimpleOutput{}, err
		}
		b, err := decodeColorComponent(obj, "b", path)
		if err != nil {
			return pattern.SimpleOutput{}, err
		}
		return pattern.SimpleOutput{Kind: pattern.OutputRGB, R: r, G: g, B: b}, nil
	default:
		return pattern.SimpleOutput{}, fail(joinPath(path, "type"), InvalidVariant)
	}
}

func decodeColorComponent(obj map[string]json.RawMessage, field, path string) (uint8, error) {
	raw, ok := obj[field]
	if !ok {
		return 0, nil
	}
	var v uint8
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fail(joinPath(path, field), InvalidVariant)
	}
	return v, nil
}

func decodeChannel(obj map[string]json.RawMessage, field, parentPath string) (equation.ChannelConfig, error) {
	path := joinPath(parentPath, field)
	raw, ok := obj[field]
	if !ok {
		return equation.ChannelConfig{}, fail(path, MissingField)
	}
	channelObj, err := rawObject(raw, path)
	if err != nil {
		return equation.ChannelConfig{}, err
	}

	sectionsRaw, ok := channelObj["sections"]
	if !ok {
		return equation.ChannelConfig{}, fail(joinPath(path, "sections"), MissingField)
	}
	var rawSections []json.RawMessage
	if err := json.Unmarshal(sectionsRaw, &rawSections); err != nil {
		return equation.ChannelConfig{}, fail(joinPath(path, "sections"), InvalidVariant)
	}
	if len(rawSections) == 0 {
		return equation.ChannelConfig{}, fail(joinPath(path, "sections"), ArrayTooShort)
	}
	if len(rawSections) > equation.SectionsMax {
		return equation.ChannelConfig{}, fail(joinPath(path, "sections"), ValueTooLarge)
	}

	var sections []equation.Section
	for i, sectionRaw := range rawSections {
		sectionPath := indexedPath(path, "sections", i)
		s, err := decodeSection(sectionRaw, sectionPath)
		if err != nil {
			return equation.ChannelConfig{}, err
		}
		sections = append(sections, s)
	}

	var loop bool
	if loopRaw, ok := channelObj["loopAfterDuration"]; ok {
		if err := json.Unmarshal(loopRaw, &loop); err != nil {
			return equation.ChannelConfig{}, fail(joinPath(path, "loopAfterDuration"), InvalidVariant)
		}
	}

	return equation.ChannelConfig{Sections: sections, LoopAfterDuration: loop}, nil
}

func decodeSection(data json.RawMessage, path string) (equation.Section, error) {
	obj, err := rawObject(data, path)
	if err != nil {
		return equation.Section{}, err
	}
	var duration uint32
	if durRaw, ok := obj["duration"]; ok {
		if err := json.Unmarshal(durRaw, &duration); err != nil {
			return equation.Section{}, fail(joinPath(path, "duration"), InvalidVariant)
		}
	} else {
		return equation.Section{}, fail(joinPath(path, "duration"), MissingField)
	}

	eqRaw, ok := obj["equation"]
	if !ok {
		return equation.Section{}, fail(joinPath(path, "equation"), MissingField)
	}
	var eq string
	if err := json.Unmarshal(eqRaw, &eq); err != nil {
		return equation.Section{}, fail(joinPath(path, "equation"), InvalidVariant)
	}
	if len(eq) == 0 {
		return equation.Section{}, fail(joinPath(path, "equation"), StringTooShort)
	}

	return equation.Section{Duration: duration, Equation: eq}, nil
}

func decodeAccel(data json.RawMessage, path string) (*mode.AccelConfig, error) {
	obj, err := rawObject(data, path)
	if err != nil {
		return nil, err
	}
	triggersRaw, ok := obj["triggers"]
	if !ok {
		return nil, fail(joinPath(path, "triggers"), MissingField)
	}
	var rawList []json.RawMessage
	if err := json.Unmarshal(triggersRaw, &rawList); err != nil {
		return nil, fail(joinPath(path, "triggers"), InvalidVariant)
	}
	if len(rawList) > mode.MaxAccelTriggers {
		return nil, fail(joinPath(path, "triggers"), ValueTooLarge)
	}

	var triggers []mode.AccelTrigger
	for i, entryRaw := range rawList {
		entryPath := indexedPath(path, "triggers", i)
		t, err := decodeTrigger(entryRaw, entryPath)
		if err != nil {
			return nil, err
		}
		triggers = append(triggers, t)
	}

	cfg := &mode.AccelConfig{Triggers: triggers}
	if !cfg.ValidateAscending() {
		return nil, fail(joinPath(path, "triggers"), ValidationFailed)
	}
	return cfg, nil
}

func decodeTrigger(data json.RawMessage, path string) (mode.AccelTrigger, error) {
	obj, err := rawObject(data, path)
	if err != nil {
		return mode.AccelTrigger{}, err
	}
	thresholdRaw, ok := obj["threshold"]
	if !ok {
		return mode.AccelTrigger{}, fail(joinPath(path, "threshold"), MissingField)
	}
	var threshold uint8
	if err := json.Unmarshal(thresholdRaw, &threshold); err != nil {
		return mode.AccelTrigger{}, fail(joinPath(path, "threshold"), InvalidVariant)
	}

	trig := mode.AccelTrigger{Threshold: threshold}
	if frontRaw, ok := obj["front"]; ok {
		front, err := decodeComponent(frontRaw, joinPath(path, "front"))
		if err != nil {
			return mode.AccelTrigger{}, err
		}
		trig.Front = front
	}
	if caseRaw, ok := obj["caseComp"]; ok {
		caseComp, err := decodeComponent(caseRaw, joinPath(path, "caseComp"))
		if err != nil {
			return mode.AccelTrigger{}, err
		}
		trig.Case = caseComp
	}
	return trig, nil
}
