package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ErrMalformedMessage is returned for payloads that cannot be mapped onto a
// route: not a JSON object, no id, or a required field missing or ill-typed.
var ErrMalformedMessage = errors.New("malformed message")

type wireMessage struct {
	ID    *string         `json:"id"`
	Name  *string         `json:"name"`
	State *string         `json:"state"`
	Value json.RawMessage `json:"value"`
	P     json.RawMessage `json:"P"`
	I     json.RawMessage `json:"I"`
	D     json.RawMessage `json:"D"`
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedMessage, fmt.Sprintf(format, args...))
}

// Decode parses one inbound payload into its route variant.
func Decode(payload []byte) (Message, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, malformed("payload is not a JSON object")
	}
	var w wireMessage
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return nil, malformed("%v", err)
	}
	if w.ID == nil || *w.ID == "" {
		return nil, malformed("missing id")
	}
	r := raw(append([]byte(nil), payload...))

	switch ID(*w.ID) {
	case IDUpdateActuatorPower:
		name, on, err := nameAndState(w, StateOn, StateOff)
		if err != nil {
			return nil, err
		}
		return UpdateActuatorPower{raw: r, Name: name, On: on}, nil
	case IDUpdateActuatorMode:
		name, auto, err := nameAndState(w, StateAuto, StateManual)
		if err != nil {
			return nil, err
		}
		return UpdateActuatorMode{raw: r, Name: name, Auto: auto}, nil
	case IDUpdatePIDInput:
		name, p, i, d, err := nameAndGains(w)
		if err != nil {
			return nil, err
		}
		return UpdatePIDInput{raw: r, Name: name, P: p, I: i, D: d}, nil
	case IDUpdatePIDSetpoint:
		name, v, err := nameAndNumber(w)
		if err != nil {
			return nil, err
		}
		return UpdatePIDSetpoint{raw: r, Name: name, Value: v}, nil
	case IDUpdatePIDActual:
		name, v, err := nameAndNumber(w)
		if err != nil {
			return nil, err
		}
		return UpdatePIDActual{raw: r, Name: name, Value: v}, nil
	case IDUpdateSystemOverview:
		name, err := requireName(w)
		if err != nil {
			return nil, err
		}
		v, err := parseValue(w.Value)
		if err != nil {
			return nil, err
		}
		switch {
		case name == OverviewSystemStatus:
			if err := checkStatusText(v.Text); err != nil {
				return nil, err
			}
		case !v.IsNumber:
			n, ok := parseFinite(v.Text)
			if !ok {
				return nil, malformed("overview field %q needs a numeric value", name)
			}
			v.Number = n
		}
		return UpdateSystemOverview{raw: r, Name: name, Value: v}, nil
	case IDUpdateEnvironmentSensor:
		name, err := requireName(w)
		if err != nil {
			return nil, err
		}
		v, err := parseValue(w.Value)
		if err != nil {
			return nil, err
		}
		return UpdateEnvironmentSensor{raw: r, Name: name, Value: v.Text}, nil
	case IDUpdatePumpStatus:
		name, on, err := nameAndState(w, StateOn, StateOff)
		if err != nil {
			return nil, err
		}
		return UpdatePumpStatus{raw: r, Name: name, On: on}, nil
	case IDUpdateWaterLevel:
		name, on, err := nameAndState(w, StateOn, StateOff)
		if err != nil {
			return nil, err
		}
		return UpdateWaterLevel{raw: r, Name: name, On: on}, nil
	case IDUpdateDevMode:
		on, err := requireState(w, StateOn, StateOff)
		if err != nil {
			return nil, err
		}
		return UpdateDevMode{raw: r, On: on}, nil
	case IDUpdateStart:
		return UpdateStart{raw: r}, nil
	case IDUpdateStop:
		return UpdateStop{raw: r}, nil
	case IDLogStart:
		return LogStart{raw: r}, nil
	case IDLogStop:
		return LogStop{raw: r}, nil
	case IDLogDeveloperMode:
		return LogDeveloperMode{raw: r}, nil
	case IDLogPumpStatus:
		name, err := requireName(w)
		if err != nil {
			return nil, err
		}
		return LogPumpStatus{raw: r, Name: name}, nil
	case IDLogActuatorPower:
		name, err := requireName(w)
		if err != nil {
			return nil, err
		}
		return LogActuatorPower{raw: r, Name: name}, nil
	case IDLogActuatorMode:
		name, err := requireName(w)
		if err != nil {
			return nil, err
		}
		return LogActuatorMode{raw: r, Name: name}, nil
	case IDLogActuatorPID:
		name, p, i, d, err := nameAndGains(w)
		if err != nil {
			return nil, err
		}
		return LogActuatorPID{raw: r, Name: name, P: p, I: i, D: d}, nil
	case IDLogActuatorSetpoint:
		name, v, err := nameAndNumber(w)
		if err != nil {
			return nil, err
		}
		return LogActuatorSetpoint{raw: r, Name: name, Value: v}, nil
	default:
		return Unrecognized{raw: r, RawID: *w.ID}, nil
	}
}

func requireName(w wireMessage) (string, error) {
	if w.Name == nil || *w.Name == "" {
		return "", malformed("%s: missing name", *w.ID)
	}
	return *w.Name, nil
}

// requireState maps the route's (true, false) literal pair onto a bool.
func requireState(w wireMessage, whenTrue, whenFalse string) (bool, error) {
	if w.State == nil {
		return false, malformed("%s: missing state", *w.ID)
	}
	switch *w.State {
	case whenTrue:
		return true, nil
	case whenFalse:
		return false, nil
	}
	return false, malformed("%s: state %q is not %q or %q", *w.ID, *w.State, whenTrue, whenFalse)
}

func nameAndState(w wireMessage, whenTrue, whenFalse string) (string, bool, error) {
	name, err := requireName(w)
	if err != nil {
		return "", false, err
	}
	b, err := requireState(w, whenTrue, whenFalse)
	return name, b, err
}

func nameAndNumber(w wireMessage) (string, float64, error) {
	name, err := requireName(w)
	if err != nil {
		return "", 0, err
	}
	v, err := parseNumber(w.Value, "value")
	return name, v, err
}

func nameAndGains(w wireMessage) (name string, p, i, d float64, err error) {
	if name, err = requireName(w); err != nil {
		return
	}
	if p, err = parseNumber(w.P, "P"); err != nil {
		return
	}
	if i, err = parseNumber(w.I, "I"); err != nil {
		return
	}
	d, err = parseNumber(w.D, "D")
	return
}

// parseNumber accepts a JSON number or a string holding one.
func parseNumber(field json.RawMessage, label string) (float64, error) {
	v, err := parseValue(field)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", label, err)
	}
	if v.IsNumber {
		return v.Number, nil
	}
	n, ok := parseFinite(v.Text)
	if !ok {
		return 0, malformed("%s: %q is not a number", label, v.Text)
	}
	return n, nil
}

// parseFinite parses a numeric string. NaN and the infinities are refused:
// they cannot be encoded back onto the wire.
func parseFinite(text string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// checkStatusText keeps the status label to a single line without
// surrounding whitespace so it survives the line-based state file.
func checkStatusText(text string) error {
	if strings.IndexFunc(text, unicode.IsControl) >= 0 {
		return malformed("systemStatus must not contain control characters")
	}
	if strings.TrimSpace(text) != text {
		return malformed("systemStatus must not start or end with whitespace")
	}
	return nil
}

func parseValue(field json.RawMessage) (Value, error) {
	field = bytes.TrimSpace(field)
	if len(field) == 0 || bytes.Equal(field, []byte("null")) {
		return Value{}, malformed("missing value")
	}
	switch field[0] {
	case '"':
		var s string
		if err := json.Unmarshal(field, &s); err != nil {
			return Value{}, malformed("%v", err)
		}
		return Value{Text: s}, nil
	case '{', '[', 't', 'f':
		return Value{}, malformed("value must be a number or string")
	}
	var n float64
	if err := json.Unmarshal(field, &n); err != nil {
		return Value{}, malformed("%v", err)
	}
	return Value{Number: n, Text: string(field), IsNumber: true}, nil
}
