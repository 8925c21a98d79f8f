package protocol

import "encoding/json"

// Update is the wire form of every outbound canonical message. Field order
// follows what clients already parse: id, name, state, value, P, I, D.
type Update struct {
	ID    ID       `json:"id"`
	Name  string   `json:"name,omitempty"`
	State string   `json:"state,omitempty"`
	Value any      `json:"value,omitempty"`
	P     *float64 `json:"P,omitempty"`
	I     *float64 `json:"I,omitempty"`
	D     *float64 `json:"D,omitempty"`
}

// Empty is the outbound payload when a message produces no state change.
var Empty = []byte("{}")

// OnOff renders a flag as the On/Off literal.
func OnOff(b bool) string {
	if b {
		return StateOn
	}
	return StateOff
}

// AutoManual renders an auto-mode flag as the Auto/Manual literal.
func AutoManual(b bool) string {
	if b {
		return StateAuto
	}
	return StateManual
}

// Gains builds the P/I/D fields of an UpdatePIDInput message.
func Gains(name string, p, i, d float64) Update {
	return Update{ID: IDUpdatePIDInput, Name: name, P: &p, I: &i, D: &d}
}

// Marshal encodes a single outbound message.
func Marshal(u Update) ([]byte, error) {
	return json.Marshal(u)
}

// MarshalBatch encodes messages as one JSON array frame.
func MarshalBatch(us []Update) ([]byte, error) {
	if us == nil {
		us = []Update{}
	}
	return json.Marshal(us)
}
