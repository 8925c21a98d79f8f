package models

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultStatus is the systemStatus label of a freshly initialized controller.
const DefaultStatus = "Off"

// Actuator is a controllable output with PID parameters.
type Actuator struct {
	Name     string  `json:"name"`
	Online   bool    `json:"online"`
	Auto     bool    `json:"auto"`
	P        float64 `json:"p"`
	I        float64 `json:"i"`
	D        float64 `json:"d"`
	Setpoint float64 `json:"setpoint"`
	Actual   float64 `json:"actual"`
}

type Pump struct {
	Name   string `json:"name"`
	Online bool   `json:"online"`
}

type WaterLevelSwitch struct {
	Name   string `json:"name"`
	Online bool   `json:"online"`
}

// EnvironmentSensor holds the last reported reading as text. The value is
// never persisted.
type EnvironmentSensor struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SystemOverview is the controller-wide singleton.
type SystemOverview struct {
	Started              bool    `json:"started"`
	DevMode              bool    `json:"dev_mode"`
	AverageTemperature   float64 `json:"average_temperature"`
	AverageHumidity      float64 `json:"average_humidity"`
	CarbonDioxideReading float64 `json:"carbon_dioxide_reading"`
	CurrentAmps          float64 `json:"current_amps"`
	MaxCurrentValue      float64 `json:"max_current_value"`
	SystemStatus         string  `json:"system_status"`
}

// Names lists the devices known at build/config time. Membership never changes
// at runtime.
type Names struct {
	Actuators   []string `json:"actuators" mapstructure:"actuators"`
	Pumps       []string `json:"pumps" mapstructure:"pumps"`
	WaterLevels []string `json:"water_levels" mapstructure:"water_levels"`
	Sensors     []string `json:"sensors" mapstructure:"sensors"`
}

// DefaultNames returns the device set of the deployed controller board.
func DefaultNames() Names {
	n := Names{
		Actuators: []string{"FrontLeft", "FrontRight", "BackLeft", "BackRight", "Center"},
	}
	for i := 1; i <= 5; i++ {
		n.Actuators = append(n.Actuators, fmt.Sprintf("Humidity%d", i))
		n.Pumps = append(n.Pumps, fmt.Sprintf("Pump%d", i))
		n.WaterLevels = append(n.WaterLevels, fmt.Sprintf("waterLevelSensor%d", i))
	}
	for i := 1; i <= 8; i++ {
		n.Sensors = append(n.Sensors, fmt.Sprintf("tempsensor%d", i))
	}
	for i := 1; i <= 8; i++ {
		n.Sensors = append(n.Sensors, fmt.Sprintf("humsensor%d", i))
	}
	return n
}

var errInvalidNames = errors.New("invalid device names")

// Validate checks that every group has unique, non-empty names without
// whitespace, which the flat state file relies on.
func (n Names) Validate() error {
	groups := []struct {
		kind  string
		names []string
	}{
		{"actuator", n.Actuators},
		{"pump", n.Pumps},
		{"water level", n.WaterLevels},
		{"sensor", n.Sensors},
	}
	for _, g := range groups {
		seen := make(map[string]struct{}, len(g.names))
		for _, name := range g.names {
			if name == "" {
				return fmt.Errorf("%w: empty %s name", errInvalidNames, g.kind)
			}
			if strings.ContainsAny(name, " \t\r\n") {
				return fmt.Errorf("%w: %s name %q contains whitespace", errInvalidNames, g.kind, name)
			}
			if _, dup := seen[name]; dup {
				return fmt.Errorf("%w: duplicate %s name %q", errInvalidNames, g.kind, name)
			}
			seen[name] = struct{}{}
		}
	}
	return nil
}

func (n Names) clone() Names {
	return Names{
		Actuators:   append([]string(nil), n.Actuators...),
		Pumps:       append([]string(nil), n.Pumps...),
		WaterLevels: append([]string(nil), n.WaterLevels...),
		Sensors:     append([]string(nil), n.Sensors...),
	}
}

// State is the authoritative device model. It has no internal locking; the
// controller service serializes every access.
type State struct {
	names Names

	Overview    SystemOverview      `json:"overview"`
	Actuators   []Actuator          `json:"actuators"`
	Pumps       []Pump              `json:"pumps"`
	WaterLevels []WaterLevelSwitch  `json:"water_levels"`
	Sensors     []EnvironmentSensor `json:"sensors"`
}

// NewState builds a model for the given names with default values.
func NewState(names Names) *State {
	s := &State{names: names.clone()}
	s.InitializeDefaults()
	return s
}

// Names returns a copy of the configured device names.
func (s *State) Names() Names { return s.names.clone() }

// InitializeDefaults clears all values and repopulates every configured entity
// with zero/false/empty values.
func (s *State) InitializeDefaults() {
	s.Overview = SystemOverview{SystemStatus: DefaultStatus}

	s.Actuators = make([]Actuator, 0, len(s.names.Actuators))
	for _, name := range s.names.Actuators {
		s.Actuators = append(s.Actuators, Actuator{Name: name})
	}
	s.Pumps = make([]Pump, 0, len(s.names.Pumps))
	for _, name := range s.names.Pumps {
		s.Pumps = append(s.Pumps, Pump{Name: name})
	}
	s.WaterLevels = make([]WaterLevelSwitch, 0, len(s.names.WaterLevels))
	for _, name := range s.names.WaterLevels {
		s.WaterLevels = append(s.WaterLevels, WaterLevelSwitch{Name: name})
	}
	s.Sensors = make([]EnvironmentSensor, 0, len(s.names.Sensors))
	for _, name := range s.names.Sensors {
		s.Sensors = append(s.Sensors, EnvironmentSensor{Name: name})
	}
}

// Actuator returns the named actuator, or nil when the name is not configured.
func (s *State) Actuator(name string) *Actuator {
	for i := range s.Actuators {
		if s.Actuators[i].Name == name {
			return &s.Actuators[i]
		}
	}
	return nil
}

func (s *State) Pump(name string) *Pump {
	for i := range s.Pumps {
		if s.Pumps[i].Name == name {
			return &s.Pumps[i]
		}
	}
	return nil
}

func (s *State) WaterLevel(name string) *WaterLevelSwitch {
	for i := range s.WaterLevels {
		if s.WaterLevels[i].Name == name {
			return &s.WaterLevels[i]
		}
	}
	return nil
}

func (s *State) Sensor(name string) *EnvironmentSensor {
	for i := range s.Sensors {
		if s.Sensors[i].Name == name {
			return &s.Sensors[i]
		}
	}
	return nil
}

// Clone returns a deep copy that shares no storage with s.
func (s *State) Clone() *State {
	return &State{
		names:       s.names.clone(),
		Overview:    s.Overview,
		Actuators:   append([]Actuator(nil), s.Actuators...),
		Pumps:       append([]Pump(nil), s.Pumps...),
		WaterLevels: append([]WaterLevelSwitch(nil), s.WaterLevels...),
		Sensors:     append([]EnvironmentSensor(nil), s.Sensors...),
	}
}
