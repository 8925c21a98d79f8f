package dispatch

import (
	"fmt"

	"environment_controller/internal/models"
	"environment_controller/internal/protocol"
)

// Result is the outcome of dispatching one message.
type Result struct {
	// Payload is broadcast to every client. It is protocol.Empty when the
	// message produced no state change.
	Payload []byte
	// Canonical is true when Payload is the inbound message echoed verbatim.
	Canonical bool
	// Applied is true when a model field was written.
	Applied bool
	// UnknownName is the target name when it matched no configured entity.
	UnknownName string
}

// Dispatcher applies decoded messages to a State it does not own. Callers
// serialize access.
type Dispatcher struct {
	state *models.State
}

func New(state *models.State) *Dispatcher {
	return &Dispatcher{state: state}
}

// DispatchRaw decodes payload and dispatches it. Malformed payloads return
// protocol.ErrMalformedMessage and leave the model untouched.
func (d *Dispatcher) DispatchRaw(payload []byte) (protocol.Message, Result, error) {
	msg, err := protocol.Decode(payload)
	if err != nil {
		return nil, Result{}, err
	}
	res, err := d.Dispatch(msg)
	return msg, res, err
}

// Dispatch applies msg and builds the outbound payload.
func (d *Dispatcher) Dispatch(msg protocol.Message) (Result, error) {
	if protocol.Canonical(msg) {
		applied, unknown := d.applyCanonical(msg)
		return Result{
			Payload:     msg.Raw(),
			Canonical:   true,
			Applied:     applied,
			UnknownName: unknown,
		}, nil
	}

	out, commit, unknown, ok := d.planIntent(msg)
	if !ok {
		return Result{Payload: protocol.Empty, UnknownName: unknown}, nil
	}
	// encode before committing so a payload that cannot be sent leaves the
	// model untouched
	b, err := protocol.Marshal(out)
	if err != nil {
		return Result{}, fmt.Errorf("encode %s: %w", out.ID, err)
	}
	commit()
	return Result{Payload: b, Applied: true}, nil
}

// applyCanonical writes the fields named by an Update message. It returns
// whether a field was written and, for a missed lookup, the unknown name.
func (d *Dispatcher) applyCanonical(msg protocol.Message) (bool, string) {
	s := d.state
	switch m := msg.(type) {
	case protocol.UpdateActuatorPower:
		a := s.Actuator(m.Name)
		if a == nil {
			return false, m.Name
		}
		a.Online = m.On
	case protocol.UpdateActuatorMode:
		a := s.Actuator(m.Name)
		if a == nil {
			return false, m.Name
		}
		a.Auto = m.Auto
	case protocol.UpdatePIDInput:
		a := s.Actuator(m.Name)
		if a == nil {
			return false, m.Name
		}
		a.P, a.I, a.D = m.P, m.I, m.D
	case protocol.UpdatePIDSetpoint:
		a := s.Actuator(m.Name)
		if a == nil {
			return false, m.Name
		}
		a.Setpoint = m.Value
	case protocol.UpdatePIDActual:
		a := s.Actuator(m.Name)
		if a == nil {
			return false, m.Name
		}
		a.Actual = m.Value
	case protocol.UpdateSystemOverview:
		if !applyOverview(&s.Overview, m.Name, m.Value) {
			return false, m.Name
		}
	case protocol.UpdateEnvironmentSensor:
		sn := s.Sensor(m.Name)
		if sn == nil {
			return false, m.Name
		}
		sn.Value = m.Value
	case protocol.UpdatePumpStatus:
		p := s.Pump(m.Name)
		if p == nil {
			return false, m.Name
		}
		p.Online = m.On
	case protocol.UpdateWaterLevel:
		w := s.WaterLevel(m.Name)
		if w == nil {
			return false, m.Name
		}
		w.Online = m.On
	case protocol.UpdateDevMode:
		s.Overview.DevMode = m.On
	case protocol.UpdateStart:
		s.Overview.Started = true
	case protocol.UpdateStop:
		s.Overview.Started = false
	default:
		return false, ""
	}
	return true, ""
}

func applyOverview(o *models.SystemOverview, name string, v protocol.Value) bool {
	switch name {
	case protocol.OverviewAverageTemperature:
		o.AverageTemperature = v.Number
	case protocol.OverviewAverageHumidity:
		o.AverageHumidity = v.Number
	case protocol.OverviewCarbonDioxideReading:
		o.CarbonDioxideReading = v.Number
	case protocol.OverviewCurrentAmps:
		o.CurrentAmps = v.Number
	case protocol.OverviewSystemStatus:
		o.SystemStatus = v.Text
	case protocol.OverviewMaxCurrentValue:
		o.MaxCurrentValue = v.Number
	default:
		return false
	}
	return true
}

// planIntent works out the state an intent settles into and returns the
// canonical message describing it along with a commit that writes it. ok is
// false when the intent targets nothing.
func (d *Dispatcher) planIntent(msg protocol.Message) (out protocol.Update, commit func(), unknown string, ok bool) {
	s := d.state
	switch m := msg.(type) {
	case protocol.LogStart:
		return protocol.Update{ID: protocol.IDUpdateStart},
			func() { s.Overview.Started = true }, "", true
	case protocol.LogStop:
		return protocol.Update{ID: protocol.IDUpdateStop},
			func() { s.Overview.Started = false }, "", true
	case protocol.LogDeveloperMode:
		on := !s.Overview.DevMode
		return protocol.Update{ID: protocol.IDUpdateDevMode, State: protocol.OnOff(on)},
			func() { s.Overview.DevMode = on }, "", true
	case protocol.LogPumpStatus:
		p := s.Pump(m.Name)
		if p == nil {
			return out, nil, m.Name, false
		}
		on := !p.Online
		return protocol.Update{ID: protocol.IDUpdatePumpStatus, Name: p.Name, State: protocol.OnOff(on)},
			func() { p.Online = on }, "", true
	case protocol.LogActuatorPower:
		a := s.Actuator(m.Name)
		if a == nil {
			return out, nil, m.Name, false
		}
		on := !a.Online
		return protocol.Update{ID: protocol.IDUpdateActuatorPower, Name: a.Name, State: protocol.OnOff(on)},
			func() { a.Online = on }, "", true
	case protocol.LogActuatorMode:
		a := s.Actuator(m.Name)
		if a == nil {
			return out, nil, m.Name, false
		}
		auto := !a.Auto
		return protocol.Update{ID: protocol.IDUpdateActuatorMode, Name: a.Name, State: protocol.AutoManual(auto)},
			func() { a.Auto = auto }, "", true
	case protocol.LogActuatorPID:
		a := s.Actuator(m.Name)
		if a == nil {
			return out, nil, m.Name, false
		}
		return protocol.Gains(a.Name, m.P, m.I, m.D),
			func() { a.P, a.I, a.D = m.P, m.I, m.D }, "", true
	case protocol.LogActuatorSetpoint:
		a := s.Actuator(m.Name)
		if a == nil {
			return out, nil, m.Name, false
		}
		return protocol.Update{ID: protocol.IDUpdatePIDSetpoint, Name: a.Name, Value: m.Value},
			func() { a.Setpoint = m.Value }, "", true
	}
	return out, nil, "", false
}
