// Package snapshot rebuilds the full device model as the ordered list of
// canonical messages a newly connected client replays.
package snapshot

import (
	"fmt"

	"environment_controller/internal/models"
	"environment_controller/internal/protocol"
)

// Len is the number of messages Build produces for s.
func Len(s *models.State) int {
	return 2 + 6 + len(s.Sensors) + len(s.Pumps) + len(s.WaterLevels) + 5*len(s.Actuators)
}

// Build returns the canonical messages for s in replay order.
func Build(s *models.State) []protocol.Update {
	out := make([]protocol.Update, 0, Len(s))
	o := s.Overview

	if o.Started {
		out = append(out, protocol.Update{ID: protocol.IDUpdateStart})
	} else {
		out = append(out, protocol.Update{ID: protocol.IDUpdateStop})
	}
	out = append(out, protocol.Update{ID: protocol.IDUpdateDevMode, State: protocol.OnOff(o.DevMode)})

	overview := func(name string, v any) protocol.Update {
		return protocol.Update{ID: protocol.IDUpdateSystemOverview, Name: name, Value: v}
	}
	out = append(out,
		overview(protocol.OverviewAverageTemperature, o.AverageTemperature),
		overview(protocol.OverviewAverageHumidity, o.AverageHumidity),
		overview(protocol.OverviewCarbonDioxideReading, o.CarbonDioxideReading),
		overview(protocol.OverviewCurrentAmps, o.CurrentAmps),
		overview(protocol.OverviewSystemStatus, o.SystemStatus),
		overview(protocol.OverviewMaxCurrentValue, o.MaxCurrentValue),
	)

	for _, sn := range s.Sensors {
		out = append(out, protocol.Update{ID: protocol.IDUpdateEnvironmentSensor, Name: sn.Name, Value: sn.Value})
	}
	for _, p := range s.Pumps {
		out = append(out, protocol.Update{ID: protocol.IDUpdatePumpStatus, Name: p.Name, State: protocol.OnOff(p.Online)})
	}
	for _, w := range s.WaterLevels {
		out = append(out, protocol.Update{ID: protocol.IDUpdateWaterLevel, Name: w.Name, State: protocol.OnOff(w.Online)})
	}
	for _, a := range s.Actuators {
		out = append(out,
			protocol.Update{ID: protocol.IDUpdateActuatorPower, Name: a.Name, State: protocol.OnOff(a.Online)},
			protocol.Update{ID: protocol.IDUpdateActuatorMode, Name: a.Name, State: protocol.AutoManual(a.Auto)},
			protocol.Gains(a.Name, a.P, a.I, a.D),
			protocol.Update{ID: protocol.IDUpdatePIDSetpoint, Name: a.Name, Value: a.Setpoint},
			protocol.Update{ID: protocol.IDUpdatePIDActual, Name: a.Name, Value: a.Actual},
		)
	}
	return out
}

// Frames encodes the snapshot for delivery: one JSON array frame when batch
// is set, otherwise one frame per message.
func Frames(s *models.State, batch bool) ([][]byte, error) {
	msgs := Build(s)
	if batch {
		b, err := protocol.MarshalBatch(msgs)
		if err != nil {
			return nil, fmt.Errorf("encode snapshot: %w", err)
		}
		return [][]byte{b}, nil
	}
	frames := make([][]byte, 0, len(msgs))
	for _, m := range msgs {
		b, err := protocol.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("encode snapshot %s: %w", m.ID, err)
		}
		frames = append(frames, b)
	}
	return frames, nil
}
