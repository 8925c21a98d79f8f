package snapshot

import (
	"encoding/json"
	"testing"

	"environment_controller/internal/dispatch"
	"environment_controller/internal/models"
	"environment_controller/internal/protocol"

	"github.com/stretchr/testify/require"
)

func populated() *models.State {
	s := models.NewState(models.Names{
		Actuators:   []string{"Heater", "Fan", "Mister"},
		Pumps:       []string{"Pump1", "Pump2"},
		WaterLevels: []string{"waterLevelSensor1"},
		Sensors:     []string{"tempsensor1", "humsensor1", "humsensor2"},
	})
	s.Overview = models.SystemOverview{
		Started:              true,
		AverageTemperature:   22.5,
		AverageHumidity:      40,
		CarbonDioxideReading: 415,
		CurrentAmps:          3.75,
		MaxCurrentValue:      16,
		SystemStatus:         "Heating zone 2",
	}
	*s.Actuator("Fan") = models.Actuator{Name: "Fan", Online: true, Auto: true, P: 1, I: 0.5, D: 0.25, Setpoint: 21.5, Actual: 20}
	s.Pump("Pump2").Online = true
	s.WaterLevel("waterLevelSensor1").Online = true
	s.Sensor("humsensor2").Value = "55.2"
	return s
}

func TestBuild_CountMatchesFormula(t *testing.T) {
	s := populated()
	msgs := Build(s)
	require.Len(t, msgs, 2+6+3+2+1+5*3)
	require.Len(t, msgs, Len(s))

	empty := models.NewState(models.Names{})
	require.Len(t, Build(empty), 8)
}

func TestBuild_Order(t *testing.T) {
	msgs := Build(populated())
	ids := make([]protocol.ID, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}

	want := []protocol.ID{protocol.IDUpdateStart, protocol.IDUpdateDevMode}
	for i := 0; i < 6; i++ {
		want = append(want, protocol.IDUpdateSystemOverview)
	}
	for i := 0; i < 3; i++ {
		want = append(want, protocol.IDUpdateEnvironmentSensor)
	}
	want = append(want, protocol.IDUpdatePumpStatus, protocol.IDUpdatePumpStatus, protocol.IDUpdateWaterLevel)
	for i := 0; i < 3; i++ {
		want = append(want,
			protocol.IDUpdateActuatorPower, protocol.IDUpdateActuatorMode, protocol.IDUpdatePIDInput,
			protocol.IDUpdatePIDSetpoint, protocol.IDUpdatePIDActual)
	}
	require.Equal(t, want, ids)

	names := []string{msgs[2].Name, msgs[3].Name, msgs[4].Name, msgs[5].Name, msgs[6].Name, msgs[7].Name}
	require.Equal(t, []string{
		"averageTemperature", "averageHumidity", "carbonDioxideReading",
		"currentAmps", "systemStatus", "maxCurrentValue",
	}, names)
}

func TestBuild_StoppedStateStartsWithUpdateStop(t *testing.T) {
	s := populated()
	s.Overview.Started = false
	require.Equal(t, protocol.IDUpdateStop, Build(s)[0].ID)
}

// Replaying a snapshot through the dispatcher onto a fresh model must
// reproduce the source model exactly.
func TestBuild_ReplayReconstructsState(t *testing.T) {
	src := populated()
	frames, err := Frames(src, false)
	require.NoError(t, err)

	dst := models.NewState(src.Names())
	d := dispatch.New(dst)
	for _, f := range frames {
		_, res, err := d.DispatchRaw(f)
		require.NoError(t, err, string(f))
		require.True(t, res.Canonical)
		require.Empty(t, res.UnknownName)
	}
	require.Equal(t, src, dst)
}

func TestFrames_Batch(t *testing.T) {
	s := populated()
	frames, err := Frames(s, true)
	require.NoError(t, err)
	require.Len(t, frames, 1)

	var arr []map[string]any
	require.NoError(t, json.Unmarshal(frames[0], &arr))
	require.Len(t, arr, Len(s))
	require.Equal(t, map[string]any{"id": "UpdateStart"}, arr[0])
	require.Equal(t, map[string]any{"id": "UpdateSystemOverview", "name": "systemStatus", "value": "Heating zone 2"}, arr[6])
}

func TestFrames_DefaultSensorValueIsEmptyString(t *testing.T) {
	frames, err := Frames(populated(), false)
	require.NoError(t, err)
	require.Equal(t, `{"id":"UpdateEnvironmentSensor","name":"tempsensor1","value":""}`, string(frames[8]))
	require.Equal(t, `{"id":"UpdatePIDInput","name":"Fan","P":1,"I":0.5,"D":0.25}`, string(frames[8+3+2+1+5+2]))
}
