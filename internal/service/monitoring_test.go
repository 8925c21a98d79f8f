package service

import (
	"context"
	"testing"

	"environment_controller/internal/models"
)

func TestMonitoringService_GetState_ReturnsCopy(t *testing.T) {
	t.Parallel()

	f := newFixture(ControllerOptions{})
	svc := NewMonitoringService(f.ctrl)

	st, err := svc.GetState(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Overview.SystemStatus != models.DefaultStatus {
		t.Errorf("SystemStatus: want %q, got %q", models.DefaultStatus, st.Overview.SystemStatus)
	}

	st.Actuator("Heater").Online = true
	if f.ctrl.Clone().Actuator("Heater").Online {
		t.Fatalf("mutating the returned state must not touch the live model")
	}
}

func TestMonitoringService_GetState_CanceledContext(t *testing.T) {
	t.Parallel()

	svc := NewMonitoringService(newFixture(ControllerOptions{}).ctrl)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.GetState(ctx); err == nil {
		t.Fatalf("expected error for canceled context")
	}
	if _, err := svc.Status(ctx); err == nil {
		t.Fatalf("expected error for canceled context")
	}
}

func TestMonitoringService_Status(t *testing.T) {
	t.Parallel()

	f := newFixture(ControllerOptions{})
	f.out.clients = 3
	mustHandle(t, f.ctrl,
		`{"id":"LogStart"}`,
		`{"id":"LogActuatorPower","name":"Fan"}`,
		`{"id":"LogPumpStatus","name":"Pump1"}`,
		`{"id":"UpdateSystemOverview","name":"systemStatus","value":"Running"}`,
	)

	got, err := NewMonitoringService(f.ctrl).Status(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Status{
		Started:         true,
		SystemStatus:    "Running",
		Clients:         3,
		SnapshotLength:  2 + 6 + 1 + 1 + 1 + 5*2,
		Actuators:       2,
		ActuatorsOnline: 1,
		PumpsOnline:     1,
	}
	if got != want {
		t.Fatalf("Status:\n got  %+v\n want %+v", got, want)
	}
}
