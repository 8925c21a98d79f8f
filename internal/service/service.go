package service

import (
	"context"
	"time"

	"environment_controller/internal/hub"
	"environment_controller/internal/models"
	"environment_controller/internal/protocol"
)

// Controller owns the device model and is the only path that mutates it.
type Controller interface {
	hub.Handler
	// HandleMessage dispatches one inbound payload and broadcasts the result.
	HandleMessage(ctx context.Context, payload []byte, origin string) (Outcome, error)
	// Snapshot returns the canonical messages describing the current model.
	Snapshot() []protocol.Update
	// Persist saves the model once.
	Persist(ctx context.Context, reason string) error
}

// Monitoring exposes read-only views of the model.
type Monitoring interface {
	GetState(ctx context.Context) (*models.State, error)
	Status(ctx context.Context) (Status, error)
}

// EventLog exposes the journal with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.ControllerEvent, error)
}

// Simulator runs the bench loop that stands in for real actuators.
// Stop via context cancellation in main() for graceful shutdown.
type Simulator interface {
	Run(ctx context.Context, tick time.Duration)
}

// Service aggregates all sub-services.
type Service struct {
	Controller
	Monitoring
	EventLog
	Simulator
}

// NewService composes the sub-services around one controller.
func NewService(ctrl *ControllerService) *Service {
	return &Service{
		Controller: ctrl,
		Monitoring: NewMonitoringService(ctrl),
		EventLog:   NewEventLogService(ctrl.events),
		Simulator:  NewSimulatorService(ctrl, ctrl.events, ctrl.log),
	}
}
