package service

import (
	"context"
	"math"
	"time"

	"environment_controller/internal/logger"
	"environment_controller/internal/models"
	"environment_controller/internal/protocol"
	"environment_controller/internal/repository"

	"github.com/google/uuid"
)

// ----------- Simulation constants -----------
const (
	RampPerSec         = 0.5 // units per second an auto actuator moves toward its setpoint
	ActualTolerance    = 0.01
	AmpsPerActuator    = 1.5
	AmpsPerPump        = 0.8
	currentAmpsEpsilon = 1e-9
)

// SimulatorService stands in for field hardware: it moves online auto-mode
// actuators toward their setpoints and reports the resulting current draw.
// Every change goes through the controller like any other client message.
type SimulatorService struct {
	ctrl      *ControllerService
	eventRepo repository.EventRepo
	log       *logger.Logger

	overCurrent bool
}

// NewSimulatorService returns a simulator with defaults.
func NewSimulatorService(ctrl *ControllerService, eventRepo repository.EventRepo, log *logger.Logger) *SimulatorService {
	if eventRepo == nil {
		eventRepo = repository.NoopEventRepo{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SimulatorService{
		ctrl:      ctrl,
		eventRepo: eventRepo,
		log:       log,
	}
}

// Run ticks at the given interval until ctx is canceled.
func (s *SimulatorService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.step(ctx, now.Sub(last).Seconds(), now)
			last = now
		}
	}
}

// step advances the simulation by elapsed seconds.
func (s *SimulatorService) step(ctx context.Context, elapsed float64, now time.Time) {
	st := s.ctrl.Clone()
	if !st.Overview.Started {
		return
	}

	var updates []protocol.Update
	for _, a := range st.Actuators {
		if !a.Online || !a.Auto {
			continue
		}
		if next, moved := rampToward(a.Actual, a.Setpoint, RampPerSec*elapsed); moved {
			updates = append(updates, protocol.Update{ID: protocol.IDUpdatePIDActual, Name: a.Name, Value: next})
		}
	}

	amps := currentDraw(st)
	if math.Abs(amps-st.Overview.CurrentAmps) > currentAmpsEpsilon {
		updates = append(updates, protocol.Update{
			ID: protocol.IDUpdateSystemOverview, Name: protocol.OverviewCurrentAmps, Value: amps,
		})
	}

	for _, u := range updates {
		payload, err := protocol.Marshal(u)
		if err != nil {
			s.log.Errorw("simulator_encode_failed", "id", u.ID, "err", err)
			continue
		}
		if _, err := s.ctrl.HandleMessage(ctx, payload, OriginSimulator); err != nil {
			s.log.Errorw("simulator_publish_failed", "id", u.ID, "err", err)
		}
	}

	s.detectAndLogOverCurrent(ctx, amps, st.Overview.MaxCurrentValue, now)
}

// rampToward moves cur toward target by at most maxStep. Returns false when
// cur is already within tolerance.
func rampToward(cur, target, maxStep float64) (float64, bool) {
	diff := target - cur
	if math.Abs(diff) <= ActualTolerance || maxStep <= 0 {
		return cur, false
	}
	if math.Abs(diff) <= maxStep {
		return target, true
	}
	if diff > 0 {
		return cur + maxStep, true
	}
	return cur - maxStep, true
}

// currentDraw sums the draw of every online actuator and pump.
func currentDraw(st *models.State) float64 {
	amps := 0.0
	for _, a := range st.Actuators {
		if a.Online {
			amps += AmpsPerActuator
		}
	}
	for _, p := range st.Pumps {
		if p.Online {
			amps += AmpsPerPump
		}
	}
	return amps
}

// detectAndLogOverCurrent appends an ALARM event when the draw first exceeds
// the configured limit. A limit of zero disables the check.
func (s *SimulatorService) detectAndLogOverCurrent(ctx context.Context, amps, limit float64, now time.Time) bool {
	over := limit > 0 && amps > limit
	raised := over && !s.overCurrent
	s.overCurrent = over
	if !raised {
		return false
	}
	s.log.Warnw("overcurrent_detected", "amps", amps, "limit", limit)
	err := s.eventRepo.Append(ctx, models.ControllerEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  now.UTC(),
		Type:        models.EventAlarm,
		Description: "Current draw above maxCurrentValue",
		Metadata: map[string]any{
			"current_amps":      amps,
			"max_current_value": limit,
		},
	})
	if err != nil {
		s.log.Warnw("journal_append_failed", "type", models.EventAlarm, "err", err)
	}
	return true
}
