package service

import (
	"context"

	"environment_controller/internal/models"
	"environment_controller/internal/snapshot"
)

type MonitoringService struct {
	ctrl *ControllerService
}

func NewMonitoringService(ctrl *ControllerService) *MonitoringService {
	return &MonitoringService{ctrl: ctrl}
}

// GetState returns a copy of the live model.
func (s *MonitoringService) GetState(ctx context.Context) (*models.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.ctrl.Clone(), nil
}

// Status summarizes the model and the connected client count.
func (s *MonitoringService) Status(ctx context.Context) (Status, error) {
	st, err := s.GetState(ctx)
	if err != nil {
		return Status{}, err
	}
	return summarize(st, s.ctrl.out.Len()), nil
}

func summarize(st *models.State, clients int) Status {
	out := Status{
		Started:        st.Overview.Started,
		DevMode:        st.Overview.DevMode,
		SystemStatus:   st.Overview.SystemStatus,
		Clients:        clients,
		SnapshotLength: snapshot.Len(st),
		Actuators:      len(st.Actuators),
	}
	for _, a := range st.Actuators {
		if a.Online {
			out.ActuatorsOnline++
		}
	}
	for _, p := range st.Pumps {
		if p.Online {
			out.PumpsOnline++
		}
	}
	return out
}
