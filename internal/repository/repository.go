package repository

import (
	"context"
	"errors"
	"time"

	"environment_controller/internal/codec"
	"environment_controller/internal/models"
)

var (
	// ErrStateNotFound means no persisted state exists yet.
	ErrStateNotFound = errors.New("persisted state not found")
	// ErrStorageUnavailable wraps any storage open failure other than absence.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// LoadResult describes where restored state came from.
type LoadResult struct {
	Report codec.DecodeReport
	Source string
	// Legacy is true when the state was imported from a flat file.
	Legacy bool
}

// StateStore persists the whole device model. Load always leaves s in a
// usable state: on any error it holds defaults.
type StateStore interface {
	Load(ctx context.Context, s *models.State) (LoadResult, error)
	// Save overwrites the stored state and returns the number of bytes written.
	Save(ctx context.Context, s *models.State) (int, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.ControllerEvent) error
	List(ctx context.Context, from, to time.Time, typ string, limit int) ([]models.ControllerEvent, error)
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

type Repository struct {
	StateStore StateStore
	EventRepo  EventRepo
}

func NewRepository(state StateStore, events EventRepo) *Repository {
	if events == nil {
		events = NoopEventRepo{}
	}
	return &Repository{
		StateStore: state,
		EventRepo:  events,
	}
}
