package service

import (
	"context"
	"fmt"
	"time"

	"environment_controller/internal/logger"
	"environment_controller/internal/repository"

	"github.com/go-co-op/gocron/v2"
)

const checkpointTimeout = 10 * time.Second

type persister interface {
	Persist(ctx context.Context, reason string) error
}

// Checkpointer runs periodic persistence and journal retention on a gocron
// scheduler. A zero interval or retention disables the matching job.
type Checkpointer struct {
	scheduler gocron.Scheduler
	ctrl      persister
	events    repository.EventRepo
	log       *logger.Logger
}

// NewCheckpointer creates the scheduler and registers the enabled jobs.
func NewCheckpointer(ctrl persister, events repository.EventRepo, log *logger.Logger, interval, retention time.Duration) (*Checkpointer, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	if events == nil {
		events = repository.NoopEventRepo{}
	}
	if log == nil {
		log = logger.Nop()
	}
	c := &Checkpointer{scheduler: s, ctrl: ctrl, events: events, log: log}

	if interval > 0 {
		if _, err := s.NewJob(
			gocron.DurationJob(interval),
			gocron.NewTask(c.checkpoint),
			gocron.WithName("state-checkpoint"),
		); err != nil {
			_ = s.Shutdown()
			return nil, fmt.Errorf("failed to create checkpoint job: %w", err)
		}
	}
	if retention > 0 {
		if _, err := s.NewJob(
			gocron.DurationJob(pruneEvery(retention)),
			gocron.NewTask(c.prune, retention),
			gocron.WithName("journal-retention"),
		); err != nil {
			_ = s.Shutdown()
			return nil, fmt.Errorf("failed to create retention job: %w", err)
		}
	}
	return c, nil
}

// pruneEvery runs retention a few times per retention window, at most hourly.
func pruneEvery(retention time.Duration) time.Duration {
	every := retention / 4
	if every > time.Hour {
		every = time.Hour
	}
	if every < time.Second {
		every = time.Second
	}
	return every
}

// Start begins the scheduler.
func (c *Checkpointer) Start() {
	c.log.Infow("checkpointer_started", "jobs", len(c.scheduler.Jobs()))
	c.scheduler.Start()
}

// Stop waits for running jobs and shuts the scheduler down.
func (c *Checkpointer) Stop() error {
	c.log.Infow("checkpointer_stopped")
	return c.scheduler.Shutdown()
}

func (c *Checkpointer) checkpoint() {
	ctx, cancel := context.WithTimeout(context.Background(), checkpointTimeout)
	defer cancel()
	// Persist logs and journals its own failures.
	_ = c.ctrl.Persist(ctx, "checkpoint")
}

func (c *Checkpointer) prune(retention time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), checkpointTimeout)
	defer cancel()
	cutoff := time.Now().UTC().Add(-retention)
	n, err := c.events.Prune(ctx, cutoff)
	if err != nil {
		c.log.Warnw("journal_prune_failed", "cutoff", cutoff, "err", err)
		return
	}
	if n > 0 {
		c.log.Infow("journal_pruned", "removed", n, "cutoff", cutoff)
	}
}
