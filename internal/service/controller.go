package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"environment_controller/internal/dispatch"
	"environment_controller/internal/hub"
	"environment_controller/internal/logger"
	"environment_controller/internal/metrics"
	"environment_controller/internal/models"
	"environment_controller/internal/protocol"
	"environment_controller/internal/repository"
	"environment_controller/internal/snapshot"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// Broadcaster delivers outbound payloads to connected clients.
type Broadcaster interface {
	Broadcast(payload []byte) int
	SendTo(c *hub.Client, payload []byte) error
	Len() int
}

// Origins recorded in the journal for messages that did not arrive over a
// WebSocket.
const (
	OriginHTTP      = "http"
	OriginSimulator = "simulator"
)

const (
	journalTimeout    = 2 * time.Second
	unrecognizedLabel = "unrecognized"
)

type ControllerOptions struct {
	// BatchSnapshot sends the connect snapshot as one JSON array frame.
	BatchSnapshot bool
	// ResetOnWriteFailure restores defaults when a save cannot open storage.
	ResetOnWriteFailure bool
}

// ControllerService serializes every access to the device model.
type ControllerService struct {
	mu         sync.Mutex
	state      *models.State
	dispatcher *dispatch.Dispatcher

	store  repository.StateStore
	events repository.EventRepo
	out    Broadcaster
	rec    metrics.Recorder
	log    *logger.Logger
	opts   ControllerOptions
}

func NewControllerService(
	names models.Names,
	store repository.StateStore,
	events repository.EventRepo,
	out Broadcaster,
	rec metrics.Recorder,
	log *logger.Logger,
	opts ControllerOptions,
) *ControllerService {
	if events == nil {
		events = repository.NoopEventRepo{}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	if log == nil {
		log = logger.Nop()
	}
	state := models.NewState(names)
	return &ControllerService{
		state:      state,
		dispatcher: dispatch.New(state),
		store:      store,
		events:     events,
		out:        out,
		rec:        rec,
		log:        log,
		opts:       opts,
	}
}

// Restore loads persisted state once at startup. Failures leave defaults in
// place and are not returned: a controller always boots.
func (s *ControllerService) Restore(ctx context.Context) {
	s.mu.Lock()
	res, err := s.store.Load(ctx, s.state)
	s.mu.Unlock()

	switch {
	case errors.Is(err, repository.ErrStateNotFound):
		s.rec.IncPersist("load", true)
		s.log.Infow("state_defaults", "reason", "no persisted state", "source", res.Source)
		s.journal(models.EventRestore, "No persisted state; using defaults", map[string]any{"source": res.Source})
		return
	case err != nil:
		s.rec.IncPersist("load", false)
		s.log.Warnw("state_restore_failed", "source", res.Source, "err", err)
		s.journal(models.EventRestore, "Restore failed; using defaults", map[string]any{"source": res.Source, "error": err.Error()})
		return
	}

	s.rec.IncPersist("load", true)
	rep := res.Report
	fields := []any{"source", res.Source, "lines", rep.Lines, "legacy", res.Legacy}
	if rep.Clean() {
		s.log.Infow("state_restored", fields...)
	} else {
		s.log.Warnw("state_restored_with_remarks", append(fields,
			"malformed", rep.Malformed, "mismatched", rep.Mismatched,
			"unknown", rep.Unknown, "extra", rep.Extra)...)
	}
	s.journal(models.EventRestore, "State restored", map[string]any{
		"source": res.Source, "legacy": res.Legacy, "clean": rep.Clean(),
	})
}

// HandleMessage decodes payload, applies it and broadcasts the outbound
// message. Malformed payloads return protocol.ErrMalformedMessage and are not
// broadcast.
func (s *ControllerService) HandleMessage(ctx context.Context, payload []byte, origin string) (Outcome, error) {
	start := time.Now()

	s.mu.Lock()
	msg, res, err := s.dispatcher.DispatchRaw(payload)
	receivers := 0
	if err == nil {
		// broadcast under the lock so every client sees mutations in apply order
		receivers = s.out.Broadcast(res.Payload)
	}
	s.mu.Unlock()

	s.rec.ObserveDispatchDuration(time.Since(start))

	if err != nil {
		s.rec.IncMessage("", metrics.ResultRejected)
		s.log.Warnw("message_rejected", "origin", origin, "err", err)
		s.journal(models.EventRejected, err.Error(), map[string]any{
			"origin": origin, "payload": truncate(string(payload), 256),
		})
		return Outcome{}, err
	}

	s.rec.IncBroadcast(receivers)
	id := string(msg.ID())
	out := Outcome{
		ID:          id,
		Payload:     string(res.Payload),
		Canonical:   res.Canonical,
		Applied:     res.Applied,
		UnknownName: res.UnknownName,
		Receivers:   receivers,
	}

	// client-chosen ids must not become metric label values
	label := id
	if _, unrouted := msg.(protocol.Unrecognized); unrouted {
		label = unrecognizedLabel
		s.log.Debugw("message_unrouted", "id", id, "origin", origin)
	}
	if res.UnknownName != "" {
		s.rec.IncUnknownName(label)
		s.log.Warnw("unknown_entity_name", "id", id, "name", res.UnknownName, "origin", origin)
	}
	if !res.Applied {
		s.rec.IncMessage(label, metrics.ResultIgnored)
		return out, nil
	}

	s.rec.IncMessage(label, metrics.ResultApplied)
	if origin == OriginSimulator {
		return out, nil
	}
	typ := models.EventMutation
	if !res.Canonical {
		typ = models.EventIntent
	}
	s.journal(typ, id, map[string]any{"origin": origin, "outbound": out.Payload})
	return out, nil
}

// OnConnect sends the full snapshot to the new client.
func (s *ControllerService) OnConnect(c *hub.Client) {
	s.mu.Lock()
	frames, err := snapshot.Frames(s.state, s.opts.BatchSnapshot)
	if err == nil {
		for _, f := range frames {
			if err = s.out.SendTo(c, f); err != nil {
				break
			}
		}
	}
	s.mu.Unlock()

	s.rec.SetClients(s.out.Len())
	if err != nil {
		s.log.Warnw("snapshot_send_failed", "client", c.ID(), "err", err)
		return
	}
	s.log.Infow("client_connected", "client", c.ID(), "remote", c.RemoteAddr(), "frames", len(frames))
	s.journal(models.EventConnect, "Client connected", map[string]any{"client": c.ID(), "remote": c.RemoteAddr()})
}

// OnDisconnect persists the model.
func (s *ControllerService) OnDisconnect(c *hub.Client) {
	s.rec.SetClients(s.out.Len())
	s.log.Infow("client_disconnected", "client", c.ID())
	s.journal(models.EventDisconnect, "Client disconnected", map[string]any{"client": c.ID()})

	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()
	_ = s.Persist(ctx, "disconnect")
}

// OnMessage dispatches a client payload. Errors are already logged and
// journaled by HandleMessage.
func (s *ControllerService) OnMessage(c *hub.Client, payload []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()
	_, _ = s.HandleMessage(ctx, payload, "ws:"+c.ID())
}

// Snapshot returns the canonical messages describing the current model.
func (s *ControllerService) Snapshot() []protocol.Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot.Build(s.state)
}

// Clone returns a copy of the model that callers may keep.
func (s *ControllerService) Clone() *models.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Persist writes the model to the store. When storage cannot be opened and
// ResetOnWriteFailure is set, the model is reset to defaults.
func (s *ControllerService) Persist(ctx context.Context, reason string) error {
	s.mu.Lock()
	n, err := s.store.Save(ctx, s.state)
	reset := false
	if err != nil && s.opts.ResetOnWriteFailure && errors.Is(err, repository.ErrStorageUnavailable) {
		s.state.InitializeDefaults()
		reset = true
	}
	s.mu.Unlock()

	if err != nil {
		s.rec.IncPersist("save", false)
		s.log.Errorw("state_persist_failed", "reason", reason, "reset_to_defaults", reset, "err", err)
		s.journal(models.EventPersist, "Persist failed", map[string]any{
			"reason": reason, "error": err.Error(), "reset": reset,
		})
		return fmt.Errorf("persist state: %w", err)
	}

	s.rec.IncPersist("save", true)
	s.rec.SetStateBytes(n)
	s.log.Infow("state_persisted", "reason", reason, "size", humanize.Bytes(uint64(n)))
	s.journal(models.EventPersist, "State persisted", map[string]any{"reason": reason, "bytes": n})
	return nil
}

func (s *ControllerService) journal(typ, description string, meta map[string]any) {
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()
	err := s.events.Append(ctx, models.ControllerEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  time.Now().UTC(),
		Type:        typ,
		Description: description,
		Metadata:    meta,
	})
	if err != nil {
		s.log.Warnw("journal_append_failed", "type", typ, "err", err)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
