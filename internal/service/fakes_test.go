package service

import (
	"context"
	"sync"
	"time"

	"environment_controller/internal/codec"
	"environment_controller/internal/hub"
	"environment_controller/internal/models"
	"environment_controller/internal/repository"
)

// fakeEventRepo records appended events and captures List arguments.
type fakeEventRepo struct {
	mu       sync.Mutex
	appended []models.ControllerEvent

	gotCtx   context.Context
	gotFrom  time.Time
	gotTo    time.Time
	gotType  string
	gotLimit int

	events    []models.ControllerEvent
	err       error
	appendErr error
	pruned    []time.Time

	calls int
}

func (f *fakeEventRepo) Append(_ context.Context, e models.ControllerEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, e)
	return nil
}

func (f *fakeEventRepo) List(ctx context.Context, from, to time.Time, typ string, limit int) ([]models.ControllerEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.gotCtx = ctx
	f.gotFrom = from
	f.gotTo = to
	f.gotType = typ
	f.gotLimit = limit
	return f.events, f.err
}

func (f *fakeEventRepo) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pruned = append(f.pruned, cutoff)
	return 0, nil
}

func (f *fakeEventRepo) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.appended))
	for _, e := range f.appended {
		out = append(out, e.Type)
	}
	return out
}

func (f *fakeEventRepo) ofType(typ string) []models.ControllerEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ControllerEvent
	for _, e := range f.appended {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// fakeStore keeps the last saved model as a clone.
type fakeStore struct {
	mu      sync.Mutex
	saved   *models.State
	saves   int
	loadErr error
	saveErr error
	load    func(s *models.State)
	report  codec.DecodeReport
}

func (f *fakeStore) Load(_ context.Context, s *models.State) (repository.LoadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := repository.LoadResult{Source: "fake", Report: f.report}
	if f.loadErr != nil {
		s.InitializeDefaults()
		return res, f.loadErr
	}
	if f.load != nil {
		f.load(s)
	}
	return res, nil
}

func (f *fakeStore) Save(_ context.Context, s *models.State) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	f.saved = s.Clone()
	return 42, nil
}

// fakeBroadcaster records outbound frames instead of writing to sockets.
type fakeBroadcaster struct {
	mu        sync.Mutex
	broadcast [][]byte
	sent      [][]byte
	clients   int
	sendErr   error
}

func (f *fakeBroadcaster) Broadcast(payload []byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcast = append(f.broadcast, payload)
	return f.clients
}

func (f *fakeBroadcaster) SendTo(_ *hub.Client, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, payload)
	return nil
}

func (f *fakeBroadcaster) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clients
}

func (f *fakeBroadcaster) broadcasts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.broadcast))
	for _, b := range f.broadcast {
		out = append(out, string(b))
	}
	return out
}

func testNames() models.Names {
	return models.Names{
		Actuators:   []string{"Heater", "Fan"},
		Pumps:       []string{"Pump1"},
		WaterLevels: []string{"Tank1"},
		Sensors:     []string{"t1"},
	}
}

type fixture struct {
	ctrl   *ControllerService
	store  *fakeStore
	events *fakeEventRepo
	out    *fakeBroadcaster
}

func newFixture(opts ControllerOptions) *fixture {
	f := &fixture{
		store:  &fakeStore{},
		events: &fakeEventRepo{},
		out:    &fakeBroadcaster{clients: 1},
	}
	f.ctrl = NewControllerService(testNames(), f.store, f.events, f.out, nil, nil, opts)
	return f
}
