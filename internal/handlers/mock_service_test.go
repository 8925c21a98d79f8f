package handlers

import (
	"context"
	"sync"
	"time"

	"environment_controller/internal/hub"
	"environment_controller/internal/models"
	"environment_controller/internal/protocol"
	"environment_controller/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockController struct {
	mu sync.Mutex

	outcome    service.Outcome
	handleErr  error
	persistErr error
	snapshot   []protocol.Update

	lastPayload   string
	lastOrigin    string
	persistReason string

	connected    chan *hub.Client
	disconnected chan *hub.Client
	messages     chan string
	greeting     []byte
}

func (m *mockController) HandleMessage(_ context.Context, payload []byte, origin string) (service.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastPayload = string(payload)
	m.lastOrigin = origin
	return m.outcome, m.handleErr
}

func (m *mockController) Snapshot() []protocol.Update { return m.snapshot }

func (m *mockController) Persist(_ context.Context, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.persistReason = reason
	return m.persistErr
}

func (m *mockController) OnConnect(c *hub.Client) {
	if m.connected != nil {
		m.connected <- c
	}
}

func (m *mockController) OnDisconnect(c *hub.Client) {
	if m.disconnected != nil {
		m.disconnected <- c
	}
}

func (m *mockController) OnMessage(_ *hub.Client, payload []byte) {
	if m.messages != nil {
		m.messages <- string(payload)
	}
}

type mockMonitoring struct {
	state  *models.State
	status service.Status
	err    error
}

func (m *mockMonitoring) GetState(context.Context) (*models.State, error) {
	return m.state, m.err
}

func (m *mockMonitoring) Status(context.Context) (service.Status, error) {
	return m.status, m.err
}

type mockEventLog struct {
	resp      []models.ControllerEvent
	err       error
	lastFrom  time.Time
	lastTo    time.Time
	lastType  string
	lastLimit int
	calls     int
}

func (m *mockEventLog) List(_ context.Context, f service.LogFilter) ([]models.ControllerEvent, error) {
	m.calls++
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	m.lastLimit = f.Limit
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service, opts Options) *gin.Engine {
	h := NewHandler(s, hub.New(nil), nil, opts)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}
