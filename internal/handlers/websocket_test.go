package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"environment_controller/internal/hub"
	"environment_controller/internal/models"
	"environment_controller/internal/repository"
	"environment_controller/internal/service"

	"github.com/gorilla/websocket"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestOriginChecker(t *testing.T) {
	cases := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"any_when_unset", nil, "http://evil.example", true},
		{"no_origin_header", []string{"http://panel.local"}, "", true},
		{"allowed", []string{"http://panel.local"}, "http://panel.local", true},
		{"allowed_trailing_slash_and_case", []string{"HTTP://Panel.local/"}, "http://panel.local", true},
		{"allowed_with_port", []string{"http://panel.local:3000"}, "http://panel.local:3000", true},
		{"wrong_port", []string{"http://panel.local:3000"}, "http://panel.local", false},
		{"other_host", []string{"http://panel.local"}, "http://evil.example", false},
		{"garbage", []string{"http://panel.local"}, "::::", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			if got := originChecker(tc.allowed)(req); got != tc.want {
				t.Fatalf("origin %q allowed=%v: got %v, want %v", tc.origin, tc.allowed, got, tc.want)
			}
		})
	}
}

func wsURL(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	u.Scheme = "ws"
	u.Path = "/ws"
	return u.String()
}

func TestWebSocket_RejectsForeignOrigin(t *testing.T) {
	ctrl := &mockController{}
	srv := httptest.NewServer(newTestRouter(&service.Service{Controller: ctrl}, Options{
		AllowedOrigins: []string{"http://panel.local"},
	}))
	defer srv.Close()

	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(t, srv), header)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWebSocket_LifecycleCallbacks(t *testing.T) {
	ctrl := &mockController{
		connected:    make(chan *hub.Client, 1),
		disconnected: make(chan *hub.Client, 1),
		messages:     make(chan string, 1),
	}
	srv := httptest.NewServer(newTestRouter(&service.Service{Controller: ctrl}, Options{}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(t, srv), nil)
	require.NoError(t, err)

	var client *hub.Client
	select {
	case client = <-ctrl.connected:
	case <-time.After(time.Second):
		t.Fatal("OnConnect not called")
	}
	require.NotEmpty(t, client.ID())

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"id":"LogStart"}`)))
	select {
	case got := <-ctrl.messages:
		require.Equal(t, `{"id":"LogStart"}`, got)
	case <-time.After(time.Second):
		t.Fatal("OnMessage not called")
	}

	require.NoError(t, conn.Close())
	select {
	case gone := <-ctrl.disconnected:
		require.Equal(t, client.ID(), gone.ID())
	case <-time.After(2 * time.Second):
		t.Fatal("OnDisconnect not called")
	}
}

// Full path: real hub, real controller, in-memory flat file storage.
func TestWebSocket_SnapshotThenBroadcast(t *testing.T) {
	names := models.Names{Actuators: []string{"Heater"}, Pumps: []string{"Pump1"}}
	h := hub.New(nil)
	storage := repository.NewAferoStorage(afero.NewMemMapFs())
	ctrl := service.NewControllerService(names,
		repository.NewFlatFileStore(storage, "State/Config.txt"),
		nil, h, nil, nil, service.ControllerOptions{BatchSnapshot: true})
	services := service.NewService(ctrl)

	router := NewHandler(services, h, nil, Options{}).InitRoutes()
	srv := httptest.NewServer(router)
	defer srv.Close()

	dial := func() *websocket.Conn {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL(t, srv), nil)
		require.NoError(t, err)
		return conn
	}
	read := func(conn *websocket.Conn) string {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		return string(msg)
	}

	a := dial()
	defer a.Close()
	snap := read(a)
	require.Contains(t, snap, `{"id":"UpdateStop"}`)
	require.Contains(t, snap, `{"id":"UpdatePumpStatus","name":"Pump1","state":"Off"}`)

	b := dial()
	defer b.Close()
	_ = read(b)

	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(`{"id":"LogPumpStatus","name":"Pump1"}`)))
	want := `{"id":"UpdatePumpStatus","name":"Pump1","state":"On"}`
	require.JSONEq(t, want, read(a))
	require.JSONEq(t, want, read(b))

	st, err := services.Monitoring.GetState(t.Context())
	require.NoError(t, err)
	require.True(t, st.Pump("Pump1").Online)
}
