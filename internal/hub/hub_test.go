package hub

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	hub *Hub

	mu           sync.Mutex
	connected    []string
	disconnected []string
	messages     []string
	disconnectCh chan string
}

func newRecordingHandler(h *Hub) *recordingHandler {
	return &recordingHandler{hub: h, disconnectCh: make(chan string, 8)}
}

func (r *recordingHandler) OnConnect(c *Client) {
	r.mu.Lock()
	r.connected = append(r.connected, c.ID())
	r.mu.Unlock()
	_ = r.hub.SendTo(c, []byte(`{"id":"hello"}`))
}

func (r *recordingHandler) OnDisconnect(c *Client) {
	r.mu.Lock()
	r.disconnected = append(r.disconnected, c.ID())
	r.mu.Unlock()
	r.disconnectCh <- c.ID()
}

func (r *recordingHandler) OnMessage(c *Client, payload []byte) {
	r.mu.Lock()
	r.messages = append(r.messages, string(payload))
	r.mu.Unlock()
	r.hub.Broadcast(payload)
}

func startServer(t *testing.T, h *Hub, handler Handler) string {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.Serve(conn, handler)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, b, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(b)
}

func TestHub_ConnectGreetsAndBroadcasts(t *testing.T) {
	h := New(nil)
	rec := newRecordingHandler(h)
	url := startServer(t, h, rec)

	a := dial(t, url)
	require.Equal(t, `{"id":"hello"}`, read(t, a))
	b := dial(t, url)
	require.Equal(t, `{"id":"hello"}`, read(t, b))
	require.Eventually(t, func() bool { return h.Len() == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(`{"id":"LogStart"}`)))
	require.Equal(t, `{"id":"LogStart"}`, read(t, a))
	require.Equal(t, `{"id":"LogStart"}`, read(t, b))
}

func TestHub_BroadcastPreservesOrder(t *testing.T) {
	h := New(nil)
	rec := newRecordingHandler(h)
	conn := dial(t, startServer(t, h, rec))
	read(t, conn)
	require.Eventually(t, func() bool { return h.Len() == 1 }, time.Second, 10*time.Millisecond)

	for _, m := range []string{"1", "2", "3", "4"} {
		h.Broadcast([]byte(m))
	}
	var got []string
	for i := 0; i < 4; i++ {
		got = append(got, read(t, conn))
	}
	require.Equal(t, []string{"1", "2", "3", "4"}, got)
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	h := New(nil)
	rec := newRecordingHandler(h)
	conn := dial(t, startServer(t, h, rec))
	read(t, conn)

	require.NoError(t, conn.Close())
	select {
	case id := <-rec.disconnectCh:
		require.NotEmpty(t, id)
	case <-time.After(2 * time.Second):
		t.Fatal("OnDisconnect not called")
	}
	require.Zero(t, h.Len())
	require.Zero(t, h.Broadcast([]byte("x")))
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	h := New(nil)
	rec := newRecordingHandler(h)
	conn := dial(t, startServer(t, h, rec))
	read(t, conn)
	require.Eventually(t, func() bool { return h.Len() == 1 }, time.Second, 10*time.Millisecond)

	h.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestHub_CloseWaitsForDisconnectCallbacks(t *testing.T) {
	h := New(nil)
	rec := newRecordingHandler(h)
	url := startServer(t, h, rec)
	for i := 0; i < 3; i++ {
		read(t, dial(t, url))
	}
	require.Eventually(t, func() bool { return h.Len() == 3 }, time.Second, 10*time.Millisecond)

	h.Close()

	rec.mu.Lock()
	require.Len(t, rec.disconnected, 3)
	rec.mu.Unlock()
	require.Zero(t, h.Len())

	// late connections are dropped without callbacks
	conn := dial(t, url)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	rec.mu.Lock()
	require.Len(t, rec.connected, 3)
	rec.mu.Unlock()
}

func TestClient_SlowClientIsClosed(t *testing.T) {
	c := &Client{id: "c", send: make(chan []byte, 1), done: make(chan struct{})}
	require.NoError(t, c.enqueue([]byte("a")))
	require.ErrorIs(t, c.enqueue([]byte("b")), ErrSlowClient)
	require.ErrorIs(t, c.enqueue([]byte("c")), ErrClientGone)
}
