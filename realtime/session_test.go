package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testUpgrader = websocket.Upgrader{}

// dialSession runs a session with the given intervals behind an httptest
// server and returns the client side plus a channel closed when Run returns.
func dialSession(t *testing.T, ping, timeout time.Duration) (*websocket.Conn, chan struct{}) {
	t.Helper()

	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		newSession(conn, zap.NewNop().Sugar(), ping, timeout).Run()
		close(done)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn, done
}

func TestSessionEchoesEnvelope(t *testing.T) {
	conn, _ := dialSession(t, HeartbeatInterval, ClientTimeout)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"req_type":"Sync","data":{"n":1}}`)))

	msgType, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, msgType)

	var resp struct {
		Code    int     `json:"code"`
		Message string  `json:"message"`
		Data    Request `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload, &resp))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Ok", resp.Message)
	assert.Equal(t, KindSync, resp.Data.Kind)
	assert.JSONEq(t, `{"n":1}`, string(resp.Data.Data))
}

// A malformed envelope produces an error frame but keeps the session open.
func TestSessionMalformedEnvelope(t *testing.T) {
	conn, _ := dialSession(t, HeartbeatInterval, ClientTimeout)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(payload), "invalid character")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"req_type":"Nope"}`)))
	_, payload, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(payload), "unknown request type")

	// Still usable after both errors.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"req_type":"Login"}`)))
	_, payload, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"Ok"`)
}

func TestSessionEchoesBinary(t *testing.T) {
	conn, _ := dialSession(t, HeartbeatInterval, ClientTimeout)

	blob := []byte{0, 1, 2, 3, 0xff}
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, blob))

	msgType, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, msgType)
	assert.Equal(t, blob, payload)
}

// A peer that never answers pings gets disconnected by the watchdog.
func TestSessionHeartbeatTimeout(t *testing.T) {
	_, done := dialSession(t, 10*time.Millisecond, 30*time.Millisecond)

	// The client deliberately never reads, so it never pongs.
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("session was not closed after heartbeat timeout")
	}
}

// A responsive peer stays connected well past the timeout window, because
// reading processes pings and the client answers them automatically.
func TestSessionHeartbeatKeepsAlive(t *testing.T) {
	conn, done := dialSession(t, 10*time.Millisecond, 30*time.Millisecond)

	deadline := time.Now().Add(150 * time.Millisecond)
	for time.Now().Before(deadline) {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"req_type":"Sync"}`)))
		_, _, err := conn.ReadMessage()
		require.NoError(t, err)
	}

	select {
	case <-done:
		t.Fatal("session closed despite a responsive peer")
	default:
	}
}

func TestParseRequest(t *testing.T) {
	req, err := ParseRequest([]byte(`{"req_type":"File","data":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, KindFile, req.Kind)

	_, err = ParseRequest([]byte(`{"req_type":""}`))
	assert.Error(t, err)
	_, err = ParseRequest([]byte(`{`))
	assert.Error(t, err)
}
