// Package realtime implements the per-connection websocket session: a
// heartbeat/timeout state machine and a minimal typed request envelope.
// Command dispatch is a placeholder — the session echoes envelopes back and
// performs no authentication or file logic itself; Core declares the seam
// it will eventually need from the rest of the service.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/filenest/filenest/models"
)

const (
	// HeartbeatInterval is how often the server pings the peer.
	HeartbeatInterval = 10 * time.Second
	// ClientTimeout closes the connection when the peer has been silent
	// for this long.
	ClientTimeout = 15 * time.Second
)

// Core is what the session handler will need from the service once dispatch
// is wired up. Nothing implements it behind the echo yet.
type Core interface {
	ResolveToken(ctx context.Context, token string) (*models.Account, error)
	ListFiles(ctx context.Context, account *models.Account) ([]models.FileRecord, error)
}

// Session drives one websocket connection from accept to close.
type Session struct {
	conn    *websocket.Conn
	log     *zap.SugaredLogger
	ping    time.Duration
	timeout time.Duration

	mu       sync.Mutex // guards writes; ping loop and read loop both write
	seenMu   sync.Mutex
	lastSeen time.Time

	done chan struct{}
}

// NewSession wraps an upgraded connection with production intervals.
func NewSession(conn *websocket.Conn, log *zap.SugaredLogger) *Session {
	return newSession(conn, log, HeartbeatInterval, ClientTimeout)
}

func newSession(conn *websocket.Conn, log *zap.SugaredLogger, ping, timeout time.Duration) *Session {
	return &Session{
		conn:     conn,
		log:      log,
		ping:     ping,
		timeout:  timeout,
		lastSeen: time.Now(),
		done:     make(chan struct{}),
	}
}

// Run blocks until the connection closes: on an explicit close frame, on a
// read error, or when the heartbeat watchdog gives up on the peer.
func (s *Session) Run() {
	defer close(s.done)
	defer s.conn.Close()

	s.conn.SetPongHandler(func(string) error {
		s.touch()
		return nil
	})
	s.conn.SetPingHandler(func(appData string) error {
		s.touch()
		return s.writeControl(websocket.PongMessage, []byte(appData))
	})

	go s.heartbeat()

	for {
		msgType, payload, err := s.conn.ReadMessage()
		if err != nil {
			// Covers close frames and broken transports alike.
			return
		}
		s.touch()

		switch msgType {
		case websocket.TextMessage:
			s.handleText(payload)
		case websocket.BinaryMessage:
			// Binary frames are echoed verbatim.
			_ = s.write(websocket.BinaryMessage, payload)
		}
	}
}

// handleText decodes the envelope and answers on the same connection.
// Malformed envelopes produce an error text frame; the connection stays open.
func (s *Session) handleText(payload []byte) {
	if len(payload) == 0 {
		return
	}

	req, err := ParseRequest(payload)
	if err != nil {
		_ = s.write(websocket.TextMessage, []byte(err.Error()))
		return
	}

	// Dispatch placeholder: echo the envelope back with an OK status.
	resp := Response{
		Code:    http.StatusOK,
		Message: "Ok",
		Data:    req,
	}
	body, err := json.Marshal(resp)
	if err != nil {
		_ = s.write(websocket.TextMessage, []byte(err.Error()))
		return
	}
	_ = s.write(websocket.TextMessage, body)
}

// heartbeat pings on a fixed interval and unilaterally closes the
// connection when the peer exceeds the timeout.
func (s *Session) heartbeat() {
	ticker := time.NewTicker(s.ping)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if time.Since(s.seen()) > s.timeout {
				if s.log != nil {
					s.log.Warn("websocket client heartbeat failed, disconnecting")
				}
				s.conn.Close()
				return
			}
			if err := s.writeControl(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Session) touch() {
	s.seenMu.Lock()
	s.lastSeen = time.Now()
	s.seenMu.Unlock()
}

func (s *Session) seen() time.Time {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()
	return s.lastSeen
}

func (s *Session) write(msgType int, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(msgType, payload)
}

func (s *Session) writeControl(msgType int, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteControl(msgType, payload, time.Now().Add(5*time.Second))
}
