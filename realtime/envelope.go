package realtime

import (
	"encoding/json"
	"fmt"
)

// RequestKind tags a request envelope.
type RequestKind string

const (
	KindLogin  RequestKind = "Login"
	KindLogout RequestKind = "Logout"
	KindFile   RequestKind = "File"
	KindSync   RequestKind = "Sync"
)

// Request is the typed envelope carried by text frames.
type Request struct {
	Kind RequestKind     `json:"req_type"`
	Data json.RawMessage `json:"data"`
}

// Response mirrors the HTTP error body shape over the socket.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ParseRequest decodes and validates a text frame into a Request.
func ParseRequest(text []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(text, &req); err != nil {
		return nil, err
	}
	switch req.Kind {
	case KindLogin, KindLogout, KindFile, KindSync:
		return &req, nil
	default:
		return nil, fmt.Errorf("unknown request type %q", req.Kind)
	}
}
