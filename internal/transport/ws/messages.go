package ws

import "encoding/json"

// inbound is a client frame: {"type": "joinRoom", "payload": {...}}.
// Outbound frames are domain.Event with the same shape.
type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}
