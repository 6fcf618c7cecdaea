package websocket

import (
	"bytes"
	"encoding/json"
)

// inboundEnvelope is the frame format clients send.
// Ack, when present, is echoed back verbatim on the ack reply.
type inboundEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Ack     json.RawMessage `json:"ack,omitempty"`
}

// outboundEnvelope is the frame format the server sends.
type outboundEnvelope struct {
	Type    string          `json:"type"`
	Payload any             `json:"payload,omitempty"`
	Ack     json.RawMessage `json:"ack,omitempty"`
}

// inboundFrame is a raw frame read from a client, queued for the hub.
type inboundFrame struct {
	client *Client
	data   []byte
}

func (e *inboundEnvelope) wantsAck() bool {
	return len(e.Ack) > 0 && !bytes.Equal(e.Ack, []byte("null"))
}

// decodePayload fills v from the payload. A missing payload leaves v at its zero value.
func (e *inboundEnvelope) decodePayload(v any) error {
	if len(e.Payload) == 0 || bytes.Equal(e.Payload, []byte("null")) {
		return nil
	}
	return json.Unmarshal(e.Payload, v)
}
