package bus

import (
	"encoding/json"
	"time"
)

// Envelope is the message shape carried on every bus channel (§4.1,
// §6). Serialization format is implementation-defined; this package
// uses JSON because every payload already travels as JSON to the wire
// layer, and it round-trips trivially for tests.
type Envelope struct {
	Type         string          `json:"type"`
	ZoneID       *int32          `json:"zoneId,omitempty"`
	CharacterID  *string         `json:"characterId,omitempty"`
	SocketID     *string         `json:"socketId,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

// Marshal encodes a typed payload into an Envelope.
func Marshal(envType string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: envType, Payload: raw, Timestamp: time.Now()}, nil
}

// Unmarshal decodes the envelope's payload into out.
func (e Envelope) Unmarshal(out any) error {
	return json.Unmarshal(e.Payload, out)
}

// Encode serializes the envelope to bytes for transport over the bus.
func Encode(e Envelope) ([]byte, error) {
	return json.Marshal(e)
}

// Decode deserializes bytes received from the bus into an Envelope.
func Decode(data []byte) (Envelope, error) {
	var e Envelope
	err := json.Unmarshal(data, &e)
	return e, err
}
