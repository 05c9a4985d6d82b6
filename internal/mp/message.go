package mp

import (
	"fmt"

	"github.com/procsim/procsim/internal/codec"
)

// Message is the unit exchanged between processes and with the local user.
//
// The type tag is fixed at construction; the payload is a mutable mapping
// of string keys to JSON-compatible values. A message has no identity
// beyond its structural content.
type Message struct {
	typ     string
	payload map[string]any
}

// NewMessage creates a message with the given type tag and payload.
// A nil payload is treated as empty.
func NewMessage(typ string, payload map[string]any) Message {
	if payload == nil {
		payload = make(map[string]any)
	}
	return Message{typ: typ, payload: payload}
}

// DecodeMessage reconstructs a message from its type tag and encoded
// payload text.
func DecodeMessage(typ string, encoded string) (Message, error) {
	payload, err := codec.UnmarshalPayload([]byte(encoded))
	if err != nil {
		return Message{}, fmt.Errorf("decode %q payload: %w", typ, err)
	}
	return Message{typ: typ, payload: payload}, nil
}

// Type returns the immutable type tag.
func (m Message) Type() string {
	return m.typ
}

// Get returns the payload value for key.
// Fails with a KEY_NOT_FOUND error if the key is absent.
func (m Message) Get(key string) (any, error) {
	v, ok := m.payload[key]
	if !ok {
		return nil, keyNotFoundf("message %q has no payload key %q", m.typ, key)
	}
	return v, nil
}

// Set stores a payload value under key, replacing any existing value.
func (m Message) Set(key string, value any) {
	m.payload[key] = value
}

// Remove deletes a payload key. Removing an absent key is a no-op.
func (m Message) Remove(key string) {
	delete(m.payload, key)
}

// Encode renders the payload as canonical JSON text.
// Two messages with equal payloads always encode identically.
func (m Message) Encode() (string, error) {
	data, err := codec.MarshalCanonical(m.payload)
	if err != nil {
		return "", fmt.Errorf("encode %q payload: %w", m.typ, err)
	}
	return string(data), nil
}
