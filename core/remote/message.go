// Package remote implements named remote method calls: a JSON message that
// names a method and carries positional arguments, and a dispatcher that
// invokes the matching method on a delegate.
//
// The wire format is {"type": "<method>", "payload": [args...]}, with
// payload omitted when there are no arguments.
package remote

import (
	"encoding/json"
	"fmt"
)

// Message is one remote call.
type Message struct {
	Type    string            `json:"type"`
	Payload []json.RawMessage `json:"payload,omitempty"`
}

// NewMessage builds a call to method with the given arguments.
func NewMessage(method string, args ...any) (Message, error) {
	msg := Message{Type: method}
	for i, a := range args {
		raw, err := json.Marshal(a)
		if err != nil {
			return Message{}, fmt.Errorf("argument %d: %w", i, err)
		}
		msg.Payload = append(msg.Payload, raw)
	}
	return msg, nil
}

// Encode returns the JSON wire form.
func (m Message) Encode() ([]byte, error) {
	if m.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrInvalidMessage)
	}
	return json.Marshal(m)
}

// Decode parses the JSON wire form.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if m.Type == "" {
		return Message{}, fmt.Errorf("%w: missing type", ErrInvalidMessage)
	}
	return m, nil
}

// Args returns the decoded argument accessor.
func (m Message) Args() Args { return Args{method: m.Type, raw: m.Payload} }
