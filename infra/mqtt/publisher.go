package mqtt

import (
	"fmt"
	"sync"

	"github.com/kilianp07/ev3remote/core/remote"
)

// Sender mirrors the core remote.Sender interface.
type Sender = remote.Sender

// MockSender records sent calls; used in tests and dry runs.
type MockSender struct {
	mu       sync.Mutex
	Messages []remote.Message
	// Fail makes SendMessage return an error for these methods.
	Fail map[string]bool
}

func NewMockSender() *MockSender {
	return &MockSender{Fail: make(map[string]bool)}
}

func (m *MockSender) SendMessage(method string, args ...any) error {
	msg, err := remote.NewMessage(method, args...)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail[method] {
		return fmt.Errorf("send %s failed", method)
	}
	m.Messages = append(m.Messages, msg)
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *MockSender) Sent() []remote.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]remote.Message(nil), m.Messages...)
}
