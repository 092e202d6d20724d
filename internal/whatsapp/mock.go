package whatsapp

import (
	"context"
	"sync"
)

// SentMessage records one call to the mock sender.
type SentMessage struct {
	To   string
	Text string
}

// MockSender is an in-process sender for local runs and tests. It returns
// Status (default 200) and Body for every send and remembers what was sent.
type MockSender struct {
	mu     sync.Mutex
	sent   []SentMessage
	Status int
	Body   string
}

func NewMockSender() *MockSender {
	return &MockSender{Status: 200}
}

func (m *MockSender) SendText(_ context.Context, to, text string) (int, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentMessage{To: to, Text: text})
	return m.Status, m.Body
}

// Sent returns a copy of everything sent so far.
func (m *MockSender) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}
