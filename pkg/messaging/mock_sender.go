package messaging

import (
	"context"
	"sync"
)

// MockMessageSender is an in-memory implementation of MessageSender for
// testing and for harness runs without brokers configured.
type MockMessageSender struct {
	mu   sync.Mutex
	sent []TradeMessage
}

// NewMockMessageSender creates a new MockMessageSender.
func NewMockMessageSender() *MockMessageSender {
	return &MockMessageSender{}
}

// SendTradeMessages records the messages.
func (m *MockMessageSender) SendTradeMessages(_ context.Context, trades []TradeMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, trades...)
	return nil
}

// Sent returns a copy of everything recorded so far.
func (m *MockMessageSender) Sent() []TradeMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TradeMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// Close does nothing.
func (m *MockMessageSender) Close() error {
	return nil
}

// Ensure MockMessageSender implements MessageSender
var _ MessageSender = (*MockMessageSender)(nil)
