package messaging

import (
	"context"
	"sync"
)

// SentMessage is a message recorded by MockService.
type SentMessage struct {
	To   string
	Body string
}

// MockService implements Service in memory for tests.
type MockService struct {
	// SendErr, when set, is returned by SendMessage.
	SendErr error

	mu        sync.Mutex
	Sent      []SentMessage
	responses chan Inbound
	stopped   bool
}

// NewMockService creates a MockService.
func NewMockService() *MockService {
	return &MockService{responses: make(chan Inbound, DefaultChannelBufferSize)}
}

// ValidateAndCanonicalizeRecipient implements Service.
func (m *MockService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return CanonicalizePhone(recipient)
}

// SendMessage records the message.
func (m *MockService) SendMessage(ctx context.Context, to string, body string) error {
	if m.SendErr != nil {
		return m.SendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentMessage{To: to, Body: body})
	return nil
}

// Start implements Service.
func (m *MockService) Start(ctx context.Context) error {
	return nil
}

// Stop closes the responses channel. Sending keeps working so queued messages
// can still be answered.
func (m *MockService) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.stopped {
		m.stopped = true
		close(m.responses)
	}
	return nil
}

// Responses implements Service.
func (m *MockService) Responses() <-chan Inbound {
	return m.responses
}

// Deliver simulates an inbound message.
func (m *MockService) Deliver(in Inbound) {
	m.responses <- in
}

// Messages returns a copy of the recorded messages.
func (m *MockService) Messages() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.Sent...)
}
