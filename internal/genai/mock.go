package genai

import (
	"context"
	"sync"

	"github.com/BTreeMap/TripConcierge/internal/models"
)

// MockClient is a canned ClientInterface for tests and offline runs.
type MockClient struct {
	mu sync.Mutex

	Reply      string
	ChatErr    error
	Airport    models.AirportRecord
	AirportErr error

	ChatCalls     int
	LastSystem    string
	LastHistory   []models.Message
	AirportInputs []string
}

// Chat records the call and returns Reply or ChatErr.
func (m *MockClient) Chat(ctx context.Context, systemPrompt string, history []models.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatCalls++
	m.LastSystem = systemPrompt
	m.LastHistory = append([]models.Message(nil), history...)
	return m.Reply, m.ChatErr
}

// IdentifyAirport records the input and returns Airport or AirportErr.
func (m *MockClient) IdentifyAirport(ctx context.Context, location string) (models.AirportRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AirportInputs = append(m.AirportInputs, location)
	return m.Airport, m.AirportErr
}
