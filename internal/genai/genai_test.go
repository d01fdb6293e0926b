package genai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/BTreeMap/TripConcierge/internal/models"
)

// mockChatService implements chatService for testing.
type mockChatService struct {
	resp   *openai.ChatCompletion
	err    error
	params []openai.ChatCompletionNewParams
}

func (m *mockChatService) New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	m.params = append(m.params, body)
	return m.resp, m.err
}

func completion(content string, calls ...openai.ChatCompletionMessageToolCall) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content, ToolCalls: calls}},
		},
	}
}

func TestChat_Success(t *testing.T) {
	svc := &mockChatService{resp: completion("Happy to help with hotels!")}
	client := &Client{chat: svc, model: DefaultModel}

	history := []models.Message{
		{Role: models.RoleAssistant, Content: "Hey there!"},
		{Role: models.RoleAssistant, Content: models.TypingContent, Typing: true},
		{Role: models.RoleUser, Content: "What about hotels?"},
	}
	out, err := client.Chat(context.Background(), "system", history)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "Happy to help with hotels!" {
		t.Errorf("unexpected reply %q", out)
	}
	if len(svc.params) != 1 {
		t.Fatalf("expected one completion call, got %d", len(svc.params))
	}
	// system + assistant + user, placeholder skipped
	if got := len(svc.params[0].Messages); got != 3 {
		t.Errorf("expected 3 messages sent, got %d", got)
	}
}

func TestChat_ServiceError(t *testing.T) {
	client := &Client{chat: &mockChatService{err: errors.New("service failure")}}
	_, err := client.Chat(context.Background(), "sys", nil)
	if err == nil || !strings.Contains(err.Error(), "service failure") {
		t.Errorf("expected service failure error, got %v", err)
	}
}

func TestChat_NoChoices(t *testing.T) {
	client := &Client{chat: &mockChatService{resp: &openai.ChatCompletion{}}}
	_, err := client.Chat(context.Background(), "sys", nil)
	if !errors.Is(err, ErrNoChoicesReturned) {
		t.Errorf("expected ErrNoChoicesReturned, got %v", err)
	}
}

func TestIdentifyAirport_Success(t *testing.T) {
	call := openai.ChatCompletionMessageToolCall{
		ID: "call_1",
		Function: openai.ChatCompletionMessageToolCallFunction{
			Name:      AirportFunctionName,
			Arguments: `{"correctedCity":"Winnipeg","region":"Manitoba","country":"Canada","airportName":"Winnipeg James Armstrong Richardson International Airport","iataCode":"ywg"}`,
		},
	}
	svc := &mockChatService{resp: completion("", call)}
	client := &Client{chat: svc, model: DefaultModel}

	rec, err := client.IdentifyAirport(context.Background(), "winipeg")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.City != "Winnipeg" || rec.IATACode != "YWG" {
		t.Errorf("unexpected record %+v", rec)
	}
	if err := rec.Validate(); err != nil {
		t.Errorf("expected valid record, got %v", err)
	}

	p := svc.params[0]
	if len(p.Tools) != 1 || p.Tools[0].Function.Name != AirportFunctionName {
		t.Errorf("expected airport tool in request, got %+v", p.Tools)
	}
	if p.ToolChoice.OfChatCompletionNamedToolChoice == nil ||
		p.ToolChoice.OfChatCompletionNamedToolChoice.Function.Name != AirportFunctionName {
		t.Error("expected the airport function to be forced")
	}
}

func TestIdentifyAirport_Failures(t *testing.T) {
	tests := []struct {
		name    string
		svc     *mockChatService
		wantErr error
	}{
		{"no tool call", &mockChatService{resp: completion("I think you mean Winnipeg")}, ErrNoToolCall},
		{"no choices", &mockChatService{resp: &openai.ChatCompletion{}}, ErrNoChoicesReturned},
		{"bad arguments", &mockChatService{resp: completion("", openai.ChatCompletionMessageToolCall{
			Function: openai.ChatCompletionMessageToolCallFunction{Name: AirportFunctionName, Arguments: "{not json"},
		})}, nil},
		{"service error", &mockChatService{err: errors.New("timeout")}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &Client{chat: tt.svc}
			_, err := client.IdentifyAirport(context.Background(), "x")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNewClient_NoKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewClient(); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestNewClient_WithKey(t *testing.T) {
	client, err := NewClient(WithAPIKey("test-key"), WithModel("gpt-4o"), WithTemperature(0.1))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if client.model != "gpt-4o" || client.temperature != 0.1 {
		t.Errorf("options not applied: model=%s temperature=%v", client.model, client.temperature)
	}
}

func TestMockClientImplementsInterface(t *testing.T) {
	var _ ClientInterface = (*Client)(nil)
	var _ ClientInterface = (*MockClient)(nil)
}
