// Package genai wraps the OpenAI chat completion API for the concierge.
//
// It answers free-form chat turns and identifies departure airports through
// function calling.
package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/BTreeMap/TripConcierge/internal/models"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = openai.ChatModelGPT4oMini
	// DefaultTemperature keeps answers focused.
	DefaultTemperature = 0.3
	// AirportFunctionName is the tool the model must call to identify an airport.
	AirportFunctionName = "get_airport_information"
)

var (
	ErrNoAPIKey          = errors.New("OpenAI API key not set")
	ErrNoChoicesReturned = errors.New("no choices returned")
	ErrNoToolCall        = errors.New("model did not call the airport function")
)

// ClientInterface is the surface the concierge uses, satisfied by Client and MockClient.
type ClientInterface interface {
	Chat(ctx context.Context, systemPrompt string, history []models.Message) (string, error)
	IdentifyAirport(ctx context.Context, location string) (models.AirportRecord, error)
}

// chatService is the subset of the OpenAI SDK the client calls.
type chatService interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Opts holds configuration options for the GenAI client.
type Opts struct {
	APIKey      string
	Model       string
	Temperature float64
}

// Option defines a configuration option for the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) {
		o.APIKey = key
	}
}

// WithModel sets the chat model.
func WithModel(model string) Option {
	return func(o *Opts) {
		o.Model = model
	}
}

// WithTemperature sets the sampling temperature for chat turns.
func WithTemperature(t float64) Option {
	return func(o *Opts) {
		o.Temperature = t
	}
}

// Client calls the OpenAI chat completion API.
type Client struct {
	chat        chatService
	model       string
	temperature float64
}

// NewClient creates a client. The key falls back to OPENAI_API_KEY.
func NewClient(opts ...Option) (*Client, error) {
	cfg := Opts{Model: DefaultModel, Temperature: DefaultTemperature}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	slog.Debug("genai.NewClient invoked", "apiKey_set", cfg.APIKey != "", "model", cfg.Model)
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	cli := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	return &Client{chat: &cli.Chat.Completions, model: cfg.Model, temperature: cfg.Temperature}, nil
}

// Chat sends the system prompt and transcript and returns the assistant reply.
// Typing placeholders in history are skipped.
func (c *Client) Chat(ctx context.Context, systemPrompt string, history []models.Message) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(systemPrompt)}
	for _, m := range history {
		if m.IsPlaceholder() || m.Content == "" {
			continue
		}
		switch m.Role {
		case models.RoleUser:
			messages = append(messages, openai.UserMessage(m.Content))
		case models.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		}
	}
	slog.Debug("genai.Chat invoked", "messages", len(messages), "model", c.model)

	resp, err := c.chat.New(ctx, openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    messages,
		Temperature: openai.Float(c.temperature),
	})
	if err != nil {
		slog.Error("genai.Chat completion failed", "error", err)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrNoChoicesReturned
	}
	return resp.Choices[0].Message.Content, nil
}

var airportParameters = shared.FunctionParameters{
	"type": "object",
	"properties": map[string]any{
		"correctedCity": map[string]string{"type": "string", "description": "The correctly spelled city name"},
		"region":        map[string]string{"type": "string", "description": "Province, state or region"},
		"country":       map[string]string{"type": "string", "description": "Country name"},
		"airportName":   map[string]string{"type": "string", "description": "Full airport name"},
		"iataCode":      map[string]string{"type": "string", "description": "IATA 3-letter airport code"},
	},
	"required": []string{"correctedCity", "region", "country", "airportName", "iataCode"},
}

// IdentifyAirport asks the model to correct the location and return structured airport data.
func (c *Client) IdentifyAirport(ctx context.Context, location string) (models.AirportRecord, error) {
	slog.Debug("genai.IdentifyAirport invoked", "location", location)
	user := fmt.Sprintf("The user entered %q as their departure city or airport code. Correct any misspellings and provide complete airport information.", location)

	resp, err := c.chat.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are a travel assistant that provides accurate airport information."),
			openai.UserMessage(user),
		},
		Tools: []openai.ChatCompletionToolParam{{
			Function: shared.FunctionDefinitionParam{
				Name:        AirportFunctionName,
				Description: openai.String("Get complete and accurate airport information for a given city input"),
				Parameters:  airportParameters,
			},
		}},
		ToolChoice: openai.ChatCompletionToolChoiceOptionUnionParam{
			OfChatCompletionNamedToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
				Function: openai.ChatCompletionNamedToolChoiceFunctionParam{Name: AirportFunctionName},
			},
		},
	})
	if err != nil {
		slog.Error("genai.IdentifyAirport completion failed", "error", err)
		return models.AirportRecord{}, fmt.Errorf("airport identification failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return models.AirportRecord{}, ErrNoChoicesReturned
	}

	for _, call := range resp.Choices[0].Message.ToolCalls {
		if call.Function.Name != AirportFunctionName {
			continue
		}
		var info models.AirportInfo
		if err := json.Unmarshal([]byte(call.Function.Arguments), &info); err != nil {
			return models.AirportRecord{}, fmt.Errorf("failed to decode airport arguments: %w", err)
		}
		rec := info.Record()
		slog.Debug("genai.IdentifyAirport succeeded", "location", location, "code", rec.IATACode)
		return rec, nil
	}
	return models.AirportRecord{}, ErrNoToolCall
}
