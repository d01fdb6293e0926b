package models

import (
	"errors"
	"strings"
)

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse is the envelope every JSON endpoint returns.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// APIResponseBuilder provides a fluent interface for building API responses.
type APIResponseBuilder struct {
	response APIResponse
}

// NewAPIResponseBuilder creates a new APIResponseBuilder instance.
func NewAPIResponseBuilder() *APIResponseBuilder {
	return &APIResponseBuilder{}
}

func (b *APIResponseBuilder) WithStatus(status APIStatus) *APIResponseBuilder {
	b.response.Status = string(status)
	return b
}

func (b *APIResponseBuilder) WithMessage(message string) *APIResponseBuilder {
	b.response.Message = message
	return b
}

func (b *APIResponseBuilder) WithResult(result interface{}) *APIResponseBuilder {
	b.response.Result = result
	return b
}

// Build returns the assembled response.
func (b *APIResponseBuilder) Build() APIResponse {
	return b.response
}

// Success wraps a result in an ok envelope.
func Success(result interface{}) APIResponse {
	return NewAPIResponseBuilder().WithStatus(APIStatusOK).WithResult(result).Build()
}

// SuccessWithMessage wraps a result and a human readable message in an ok envelope.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return NewAPIResponseBuilder().WithStatus(APIStatusOK).WithMessage(message).WithResult(result).Build()
}

// Error builds an error envelope.
func Error(message string) APIResponse {
	return NewAPIResponseBuilder().WithStatus(APIStatusError).WithMessage(message).Build()
}

// CreateSessionRequest is the optional body of POST /sessions.
type CreateSessionRequest struct {
	CourseID string `json:"courseId,omitempty"`
}

// MessageRequest is a user message posted to a session.
type MessageRequest struct {
	Content string `json:"content"`
}

// Validate rejects blank messages.
func (r MessageRequest) Validate() error {
	if strings.TrimSpace(r.Content) == "" {
		return ErrEmptyContent
	}
	return nil
}

// SelectFlightRequest picks a presented offer for a leg.
type SelectFlightRequest struct {
	OfferID string `json:"offerId"`
}

// SelectHotelRequest picks a catalog hotel for the stay.
type SelectHotelRequest struct {
	HotelID string `json:"hotelId"`
}

// EntertainmentRequest toggles a catalog entertainment option.
type EntertainmentRequest struct {
	EntertainmentID string `json:"entertainmentId"`
}

// BudgetRequest sets the total trip budget.
type BudgetRequest struct {
	Total float64 `json:"total"`
}

// ShareRequest sends the plan to a phone number over a messaging channel.
type ShareRequest struct {
	Channel string `json:"channel"`
	To      string `json:"to"`
}

// Validate checks that both fields are present.
func (r ShareRequest) Validate() error {
	if strings.TrimSpace(r.Channel) == "" {
		return errors.New("channel is required")
	}
	if strings.TrimSpace(r.To) == "" {
		return errors.New("recipient is required")
	}
	return nil
}

// ChatRequest is a stateless chat exchange.
type ChatRequest struct {
	Messages []Message `json:"messages"`
}
