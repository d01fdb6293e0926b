// Package models defines the data structures shared by the TripConcierge components.
//
// It covers dialogue steps and transcript messages, airport records, flight offers,
// the hotel and entertainment catalog, course details and the API envelope.
package models

import (
	"errors"
	"time"
)

// DialogueStep identifies one question of the guided flight interview.
type DialogueStep string

const (
	// StepNone means no guided step is active and input is treated as free-form chat.
	StepNone              DialogueStep = ""
	StepDepartureLocation DialogueStep = "departure_location"
	StepConfirmDeparture  DialogueStep = "confirm_departure"
	StepArrivalTiming     DialogueStep = "arrival_timing"
	// StepTravelDates is only visited when the arrival timing answer asks for extra days.
	StepTravelDates   DialogueStep = "travel_dates"
	StepCompanions    DialogueStep = "companions"
	StepCabinClass    DialogueStep = "cabin_class"
	StepLayovers      DialogueStep = "layovers"
	StepDepartureTime DialogueStep = "departure_time"
	StepSummary       DialogueStep = "summary"
)

// DialogueSteps lists the guided steps in interview order.
var DialogueSteps = []DialogueStep{
	StepDepartureLocation,
	StepConfirmDeparture,
	StepArrivalTiming,
	StepTravelDates,
	StepCompanions,
	StepCabinClass,
	StepLayovers,
	StepDepartureTime,
	StepSummary,
}

// IsValid reports whether s is StepNone or one of the guided steps.
func (s DialogueStep) IsValid() bool {
	if s == StepNone {
		return true
	}
	for _, step := range DialogueSteps {
		if step == s {
			return true
		}
	}
	return false
}

// Role is the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TypingContent is the sentinel content of a transient typing placeholder.
const TypingContent = "..."

// ErrEmptyContent is returned when a message without content is submitted.
var ErrEmptyContent = errors.New("message content cannot be empty")

// Message is one entry of a session transcript.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	// QuickReplies holds the fixed answer labels offered with an assistant question.
	QuickReplies []string `json:"quickReplies,omitempty"`
	// Typing marks a placeholder that has not been resolved yet.
	Typing bool `json:"typing,omitempty"`
}

// IsPlaceholder reports whether m is an unresolved typing placeholder.
func (m Message) IsPlaceholder() bool {
	return m.Typing
}
