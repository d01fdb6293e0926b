// Package flow drives the guided flight-preference interview.
//
// The step machine in this file is pure; Session performs the effects it requests
// (airport resolution, pacing, offer synthesis) and owns the transcript.
package flow

import (
	"fmt"
	"strings"

	"github.com/BTreeMap/TripConcierge/internal/models"
)

// Cursor is the position of a session in the interview.
type Cursor struct {
	Step models.DialogueStep `json:"step"`
	// AwaitingHeadcount is the nested prompt asked after "With companions".
	AwaitingHeadcount bool `json:"awaitingHeadcount,omitempty"`
}

// Effect is work the caller performs after applying a transition.
type Effect int

const (
	// EffectResolveAirport resolves the recorded departure text. On success the caller
	// moves to Next and asks for confirmation; on failure it moves to OnFailure.
	EffectResolveAirport Effect = iota + 1
	// EffectAsk asks the question of Next.Step.
	EffectAsk
	// EffectAskHeadcount asks how many people travel along.
	EffectAskHeadcount
	// EffectSynthesizeOffers summarizes preferences and presents flight offers.
	EffectSynthesizeOffers
)

func (e Effect) String() string {
	switch e {
	case EffectResolveAirport:
		return "resolve_airport"
	case EffectAsk:
		return "ask"
	case EffectAskHeadcount:
		return "ask_headcount"
	case EffectSynthesizeOffers:
		return "synthesize_offers"
	default:
		return fmt.Sprintf("effect(%d)", int(e))
	}
}

// Preference is a single answer to record.
type Preference struct {
	Step  models.DialogueStep
	Value string
}

// Transition is the outcome of applying a choice to a cursor.
type Transition struct {
	Next      Cursor
	OnFailure Cursor
	Record    Preference
	Effects   []Effect
}

// HasRecord reports whether the transition carries a preference update.
func (t Transition) HasRecord() bool {
	return t.Record.Step != models.StepNone
}

// Has reports whether e is among the requested effects.
func (t Transition) Has(e Effect) bool {
	for _, x := range t.Effects {
		if x == e {
			return true
		}
	}
	return false
}

// Advance applies choice at cursor. It has no side effects and depends only on its arguments.
func Advance(cursor Cursor, choice Choice) Transition {
	step := cursor.Step
	label := choice.Label()
	record := Preference{Step: step, Value: label}
	ask := func(next models.DialogueStep) Transition {
		return Transition{Next: Cursor{Step: next}, OnFailure: Cursor{Step: next}, Record: record, Effects: []Effect{EffectAsk}}
	}

	switch step {
	case models.StepDepartureLocation:
		return Transition{
			Next:      Cursor{Step: models.StepConfirmDeparture},
			OnFailure: Cursor{Step: models.StepDepartureLocation},
			Record:    record,
			Effects:   []Effect{EffectResolveAirport},
		}

	case models.StepConfirmDeparture:
		if choice == ConfirmNo {
			return ask(models.StepDepartureLocation)
		}
		return ask(models.StepArrivalTiming)

	case models.StepArrivalTiming:
		if wantsExtraDays(choice) {
			return ask(models.StepTravelDates)
		}
		return ask(models.StepCompanions)

	case models.StepTravelDates:
		return ask(models.StepCompanions)

	case models.StepCompanions:
		if cursor.AwaitingHeadcount {
			record.Value = fmt.Sprintf("%s (%s)", TravelWithCompanions.Label(), label)
			t := ask(models.StepCabinClass)
			t.Record = record
			return t
		}
		if choice == TravelWithCompanions {
			next := Cursor{Step: models.StepCompanions, AwaitingHeadcount: true}
			return Transition{Next: next, OnFailure: next, Record: record, Effects: []Effect{EffectAskHeadcount}}
		}
		return ask(models.StepCabinClass)

	case models.StepCabinClass:
		return ask(models.StepLayovers)

	case models.StepLayovers:
		return ask(models.StepDepartureTime)

	case models.StepDepartureTime:
		return ask(models.StepSummary)

	case models.StepSummary:
		return Transition{Effects: []Effect{EffectSynthesizeOffers}}
	}

	// No guided step is active.
	return Transition{Next: cursor, OnFailure: cursor}
}

func wantsExtraDays(choice Choice) bool {
	if choice == ArriveExtraDays {
		return true
	}
	if _, ok := choice.(FreeText); ok {
		return strings.Contains(strings.ToLower(choice.Label()), "extra days")
	}
	return false
}
