package flow

import (
	"strings"

	"github.com/BTreeMap/TripConcierge/internal/models"
)

// Choice is an answer to a guided step. The set of implementations is closed:
// one enum type per fixed-choice step plus FreeText for anything else.
type Choice interface {
	// Label is the literal text recorded in the preference store.
	Label() string
	isChoice()
}

// FreeText is typed input accepted verbatim.
type FreeText string

func (f FreeText) Label() string { return string(f) }
func (FreeText) isChoice()       {}

// Confirmation answers the departure confirmation question.
type Confirmation int

const (
	ConfirmYes Confirmation = iota
	ConfirmNo
)

func (c Confirmation) Label() string {
	if c == ConfirmNo {
		return "No, let me clarify"
	}
	return "Yes, that's correct"
}
func (Confirmation) isChoice() {}

// ArrivalPlan answers the arrival timing question.
type ArrivalPlan int

const (
	ArriveDayBefore ArrivalPlan = iota
	ArriveHoursBefore
	ArriveExtraDays
)

func (a ArrivalPlan) Label() string {
	switch a {
	case ArriveHoursBefore:
		return "Arrive as late as 2hrs before my course"
	case ArriveExtraDays:
		return "Stay extra days before or after my course"
	default:
		return "Arrive the day before my course"
	}
}
func (ArrivalPlan) isChoice() {}

// Party answers the companions question.
type Party int

const (
	TravelAlone Party = iota
	TravelWithCompanions
)

func (p Party) Label() string {
	if p == TravelWithCompanions {
		return "With companions"
	}
	return "Alone"
}
func (Party) isChoice() {}

// Cabin answers the cabin class question.
type Cabin int

const (
	CabinEconomy Cabin = iota
	CabinBusiness
	CabinFirst
)

func (c Cabin) Label() string {
	switch c {
	case CabinBusiness:
		return "Business Class"
	case CabinFirst:
		return "First Class"
	default:
		return "Economy"
	}
}
func (Cabin) isChoice() {}

// Layover answers the layover flexibility question.
type Layover int

const (
	LayoverDirectOnly Layover = iota
	LayoverOneStop
	LayoverAny
)

func (l Layover) Label() string {
	switch l {
	case LayoverOneStop:
		return "1 stop"
	case LayoverAny:
		return "Doesn't matter"
	default:
		return "Direct flights only"
	}
}
func (Layover) isChoice() {}

// DepartureWindow answers the departure time question.
type DepartureWindow int

const (
	WindowEarly DepartureWindow = iota
	WindowDaytime
	WindowEvening
)

func (w DepartureWindow) Label() string {
	switch w {
	case WindowDaytime:
		return "Daytime (9 AM - 5 PM)"
	case WindowEvening:
		return "Evening (after 5PM)"
	default:
		return "Early AM (before 9AM)"
	}
}
func (DepartureWindow) isChoice() {}

var stepChoices = map[models.DialogueStep][]Choice{
	models.StepConfirmDeparture: {ConfirmYes, ConfirmNo},
	models.StepArrivalTiming:    {ArriveDayBefore, ArriveHoursBefore, ArriveExtraDays},
	models.StepCompanions:       {TravelAlone, TravelWithCompanions},
	models.StepCabinClass:       {CabinEconomy, CabinBusiness, CabinFirst},
	models.StepLayovers:         {LayoverDirectOnly, LayoverOneStop, LayoverAny},
	models.StepDepartureTime:    {WindowEarly, WindowDaytime, WindowEvening},
}

// Options returns the quick-reply labels offered for step, or nil for free-text steps.
func Options(step models.DialogueStep) []string {
	choices := stepChoices[step]
	if len(choices) == 0 {
		return nil
	}
	labels := make([]string, len(choices))
	for i, c := range choices {
		labels[i] = c.Label()
	}
	return labels
}

// ParseChoice maps input for step to its typed choice. Labels match case-insensitively;
// anything else becomes FreeText.
func ParseChoice(step models.DialogueStep, input string) Choice {
	text := strings.TrimSpace(input)
	for _, c := range stepChoices[step] {
		if strings.EqualFold(text, c.Label()) {
			return c
		}
	}
	return FreeText(text)
}
