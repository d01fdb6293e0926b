package flow

import (
	"fmt"
	"strings"
	"sync"

	"github.com/BTreeMap/TripConcierge/internal/models"
)

// SummaryHeading introduces the preference summary.
const SummaryHeading = "To summarize, you're looking for:"

var summaryLabels = []struct {
	step  models.DialogueStep
	label string
}{
	{models.StepDepartureLocation, "Departure"},
	{models.StepArrivalTiming, "Arrival"},
	{models.StepTravelDates, "Travel dates"},
	{models.StepCompanions, "Traveling"},
	{models.StepCabinClass, "Cabin class"},
	{models.StepLayovers, "Layover preference"},
	{models.StepDepartureTime, "Departure time"},
}

// Preferences holds one answer per step. Writes to the same step replace the prior value.
type Preferences struct {
	mu     sync.RWMutex
	values map[models.DialogueStep]string
}

// NewPreferences returns an empty store.
func NewPreferences() *Preferences {
	return &Preferences{values: make(map[models.DialogueStep]string)}
}

// Record stores choice for step.
func (p *Preferences) Record(step models.DialogueStep, choice string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[step] = choice
}

// Get returns the answer recorded for step.
func (p *Preferences) Get(step models.DialogueStep) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.values[step]
	return v, ok
}

// Snapshot returns a copy of every recorded answer.
func (p *Preferences) Snapshot() map[models.DialogueStep]string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[models.DialogueStep]string, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

// Len returns the number of recorded steps.
func (p *Preferences) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.values)
}

// SummaryLine is one labelled answer.
type SummaryLine struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Summary is the human readable digest of the interview.
type Summary struct {
	Heading string        `json:"heading"`
	Lines   []SummaryLine `json:"lines"`
}

// String renders the summary as a bulleted message.
func (s Summary) String() string {
	var b strings.Builder
	b.WriteString(s.Heading)
	for _, l := range s.Lines {
		fmt.Fprintf(&b, "\n- %s: %s", l.Label, l.Value)
	}
	return b.String()
}

// Summarize lists recorded answers in interview order, skipping unanswered steps.
func (p *Preferences) Summarize() Summary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := Summary{Heading: SummaryHeading}
	for _, sl := range summaryLabels {
		if v, ok := p.values[sl.step]; ok && v != "" {
			s.Lines = append(s.Lines, SummaryLine{Label: sl.label, Value: v})
		}
	}
	return s
}
