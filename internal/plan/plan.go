// Package plan tracks the flights, hotel and entertainment a user has picked and
// evaluates the running total against a budget.
package plan

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/BTreeMap/TripConcierge/internal/models"
)

// Leg is the direction of a flight selection.
type Leg string

const (
	LegDeparture Leg = "departure"
	LegReturn    Leg = "return"
)

// ErrUnknownLeg is returned for a leg other than departure or return.
var ErrUnknownLeg = errors.New("unknown flight leg")

// ParseLeg validates a leg name.
func ParseLeg(s string) (Leg, error) {
	switch Leg(strings.ToLower(strings.TrimSpace(s))) {
	case LegDeparture:
		return LegDeparture, nil
	case LegReturn:
		return LegReturn, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLeg, s)
}

// Snapshot is a point-in-time copy of a plan.
type Snapshot struct {
	DepartureFlight *models.FlightOffer    `json:"departureFlight"`
	ReturnFlight    *models.FlightOffer    `json:"returnFlight"`
	Hotel           *models.Hotel          `json:"hotel"`
	Entertainment   []models.Entertainment `json:"entertainment"`
	CurrentSpend    float64                `json:"currentSpend"`
	Budget          float64                `json:"budget,omitempty"`
}

// Expenses splits the spend of the snapshot by category.
func (s Snapshot) Expenses() Expenses {
	var e Expenses
	if s.DepartureFlight != nil {
		e.Flights += s.DepartureFlight.Price.Amount
	}
	if s.ReturnFlight != nil {
		e.Flights += s.ReturnFlight.Price.Amount
	}
	if s.Hotel != nil {
		e.Hotel = s.Hotel.TotalPrice
	}
	e.Entertainment = lo.SumBy(s.Entertainment, func(item models.Entertainment) float64 { return item.Price })
	return e
}

// TravelPlan is the mutable selection of one session. It is safe for concurrent use.
type TravelPlan struct {
	mu            sync.RWMutex
	departure     *models.FlightOffer
	ret           *models.FlightOffer
	hotel         *models.Hotel
	entertainment []models.Entertainment
	budget        float64
}

// New returns an empty plan.
func New() *TravelPlan {
	return &TravelPlan{}
}

// SelectFlight sets the flight for leg, replacing any previous pick.
func (p *TravelPlan) SelectFlight(offer models.FlightOffer, leg Leg) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch leg {
	case LegDeparture:
		p.departure = &offer
	case LegReturn:
		p.ret = &offer
	default:
		return fmt.Errorf("%w: %q", ErrUnknownLeg, leg)
	}
	slog.Debug("TravelPlan.SelectFlight", "leg", leg, "flight", offer.ID)
	return nil
}

// RemoveFlight clears the flight for leg.
func (p *TravelPlan) RemoveFlight(leg Leg) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch leg {
	case LegDeparture:
		p.departure = nil
	case LegReturn:
		p.ret = nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownLeg, leg)
	}
	return nil
}

// SelectHotel sets the hotel.
func (p *TravelPlan) SelectHotel(h models.Hotel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hotel = &h
}

// RemoveHotel clears the hotel.
func (p *TravelPlan) RemoveHotel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hotel = nil
}

// ToggleEntertainment adds e, or removes it when an entry with the same name
// (ignoring case) is already selected. It reports whether e is selected afterwards.
func (p *TravelPlan) ToggleEntertainment(e models.Entertainment) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.hasEntertainment(e.Name) {
		p.entertainment = lo.Reject(p.entertainment, func(item models.Entertainment, _ int) bool {
			return strings.EqualFold(item.Name, e.Name)
		})
		return false
	}
	p.entertainment = append(p.entertainment, e)
	return true
}

// RemoveEntertainment drops the entry named name and reports whether one was removed.
func (p *TravelPlan) RemoveEntertainment(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.hasEntertainment(name) {
		return false
	}
	p.entertainment = lo.Reject(p.entertainment, func(item models.Entertainment, _ int) bool {
		return strings.EqualFold(item.Name, name)
	})
	return true
}

func (p *TravelPlan) hasEntertainment(name string) bool {
	return lo.SomeBy(p.entertainment, func(item models.Entertainment) bool {
		return strings.EqualFold(item.Name, name)
	})
}

// SetBudget sets the total trip budget. Zero clears it.
func (p *TravelPlan) SetBudget(total float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.budget = total
}

// Reset clears every selection and the budget.
func (p *TravelPlan) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.departure, p.ret, p.hotel = nil, nil, nil
	p.entertainment = nil
	p.budget = 0
}

// Snapshot returns a copy of the plan with the current spend filled in.
func (p *TravelPlan) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := Snapshot{
		Entertainment: append([]models.Entertainment{}, p.entertainment...),
		Budget:        p.budget,
	}
	if p.departure != nil {
		d := *p.departure
		s.DepartureFlight = &d
	}
	if p.ret != nil {
		r := *p.ret
		s.ReturnFlight = &r
	}
	if p.hotel != nil {
		h := *p.hotel
		s.Hotel = &h
	}
	s.CurrentSpend = s.Expenses().Total()
	return s
}

// CurrentSpend returns the total cost of the selections.
func (p *TravelPlan) CurrentSpend() float64 {
	return p.Snapshot().CurrentSpend
}
