// Package course provides the booked course a trip is planned around and the
// greeting built from it.
package course

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BTreeMap/TripConcierge/internal/models"
)

// ErrNotFound is returned when no course exists for an id.
var ErrNotFound = errors.New("course not found")

// DateLayout renders course dates in messages, e.g. "Tuesday, April 15, 2025".
const DateLayout = "Monday, January 2, 2006"

// Provider looks up courses by id.
type Provider interface {
	Course(ctx context.Context, id string) (models.Course, error)
}

// MockCourse is the course served when no course store is configured.
func MockCourse() models.Course {
	return models.Course{
		ID:           "demo",
		Name:         "Advanced Cardiology Techniques",
		Venue:        "Las Vegas Convention Center",
		VenueAddress: "3150 Paradise Rd, Las Vegas, NV 89109",
		StartDate:    time.Date(2025, 4, 15, 9, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2025, 4, 17, 17, 0, 0, 0, time.UTC),
	}
}

// StaticProvider serves a fixed set of courses from memory.
type StaticProvider struct {
	courses map[string]models.Course
}

// NewStaticProvider returns a provider serving courses keyed by their id.
func NewStaticProvider(courses ...models.Course) *StaticProvider {
	p := &StaticProvider{courses: make(map[string]models.Course, len(courses))}
	for _, c := range courses {
		p.courses[c.ID] = c
	}
	return p
}

// Course implements Provider.
func (p *StaticProvider) Course(ctx context.Context, id string) (models.Course, error) {
	c, ok := p.courses[id]
	if !ok {
		slog.Debug("StaticProvider.Course: not found", "id", id)
		return models.Course{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c, nil
}

// FormatDate renders t for messages, or "TBD" when unknown.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "TBD"
	}
	return t.Format(DateLayout)
}

// WelcomeMessage greets the user, mentioning the course when one is known.
func WelcomeMessage(c *models.Course) string {
	if c == nil || c.Name == "" {
		return "Hey there! Would you like assistance with booking flights, hotels, or entertainment during your stay in Vegas?"
	}
	return fmt.Sprintf("Hey there! I noticed you just booked \"%s\" at %s from %s to %s. Would you like assistance with booking flights, hotels, or entertainment during your stay in Vegas?",
		c.Name, c.Venue, FormatDate(c.StartDate), FormatDate(c.EndDate))
}
