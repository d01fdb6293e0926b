// Package itinerary exports a travel plan as an iCalendar document.
//
// Flight times are wall-clock times at each airport; the time zone of an airport
// is derived from its coordinates.
package itinerary

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	ics "github.com/arran4/golang-ical"
	"github.com/ringsaturn/tzf"

	"github.com/BTreeMap/TripConcierge/internal/models"
	"github.com/BTreeMap/TripConcierge/internal/offers"
	"github.com/BTreeMap/TripConcierge/internal/plan"
)

const (
	ProductID = "-//TripConcierge//Itinerary//EN"

	flightLayout = "January 2, 2006 3:04 PM"
)

// ErrEmptyItinerary is returned when there is nothing to put on a calendar.
var ErrEmptyItinerary = errors.New("itinerary has no events")

// ZoneFinder names the IANA time zone at a coordinate.
type ZoneFinder interface {
	GetTimezoneName(lng float64, lat float64) string
}

// AirportLocator finds an airport with coordinates by IATA code.
type AirportLocator interface {
	ByCode(code string) (models.AirportRecord, bool)
}

// Opts holds configuration options for the Builder.
type Opts struct {
	Finder   ZoneFinder
	Airports AirportLocator
	Now      func() time.Time
}

// Option defines a configuration option for the Builder.
type Option func(*Opts)

// WithZoneFinder replaces the bundled time zone finder.
func WithZoneFinder(f ZoneFinder) Option {
	return func(o *Opts) {
		o.Finder = f
	}
}

// WithAirports sets where airport coordinates are looked up.
func WithAirports(l AirportLocator) Option {
	return func(o *Opts) {
		o.Airports = l
	}
}

// WithClock sets the time used for DTSTAMP.
func WithClock(now func() time.Time) Option {
	return func(o *Opts) {
		o.Now = now
	}
}

// Builder renders travel plans as calendars.
type Builder struct {
	finder   ZoneFinder
	airports AirportLocator
	now      func() time.Time

	once      sync.Once
	finderErr error
}

// NewBuilder creates a Builder. Without WithZoneFinder the tzf default finder is
// loaded on first use.
func NewBuilder(opts ...Option) *Builder {
	cfg := Opts{Now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Builder{finder: cfg.Finder, airports: cfg.Airports, now: cfg.Now}
}

func (b *Builder) zoneFinder() (ZoneFinder, error) {
	b.once.Do(func() {
		if b.finder != nil {
			return
		}
		f, err := tzf.NewDefaultFinder()
		if err != nil {
			b.finderErr = fmt.Errorf("failed to load time zone finder: %w", err)
			return
		}
		b.finder = f
	})
	return b.finder, b.finderErr
}

// Trip is everything that goes on the calendar.
type Trip struct {
	Course   *models.Course
	Plan     plan.Snapshot
	CheckIn  time.Time
	CheckOut time.Time
}

// Build returns the serialized calendar for trip.
func (b *Builder) Build(trip Trip) (string, error) {
	finder, err := b.zoneFinder()
	if err != nil {
		slog.Error("Builder.Build: no time zone finder", "error", err)
		return "", err
	}

	venue := b.location(finder, offers.Destination)
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(ProductID)
	stamp := b.now().UTC()
	events := 0

	if c := trip.Course; c != nil && c.HasDates() {
		ev := cal.AddEvent("course-" + c.ID + "@tripconcierge")
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(wallClock(c.StartDate, venue))
		ev.SetEndAt(wallClock(c.EndDate, venue))
		ev.SetSummary(c.Name)
		ev.SetLocation(strings.TrimSuffix(c.Venue+", "+c.VenueAddress, ", "))
		events++
	}

	for _, f := range []*models.FlightOffer{trip.Plan.DepartureFlight, trip.Plan.ReturnFlight} {
		if f == nil {
			continue
		}
		start, end, err := b.flightTimes(finder, *f)
		if err != nil {
			slog.Warn("Builder.Build: skipping flight", "flight", f.ID, "error", err)
			continue
		}
		ev := cal.AddEvent("flight-" + f.ID + "@tripconcierge")
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(start)
		ev.SetEndAt(end)
		ev.SetSummary(fmt.Sprintf("%s %s %s to %s", f.Airline.Name, f.ID, f.Departure.Code, f.Arrival.Code))
		ev.SetLocation(f.Departure.Airport)
		ev.SetDescription(fmt.Sprintf("%s, %d passenger(s), %s", f.Cabin, f.Passengers, f.Duration))
		events++
	}

	if h := trip.Plan.Hotel; h != nil && !trip.CheckIn.IsZero() && !trip.CheckOut.IsZero() {
		ev := cal.AddEvent("hotel-" + h.ID + "@tripconcierge")
		ev.SetDtStampTime(stamp)
		ev.SetAllDayStartAt(trip.CheckIn)
		ev.SetAllDayEndAt(trip.CheckOut)
		ev.SetSummary("Stay at " + h.Name)
		ev.SetLocation(h.Name)
		ev.SetDescription(hotelDescription(*h, trip.Plan.Entertainment))
		events++
	}

	if events == 0 {
		return "", ErrEmptyItinerary
	}
	slog.Debug("Builder.Build", "events", events)
	return cal.Serialize(), nil
}

func hotelDescription(h models.Hotel, fun []models.Entertainment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d nights, %s total", h.Nights, plan.Money(h.TotalPrice))
	for _, e := range fun {
		fmt.Fprintf(&b, "\nPlanned: %s (%s)", e.Name, e.Location)
	}
	return b.String()
}

// flightTimes converts the offer's wall-clock times to instants. An arrival that
// would precede departure is derived from the flight duration instead.
func (b *Builder) flightTimes(finder ZoneFinder, f models.FlightOffer) (time.Time, time.Time, error) {
	fromLoc := b.zoneFor(finder, f.Departure.Code)
	toLoc := b.zoneFor(finder, f.Arrival.Code)

	start, err := time.ParseInLocation(flightLayout, f.Departure.Date+" "+f.Departure.Time, fromLoc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("failed to parse departure of %s: %w", f.ID, err)
	}
	end, err := time.ParseInLocation(flightLayout, f.Arrival.Date+" "+f.Arrival.Time, toLoc)
	if err != nil || !end.After(start) {
		d, derr := time.ParseDuration(strings.ReplaceAll(f.Duration, " ", ""))
		if derr != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("failed to derive arrival of %s: %w", f.ID, derr)
		}
		end = start.Add(d)
	}
	return start, end, nil
}

func (b *Builder) zoneFor(finder ZoneFinder, code string) *time.Location {
	if code == offers.Destination.IATACode {
		return b.location(finder, offers.Destination)
	}
	if b.airports != nil {
		if rec, ok := b.airports.ByCode(code); ok {
			return b.location(finder, rec)
		}
	}
	slog.Debug("Builder.zoneFor: unknown airport, using UTC", "code", code)
	return time.UTC
}

func (b *Builder) location(finder ZoneFinder, a models.AirportRecord) *time.Location {
	if !a.HasLocation() {
		return time.UTC
	}
	name := finder.GetTimezoneName(a.Longitude, a.Latitude)
	loc, err := time.LoadLocation(name)
	if name == "" || err != nil {
		slog.Warn("Builder.location: falling back to UTC", "code", a.IATACode, "zone", name, "error", err)
		return time.UTC
	}
	return loc
}

// wallClock keeps the clock reading of t but places it in loc.
func wallClock(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
}
