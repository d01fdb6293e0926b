// Package offers fabricates flight offers from interview answers and serves
// the hotel and entertainment catalog.
package offers

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/BTreeMap/TripConcierge/internal/models"
)

const (
	TripType     = "Round Trip"
	Currency     = "USD"
	DefaultCabin = "Economy"
	AirlineLogo  = "/placeholder.svg?height=40&width=40"
	// DateLayout formats offer dates, e.g. "April 14, 2025".
	DateLayout = "January 2, 2006"

	FallbackOutboundDate = "April 9, 2024"
	FallbackReturnDate   = "April 16, 2024"
)

// Destination is the arrival airport of every outbound offer.
var Destination = models.AirportRecord{
	City:        "Las Vegas",
	Region:      "NV",
	Country:     "USA",
	AirportName: "Harry Reid International Airport",
	IATACode:    "LAS",
	Latitude:    36.0840,
	Longitude:   -115.1537,
}

// CourseDates is the course window the trip is anchored to. Zero values mean unknown.
type CourseDates struct {
	Start time.Time
	End   time.Time
}

// DatesOf extracts the course window.
func DatesOf(c models.Course) CourseDates {
	return CourseDates{Start: c.StartDate, End: c.EndDate}
}

// Offers is one synthesized batch.
type Offers struct {
	Outbound []models.FlightOffer `json:"outbound"`
	Return   []models.FlightOffer `json:"return"`
}

// All returns outbound then return offers.
func (o Offers) All() []models.FlightOffer {
	return append(append([]models.FlightOffer(nil), o.Outbound...), o.Return...)
}

// Find returns the offer with id.
func (o Offers) Find(id string) (models.FlightOffer, bool) {
	return lo.Find(o.All(), func(f models.FlightOffer) bool { return f.ID == id })
}

// Opts holds configuration options for the Synthesizer.
type Opts struct {
	ExplicitTravelDates bool
}

// Option defines a configuration option for the Synthesizer.
type Option func(*Opts)

// WithExplicitTravelDates makes ISO dates typed at the travel dates step
// override the course-derived dates. Without it they are ignored.
func WithExplicitTravelDates() Option {
	return func(o *Opts) {
		o.ExplicitTravelDates = true
	}
}

// Synthesizer builds the canned offer batch.
type Synthesizer struct {
	explicitDates bool
}

// NewSynthesizer creates a Synthesizer.
func NewSynthesizer(opts ...Option) *Synthesizer {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Synthesizer{explicitDates: cfg.ExplicitTravelDates}
}

// Synthesize returns offers departing from airport on dates derived from the course.
// The output depends only on its arguments.
func (s *Synthesizer) Synthesize(prefs map[models.DialogueStep]string, airport models.AirportRecord, dates CourseDates) Offers {
	cabin := prefs[models.StepCabinClass]
	if cabin == "" {
		cabin = DefaultCabin
	}
	passengers := Travelers(prefs[models.StepCompanions])
	outDate, retDate := s.travelDates(prefs, dates)
	slog.Debug("Synthesizer.Synthesize", "from", airport.IATACode, "cabin", cabin, "outbound", outDate, "return", retDate, "passengers", passengers)

	return Offers{
		Outbound: lo.Map(outboundRoster, func(l leg, _ int) models.FlightOffer {
			return l.offer(airport, Destination, outDate, cabin, passengers)
		}),
		Return: lo.Map(returnRoster, func(l leg, _ int) models.FlightOffer {
			return l.offer(Destination, airport, retDate, cabin, passengers)
		}),
	}
}

func (s *Synthesizer) travelDates(prefs map[models.DialogueStep]string, dates CourseDates) (string, string) {
	out, ret := FallbackOutboundDate, FallbackReturnDate
	if !dates.Start.IsZero() {
		d := dates.Start.AddDate(0, 0, -1)
		if arrivesSameDay(prefs[models.StepArrivalTiming]) {
			d = dates.Start
		}
		out = d.Format(DateLayout)
	}
	if !dates.End.IsZero() {
		ret = dates.End.AddDate(0, 0, 1).Format(DateLayout)
	}

	if s.explicitDates {
		typed := ParseTravelDates(prefs[models.StepTravelDates])
		if len(typed) > 0 {
			out = typed[0].Format(DateLayout)
		}
		if len(typed) > 1 {
			ret = typed[1].Format(DateLayout)
		}
	}
	return out, ret
}

func arrivesSameDay(arrival string) bool {
	return strings.Contains(strings.ToLower(arrival), "2hrs before")
}

var isoDate = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// ParseTravelDates returns the valid ISO dates found in text, in order.
func ParseTravelDates(text string) []time.Time {
	var out []time.Time
	for _, m := range isoDate.FindAllString(text, -1) {
		t, err := time.Parse("2006-01-02", m)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	return out
}

var firstNumber = regexp.MustCompile(`\d+`)

// Travelers derives the passenger count from the companions answer.
// Companions are counted in addition to the user; an unknown count means one companion.
func Travelers(companions string) int {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(companions)), "with companions") {
		return 1
	}
	n, err := strconv.Atoi(firstNumber.FindString(companions))
	if err != nil || n < 1 {
		return 2
	}
	return n + 1
}
