package itinerary

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/BTreeMap/TripConcierge/internal/airport"
	"github.com/BTreeMap/TripConcierge/internal/course"
	"github.com/BTreeMap/TripConcierge/internal/models"
	"github.com/BTreeMap/TripConcierge/internal/offers"
	"github.com/BTreeMap/TripConcierge/internal/plan"
)

// zonesByLongitude answers with the zone of the first band containing lng.
type zonesByLongitude struct{}

func (zonesByLongitude) GetTimezoneName(lng float64, lat float64) string {
	switch {
	case lng < -110:
		return "America/Los_Angeles"
	case lng < -70:
		return "America/Toronto"
	default:
		return ""
	}
}

func fixedClock() time.Time {
	return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
}

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	table, err := airport.BuiltinTable()
	if err != nil {
		t.Fatalf("BuiltinTable returned error: %v", err)
	}
	return NewBuilder(WithZoneFinder(zonesByLongitude{}), WithAirports(table), WithClock(fixedClock))
}

func torontoTrip(t *testing.T) Trip {
	t.Helper()
	table, err := airport.BuiltinTable()
	if err != nil {
		t.Fatalf("BuiltinTable returned error: %v", err)
	}
	yyz, ok := table.ByCode("YYZ")
	if !ok {
		t.Fatal("YYZ missing from builtin table")
	}
	c := course.MockCourse()
	batch := offers.NewSynthesizer().Synthesize(map[models.DialogueStep]string{
		models.StepArrivalTiming: "Arrive the day before my course",
		models.StepCabinClass:    "Business Class",
	}, yyz, offers.DatesOf(c))

	p := plan.New()
	out, _ := batch.Find("DL1932")
	ret, _ := batch.Find("DL1933")
	if err := p.SelectFlight(out, plan.LegDeparture); err != nil {
		t.Fatalf("SelectFlight returned error: %v", err)
	}
	if err := p.SelectFlight(ret, plan.LegReturn); err != nil {
		t.Fatalf("SelectFlight returned error: %v", err)
	}
	p.SelectHotel(models.Hotel{ID: "h1", Name: "Bellagio", Nights: 4, TotalPrice: 1196})
	p.ToggleEntertainment(models.Entertainment{ID: "e1", Name: "O by Cirque du Soleil", Location: "Bellagio", Price: 150})

	return Trip{
		Course:   &c,
		Plan:     p.Snapshot(),
		CheckIn:  time.Date(2025, 4, 14, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2025, 4, 18, 0, 0, 0, 0, time.UTC),
	}
}

// unfold joins folded content lines.
func unfold(s string) string {
	return strings.ReplaceAll(s, "\r\n ", "")
}

func TestBuildFullTrip(t *testing.T) {
	b := newTestBuilder(t)
	out, err := b.Build(torontoTrip(t))
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	cal := unfold(out)

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"PRODID:" + ProductID,
		"METHOD:PUBLISH",
		"UID:course-demo@tripconcierge",
		"SUMMARY:Advanced Cardiology Techniques",
		// 9:00 AM PDT
		"DTSTART:20250415T160000Z",
		"DTEND:20250418T000000Z",
		"UID:flight-DL1932@tripconcierge",
		"SUMMARY:Delta Air Lines DL1932 YYZ to LAS",
		// 10:15 AM EDT to 12:05 PM PDT
		"DTSTART:20250414T141500Z",
		"DTEND:20250414T190500Z",
		"UID:flight-DL1933@tripconcierge",
		"SUMMARY:Stay at Bellagio",
		"DTSTAMP:20250301T120000Z",
		"END:VCALENDAR",
	} {
		if !strings.Contains(cal, want) {
			t.Errorf("calendar missing %q\n%s", want, cal)
		}
	}
	if !strings.Contains(cal, "VALUE=DATE:20250414") || !strings.Contains(cal, "VALUE=DATE:20250418") {
		t.Errorf("hotel stay should be an all-day event\n%s", cal)
	}
	if !strings.Contains(cal, "O by Cirque du Soleil") {
		t.Errorf("hotel description should list planned entertainment\n%s", cal)
	}
	if n := strings.Count(cal, "BEGIN:VEVENT"); n != 4 {
		t.Errorf("expected 4 events, got %d", n)
	}
}

func TestBuildDerivesArrivalFromDuration(t *testing.T) {
	// DL1933 leaves LAS at 3:30 PM PDT and lands in Toronto at 5:25 PM EDT,
	// which is earlier in absolute time; the 1h 55m duration is used instead.
	b := newTestBuilder(t)
	trip := torontoTrip(t)
	trip.Course = nil
	trip.Plan.DepartureFlight = nil
	trip.Plan.Hotel = nil

	out, err := b.Build(trip)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	cal := unfold(out)
	if !strings.Contains(cal, "DTSTART:20250418T223000Z") {
		t.Errorf("unexpected return departure\n%s", cal)
	}
	if !strings.Contains(cal, "DTEND:20250419T002500Z") {
		t.Errorf("return arrival should be derived from duration\n%s", cal)
	}
}

func TestBuildSkipsUnparseableFlights(t *testing.T) {
	b := newTestBuilder(t)
	broken := models.FlightOffer{
		ID:        "XX1",
		Departure: models.FlightEndpoint{Date: "someday", Time: "noon", Code: "YYZ"},
		Arrival:   models.FlightEndpoint{Date: "someday", Time: "later", Code: "LAS"},
		Duration:  "a while",
	}
	_, err := b.Build(Trip{Plan: plan.Snapshot{DepartureFlight: &broken}})
	if !errors.Is(err, ErrEmptyItinerary) {
		t.Errorf("expected ErrEmptyItinerary, got %v", err)
	}
}

func TestBuildEmpty(t *testing.T) {
	b := newTestBuilder(t)
	if _, err := b.Build(Trip{}); !errors.Is(err, ErrEmptyItinerary) {
		t.Errorf("expected ErrEmptyItinerary, got %v", err)
	}

	// A hotel without stay dates is not placed on the calendar.
	trip := Trip{Plan: plan.Snapshot{Hotel: &models.Hotel{ID: "h1", Name: "Bellagio"}}}
	if _, err := b.Build(trip); !errors.Is(err, ErrEmptyItinerary) {
		t.Errorf("expected ErrEmptyItinerary for undated hotel, got %v", err)
	}
}

func TestBuildUnknownAirportUsesUTC(t *testing.T) {
	b := NewBuilder(WithZoneFinder(zonesByLongitude{}), WithClock(fixedClock))
	f := models.FlightOffer{
		ID:        "ZZ9",
		Departure: models.FlightEndpoint{Date: "May 1, 2025", Time: "8:00 AM", Code: "QQQ"},
		Arrival:   models.FlightEndpoint{Date: "May 1, 2025", Time: "9:00 AM", Code: "RRR"},
		Duration:  "1h",
	}
	out, err := b.Build(Trip{Plan: plan.Snapshot{DepartureFlight: &f}})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if !strings.Contains(out, "DTSTART:20250501T080000Z") {
		t.Errorf("expected UTC wall clock\n%s", out)
	}
}

func TestDefaultFinder(t *testing.T) {
	if testing.Short() {
		t.Skip("loading the bundled time zone data is slow")
	}
	b := NewBuilder()
	finder, err := b.zoneFinder()
	if err != nil {
		t.Fatalf("zoneFinder returned error: %v", err)
	}
	if got := finder.GetTimezoneName(offers.Destination.Longitude, offers.Destination.Latitude); got != "America/Los_Angeles" {
		t.Errorf("zone at LAS = %q, want America/Los_Angeles", got)
	}
}
