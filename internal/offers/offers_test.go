package offers

import (
	"reflect"
	"testing"
	"time"

	"github.com/BTreeMap/TripConcierge/internal/models"
)

var toronto = models.AirportRecord{
	City:        "Toronto",
	Region:      "Ontario",
	Country:     "Canada",
	AirportName: "Toronto Pearson International Airport",
	IATACode:    "YYZ",
}

var course = CourseDates{
	Start: time.Date(2025, 4, 15, 9, 0, 0, 0, time.UTC),
	End:   time.Date(2025, 4, 17, 17, 0, 0, 0, time.UTC),
}

func TestSynthesizeRosterAndDates(t *testing.T) {
	s := NewSynthesizer()
	prefs := map[models.DialogueStep]string{
		models.StepArrivalTiming: "Arrive the day before my course",
		models.StepCabinClass:    "Economy",
	}
	got := s.Synthesize(prefs, toronto, course)

	wantOutbound := []struct {
		id     string
		price  float64
		depart string
		stops  int
	}{
		{"UA2458", 458, "7:45 AM", 0},
		{"DL1932", 379, "10:15 AM", 0},
		{"AA4587", 324, "2:30 PM", 1},
		{"WN1234", 299, "6:40 AM", 0},
	}
	if len(got.Outbound) != len(wantOutbound) {
		t.Fatalf("expected %d outbound offers, got %d", len(wantOutbound), len(got.Outbound))
	}
	for i, w := range wantOutbound {
		o := got.Outbound[i]
		if o.ID != w.id || o.Price.Amount != w.price || o.Departure.Time != w.depart || len(o.Stops) != w.stops {
			t.Errorf("outbound[%d] = %s %v %s stops=%d, want %+v", i, o.ID, o.Price.Amount, o.Departure.Time, len(o.Stops), w)
		}
		if o.Departure.Date != "April 14, 2025" {
			t.Errorf("outbound[%d] date = %q, want April 14, 2025", i, o.Departure.Date)
		}
		if o.Departure.City != "Toronto" || o.Departure.Code != "YYZ" || o.Departure.State != "Ontario" {
			t.Errorf("outbound[%d] departs from %+v", i, o.Departure)
		}
		if o.Arrival.Code != "LAS" || o.Arrival.City != "Las Vegas" {
			t.Errorf("outbound[%d] arrives at %+v", i, o.Arrival)
		}
	}
	if stop := got.Outbound[2].Stops[0]; stop.Code != "LAX" || stop.Duration != "1h 15m" {
		t.Errorf("unexpected stop %+v", stop)
	}

	if len(got.Return) != 2 {
		t.Fatalf("expected 2 return offers, got %d", len(got.Return))
	}
	for i, id := range []string{"UA2459", "DL1933"} {
		r := got.Return[i]
		if r.ID != id {
			t.Errorf("return[%d] id = %s, want %s", i, r.ID, id)
		}
		if r.Departure.Code != "LAS" || r.Arrival.Code != "YYZ" {
			t.Errorf("return[%d] route %s->%s, want LAS->YYZ", i, r.Departure.Code, r.Arrival.Code)
		}
		if r.Departure.Date != "April 18, 2025" {
			t.Errorf("return[%d] date = %q, want April 18, 2025", i, r.Departure.Date)
		}
	}

	for _, o := range got.All() {
		if o.TripType != "Round Trip" {
			t.Errorf("%s tripType = %q", o.ID, o.TripType)
		}
		if o.Price.Currency != "USD" || o.Passengers != 1 || o.Stops == nil {
			t.Errorf("%s unexpected fields %+v", o.ID, o)
		}
	}
}

func TestSynthesizeCabinVerbatim(t *testing.T) {
	s := NewSynthesizer()
	for _, cabin := range []string{"Business Class", "First Class", "premium economy please"} {
		got := s.Synthesize(map[models.DialogueStep]string{models.StepCabinClass: cabin}, toronto, course)
		for _, o := range got.All() {
			if o.Cabin != cabin {
				t.Errorf("%s cabin = %q, want %q", o.ID, o.Cabin, cabin)
			}
		}
	}
	got := s.Synthesize(map[models.DialogueStep]string{}, toronto, course)
	if got.Outbound[0].Cabin != DefaultCabin {
		t.Errorf("expected default cabin %q, got %q", DefaultCabin, got.Outbound[0].Cabin)
	}
}

func TestSynthesizeIsDeterministic(t *testing.T) {
	s := NewSynthesizer()
	prefs := map[models.DialogueStep]string{models.StepCabinClass: "Business Class"}
	a := s.Synthesize(prefs, toronto, course)
	b := s.Synthesize(prefs, toronto, course)
	if !reflect.DeepEqual(a, b) {
		t.Error("expected identical output for identical input")
	}
}

func TestSynthesizeArrivalPolicy(t *testing.T) {
	s := NewSynthesizer()
	got := s.Synthesize(map[models.DialogueStep]string{
		models.StepArrivalTiming: "Arrive as late as 2hrs before my course",
	}, toronto, course)
	if got.Outbound[0].Departure.Date != "April 15, 2025" {
		t.Errorf("expected same-day departure, got %q", got.Outbound[0].Departure.Date)
	}
}

func TestSynthesizeMissingCourseDates(t *testing.T) {
	got := NewSynthesizer().Synthesize(nil, toronto, CourseDates{})
	if got.Outbound[0].Departure.Date != FallbackOutboundDate {
		t.Errorf("outbound date = %q, want %q", got.Outbound[0].Departure.Date, FallbackOutboundDate)
	}
	if got.Return[0].Departure.Date != FallbackReturnDate {
		t.Errorf("return date = %q, want %q", got.Return[0].Departure.Date, FallbackReturnDate)
	}
}

func TestSynthesizeTravelDates(t *testing.T) {
	prefs := map[models.DialogueStep]string{
		models.StepArrivalTiming: "Stay extra days before or after my course",
		models.StepTravelDates:   "2025-04-12 to 2025-04-20",
	}

	ignored := NewSynthesizer().Synthesize(prefs, toronto, course)
	if ignored.Outbound[0].Departure.Date != "April 14, 2025" || ignored.Return[0].Departure.Date != "April 18, 2025" {
		t.Errorf("expected typed dates to be ignored by default, got %q / %q",
			ignored.Outbound[0].Departure.Date, ignored.Return[0].Departure.Date)
	}

	honored := NewSynthesizer(WithExplicitTravelDates()).Synthesize(prefs, toronto, course)
	if honored.Outbound[0].Departure.Date != "April 12, 2025" || honored.Return[0].Departure.Date != "April 20, 2025" {
		t.Errorf("expected typed dates, got %q / %q",
			honored.Outbound[0].Departure.Date, honored.Return[0].Departure.Date)
	}
}

func TestTravelers(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 1},
		{"Alone", 1},
		{"With companions", 2},
		{"With companions (3)", 4},
		{"With companions (my partner)", 2},
	}
	for _, tt := range tests {
		if got := Travelers(tt.in); got != tt.want {
			t.Errorf("Travelers(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestOffersFind(t *testing.T) {
	o := NewSynthesizer().Synthesize(nil, toronto, course)
	if f, ok := o.Find("DL1933"); !ok || f.Departure.Code != "LAS" {
		t.Errorf("expected to find return offer DL1933, got %+v ok=%v", f, ok)
	}
	if _, ok := o.Find("XX0000"); ok {
		t.Error("expected unknown offer to be missing")
	}
}
