package cards

import (
	"errors"
	"strings"
	"testing"

	"github.com/BTreeMap/TripConcierge/internal/models"
)

func sampleOffer() models.FlightOffer {
	return models.FlightOffer{
		ID:         "AA4587",
		Airline:    models.Airline{Name: "American Airlines", Logo: "/placeholder.svg?height=40&width=40"},
		Price:      models.Price{Amount: 324, Currency: "USD"},
		Departure:  models.FlightEndpoint{Date: "April 14, 2025", Time: "2:30 PM", City: "St. John's", State: "Newfoundland and Labrador", Airport: "St. John's International Airport", Code: "YYT"},
		Arrival:    models.FlightEndpoint{Date: "April 14, 2025", Time: "4:20 PM", City: "Las Vegas", State: "NV", Airport: "Harry Reid International Airport", Code: "LAS"},
		Stops:      []models.FlightStop{{Airport: "Los Angeles International Airport", Code: "LAX", Duration: "1h 15m"}},
		Cabin:      "Business Class",
		Passengers: 2,
		Duration:   "3h 50m",
		TripType:   "Round Trip",
	}
}

func TestEncodeDecode(t *testing.T) {
	offer := sampleOffer()
	content, err := Encode(offer)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if !strings.HasPrefix(content, "<flight-card data='") || !strings.HasSuffix(content, "' />") {
		t.Fatalf("unexpected marker %q", content)
	}
	if strings.Count(content, "'") != 2 {
		t.Errorf("payload must not contain single quotes: %q", content)
	}
	if !IsCard(content) {
		t.Error("expected encoded content to be detected as a card")
	}

	got, err := Decode(content)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if got.Departure.City != "St. John's" || got.Stops[0].Code != "LAX" || got.Passengers != 2 {
		t.Errorf("decoded offer differs: %+v", got)
	}
}

func TestIsCardRejectsMixedContent(t *testing.T) {
	content, err := Encode(sampleOffer())
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	for _, c := range []string{
		"Here is an option: " + content,
		content + " Let me know!",
		"plain text",
		"",
	} {
		if IsCard(c) {
			t.Errorf("IsCard(%q) = true, want false", c)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode("hello"); !errors.Is(err, ErrNoCard) {
		t.Errorf("expected ErrNoCard, got %v", err)
	}
	if _, err := Decode("<flight-card data='{not json' />"); err == nil || errors.Is(err, ErrNoCard) {
		t.Errorf("expected decode error, got %v", err)
	}
}

func TestRender(t *testing.T) {
	content, err := Encode(sampleOffer())
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	got := Render(content)
	want := "American Airlines AA4587: April 14, 2025 2:30 PM YYT -> LAS 4:20 PM, 3h 50m, 1 stop (LAX), Business Class, $324 USD"
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}

	if got := Render("Just text"); got != "Just text" {
		t.Errorf("plain text should pass through, got %q", got)
	}
	broken := "<flight-card data='{' />"
	if got := Render(broken); got != broken {
		t.Errorf("malformed card should render verbatim, got %q", got)
	}
}
