// Package cards encodes flight offers as self-contained card markers embedded in
// assistant messages, and decodes them back for rendering.
package cards

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/BTreeMap/TripConcierge/internal/models"
)

const (
	tagName  = "<flight-card"
	openTag  = tagName + " data='"
	closeTag = "' />"
)

// ErrNoCard is returned when content does not consist of a single card marker.
var ErrNoCard = errors.New("content is not a flight card")

var markerPattern = regexp.MustCompile(`^<flight-card data='([^']*)' />$`)

// Encode wraps offer in a card marker. The payload never contains a single quote,
// so the marker is unambiguous.
func Encode(offer models.FlightOffer) (string, error) {
	payload, err := json.Marshal(offer)
	if err != nil {
		return "", fmt.Errorf("failed to encode flight card: %w", err)
	}
	escaped := strings.ReplaceAll(string(payload), "'", `\u0027`)
	return openTag + escaped + closeTag, nil
}

// IsCard reports whether content is a card marker. Prose around a marker is not a card.
func IsCard(content string) bool {
	return markerPattern.MatchString(strings.TrimSpace(content))
}

// Decode extracts the offer carried by a card marker.
func Decode(content string) (models.FlightOffer, error) {
	m := markerPattern.FindStringSubmatch(strings.TrimSpace(content))
	if m == nil {
		return models.FlightOffer{}, ErrNoCard
	}
	var offer models.FlightOffer
	if err := json.Unmarshal([]byte(m[1]), &offer); err != nil {
		return models.FlightOffer{}, fmt.Errorf("failed to decode flight card: %w", err)
	}
	return offer, nil
}

// Render returns a plain-text rendering of content. Cards become a one-line
// itinerary; anything else, including a malformed card, is returned verbatim.
func Render(content string) string {
	if !strings.Contains(content, tagName) {
		return content
	}
	offer, err := Decode(content)
	if err != nil {
		slog.Warn("cards.Render: rendering as plain text", "error", err)
		return content
	}
	return Describe(offer)
}

// Describe summarizes an offer on one line.
func Describe(o models.FlightOffer) string {
	stops := "nonstop"
	switch n := len(o.Stops); {
	case n == 1:
		stops = fmt.Sprintf("1 stop (%s)", o.Stops[0].Code)
	case n > 1:
		stops = fmt.Sprintf("%d stops", n)
	}
	return fmt.Sprintf("%s %s: %s %s %s -> %s %s, %s, %s, %s, $%.0f %s",
		o.Airline.Name, o.ID,
		o.Departure.Date, o.Departure.Time, o.Departure.Code,
		o.Arrival.Code, o.Arrival.Time,
		o.Duration, stops, o.Cabin,
		o.Price.Amount, o.Price.Currency)
}
