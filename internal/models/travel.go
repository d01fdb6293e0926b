package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrIncompleteAirport = errors.New("airport record is incomplete")
	ErrInvalidIATACode   = errors.New("IATA code must be three letters")
)

// AirportRecord is the canonical description of an airport a user departs from.
type AirportRecord struct {
	City        string  `json:"city" yaml:"city"`
	Region      string  `json:"region" yaml:"region"`
	Country     string  `json:"country" yaml:"country"`
	AirportName string  `json:"airportName" yaml:"airport"`
	IATACode    string  `json:"iataCode" yaml:"code"`
	Latitude    float64 `json:"latitude,omitempty" yaml:"lat"`
	Longitude   float64 `json:"longitude,omitempty" yaml:"lng"`
}

// Validate checks that every descriptive field is set and the code is three letters.
func (a AirportRecord) Validate() error {
	for name, v := range map[string]string{
		"city":        a.City,
		"region":      a.Region,
		"country":     a.Country,
		"airportName": a.AirportName,
		"iataCode":    a.IATACode,
	} {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: %s is empty", ErrIncompleteAirport, name)
		}
	}
	if len(a.IATACode) != 3 {
		return fmt.Errorf("%w: %q", ErrInvalidIATACode, a.IATACode)
	}
	for _, r := range a.IATACode {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return fmt.Errorf("%w: %q", ErrInvalidIATACode, a.IATACode)
		}
	}
	return nil
}

// AirportInfo is the wire shape of the airport identification contract.
type AirportInfo struct {
	CorrectedCity string `json:"correctedCity"`
	Region        string `json:"region"`
	Country       string `json:"country"`
	AirportName   string `json:"airportName"`
	IATACode      string `json:"iataCode"`
}

// Record converts the wire shape into an AirportRecord with an upper-cased code.
func (i AirportInfo) Record() AirportRecord {
	return AirportRecord{
		City:        strings.TrimSpace(i.CorrectedCity),
		Region:      strings.TrimSpace(i.Region),
		Country:     strings.TrimSpace(i.Country),
		AirportName: strings.TrimSpace(i.AirportName),
		IATACode:    strings.ToUpper(strings.TrimSpace(i.IATACode)),
	}
}

// Info converts a record back into the wire shape.
func (a AirportRecord) Info() AirportInfo {
	return AirportInfo{
		CorrectedCity: a.City,
		Region:        a.Region,
		Country:       a.Country,
		AirportName:   a.AirportName,
		IATACode:      a.IATACode,
	}
}

// ConfirmationText is the question asking the user to confirm a resolved airport.
func (a AirportRecord) ConfirmationText() string {
	return fmt.Sprintf("To confirm, you'd like to fly from %s, %s, %s from %s (%s)?",
		a.City, a.Region, a.Country, a.AirportName, a.IATACode)
}

// HasLocation reports whether coordinates are known for the airport.
func (a AirportRecord) HasLocation() bool {
	return a.Latitude != 0 || a.Longitude != 0
}

// Airline identifies the carrier of an offer.
type Airline struct {
	Name string `json:"name"`
	Logo string `json:"logo"`
}

// Price is an amount in a currency.
type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// FlightEndpoint describes one end of a flight.
type FlightEndpoint struct {
	Date    string `json:"date"`
	Time    string `json:"time"`
	City    string `json:"city"`
	State   string `json:"state"`
	Airport string `json:"airport"`
	Code    string `json:"code"`
}

// FlightStop is an intermediate stop of a connecting flight.
type FlightStop struct {
	Airport  string `json:"airport"`
	Code     string `json:"code"`
	Duration string `json:"duration"`
}

// FlightOffer is a synthesized flight option presented to the user.
type FlightOffer struct {
	ID         string         `json:"id"`
	Airline    Airline        `json:"airline"`
	Price      Price          `json:"price"`
	Departure  FlightEndpoint `json:"departure"`
	Arrival    FlightEndpoint `json:"arrival"`
	Stops      []FlightStop   `json:"stops"`
	Cabin      string         `json:"cabin"`
	Passengers int            `json:"passengers"`
	Duration   string         `json:"duration"`
	TripType   string         `json:"tripType"`
}

// Hotel is a catalog accommodation near the course venue.
type Hotel struct {
	ID            string   `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	Stars         int      `json:"stars" yaml:"stars"`
	DistanceMiles float64  `json:"distance" yaml:"distance"`
	DistanceText  string   `json:"distanceText" yaml:"distanceText"`
	PricePerNight float64  `json:"pricePerNight" yaml:"pricePerNight"`
	Nights        int      `json:"nights" yaml:"-"`
	TotalPrice    float64  `json:"totalPrice" yaml:"-"`
	Amenities     []string `json:"amenities" yaml:"amenities"`
}

// Entertainment is a catalog show, excursion or dining option.
type Entertainment struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Type        string  `json:"type" yaml:"type"`
	Price       float64 `json:"price" yaml:"price"`
	Location    string  `json:"location" yaml:"location"`
	Rating      float64 `json:"rating" yaml:"rating"`
	Description string  `json:"description" yaml:"description"`
}

// Course is the in-person event the trip is planned around.
type Course struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Venue        string    `json:"venue" db:"venue"`
	VenueAddress string    `json:"venueAddress,omitempty" db:"venue_address"`
	StartDate    time.Time `json:"startDate" db:"start_date"`
	EndDate      time.Time `json:"endDate" db:"end_date"`
}

// HasDates reports whether both course dates are known.
func (c Course) HasDates() bool {
	return !c.StartDate.IsZero() && !c.EndDate.IsZero()
}
