package offers

import "github.com/BTreeMap/TripConcierge/internal/models"

// leg is a fixed flight template filled with airports, dates and preferences.
type leg struct {
	id       string
	airline  string
	price    float64
	departs  string
	arrives  string
	duration string
	stops    []models.FlightStop
}

var outboundRoster = []leg{
	{id: "UA2458", airline: "United Airlines", price: 458, departs: "7:45 AM", arrives: "9:30 AM", duration: "1h 45m"},
	{id: "DL1932", airline: "Delta Air Lines", price: 379, departs: "10:15 AM", arrives: "12:05 PM", duration: "1h 50m"},
	{
		id: "AA4587", airline: "American Airlines", price: 324, departs: "2:30 PM", arrives: "4:20 PM", duration: "3h 50m",
		stops: []models.FlightStop{{Airport: "Los Angeles International Airport", Code: "LAX", Duration: "1h 15m"}},
	},
	{id: "WN1234", airline: "Southwest Airlines", price: 299, departs: "6:40 AM", arrives: "8:35 AM", duration: "1h 55m"},
}

var returnRoster = []leg{
	{id: "UA2459", airline: "United Airlines", price: 462, departs: "10:15 AM", arrives: "12:00 PM", duration: "1h 45m"},
	{id: "DL1933", airline: "Delta Air Lines", price: 382, departs: "3:30 PM", arrives: "5:25 PM", duration: "1h 55m"},
}

func (l leg) offer(from, to models.AirportRecord, date, cabin string, passengers int) models.FlightOffer {
	stops := make([]models.FlightStop, len(l.stops))
	copy(stops, l.stops)
	return models.FlightOffer{
		ID:         l.id,
		Airline:    models.Airline{Name: l.airline, Logo: AirlineLogo},
		Price:      models.Price{Amount: l.price, Currency: Currency},
		Departure:  endpoint(from, date, l.departs),
		Arrival:    endpoint(to, date, l.arrives),
		Stops:      stops,
		Cabin:      cabin,
		Passengers: passengers,
		Duration:   l.duration,
		TripType:   TripType,
	}
}

func endpoint(a models.AirportRecord, date, clock string) models.FlightEndpoint {
	return models.FlightEndpoint{
		Date:    date,
		Time:    clock,
		City:    a.City,
		State:   a.Region,
		Airport: a.AirportName,
		Code:    a.IATACode,
	}
}
