package flow

import (
	"fmt"

	"github.com/BTreeMap/TripConcierge/internal/course"
	"github.com/BTreeMap/TripConcierge/internal/models"
)

const (
	// HeadcountQuestion is the nested prompt after "With companions".
	HeadcountQuestion = "How many people will be traveling with you?"
	// OffersIntro precedes the flight cards.
	OffersIntro = "I've found several flight options that match your preferences. Here are the top recommendations:"
	// RetryDepartureMessage is sent when a departure could not be resolved.
	RetryDepartureMessage = "Sorry, I couldn't find an airport for that location. Could you tell me your departure city or airport again?"
	// GiveUpDepartureMessage ends the interview after repeated resolution failures.
	GiveUpDepartureMessage = "Sorry, I'm still unable to identify your departure airport. Let's try something else: I can help with flights, hotels, or entertainment whenever you're ready."
	// FallbackReply answers free-form chat when no language model is available.
	FallbackReply = "I can help you plan your trip to Las Vegas. Would you like to start with flights, hotels, or entertainment?"
)

// EntryOptions are the quick replies offered outside the guided interview.
var EntryOptions = []string{"Flights", "Hotel", "Entertainment"}

// Question returns the text asked when entering step.
func Question(step models.DialogueStep, c *models.Course) string {
	switch step {
	case models.StepDepartureLocation:
		return "Where will you be departing from? You can provide your city or preferred departure airport."
	case models.StepArrivalTiming:
		start, end := "TBD", "TBD"
		if c != nil {
			start, end = course.FormatDate(c.StartDate), course.FormatDate(c.EndDate)
		}
		return fmt.Sprintf("Based on your course schedule, you'll need to arrive in Las Vegas before %s and can depart after %s. Would you like to:", start, end)
	case models.StepTravelDates:
		return "What are your preferred departure and return dates?"
	case models.StepCompanions:
		return "Will you be traveling alone or with companions?"
	case models.StepCabinClass:
		return "What cabin class would you prefer to travel in?"
	case models.StepLayovers:
		return "What flexibility do you have for layovers?"
	case models.StepDepartureTime:
		return "Do you have any preferences for departure times?"
	case models.StepSummary:
		return "Thank you for sharing your preferences. I'll search for flight options that meet these criteria, one moment please..."
	}
	return ""
}

// SystemPrompt builds the concierge instructions for free-form chat.
func SystemPrompt(c *models.Course) string {
	name, venue, start, end := "Advanced Medical Course", "Las Vegas Conference Center", "Not specified", "Not specified"
	if c != nil {
		if c.Name != "" {
			name = c.Name
		}
		if c.Venue != "" {
			venue = c.Venue
		}
		if !c.StartDate.IsZero() {
			start = course.FormatDate(c.StartDate)
		}
		if !c.EndDate.IsZero() {
			end = course.FormatDate(c.EndDate)
		}
	}
	return fmt.Sprintf(`You are an AI-powered travel concierge for medical professionals attending CME courses in Las Vegas.

COURSE DETAILS:
- Course Name: %s
- Venue: %s
- Start Date: %s
- End Date: %s

Your goal is to help the user plan their trip by finding flights, hotels near their venue, and entertainment options based on their preferences.

GUIDELINES:
1. Be conversational, helpful, and provide specific recommendations.
2. Present options in a clear, organized manner.
3. If the user specifies a budget, make sure to keep the total cost within that budget.
4. Remember that the user is a medical professional, so they value efficiency and clear information.
5. Suggest typing "flights", "hotel" or "entertainment" to browse options.

IMPORTANT: Do not make up information about specific flights, hotels, or entertainment options.`, name, venue, start, end)
}
