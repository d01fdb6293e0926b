package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/BTreeMap/TripConcierge/internal/airport"
	"github.com/BTreeMap/TripConcierge/internal/course"
	"github.com/BTreeMap/TripConcierge/internal/flow"
	"github.com/BTreeMap/TripConcierge/internal/models"
)

const (
	// DefaultChatPrompt is used when /api/chat receives no messages.
	DefaultChatPrompt = "Tell me about flights to Las Vegas"

	chatErrorMessage = "There was an error processing your request"
)

// errorBody is the bare error shape of the identification and chat endpoints.
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// identifyAirportHandler handles POST /api/identify-airport.
func (s *Server) identifyAirportHandler(w http.ResponseWriter, r *http.Request) {
	var req airport.IdentifyRequest
	if err := decodeJSON(r, &req); err != nil {
		slog.Warn("Server.identifyAirportHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, errorBody{Error: "No location provided"})
		return
	}
	location := strings.TrimSpace(req.Location)
	if location == "" {
		writeJSONResponse(w, http.StatusBadRequest, errorBody{Error: "No location provided"})
		return
	}
	if s.identifier == nil {
		slog.Error("Server.identifyAirportHandler: no airport identifier configured")
		writeJSONResponse(w, http.StatusInternalServerError, errorBody{Error: "Failed to identify airport"})
		return
	}

	rec, err := s.identifier.IdentifyAirport(r.Context(), location)
	if err == nil {
		err = rec.Validate()
	}
	if err != nil {
		slog.Error("Server.identifyAirportHandler: identification failed", "error", err, "location", location)
		writeJSONResponse(w, http.StatusInternalServerError, errorBody{Error: "Failed to identify airport"})
		return
	}

	slog.Debug("Server.identifyAirportHandler: identified", "location", location, "code", rec.IATACode)
	writeJSONResponse(w, http.StatusOK, airport.IdentifyResponse{
		Message:     rec.ConfirmationText(),
		AirportInfo: rec.Info(),
	})
}

// chatHandler handles POST /api/chat, a stateless exchange with the concierge.
func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		slog.Warn("Server.chatHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, errorBody{Error: "Invalid JSON format"})
		return
	}
	if s.chatter == nil {
		slog.Error("Server.chatHandler: no language model configured")
		writeJSONResponse(w, http.StatusInternalServerError, errorBody{Error: chatErrorMessage, Details: "OpenAI API key is not set"})
		return
	}

	history := req.Messages
	if len(history) == 0 {
		history = []models.Message{{Role: models.RoleUser, Content: DefaultChatPrompt}}
	}
	c := course.MockCourse()
	if found, ok := s.lookupCourse(r, s.defaultCourse); ok {
		c = found
	}

	reply, err := s.chatter.Chat(r.Context(), flow.SystemPrompt(&c), history)
	if err != nil {
		slog.Error("Server.chatHandler: chat failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, errorBody{Error: chatErrorMessage, Details: err.Error()})
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Message{Role: models.RoleAssistant, Content: reply})
}

// getCourseHandler handles GET /courses/{id}.
func (s *Server) getCourseHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if s.courses == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Course not found"))
		return
	}
	c, err := s.courses.Course(r.Context(), id)
	if errors.Is(err, course.ErrNotFound) {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Course not found"))
		return
	}
	if err != nil {
		slog.Error("Server.getCourseHandler: lookup failed", "error", err, "id", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load course"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(c))
}

// lookupCourse returns the course with id, logging lookups that fail.
func (s *Server) lookupCourse(r *http.Request, id string) (models.Course, bool) {
	if s.courses == nil || id == "" {
		return models.Course{}, false
	}
	c, err := s.courses.Course(r.Context(), id)
	if err != nil {
		slog.Warn("Server.lookupCourse: course unavailable", "id", id, "error", err)
		return models.Course{}, false
	}
	return c, true
}
