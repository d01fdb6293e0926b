package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/BTreeMap/TripConcierge/internal/cards"
	"github.com/BTreeMap/TripConcierge/internal/course"
	"github.com/BTreeMap/TripConcierge/internal/flow"
	"github.com/BTreeMap/TripConcierge/internal/models"
)

// sessionView is the JSON shape of a session.
type sessionView struct {
	ID        string                `json:"id"`
	CreatedAt time.Time             `json:"createdAt"`
	Cursor    flow.Cursor           `json:"cursor"`
	Course    *models.Course        `json:"course,omitempty"`
	Airport   *models.AirportRecord `json:"airport,omitempty"`
	Messages  []models.Message      `json:"messages"`
}

func viewOf(sess *flow.Session) sessionView {
	v := sessionView{
		ID:        sess.ID,
		CreatedAt: sess.CreatedAt,
		Cursor:    sess.Cursor(),
		Messages:  sess.Messages(),
	}
	if c, ok := sess.Course(); ok {
		v.Course = &c
	}
	if a, ok := sess.Airport(); ok {
		v.Airport = &a
	}
	return v
}

// renderMessages replaces flight cards with their text description when the
// client asks for ?format=text.
func renderMessages(r *http.Request, msgs []models.Message) []models.Message {
	if r.URL.Query().Get("format") != "text" {
		return msgs
	}
	out := make([]models.Message, len(msgs))
	for i, m := range msgs {
		m.Content = cards.Render(m.Content)
		out[i] = m
	}
	return out
}

// session resolves the {id} path variable, writing a 404 when it is unknown.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*flow.Session, bool) {
	id := mux.Vars(r)["id"]
	sess, err := s.sessions.Get(id)
	if err != nil {
		slog.Debug("Server.session: not found", "sessionID", id)
		writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
		return nil, false
	}
	return sess, true
}

// createSessionHandler handles POST /sessions.
func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		slog.Warn("Server.createSessionHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	var opts []flow.SessionOption
	switch {
	case req.CourseID != "":
		if s.courses == nil {
			writeJSONResponse(w, http.StatusNotFound, models.Error("Course not found"))
			return
		}
		c, err := s.courses.Course(r.Context(), req.CourseID)
		if errors.Is(err, course.ErrNotFound) {
			writeJSONResponse(w, http.StatusNotFound, models.Error("Course not found"))
			return
		}
		if err != nil {
			slog.Error("Server.createSessionHandler: course lookup failed", "error", err, "courseID", req.CourseID)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load course"))
			return
		}
		opts = append(opts, flow.WithCourse(c))
	default:
		if c, ok := s.lookupCourse(r, s.defaultCourse); ok {
			opts = append(opts, flow.WithCourse(c))
		}
	}

	sess, err := s.sessions.Create(opts...)
	if err != nil {
		slog.Error("Server.createSessionHandler: failed to create session", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create session"))
		return
	}
	writeJSONResponse(w, http.StatusCreated, models.SuccessWithMessage("Session created", viewOf(sess)))
}

// getSessionHandler handles GET /sessions/{id}.
func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	v := viewOf(sess)
	v.Messages = renderMessages(r, v.Messages)
	writeJSONResponse(w, http.StatusOK, models.Success(v))
}

// deleteSessionHandler handles DELETE /sessions/{id}.
func (s *Server) deleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.sessions.Delete(id); err != nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Session deleted", nil))
}

// resetSessionHandler handles POST /sessions/{id}/reset.
func (s *Server) resetSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Reset()
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Session reset", viewOf(sess)))
}

// listMessagesHandler handles GET /sessions/{id}/messages.
func (s *Server) listMessagesHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(renderMessages(r, sess.Messages())))
}

// postMessageHandler handles POST /sessions/{id}/messages and returns the turn's messages.
func (s *Server) postMessageHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req models.MessageRequest
	if err := decodeJSON(r, &req); err != nil {
		slog.Warn("Server.postMessageHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	msgs, err := sess.HandleInput(r.Context(), req.Content)
	switch {
	case errors.Is(err, models.ErrEmptyContent):
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	case errors.Is(err, flow.ErrTurnSuperseded):
		writeJSONResponse(w, http.StatusConflict, models.Error("The conversation was reset while replying"))
		return
	case err != nil:
		slog.Error("Server.postMessageHandler: turn failed", "error", err, "sessionID", sess.ID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to process message"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(renderMessages(r, msgs)))
}

// offersHandler handles GET /sessions/{id}/offers.
func (s *Server) offersHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	batch, err := sess.Offers()
	if errors.Is(err, flow.ErrNoOffers) {
		writeJSONResponse(w, http.StatusConflict, models.Error("No flight offers have been presented yet"))
		return
	}
	if err != nil {
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load offers"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(batch))
}
