package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/BTreeMap/TripConcierge/internal/flow"
	"github.com/BTreeMap/TripConcierge/internal/itinerary"
	"github.com/BTreeMap/TripConcierge/internal/messaging"
	"github.com/BTreeMap/TripConcierge/internal/models"
	"github.com/BTreeMap/TripConcierge/internal/offers"
	"github.com/BTreeMap/TripConcierge/internal/plan"
)

const queryDateLayout = "2006-01-02"

// shareResult is returned after a plan was sent.
type shareResult struct {
	Channel messaging.Channel `json:"channel"`
	To      string            `json:"to"`
}

// toggleResult reports whether the entry is selected after a toggle.
type toggleResult struct {
	Added bool          `json:"added"`
	Plan  plan.Snapshot `json:"plan"`
}

func queryFloat(r *http.Request, key string) (float64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	return strconv.ParseFloat(v, 64)
}

func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func queryList(r *http.Request, key string) []string {
	var out []string
	for _, v := range r.URL.Query()[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// stayQuery builds the hotel query for the session's stay, letting the request
// override the dates.
func stayQuery(r *http.Request, sess *flow.Session) (offers.HotelQuery, error) {
	in, out := sess.Stay()
	q := offers.HotelQuery{CheckIn: in, CheckOut: out}
	if v := r.URL.Query().Get("checkIn"); v != "" {
		t, err := time.Parse(queryDateLayout, v)
		if err != nil {
			return q, err
		}
		q.CheckIn = t
	}
	if v := r.URL.Query().Get("checkOut"); v != "" {
		t, err := time.Parse(queryDateLayout, v)
		if err != nil {
			return q, err
		}
		q.CheckOut = t
	}
	return q, nil
}

// searchHotelsHandler handles GET /sessions/{id}/hotels.
func (s *Server) searchHotelsHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	q, err := stayQuery(r, sess)
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Dates must use the YYYY-MM-DD format"))
		return
	}
	if q.Budget, err = queryFloat(r, "budget"); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid budget"))
		return
	}
	if q.Limit, err = queryInt(r, "limit"); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid limit"))
		return
	}
	q.Amenities = queryList(r, "amenities")

	hotels := sess.Catalog().SearchHotels(q)
	slog.Debug("Server.searchHotelsHandler", "sessionID", sess.ID, "results", len(hotels), "nights", q.Nights())
	writeJSONResponse(w, http.StatusOK, models.Success(hotels))
}

// searchEntertainmentHandler handles GET /sessions/{id}/entertainment.
func (s *Server) searchEntertainmentHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	q := offers.EntertainmentQuery{Preferences: queryList(r, "preference")}
	var err error
	if q.Budget, err = queryFloat(r, "budget"); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid budget"))
		return
	}
	if q.Limit, err = queryInt(r, "limit"); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid limit"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(sess.Catalog().SearchEntertainment(q)))
}

// itineraryHandler handles GET /sessions/{id}/itinerary.ics.
func (s *Server) itineraryHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	trip := itinerary.Trip{Plan: sess.Plan().Snapshot()}
	if c, ok := sess.Course(); ok {
		trip.Course = &c
	}
	trip.CheckIn, trip.CheckOut = sess.Stay()

	cal, err := s.itinerary.Build(trip)
	if errors.Is(err, itinerary.ErrEmptyItinerary) {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Nothing to put on the calendar yet"))
		return
	}
	if err != nil {
		slog.Error("Server.itineraryHandler: failed to build calendar", "error", err, "sessionID", sess.ID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to build itinerary"))
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="itinerary.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(cal)); err != nil {
		slog.Error("Server.itineraryHandler: failed to write calendar", "error", err)
	}
}

// getPlanHandler handles GET /sessions/{id}/plan.
func (s *Server) getPlanHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(sess.Plan().Snapshot()))
}

// selectFlightHandler handles PUT /sessions/{id}/plan/flights/{leg}.
func (s *Server) selectFlightHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	leg, err := plan.ParseLeg(mux.Vars(r)["leg"])
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}
	var req models.SelectFlightRequest
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.OfferID) == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("offerId is required"))
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
	candidates := batch.Outbound
	if leg == plan.LegReturn {
		candidates = batch.Return
	}
	var offer *models.FlightOffer
	for i := range candidates {
		if candidates[i].ID == req.OfferID {
			offer = &candidates[i]
			break
		}
	}
	if offer == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Flight offer not found"))
		return
	}
	if err := sess.Plan().SelectFlight(*offer, leg); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Flight selected", sess.Plan().Snapshot()))
}

// removeFlightHandler handles DELETE /sessions/{id}/plan/flights/{leg}.
func (s *Server) removeFlightHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	leg, err := plan.ParseLeg(mux.Vars(r)["leg"])
	if err == nil {
		err = sess.Plan().RemoveFlight(leg)
	}
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Flight removed", sess.Plan().Snapshot()))
}

// selectHotelHandler handles PUT /sessions/{id}/plan/hotel.
func (s *Server) selectHotelHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req models.SelectHotelRequest
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.HotelID) == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("hotelId is required"))
		return
	}
	q, err := stayQuery(r, sess)
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Dates must use the YYYY-MM-DD format"))
		return
	}
	h, found := sess.Catalog().Hotel(req.HotelID, q.Nights())
	if !found {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Hotel not found"))
		return
	}
	sess.Plan().SelectHotel(h)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Hotel selected", sess.Plan().Snapshot()))
}

// removeHotelHandler handles DELETE /sessions/{id}/plan/hotel.
func (s *Server) removeHotelHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Plan().RemoveHotel()
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Hotel removed", sess.Plan().Snapshot()))
}

// toggleEntertainmentHandler handles POST /sessions/{id}/plan/entertainment.
func (s *Server) toggleEntertainmentHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req models.EntertainmentRequest
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.EntertainmentID) == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("entertainmentId is required"))
		return
	}
	e, found := sess.Catalog().EntertainmentByID(req.EntertainmentID)
	if !found {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Entertainment not found"))
		return
	}
	added := sess.Plan().ToggleEntertainment(e)
	writeJSONResponse(w, http.StatusOK, models.Success(toggleResult{Added: added, Plan: sess.Plan().Snapshot()}))
}

// removeEntertainmentHandler handles DELETE /sessions/{id}/plan/entertainment/{name}.
func (s *Server) removeEntertainmentHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	name := mux.Vars(r)["name"]
	if !sess.Plan().RemoveEntertainment(name) {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Entertainment is not in the plan"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Entertainment removed", sess.Plan().Snapshot()))
}

// getBudgetHandler handles GET /sessions/{id}/plan/budget.
func (s *Server) getBudgetHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	report, err := sess.Plan().Budget()
	if errors.Is(err, plan.ErrInvalidBudget) {
		writeJSONResponse(w, http.StatusConflict, models.Error("No budget has been set"))
		return
	}
	if err != nil {
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to evaluate budget"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(report))
}

// setBudgetHandler handles PUT /sessions/{id}/plan/budget and returns the evaluation.
func (s *Server) setBudgetHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req models.BudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	report, err := plan.EvaluateBudget(req.Total, sess.Plan().Snapshot().Expenses())
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}
	sess.Plan().SetBudget(req.Total)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage(report.Message, report))
}

// sharePlanHandler handles POST /sessions/{id}/plan/share.
func (s *Server) sharePlanHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if s.sharer == nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Plan sharing is not configured"))
		return
	}
	var req models.ShareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	var c *models.Course
	if found, ok := sess.Course(); ok {
		c = &found
	}
	ch := messaging.Channel(strings.ToLower(strings.TrimSpace(req.Channel)))
	to, err := s.sharer.Share(r.Context(), ch, req.To, c, sess.Plan().Snapshot())
	switch {
	case errors.Is(err, messaging.ErrUnknownChannel), errors.Is(err, messaging.ErrInvalidRecipient):
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	case errors.Is(err, messaging.ErrEmptyPlan):
		writeJSONResponse(w, http.StatusConflict, models.Error("The travel plan is empty"))
		return
	case err != nil:
		slog.Error("Server.sharePlanHandler: share failed", "error", err, "sessionID", sess.ID)
		writeJSONResponse(w, http.StatusBadGateway, models.Error("Failed to send the plan"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Plan sent", shareResult{Channel: ch, To: to}))
}
