package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/BTreeMap/TripConcierge/internal/airport"
	"github.com/BTreeMap/TripConcierge/internal/cards"
	"github.com/BTreeMap/TripConcierge/internal/course"
	"github.com/BTreeMap/TripConcierge/internal/genai"
	"github.com/BTreeMap/TripConcierge/internal/models"
	"github.com/BTreeMap/TripConcierge/internal/offers"
	"github.com/BTreeMap/TripConcierge/internal/plan"
)

// MaxDepartureAttempts is the number of consecutive unresolved departure inputs
// after which the interview ends.
const MaxDepartureAttempts = 3

var (
	// ErrTurnSuperseded is returned when a reset invalidated the turn in progress.
	ErrTurnSuperseded = errors.New("turn superseded by session reset")
	// ErrOfferNotFound is returned when selecting an offer that was not presented.
	ErrOfferNotFound = errors.New("flight offer not found")
	// ErrNoOffers is returned when offers are requested before the interview finished.
	ErrNoOffers = errors.New("no flight offers have been presented")
)

// AirportResolver turns free text into an airport record.
type AirportResolver interface {
	Resolve(ctx context.Context, text string) (models.AirportRecord, error)
}

// SessionOpts holds configuration options for a Session.
type SessionOpts struct {
	Resolver    AirportResolver
	Synthesizer *offers.Synthesizer
	Catalog     *offers.Catalog
	GenAI       genai.ClientInterface
	Pacer       *Pacer
	Course      *models.Course
}

// SessionOption defines a configuration option for a Session.
type SessionOption func(*SessionOpts)

// WithResolver sets the airport resolver.
func WithResolver(r AirportResolver) SessionOption {
	return func(o *SessionOpts) {
		o.Resolver = r
	}
}

// WithSynthesizer sets the offer synthesizer.
func WithSynthesizer(s *offers.Synthesizer) SessionOption {
	return func(o *SessionOpts) {
		o.Synthesizer = s
	}
}

// WithCatalog sets the hotel and entertainment catalog.
func WithCatalog(c *offers.Catalog) SessionOption {
	return func(o *SessionOpts) {
		o.Catalog = c
	}
}

// WithGenAI enables free-form chat through a language model.
func WithGenAI(c genai.ClientInterface) SessionOption {
	return func(o *SessionOpts) {
		o.GenAI = c
	}
}

// WithPacer sets the typing pacer. A nil pacer disables pauses.
func WithPacer(p *Pacer) SessionOption {
	return func(o *SessionOpts) {
		o.Pacer = p
	}
}

// WithCourse sets the course the trip is planned around.
func WithCourse(c models.Course) SessionOption {
	return func(o *SessionOpts) {
		o.Course = &c
	}
}

// Session is one conversation. Turns are serialized; readers may observe the
// transcript while a turn is pausing.
type Session struct {
	ID        string
	CreatedAt time.Time

	turnMu sync.Mutex

	mu         sync.RWMutex
	cursor     Cursor
	airport    *models.AirportRecord
	offers     *offers.Offers
	attempts   int
	cancelTurn context.CancelFunc

	timeline *Timeline
	prefs    *Preferences
	plan     *plan.TravelPlan

	resolver AirportResolver
	synth    *offers.Synthesizer
	catalog  *offers.Catalog
	llm      genai.ClientInterface
	pacer    *Pacer
	course   *models.Course
}

// NewSession creates a session. Missing collaborators default to the builtin
// airport table, synthesizer and catalog.
func NewSession(id string, opts ...SessionOption) (*Session, error) {
	var cfg SessionOpts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Resolver == nil {
		r, err := airport.NewResolver()
		if err != nil {
			return nil, fmt.Errorf("failed to create airport resolver: %w", err)
		}
		cfg.Resolver = r
	}
	if cfg.Synthesizer == nil {
		cfg.Synthesizer = offers.NewSynthesizer()
	}
	if cfg.Catalog == nil {
		c, err := offers.BuiltinCatalog()
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		cfg.Catalog = c
	}

	slog.Debug("Creating Session", "sessionID", id, "hasLLM", cfg.GenAI != nil, "hasCourse", cfg.Course != nil)
	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
		timeline:  NewTimeline(),
		prefs:     NewPreferences(),
		plan:      plan.New(),
		resolver:  cfg.Resolver,
		synth:     cfg.Synthesizer,
		catalog:   cfg.Catalog,
		llm:       cfg.GenAI,
		pacer:     cfg.Pacer,
		course:    cfg.Course,
	}, nil
}

// Start posts the welcome message if the transcript is empty.
func (s *Session) Start() {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()
	if len(s.timeline.Messages()) > 0 {
		return
	}
	s.welcome()
}

func (s *Session) welcome() {
	s.timeline.Append(models.Message{
		Role:         models.RoleAssistant,
		Content:      course.WelcomeMessage(s.course),
		QuickReplies: EntryOptions,
	})
}

// HandleInput processes one user message and returns the messages appended by the turn,
// the user message included.
func (s *Session) HandleInput(ctx context.Context, text string) ([]models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.ErrEmptyContent
	}

	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.mu.Lock()
	s.cancelTurn = cancel
	s.mu.Unlock()

	start := len(s.timeline.Messages())
	s.timeline.Append(models.Message{Role: models.RoleUser, Content: text})

	var err error
	if cursor := s.Cursor(); cursor.Step == models.StepNone {
		err = s.freeForm(ctx, text)
	} else {
		err = s.guided(ctx, cursor, text)
	}

	s.mu.Lock()
	s.cancelTurn = nil
	s.mu.Unlock()

	if err != nil {
		slog.Debug("Session.HandleInput: turn ended early", "sessionID", s.ID, "error", err)
		return nil, err
	}
	msgs := s.timeline.Messages()
	if start > len(msgs) {
		return nil, nil
	}
	return msgs[start:], nil
}

// guided applies one answer to the step machine and performs the requested effects.
func (s *Session) guided(ctx context.Context, cursor Cursor, text string) error {
	choice := ParseChoice(cursor.Step, text)
	if cursor.AwaitingHeadcount {
		choice = FreeText(text)
	}
	t := Advance(cursor, choice)
	if t.HasRecord() {
		s.prefs.Record(t.Record.Step, t.Record.Value)
	}
	slog.Debug("Session.guided", "sessionID", s.ID, "step", cursor.Step, "choice", choice.Label(), "next", t.Next.Step, "effects", t.Effects)

	for _, e := range t.Effects {
		var err error
		switch e {
		case EffectResolveAirport:
			err = s.resolveDeparture(ctx, text, t)
		case EffectAsk:
			err = s.ask(ctx, t.Next)
		case EffectAskHeadcount:
			s.setCursor(t.Next)
			err = s.say(ctx, HeadcountQuestion, nil)
		case EffectSynthesizeOffers:
			err = s.presentOffers(ctx)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) resolveDeparture(ctx context.Context, text string, t Transition) error {
	p := s.timeline.ShowTyping()
	if err := s.pacer.Pause(ctx); err != nil {
		s.timeline.Discard(p)
		return err
	}

	rec, err := s.resolver.Resolve(ctx, text)
	if err != nil {
		s.mu.Lock()
		s.attempts++
		attempts := s.attempts
		next := t.OnFailure
		content, replies := RetryDepartureMessage, []string(nil)
		if attempts >= MaxDepartureAttempts {
			next = Cursor{Step: models.StepNone}
			content, replies = GiveUpDepartureMessage, EntryOptions
			s.attempts = 0
		}
		s.cursor = next
		s.mu.Unlock()
		slog.Warn("Session.resolveDeparture: unresolved", "sessionID", s.ID, "attempts", attempts, "error", err)
		return s.resolve(p, content, replies)
	}

	s.mu.Lock()
	s.attempts = 0
	s.airport = &rec
	s.cursor = t.Next
	s.mu.Unlock()
	return s.resolve(p, rec.ConfirmationText(), Options(models.StepConfirmDeparture))
}

// ask moves to next and asks its question. Entering the summary step also presents offers.
func (s *Session) ask(ctx context.Context, next Cursor) error {
	s.setCursor(next)
	if err := s.say(ctx, Question(next.Step, s.course), Options(next.Step)); err != nil {
		return err
	}
	if next.Step != models.StepSummary {
		return nil
	}
	t := Advance(next, FreeText(""))
	for _, e := range t.Effects {
		if e == EffectSynthesizeOffers {
			return s.presentOffers(ctx)
		}
	}
	return nil
}

func (s *Session) presentOffers(ctx context.Context) error {
	s.setCursor(Cursor{Step: models.StepNone})

	if err := s.say(ctx, s.prefs.Summarize().String(), nil); err != nil {
		return err
	}
	if err := s.pacer.PauseFollowUp(ctx); err != nil {
		return err
	}

	s.mu.RLock()
	departure := offers.Destination
	if s.airport != nil {
		departure = *s.airport
	}
	s.mu.RUnlock()
	var dates offers.CourseDates
	if s.course != nil {
		dates = offers.DatesOf(*s.course)
	}
	batch := s.synth.Synthesize(s.prefs.Snapshot(), departure, dates)

	s.mu.Lock()
	s.offers = &batch
	s.mu.Unlock()

	s.timeline.Append(models.Message{Role: models.RoleAssistant, Content: OffersIntro})
	for _, o := range batch.All() {
		content, err := cards.Encode(o)
		if err != nil {
			slog.Error("Session.presentOffers: failed to encode card", "sessionID", s.ID, "offer", o.ID, "error", err)
			continue
		}
		s.timeline.Append(models.Message{Role: models.RoleAssistant, Content: content})
	}
	slog.Debug("Session.presentOffers", "sessionID", s.ID, "outbound", len(batch.Outbound), "return", len(batch.Return))
	return nil
}

// freeForm handles input outside the guided interview.
func (s *Session) freeForm(ctx context.Context, text string) error {
	switch strings.ToLower(text) {
	case "flights", "flight":
		// Each interview starts from empty answers; earlier offers are superseded.
		s.mu.Lock()
		s.attempts = 0
		s.prefs = NewPreferences()
		s.airport = nil
		s.offers = nil
		s.mu.Unlock()
		return s.ask(ctx, Cursor{Step: models.StepDepartureLocation})
	case "hotel", "hotels":
		return s.say(ctx, s.hotelListing(), nil)
	case "entertainment":
		return s.say(ctx, s.entertainmentListing(), nil)
	}

	p := s.timeline.ShowTyping()
	if err := s.pacer.Pause(ctx); err != nil {
		s.timeline.Discard(p)
		return err
	}
	return s.resolve(p, s.chatReply(ctx), nil)
}

func (s *Session) chatReply(ctx context.Context) string {
	if s.llm == nil {
		return FallbackReply
	}
	reply, err := s.llm.Chat(ctx, SystemPrompt(s.course), s.timeline.Messages())
	if err != nil || strings.TrimSpace(reply) == "" {
		slog.Warn("Session.chatReply: using fallback reply", "sessionID", s.ID, "error", err)
		return FallbackReply
	}
	return reply
}

// Stay returns the hotel check-in and check-out around the course.
func (s *Session) Stay() (time.Time, time.Time) {
	if s.course == nil || !s.course.HasDates() {
		return time.Time{}, time.Time{}
	}
	day := func(t time.Time) time.Time { return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()) }
	return day(s.course.StartDate).AddDate(0, 0, -1), day(s.course.EndDate).AddDate(0, 0, 1)
}

func (s *Session) hotelListing() string {
	in, out := s.Stay()
	hotels := s.catalog.SearchHotels(offers.HotelQuery{CheckIn: in, CheckOut: out})
	var b strings.Builder
	b.WriteString("Here are some hotels near your venue:")
	for _, h := range hotels {
		fmt.Fprintf(&b, "\n- %s (%d stars, %s): %s per night, %s for %d nights",
			h.Name, h.Stars, h.DistanceText, plan.Money(h.PricePerNight), plan.Money(h.TotalPrice), h.Nights)
	}
	return b.String()
}

func (s *Session) entertainmentListing() string {
	items := s.catalog.SearchEntertainment(offers.EntertainmentQuery{})
	var b strings.Builder
	b.WriteString("Here are some things to do during your stay:")
	for _, e := range items {
		fmt.Fprintf(&b, "\n- %s (%s, %s): %s, rated %.1f", e.Name, e.Type, e.Location, plan.Money(e.Price), e.Rating)
	}
	return b.String()
}

// say shows a typing placeholder, waits, then replaces it with content.
func (s *Session) say(ctx context.Context, content string, replies []string) error {
	p := s.timeline.ShowTyping()
	if err := s.pacer.Pause(ctx); err != nil {
		s.timeline.Discard(p)
		return err
	}
	return s.resolve(p, content, replies)
}

func (s *Session) resolve(p Placeholder, content string, replies []string) error {
	ok := s.timeline.ResolveTyping(p, models.Message{
		Role:         models.RoleAssistant,
		Content:      content,
		QuickReplies: replies,
	})
	if !ok {
		return ErrTurnSuperseded
	}
	return nil
}

// Reset cancels the turn in progress, clears every answer and selection and posts
// a fresh welcome.
func (s *Session) Reset() {
	s.mu.Lock()
	if s.cancelTurn != nil {
		s.cancelTurn()
	}
	s.mu.Unlock()
	s.timeline.Invalidate()

	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	s.mu.Lock()
	s.cursor = Cursor{}
	s.airport = nil
	s.offers = nil
	s.attempts = 0
	s.prefs = NewPreferences()
	s.mu.Unlock()
	s.timeline.Clear()
	s.plan.Reset()
	s.welcome()
	slog.Debug("Session.Reset", "sessionID", s.ID)
}

func (s *Session) setCursor(c Cursor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = c
}

// Cursor returns the current interview position.
func (s *Session) Cursor() Cursor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor
}

// Messages returns the transcript.
func (s *Session) Messages() []models.Message {
	return s.timeline.Messages()
}

// Preferences returns the recorded answers.
func (s *Session) Preferences() map[models.DialogueStep]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.Snapshot()
}

// Summary returns the preference summary.
func (s *Session) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.Summarize()
}

// Airport returns the resolved departure airport.
func (s *Session) Airport() (models.AirportRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.airport == nil {
		return models.AirportRecord{}, false
	}
	return *s.airport, true
}

// Offers returns the presented flight offers.
func (s *Session) Offers() (offers.Offers, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.offers == nil {
		return offers.Offers{}, ErrNoOffers
	}
	return *s.offers, nil
}

// Plan returns the session's travel plan.
func (s *Session) Plan() *plan.TravelPlan {
	return s.plan
}

// Catalog returns the hotel and entertainment catalog.
func (s *Session) Catalog() *offers.Catalog {
	return s.catalog
}

// Course returns the course the session is planned around.
func (s *Session) Course() (models.Course, bool) {
	if s.course == nil {
		return models.Course{}, false
	}
	return *s.course, true
}

// SelectFlight adds the presented offer with id to the plan on its leg.
func (s *Session) SelectFlight(id string) (models.FlightOffer, plan.Leg, error) {
	batch, err := s.Offers()
	if err != nil {
		return models.FlightOffer{}, "", err
	}
	leg := plan.LegDeparture
	offer, ok := findOffer(batch.Outbound, id)
	if !ok {
		leg = plan.LegReturn
		if offer, ok = findOffer(batch.Return, id); !ok {
			return models.FlightOffer{}, "", fmt.Errorf("%w: %s", ErrOfferNotFound, id)
		}
	}
	if err := s.plan.SelectFlight(offer, leg); err != nil {
		return models.FlightOffer{}, "", err
	}
	return offer, leg, nil
}

func findOffer(list []models.FlightOffer, id string) (models.FlightOffer, bool) {
	for _, o := range list {
		if o.ID == id {
			return o, true
		}
	}
	return models.FlightOffer{}, false
}
