package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/BTreeMap/TripConcierge/internal/cards"
	"github.com/BTreeMap/TripConcierge/internal/models"
	"github.com/BTreeMap/TripConcierge/internal/plan"
)

// Channel names a delivery service plans can be shared over.
type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
)

var (
	// ErrUnknownChannel is returned when no service is registered for a channel.
	ErrUnknownChannel = errors.New("unknown messaging channel")
	// ErrEmptyPlan is returned when sharing a plan with nothing selected.
	ErrEmptyPlan = errors.New("travel plan is empty")
	// ErrInvalidRecipient is returned when the channel rejects the recipient.
	ErrInvalidRecipient = errors.New("invalid recipient")
)

// FormatPlan renders the plan as plain text suitable for a text message.
func FormatPlan(course *models.Course, s plan.Snapshot) (string, error) {
	if s.DepartureFlight == nil && s.ReturnFlight == nil && s.Hotel == nil && len(s.Entertainment) == 0 {
		return "", ErrEmptyPlan
	}

	var b strings.Builder
	if course != nil && course.Name != "" {
		fmt.Fprintf(&b, "Your trip for \"%s\"\n", course.Name)
	} else {
		b.WriteString("Your trip to Las Vegas\n")
	}
	if s.DepartureFlight != nil {
		fmt.Fprintf(&b, "Departure: %s\n", cards.Describe(*s.DepartureFlight))
	}
	if s.ReturnFlight != nil {
		fmt.Fprintf(&b, "Return: %s\n", cards.Describe(*s.ReturnFlight))
	}
	if h := s.Hotel; h != nil {
		fmt.Fprintf(&b, "Hotel: %s, %d nights, %s\n", h.Name, h.Nights, plan.Money(h.TotalPrice))
	}
	for _, e := range s.Entertainment {
		fmt.Fprintf(&b, "Entertainment: %s (%s), %s\n", e.Name, e.Location, plan.Money(e.Price))
	}
	fmt.Fprintf(&b, "Total: %s", plan.Money(s.Expenses().Total()))
	if s.Budget > 0 {
		if report, err := plan.EvaluateBudget(s.Budget, s.Expenses()); err == nil {
			fmt.Fprintf(&b, "\n%s", report.Message)
		}
	}
	return b.String(), nil
}

// Sharer sends travel plans over the registered channels.
type Sharer struct {
	mu       sync.RWMutex
	services map[Channel]Service
}

// NewSharer creates a Sharer without channels.
func NewSharer() *Sharer {
	return &Sharer{services: make(map[Channel]Service)}
}

// Register makes svc available as ch.
func (s *Sharer) Register(ch Channel, svc Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[ch] = svc
	slog.Debug("Sharer.Register", "channel", ch)
}

// Channels returns the registered channel names in sorted order.
func (s *Sharer) Channels() []Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Channel, 0, len(s.services))
	for ch := range s.services {
		out = append(out, ch)
	}
	slices.Sort(out)
	return out
}

// Share sends the formatted plan to recipient over ch and returns the canonical recipient.
func (s *Sharer) Share(ctx context.Context, ch Channel, recipient string, course *models.Course, snap plan.Snapshot) (string, error) {
	s.mu.RLock()
	svc, ok := s.services[ch]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownChannel, ch)
	}

	to, err := svc.ValidateAndCanonicalizeRecipient(recipient)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRecipient, err)
	}
	text, err := FormatPlan(course, snap)
	if err != nil {
		return "", err
	}
	if err := svc.SendMessage(ctx, to, text); err != nil {
		slog.Error("Sharer.Share send failed", "channel", ch, "to", to, "error", err)
		return "", fmt.Errorf("failed to share plan: %w", err)
	}
	slog.Info("Sharer.Share", "channel", ch, "to", to)
	return to, nil
}
