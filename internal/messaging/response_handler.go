package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/BTreeMap/TripConcierge/internal/cards"
	"github.com/BTreeMap/TripConcierge/internal/flow"
	"github.com/BTreeMap/TripConcierge/internal/models"
)

// ResetKeyword restarts a traveler's conversation.
const ResetKeyword = "restart"

// ResponseHandler runs concierge conversations over a messaging service. Each
// sender gets its own session, created on first contact and recreated after it expires.
type ResponseHandler struct {
	svc      Service
	sessions *flow.Registry

	mu       sync.Mutex
	bySender map[string]string
}

// NewResponseHandler creates a handler replying through svc.
func NewResponseHandler(svc Service, sessions *flow.Registry) *ResponseHandler {
	return &ResponseHandler{
		svc:      svc,
		sessions: sessions,
		bySender: make(map[string]string),
	}
}

// Run handles inbound messages until the service closes its channel or ctx ends.
func (h *ResponseHandler) Run(ctx context.Context) {
	slog.Debug("ResponseHandler.Run starting")
	for {
		select {
		case <-ctx.Done():
			slog.Debug("ResponseHandler.Run stopping", "reason", ctx.Err())
			return
		case in, ok := <-h.svc.Responses():
			if !ok {
				slog.Debug("ResponseHandler.Run: responses channel closed")
				return
			}
			if err := h.Handle(ctx, in); err != nil {
				slog.Error("ResponseHandler failed to handle message", "from", in.From, "error", err)
			}
		}
	}
}

// Handle feeds one inbound message to the sender's session and sends the replies.
func (h *ResponseHandler) Handle(ctx context.Context, in Inbound) error {
	from, err := h.svc.ValidateAndCanonicalizeRecipient(in.From)
	if err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}

	session, fresh, err := h.sessionFor(from)
	if err != nil {
		return err
	}

	var replies []models.Message
	switch {
	case strings.EqualFold(strings.TrimSpace(in.Body), ResetKeyword):
		session.Reset()
		replies = session.Messages()
	default:
		if fresh {
			replies = session.Messages()
		}
		turn, err := session.HandleInput(ctx, in.Body)
		if err != nil && !errors.Is(err, models.ErrEmptyContent) {
			return fmt.Errorf("failed to handle message: %w", err)
		}
		replies = append(replies, turn...)
	}

	text := FormatReplies(replies)
	if text == "" {
		return nil
	}
	if err := h.svc.SendMessage(ctx, from, text); err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}
	slog.Debug("ResponseHandler.Handle replied", "to", from, "sessionID", session.ID)
	return nil
}

func (h *ResponseHandler) sessionFor(from string) (*flow.Session, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if id, ok := h.bySender[from]; ok {
		s, err := h.sessions.Get(id)
		if err == nil {
			return s, false, nil
		}
		slog.Debug("ResponseHandler: session expired, starting over", "from", from, "sessionID", id)
	}
	s, err := h.sessions.Create()
	if err != nil {
		return nil, false, err
	}
	h.bySender[from] = s.ID
	return s, true, nil
}

// FormatReplies renders assistant messages as plain text. Cards become one-line
// flight descriptions and quick replies are listed after the message they belong to.
func FormatReplies(msgs []models.Message) string {
	var parts []string
	for _, m := range msgs {
		if m.Role != models.RoleAssistant || m.IsPlaceholder() {
			continue
		}
		text := cards.Render(m.Content)
		if len(m.QuickReplies) > 0 {
			text += "\n(" + strings.Join(m.QuickReplies, " / ") + ")"
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n")
}
