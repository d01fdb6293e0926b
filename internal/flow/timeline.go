package flow

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BTreeMap/TripConcierge/internal/models"
)

// Placeholder identifies a typing indicator shown in a timeline.
type Placeholder struct {
	ID         string
	Generation uint64
}

// Timeline is the ordered transcript of a session. Apart from typing placeholders
// it is append-only.
type Timeline struct {
	mu         sync.RWMutex
	messages   []models.Message
	generation uint64
}

// NewTimeline returns an empty timeline.
func NewTimeline() *Timeline {
	return &Timeline{}
}

func newMessageID() string {
	return uuid.NewString()
}

// ShowTyping appends a typing placeholder and returns its handle.
func (t *Timeline) ShowTyping() Placeholder {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := Placeholder{ID: "typing-" + newMessageID(), Generation: t.generation}
	t.messages = append(t.messages, models.Message{
		ID:        p.ID,
		Role:      models.RoleAssistant,
		Content:   models.TypingContent,
		CreatedAt: time.Now(),
		Typing:    true,
	})
	slog.Debug("Timeline.ShowTyping", "placeholder", p.ID, "generation", p.Generation)
	return p
}

// ResolveTyping removes the placeholder and appends msg in one step. It reports false
// and appends nothing when the placeholder belongs to an invalidated generation or is gone.
func (t *Timeline) ResolveTyping(p Placeholder, msg models.Message) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p.Generation != t.generation {
		slog.Debug("Timeline.ResolveTyping: stale placeholder dropped", "placeholder", p.ID, "generation", p.Generation, "current", t.generation)
		return false
	}
	idx := -1
	for i, m := range t.messages {
		if m.ID == p.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		slog.Debug("Timeline.ResolveTyping: placeholder not found", "placeholder", p.ID)
		return false
	}
	t.messages = append(t.messages[:idx], t.messages[idx+1:]...)
	t.messages = append(t.messages, complete(msg, models.RoleAssistant))
	return true
}

// Discard removes the placeholder without a replacement.
func (t *Timeline) Discard(p Placeholder) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, m := range t.messages {
		if m.ID == p.ID {
			t.messages = append(t.messages[:i], t.messages[i+1:]...)
			return
		}
	}
}

// Append adds msg to the end of the transcript and returns it with ID and timestamp filled.
func (t *Timeline) Append(msg models.Message) models.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	m := complete(msg, models.RoleAssistant)
	t.messages = append(t.messages, m)
	return m
}

// Messages returns a copy of the transcript.
func (t *Timeline) Messages() []models.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]models.Message(nil), t.messages...)
}

// Pending returns the number of unresolved placeholders.
func (t *Timeline) Pending() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, m := range t.messages {
		if m.Typing {
			n++
		}
	}
	return n
}

// Invalidate drops every placeholder and makes outstanding handles stale.
func (t *Timeline) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.generation++
	kept := t.messages[:0]
	for _, m := range t.messages {
		if !m.Typing {
			kept = append(kept, m)
		}
	}
	t.messages = kept
	slog.Debug("Timeline.Invalidate", "generation", t.generation)
}

// Clear removes every message and invalidates outstanding placeholders.
func (t *Timeline) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.generation++
	t.messages = nil
}

func complete(msg models.Message, role models.Role) models.Message {
	if msg.ID == "" {
		msg.ID = newMessageID()
	}
	if msg.Role == "" {
		msg.Role = role
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	msg.Typing = false
	return msg
}
