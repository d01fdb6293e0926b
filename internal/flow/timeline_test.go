package flow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/BTreeMap/TripConcierge/internal/models"
)

func TestTimelineResolveTyping(t *testing.T) {
	tl := NewTimeline()
	tl.Append(models.Message{Role: models.RoleUser, Content: "Toronto"})

	p := tl.ShowTyping()
	msgs := tl.Messages()
	if len(msgs) != 2 || !msgs[1].IsPlaceholder() || msgs[1].Content != models.TypingContent {
		t.Fatalf("expected a trailing placeholder, got %+v", msgs)
	}
	if tl.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", tl.Pending())
	}

	if !tl.ResolveTyping(p, models.Message{Content: "To confirm..."}) {
		t.Fatal("ResolveTyping returned false")
	}
	msgs = tl.Messages()
	if len(msgs) != 2 || msgs[1].Content != "To confirm..." || msgs[1].Role != models.RoleAssistant {
		t.Errorf("unexpected transcript %+v", msgs)
	}
	if msgs[1].ID == "" || msgs[1].ID == p.ID || msgs[1].CreatedAt.IsZero() {
		t.Errorf("resolved message should get its own ID and timestamp: %+v", msgs[1])
	}
	if tl.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", tl.Pending())
	}

	if tl.ResolveTyping(p, models.Message{Content: "again"}) {
		t.Error("resolving twice should fail")
	}
}

func TestTimelineStaleGeneration(t *testing.T) {
	tl := NewTimeline()
	p := tl.ShowTyping()
	tl.Invalidate()
	if tl.Pending() != 0 {
		t.Errorf("Invalidate should drop placeholders, %d left", tl.Pending())
	}
	if tl.ResolveTyping(p, models.Message{Content: "late"}) {
		t.Error("stale placeholder must not resolve")
	}
	if n := len(tl.Messages()); n != 0 {
		t.Errorf("expected empty transcript, got %d messages", n)
	}

	p = tl.ShowTyping()
	tl.Clear()
	if tl.ResolveTyping(p, models.Message{Content: "late"}) {
		t.Error("placeholder from before Clear must not resolve")
	}
}

func TestTimelineDiscard(t *testing.T) {
	tl := NewTimeline()
	p := tl.ShowTyping()
	tl.Discard(p)
	if len(tl.Messages()) != 0 {
		t.Error("Discard left the placeholder behind")
	}
}

func TestTimelineConcurrentTurnsKeepOrder(t *testing.T) {
	tl := NewTimeline()
	var turn sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			turn.Lock()
			defer turn.Unlock()
			tl.Append(models.Message{Role: models.RoleUser, Content: "q"})
			p := tl.ShowTyping()
			tl.ResolveTyping(p, models.Message{Content: "a"})
		}()
	}
	wg.Wait()

	msgs := tl.Messages()
	if len(msgs) != 40 {
		t.Fatalf("expected 40 messages, got %d", len(msgs))
	}
	for i, m := range msgs {
		wantRole := models.RoleUser
		if i%2 == 1 {
			wantRole = models.RoleAssistant
		}
		if m.Role != wantRole || m.IsPlaceholder() {
			t.Fatalf("message %d out of order: %+v", i, m)
		}
	}
}

func TestPacer(t *testing.T) {
	var nilPacer *Pacer
	if err := nilPacer.Pause(context.Background()); err != nil {
		t.Errorf("nil pacer returned %v", err)
	}
	if nilPacer.Thinking() != 0 {
		t.Error("nil pacer should report zero delay")
	}

	zero := NewPacer(0)
	start := time.Now()
	if err := zero.PauseFollowUp(context.Background()); err != nil {
		t.Errorf("zero pacer returned %v", err)
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Error("zero pacer should not block")
	}

	p := NewPacer(10 * time.Millisecond)
	start = time.Now()
	if err := p.Pause(context.Background()); err != nil {
		t.Errorf("Pause returned %v", err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Error("Pause returned before the thinking delay")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewPacer(time.Hour).Pause(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
