package flow

import (
	"context"
	"log/slog"
	"time"
)

const (
	// DefaultThinkingDelay is shown as a typing indicator before each assistant turn.
	DefaultThinkingDelay = 1500 * time.Millisecond
	// DefaultFollowUpDelay separates the preference summary from the offer list.
	DefaultFollowUpDelay = 2 * time.Second
)

// Pacer spaces assistant turns with a simulated thinking interval.
// A nil Pacer or a zero delay never blocks.
type Pacer struct {
	thinking time.Duration
	followUp time.Duration
}

// NewPacer returns a Pacer with the given thinking delay. The follow-up delay
// scales with it so a zero delay disables pacing entirely.
func NewPacer(thinking time.Duration) *Pacer {
	if thinking < 0 {
		thinking = 0
	}
	followUp := time.Duration(float64(thinking) * float64(DefaultFollowUpDelay) / float64(DefaultThinkingDelay))
	slog.Debug("Creating Pacer", "thinking", thinking, "followUp", followUp)
	return &Pacer{thinking: thinking, followUp: followUp}
}

// Pause waits for the thinking delay.
func (p *Pacer) Pause(ctx context.Context) error {
	if p == nil {
		return ctx.Err()
	}
	return wait(ctx, p.thinking)
}

// PauseFollowUp waits for the follow-up delay.
func (p *Pacer) PauseFollowUp(ctx context.Context) error {
	if p == nil {
		return ctx.Err()
	}
	return wait(ctx, p.followUp)
}

// Thinking returns the configured thinking delay.
func (p *Pacer) Thinking() time.Duration {
	if p == nil {
		return 0
	}
	return p.thinking
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		slog.Debug("Pacer wait cancelled", "delay", d, "error", ctx.Err())
		return ctx.Err()
	}
}
