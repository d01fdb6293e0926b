package course

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BTreeMap/TripConcierge/internal/models"
)

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider(MockCourse())
	c, err := p.Course(context.Background(), "demo")
	if err != nil {
		t.Fatalf("Course returned error: %v", err)
	}
	if c.Name != "Advanced Cardiology Techniques" || !c.HasDates() {
		t.Errorf("unexpected course %+v", c)
	}
	if _, err := p.Course(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(time.Time{}); got != "TBD" {
		t.Errorf("FormatDate(zero) = %q, want TBD", got)
	}
	if got := FormatDate(time.Date(2025, 4, 15, 9, 0, 0, 0, time.UTC)); got != "Tuesday, April 15, 2025" {
		t.Errorf("FormatDate = %q", got)
	}
}

func TestWelcomeMessage(t *testing.T) {
	c := MockCourse()
	want := `Hey there! I noticed you just booked "Advanced Cardiology Techniques" at Las Vegas Convention Center from Tuesday, April 15, 2025 to Thursday, April 17, 2025. Would you like assistance with booking flights, hotels, or entertainment during your stay in Vegas?`
	if got := WelcomeMessage(&c); got != want {
		t.Errorf("WelcomeMessage = %q\nwant %q", got, want)
	}

	generic := "Hey there! Would you like assistance with booking flights, hotels, or entertainment during your stay in Vegas?"
	if got := WelcomeMessage(nil); got != generic {
		t.Errorf("WelcomeMessage(nil) = %q", got)
	}
	if got := WelcomeMessage(&models.Course{}); got != generic {
		t.Errorf("WelcomeMessage(empty) = %q", got)
	}

	undated := models.Course{Name: "Ethics", Venue: "Hall B"}
	if got := WelcomeMessage(&undated); got != `Hey there! I noticed you just booked "Ethics" at Hall B from TBD to TBD. Would you like assistance with booking flights, hotels, or entertainment during your stay in Vegas?` {
		t.Errorf("WelcomeMessage(undated) = %q", got)
	}
}
