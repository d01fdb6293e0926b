package models

import (
	"errors"
	"testing"
	"time"
)

func TestAirportRecordValidate(t *testing.T) {
	valid := AirportRecord{
		City:        "Toronto",
		Region:      "Ontario",
		Country:     "Canada",
		AirportName: "Toronto Pearson International Airport",
		IATACode:    "YYZ",
	}

	tests := []struct {
		name    string
		mutate  func(a *AirportRecord)
		wantErr error
	}{
		{"valid", func(a *AirportRecord) {}, nil},
		{"missing city", func(a *AirportRecord) { a.City = "" }, ErrIncompleteAirport},
		{"blank region", func(a *AirportRecord) { a.Region = "  " }, ErrIncompleteAirport},
		{"missing airport", func(a *AirportRecord) { a.AirportName = "" }, ErrIncompleteAirport},
		{"missing code", func(a *AirportRecord) { a.IATACode = "" }, ErrIncompleteAirport},
		{"long code", func(a *AirportRecord) { a.IATACode = "YYZZ" }, ErrInvalidIATACode},
		{"digit code", func(a *AirportRecord) { a.IATACode = "Y2Z" }, ErrInvalidIATACode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := valid
			tt.mutate(&a)
			err := a.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDialogueStepIsValid(t *testing.T) {
	for _, step := range DialogueSteps {
		if !step.IsValid() {
			t.Errorf("expected %q to be valid", step)
		}
	}
	if !StepNone.IsValid() {
		t.Error("expected StepNone to be valid")
	}
	if DialogueStep("hotel_budget").IsValid() {
		t.Error("expected unknown step to be invalid")
	}
}

func TestDialogueStepsOrder(t *testing.T) {
	if DialogueSteps[0] != StepDepartureLocation {
		t.Errorf("expected interview to start at %q, got %q", StepDepartureLocation, DialogueSteps[0])
	}
	if DialogueSteps[len(DialogueSteps)-1] != StepSummary {
		t.Errorf("expected interview to end at %q, got %q", StepSummary, DialogueSteps[len(DialogueSteps)-1])
	}
}

func TestCourseHasDates(t *testing.T) {
	c := Course{Name: "Advanced Cardiology Techniques"}
	if c.HasDates() {
		t.Error("expected course without dates to report false")
	}
	c.StartDate = time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)
	c.EndDate = time.Date(2025, 4, 17, 0, 0, 0, 0, time.UTC)
	if !c.HasDates() {
		t.Error("expected course with dates to report true")
	}
}

func TestAPIResponseBuilders(t *testing.T) {
	ok := SuccessWithMessage("created", map[string]string{"id": "abc"})
	if ok.Status != string(APIStatusOK) || ok.Message != "created" || ok.Result == nil {
		t.Errorf("unexpected success response: %+v", ok)
	}
	e := Error("boom")
	if e.Status != string(APIStatusError) || e.Message != "boom" || e.Result != nil {
		t.Errorf("unexpected error response: %+v", e)
	}
}
