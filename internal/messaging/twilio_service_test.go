package messaging

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type mockCreator struct {
	params []*twilioApi.CreateMessageParams
	err    error
}

func (m *mockCreator) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.params = append(m.params, params)
	sid := "SM123"
	return &twilioApi.ApiV2010Message{Sid: &sid}, nil
}

func newTestTwilio(t *testing.T, creator MessageCreator) *TwilioService {
	t.Helper()
	svc, err := NewTwilioService(WithFromNumber("+17025550100"), WithMessageCreator(creator))
	if err != nil {
		t.Fatalf("NewTwilioService returned error: %v", err)
	}
	return svc
}

func TestCanonicalizePhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"+1 (555) 123-4567", "15551234567", false},
		{"15551234567", "15551234567", false},
		{"whatsapp:+447700900123", "447700900123", false},
		{"", "", true},
		{"call me", "", true},
		{"12345", "", true},
	}
	for _, tt := range tests {
		got, err := CanonicalizePhone(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("CanonicalizePhone(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("CanonicalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewTwilioServiceRequiresCredentials(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "")
	t.Setenv("TWILIO_AUTH_TOKEN", "")
	t.Setenv("TWILIO_FROM_NUMBER", "")

	if _, err := NewTwilioService(); err == nil {
		t.Error("expected an error without a from number")
	}
	if _, err := NewTwilioService(WithFromNumber("+17025550100")); err == nil {
		t.Error("expected an error without credentials")
	}
	if _, err := NewTwilioService(WithFromNumber("+17025550100"), WithAccountSID("AC1"), WithAuthToken("secret")); err != nil {
		t.Errorf("unexpected error with full credentials: %v", err)
	}
}

func TestNewTwilioServiceReadsEnvironment(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "AC1")
	t.Setenv("TWILIO_AUTH_TOKEN", "secret")
	t.Setenv("TWILIO_FROM_NUMBER", "+17025550100")
	svc, err := NewTwilioService()
	if err != nil {
		t.Fatalf("NewTwilioService returned error: %v", err)
	}
	if svc.from != "+17025550100" {
		t.Errorf("from = %q", svc.from)
	}
}

func TestTwilioService_SendMessage(t *testing.T) {
	creator := &mockCreator{}
	svc := newTestTwilio(t, creator)

	if err := svc.SendMessage(context.Background(), "(555) 123-4567", "Your trip"); err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
	if len(creator.params) != 1 {
		t.Fatalf("expected 1 message, got %d", len(creator.params))
	}
	p := creator.params[0]
	if *p.To != "+5551234567" || *p.From != "+17025550100" || *p.Body != "Your trip" {
		t.Errorf("unexpected params to=%s from=%s body=%s", *p.To, *p.From, *p.Body)
	}

	if err := svc.SendMessage(context.Background(), "nope", "hi"); err == nil {
		t.Error("expected validation error")
	}

	creator.err = errors.New("rate limited")
	if err := svc.SendMessage(context.Background(), "5551234567", "hi"); !errors.Is(err, creator.err) {
		t.Errorf("expected wrapped creator error, got %v", err)
	}

	svc.Stop()
	if err := svc.SendMessage(context.Background(), "5551234567", "hi"); !errors.Is(err, ErrServiceStopped) {
		t.Errorf("expected ErrServiceStopped, got %v", err)
	}
}

func TestTwilioService_WebhookHandler(t *testing.T) {
	svc := newTestTwilio(t, &mockCreator{})

	tests := []struct {
		name       string
		form       url.Values
		wantStatus int
	}{
		{"valid", url.Values{"From": {"+15551234567"}, "Body": {"hotel"}}, http.StatusOK},
		{"missing body", url.Values{"From": {"+15551234567"}}, http.StatusBadRequest},
		{"missing from", url.Values{"Body": {"hotel"}}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/webhooks/twilio", strings.NewReader(tt.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rec := httptest.NewRecorder()
			svc.WebhookHandler(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}

	select {
	case in := <-svc.Responses():
		if in.From != "+15551234567" || in.Body != "hotel" {
			t.Errorf("unexpected inbound %+v", in)
		}
	default:
		t.Fatal("expected an inbound message")
	}

	svc.Stop()
	if _, ok := <-svc.Responses(); ok {
		t.Error("expected responses channel closed")
	}
}
