package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BTreeMap/TripConcierge/internal/models"
)

// mockTestingT records failures instead of failing the surrounding test.
type mockTestingT struct {
	failed   bool
	fatal    bool
	errorMsg string
}

func (m *mockTestingT) Helper() {}

func (m *mockTestingT) Errorf(format string, args ...interface{}) {
	m.failed = true
	m.errorMsg = fmt.Sprintf(format, args...)
}

func (m *mockTestingT) Fatalf(format string, args ...interface{}) {
	m.failed = true
	m.fatal = true
	m.errorMsg = fmt.Sprintf(format, args...)
}

func TestNewTestServer(t *testing.T) {
	srv := NewTestServer(t)
	if srv == nil {
		t.Fatal("NewTestServer returned nil")
	}
	rr := Do(srv, CreateHTTPRequest(t, http.MethodGet, "/health", nil))
	AssertHTTPStatus(t, http.StatusOK, rr.Code, "health")
	AssertJSONResponse(t, rr, models.APIStatusOK)

	rr = Do(srv, CreateHTTPRequest(t, http.MethodGet, "/courses/demo", nil))
	AssertHTTPStatus(t, http.StatusOK, rr.Code, "demo course")
	var c models.Course
	DecodeResult(t, rr, &c)
	if c.Name != "Advanced Cardiology Techniques" {
		t.Errorf("unexpected course %+v", c)
	}
}

func TestAssertHTTPStatus(t *testing.T) {
	tests := []struct {
		name       string
		expected   int
		actual     int
		shouldFail bool
	}{
		{"matching status codes", http.StatusOK, http.StatusOK, false},
		{"different status codes", http.StatusOK, http.StatusNotFound, true},
		{"matching error codes", http.StatusInternalServerError, http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockT := &mockTestingT{}
			AssertHTTPStatus(mockT, tt.expected, tt.actual, "test context")
			if mockT.failed != tt.shouldFail {
				t.Errorf("expected failure=%v, got %v (%s)", tt.shouldFail, mockT.failed, mockT.errorMsg)
			}
		})
	}
}

func TestAssertJSONResponse(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		expected   models.APIStatus
		shouldFail bool
	}{
		{"ok envelope", `{"status":"ok","result":{"id":"1"}}`, models.APIStatusOK, false},
		{"error envelope", `{"status":"error","message":"nope"}`, models.APIStatusError, false},
		{"status mismatch", `{"status":"error"}`, models.APIStatusOK, true},
		{"missing status", `{"result":1}`, models.APIStatusOK, true},
		{"invalid json", `{`, models.APIStatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			rr.WriteString(tt.body)
			mockT := &mockTestingT{}
			AssertJSONResponse(mockT, rr, tt.expected)
			if mockT.failed != tt.shouldFail {
				t.Errorf("expected failure=%v, got %v (%s)", tt.shouldFail, mockT.failed, mockT.errorMsg)
			}
		})
	}
}

func TestDecodeResult(t *testing.T) {
	rr := httptest.NewRecorder()
	rr.WriteString(`{"status":"ok","result":{"id":"demo","name":"Course"}}`)
	var c models.Course
	DecodeResult(t, rr, &c)
	if c.ID != "demo" || c.Name != "Course" {
		t.Errorf("unexpected result %+v", c)
	}

	rr = httptest.NewRecorder()
	rr.WriteString(`{"status":"error","message":"nope"}`)
	mockT := &mockTestingT{}
	DecodeResult(mockT, rr, &c)
	if !mockT.fatal {
		t.Error("expected DecodeResult to fail on an error envelope")
	}
}

func TestCreateHTTPRequest(t *testing.T) {
	tests := []struct {
		name   string
		method string
		url    string
		body   interface{}
	}{
		{"GET request without body", http.MethodGet, "/test", nil},
		{"POST request with map body", http.MethodPost, "/test", map[string]string{"content": "flights"}},
		{"PUT request with struct body", http.MethodPut, "/test", models.BudgetRequest{Total: 1500}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := CreateHTTPRequest(t, tt.method, tt.url, tt.body)
			if req.Method != tt.method {
				t.Errorf("expected method %s, got %s", tt.method, req.Method)
			}
			if req.URL.Path != tt.url {
				t.Errorf("expected URL %s, got %s", tt.url, req.URL.Path)
			}
			if tt.body != nil && req.Header.Get("Content-Type") != "application/json" {
				t.Errorf("expected JSON content type, got %q", req.Header.Get("Content-Type"))
			}
		})
	}
}

func TestCreateJSONRequest(t *testing.T) {
	req := CreateJSONRequest(t, http.MethodPost, "/sessions", `{"courseId":"demo"}`)
	var body models.CreateSessionRequest
	buf := make([]byte, 64)
	n, _ := req.Body.Read(buf)
	MustUnmarshalJSON(t, buf[:n], &body)
	if body.CourseID != "demo" {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestMustMarshalJSON(t *testing.T) {
	data := MustMarshalJSON(t, models.MessageRequest{Content: "hotel"})
	if string(data) != `{"content":"hotel"}` {
		t.Errorf("unexpected JSON %s", data)
	}

	mockT := &mockTestingT{}
	MustMarshalJSON(mockT, make(chan int))
	if !mockT.fatal {
		t.Error("expected MustMarshalJSON to fail on an unsupported type")
	}
}

func TestMustUnmarshalJSON(t *testing.T) {
	var msg models.MessageRequest
	MustUnmarshalJSON(t, []byte(`{"content":"entertainment"}`), &msg)
	if msg.Content != "entertainment" {
		t.Errorf("unexpected message %+v", msg)
	}

	mockT := &mockTestingT{}
	MustUnmarshalJSON(mockT, []byte(`{`), &msg)
	if !mockT.fatal {
		t.Error("expected MustUnmarshalJSON to fail on invalid JSON")
	}
}
