package voice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dialdesk_backend/platform/apperr"
)

type testConfig struct {
	baseURL string
}

func (c testConfig) GetVoiceAPIBaseURL() string          { return c.baseURL }
func (c testConfig) GetVoiceAPIKey() string              { return "test-key" }
func (c testConfig) GetVoiceAPITimeout() time.Duration   { return 5 * time.Second }
func (c testConfig) GetVoiceDispatchPerSecond() float64  { return 100 }
func (c testConfig) GetVoiceDispatchBurst() int          { return 10 }

func TestCreateCallSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v2/create-phone-call" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}

		var req CreateCallRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Metadata["lead_id"] == "" {
			t.Error("expected lead_id metadata")
		}

		json.NewEncoder(w).Encode(Call{CallID: "call-abc", CallStatus: "registered"})
	}))
	defer srv.Close()

	client := NewClient(testConfig{baseURL: srv.URL})
	call, err := client.CreateCall(context.Background(), CreateCallRequest{
		FromNumber: "+12025550100",
		ToNumber:   "+12025550123",
		Metadata:   map[string]string{"lead_id": "abc"},
	})
	if err != nil {
		t.Fatalf("CreateCall: %v", err)
	}
	if call.CallID != "call-abc" {
		t.Errorf("call id = %q, want call-abc", call.CallID)
	}
}

func TestCreateCallProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"agent not found"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewClient(testConfig{baseURL: srv.URL})
	_, err := client.CreateCall(context.Background(), CreateCallRequest{ToNumber: "+12025550123"})
	if err == nil {
		t.Fatal("expected error on non-2xx response")
	}
	if !strings.Contains(err.Error(), "422") {
		t.Errorf("error should carry the status code, got %v", err)
	}
}

func TestCreateCallMissingCallID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig{baseURL: srv.URL})
	if _, err := client.CreateCall(context.Background(), CreateCallRequest{}); err == nil {
		t.Fatal("expected error when the provider returns no call id")
	}
}

func TestGetCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/get-call/call-abc" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Call{CallID: "call-abc", CallStatus: "ended", DurationMs: 4200})
	}))
	defer srv.Close()

	client := NewClient(testConfig{baseURL: srv.URL})
	call, err := client.GetCall(context.Background(), "call-abc")
	if err != nil {
		t.Fatalf("GetCall: %v", err)
	}
	if call.CallStatus != "ended" || call.DurationMs != 4200 {
		t.Errorf("unexpected call: %+v", call)
	}
}

func TestGetCallNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"call not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(testConfig{baseURL: srv.URL})
	_, err := client.GetCall(context.Background(), "call-gone")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found kind for a 404, got %v", err)
	}
}

func TestParseEvent(t *testing.T) {
	payload := []byte(`{
		"event": "call_ended",
		"call": {
			"call_id": "call-abc",
			"call_status": "ended",
			"metadata": {"lead_id": "lead-1"}
		}
	}`)

	evt, err := ParseEvent(payload)
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if evt.Event != EventCallEnded {
		t.Errorf("event = %q", evt.Event)
	}
	if evt.LeadID() != "lead-1" {
		t.Errorf("lead id = %q, want lead-1", evt.LeadID())
	}
}

func TestParseEventRejectsIncomplete(t *testing.T) {
	cases := map[string]string{
		"not json":     `{`,
		"no event":     `{"call":{"call_id":"x"}}`,
		"no call id":   `{"event":"call_started","call":{}}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseEvent([]byte(payload)); err == nil {
				t.Error("expected parse error")
			}
		})
	}
}
