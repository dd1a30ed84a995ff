// Package voice talks to the hosted voice-AI provider. The client covers the
// two operations the dialer core needs: originating an outbound call and
// fetching a call's current state.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"dialdesk_backend/platform/apperr"
	"dialdesk_backend/platform/config"
)

// Client is an HTTP client for the voice provider API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a voice provider client. Outbound dispatches are rate
// limited client-side so a large tick cannot burst past the provider's
// origination limits.
func NewClient(cfg config.VoiceProviderConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.GetVoiceAPIBaseURL(), "/"),
		apiKey:  cfg.GetVoiceAPIKey(),
		httpClient: &http.Client{
			Timeout: cfg.GetVoiceAPITimeout(),
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.GetVoiceDispatchPerSecond()), cfg.GetVoiceDispatchBurst()),
	}
}

// CreateCallRequest is the origination payload.
type CreateCallRequest struct {
	FromNumber string            `json:"from_number"`
	ToNumber   string            `json:"to_number"`
	AgentID    string            `json:"override_agent_id,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Call is the provider's view of a call.
type Call struct {
	CallID              string            `json:"call_id"`
	AgentID             string            `json:"agent_id"`
	CallStatus          string            `json:"call_status"`
	FromNumber          string            `json:"from_number"`
	ToNumber            string            `json:"to_number"`
	Direction           string            `json:"direction"`
	StartTimestamp      int64             `json:"start_timestamp"`
	EndTimestamp        int64             `json:"end_timestamp"`
	DurationMs          int64             `json:"duration_ms"`
	DisconnectionReason string            `json:"disconnection_reason"`
	Transcript          string            `json:"transcript"`
	Metadata            map[string]string `json:"metadata"`
	CallCost            json.RawMessage   `json:"call_cost"`
	CallAnalysis        json.RawMessage   `json:"call_analysis"`
	LatencyStats        json.RawMessage   `json:"latency"`
}

// CreateCall originates an outbound phone call. Blocks on the dispatch rate
// limiter before sending.
func (c *Client) CreateCall(ctx context.Context, req CreateCallRequest) (*Call, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("dispatch rate limiter: %w", err)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal create call request: %w", err)
	}

	var call Call
	if err := c.do(ctx, http.MethodPost, "/v2/create-phone-call", bytes.NewReader(body), &call); err != nil {
		return nil, err
	}
	if call.CallID == "" {
		return nil, fmt.Errorf("provider returned no call id")
	}
	return &call, nil
}

// GetCall fetches the current state of a call from the provider.
func (c *Client) GetCall(ctx context.Context, callID string) (*Call, error) {
	var call Call
	if err := c.do(ctx, http.MethodGet, "/v2/get-call/"+callID, nil, &call); err != nil {
		return nil, err
	}
	return &call, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("voice provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return apperr.NotFound("call not found at provider")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return apperr.Upstream(fmt.Sprintf("voice provider returned status %d: %s", resp.StatusCode, string(payload)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}
