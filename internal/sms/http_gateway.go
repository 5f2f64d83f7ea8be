package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"replypilot/backend/pkg/logger"
	"replypilot/backend/pkg/resilience"
	"replypilot/backend/pkg/secrets"
)

// HTTPGateway sends messages through a Twilio-style REST endpoint using a
// form-encoded POST. Credentials come from the secrets manager so they can
// live in Vault in production and env vars everywhere else.
type HTTPGateway struct {
	endpoint   string
	fromNumber string
	accountSID string
	authToken  string
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
}

// NewHTTPGateway builds a gateway from secrets-manager values
func NewHTTPGateway(sm *secrets.Manager, log *logger.Logger) (*HTTPGateway, error) {
	endpoint, err := sm.Get("SMS_GATEWAY_URL")
	if err != nil {
		return nil, fmt.Errorf("sms gateway url: %w", err)
	}
	from, err := sm.Get("SMS_FROM_NUMBER")
	if err != nil {
		return nil, fmt.Errorf("sms from number: %w", err)
	}
	sid, err := sm.Get("SMS_ACCOUNT_SID")
	if err != nil {
		return nil, fmt.Errorf("sms account sid: %w", err)
	}
	token, err := sm.Get("SMS_AUTH_TOKEN")
	if err != nil {
		return nil, fmt.Errorf("sms auth token: %w", err)
	}

	return &HTTPGateway{
		endpoint:   endpoint,
		fromNumber: from,
		accountSID: sid,
		authToken:  token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		breaker:    resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("sms-gateway"), log),
	}, nil
}

type gatewayResponse struct {
	SID          string `json:"sid"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Send delivers one SMS and returns the gateway message SID
func (g *HTTPGateway) Send(ctx context.Context, to, body string) (string, error) {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", g.fromNumber)
	form.Set("Body", body)

	var messageID string
	err := g.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint,
			strings.NewReader(form.Encode()))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.SetBasicAuth(g.accountSID, g.authToken)

		resp, err := g.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(respBody))
		}

		var parsed gatewayResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		if parsed.ErrorMessage != "" {
			return fmt.Errorf("gateway error: %s", parsed.ErrorMessage)
		}

		messageID = parsed.SID
		return nil
	})
	if err != nil {
		return "", err
	}
	return messageID, nil
}
