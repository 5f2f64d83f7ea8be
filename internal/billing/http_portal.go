package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// HTTPPortal talks to the billing service over its internal REST API
type HTTPPortal struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPPortal builds a portal client configured from the environment
func NewHTTPPortal() (*HTTPPortal, error) {
	baseURL := os.Getenv("BILLING_API_URL")
	if baseURL == "" {
		return nil, fmt.Errorf("billing API URL is required")
	}
	return &HTTPPortal{
		baseURL:    baseURL,
		apiKey:     os.Getenv("BILLING_API_KEY"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

type portalLinkResponse struct {
	URL   string `json:"url"`
	Error string `json:"error,omitempty"`
}

// PortalLink fetches a short-lived self-service billing URL
func (p *HTTPPortal) PortalLink(ctx context.Context, businessID uint) (string, error) {
	url := fmt.Sprintf("%s/v1/businesses/%d/portal-link", p.baseURL, businessID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("billing request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read billing response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("billing returned status %d", resp.StatusCode)
	}

	var parsed portalLinkResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse billing response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("billing error: %s", parsed.Error)
	}
	return parsed.URL, nil
}

// CancelSubscription cancels with the billing provider
func (p *HTTPPortal) CancelSubscription(ctx context.Context, businessID uint) error {
	url := fmt.Sprintf("%s/v1/businesses/%d/subscription", p.baseURL, businessID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("billing request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("billing returned status %d", resp.StatusCode)
	}
	return nil
}
