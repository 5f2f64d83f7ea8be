package reply

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"replypilot/backend/internal/models"
	"replypilot/backend/internal/sentiment"
	"replypilot/backend/pkg/logger"
	"replypilot/backend/pkg/resilience"
	"replypilot/backend/pkg/secrets"
)

const defaultModel = "gpt-4o-mini"

// OpenAIGenerator drafts replies through the OpenAI chat completions API
type OpenAIGenerator struct {
	apiKey     string
	model      string
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
}

// NewOpenAIGenerator creates a generator configured from the secrets manager
func NewOpenAIGenerator(sm *secrets.Manager, log *logger.Logger) (*OpenAIGenerator, error) {
	apiKey, err := sm.Get("OPENAI_API_KEY")
	if err != nil || apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	model := sm.GetWithDefault("OPENAI_MODEL", defaultModel)

	return &OpenAIGenerator{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		breaker:    resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("reply-generator"), log),
	}, nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GenerateReply drafts a reply for the review. Escalation categories come
// from the deterministic scanner, not from the model, so the routing decision
// is reproducible even when the model call is retried.
func (g *OpenAIGenerator) GenerateReply(ctx context.Context, review *models.Review, business *models.Business) (*Output, error) {
	reasons := sentiment.Escalations(review.Text)

	systemPrompt := fmt.Sprintf(
		"You write short, professional owner replies to customer reviews for %s, a %s business. "+
			"Thank the reviewer, address their specific points, and never admit legal liability. "+
			"Keep the reply under 80 words.",
		business.Name,
		business.Industry,
	)
	if len(reasons) > 0 {
		systemPrompt += " This review touches a sensitive topic; be cautious, apologetic and invite offline contact."
	}

	userPrompt := fmt.Sprintf("%d-star review from %s: %q", review.Rating, review.Author, review.Text)

	reqBody := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var draft string
	err = g.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			"https://api.openai.com/v1/chat/completions", bytes.NewBuffer(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+g.apiKey)

		resp, err := g.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		var parsed chatResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		if parsed.Error != nil {
			return fmt.Errorf("api error: %s", parsed.Error.Message)
		}
		if len(parsed.Choices) == 0 {
			return errors.New("no response choices returned")
		}

		draft = strings.TrimSpace(parsed.Choices[0].Message.Content)
		return nil
	})
	if err != nil {
		return nil, err
	}

	confidence := 0.9
	if len(reasons) > 0 {
		confidence = 0.5
	}

	return &Output{
		DraftText:         draft,
		EscalationFlag:    len(reasons) > 0,
		EscalationReasons: reasons,
		Confidence:        confidence,
	}, nil
}
