package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goalie-study/goalie-backend/internal/flows"
	"github.com/goalie-study/goalie-backend/internal/logger"
	"github.com/goalie-study/goalie-backend/internal/utils"
)

type SuggestionRequest struct {
	Dimension     flows.Dimension
	GoalText      string
	ExistingTasks []string
}

// SuggestionClient proposes goal rewordings, weekly task ideas, and
// reflection summaries. Suggest never fails from the caller's point of
// view: any transport or decode problem collapses to the dimension's
// offline fallback.
type SuggestionClient interface {
	Suggest(ctx context.Context, req SuggestionRequest) string
}

type suggestionClient struct {
	log        *logger.Logger
	baseURL    string
	model      string
	fakeMode   bool
	maxTokens  int
	httpClient *http.Client
}

func NewSuggestionClient(log *logger.Logger) SuggestionClient {
	clientLog := log.With("service", "SuggestionClient")

	baseURL := utils.GetEnv("LLM_API_URL", "http://localhost:11434/api/generate", clientLog)
	model := utils.GetEnv("LLM_MODEL", "mistral", clientLog)
	fakeMode := utils.GetEnvAsBool("FAKE_MODE", true, clientLog)
	timeoutSec := utils.GetEnvAsInt("LLM_TIMEOUT_SECONDS", 30, clientLog)
	maxTokens := utils.GetEnvAsInt("LLM_MAX_TOKENS", 512, clientLog)

	return &suggestionClient{
		log:        clientLog,
		baseURL:    baseURL,
		model:      model,
		fakeMode:   fakeMode,
		maxTokens:  maxTokens,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}
}

// NewSuggestionClientWith builds a client with explicit settings. Tests use
// it to point at an httptest server.
func NewSuggestionClientWith(log *logger.Logger, baseURL, model string, fakeMode bool, timeout time.Duration) SuggestionClient {
	return &suggestionClient{
		log:        log.With("service", "SuggestionClient"),
		baseURL:    baseURL,
		model:      model,
		fakeMode:   fakeMode,
		maxTokens:  512,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	Stream      bool     `json:"stream"`
	Temperature float64  `json:"temperature"`
	MaxTokens   int      `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// generateResponse accepts both wire shapes: the current endpoint returns a
// top-level "response" field, the earlier variant an OpenAI-style choices
// array.
type generateResponse struct {
	Response string `json:"response"`
	Choices  []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

func (c *suggestionClient) Suggest(ctx context.Context, req SuggestionRequest) string {
	if c.fakeMode {
		return FallbackSuggestion(req.Dimension, req.GoalText)
	}

	text, err := c.generate(ctx, buildPrompt(req.Dimension, req.GoalText, req.ExistingTasks))
	if err != nil {
		c.log.Warn("Suggestion call failed, using fallback", "dimension", string(req.Dimension), "error", err)
		return FallbackSuggestion(req.Dimension, req.GoalText)
	}
	if text == "" {
		c.log.Warn("Suggestion call returned empty text, using fallback", "dimension", string(req.Dimension))
		return FallbackSuggestion(req.Dimension, req.GoalText)
	}
	return normalizeBreaks(text)
}

// generate issues exactly one call. No retries and no backoff: a slow or
// flaky endpoint must not stall the conversation beyond the client timeout.
func (c *suggestionClient) generate(ctx context.Context, prompt string) (string, error) {
	body := generateRequest{
		Model:       c.model,
		Prompt:      strings.TrimSpace(prompt),
		Stream:      false,
		Temperature: 0.7,
		MaxTokens:   c.maxTokens,
		Stop:        []string{"\n\n\n"},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, &buf)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("suggestion endpoint http %d: %s", resp.StatusCode, string(raw))
	}

	var decoded generateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("suggestion decode error: %w", err)
	}
	if decoded.Response != "" {
		return strings.TrimSpace(decoded.Response), nil
	}
	if len(decoded.Choices) > 0 {
		return strings.TrimSpace(decoded.Choices[0].Text), nil
	}
	return "", nil
}

// normalizeBreaks converts model newlines to the transcript's inline break
// convention.
func normalizeBreaks(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for strings.Contains(text, "\n\n") {
		text = strings.ReplaceAll(text, "\n\n", "\n")
	}
	return strings.ReplaceAll(strings.TrimSpace(text), "\n", "<br>")
}
