package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goalie-study/goalie-backend/internal/logger"
	"github.com/goalie-study/goalie-backend/internal/utils"
)

// CohortClient enrolls a participant code into a named panel cohort.
// Best-effort: the caller gets a boolean, never an abort.
type CohortClient interface {
	AddParticipant(ctx context.Context, participantCode, cohort string) bool
}

type cohortClient struct {
	log        *logger.Logger
	baseURL    string
	authToken  string
	httpClient *http.Client
}

func NewCohortClient(log *logger.Logger) CohortClient {
	clientLog := log.With("service", "CohortClient")
	return &cohortClient{
		log:        clientLog,
		baseURL:    utils.GetEnv("COHORT_API_URL", "", clientLog),
		authToken:  utils.GetEnv("COHORT_API_TOKEN", "", clientLog),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// NewCohortClientWith builds a client with explicit settings, for tests.
func NewCohortClientWith(log *logger.Logger, baseURL, authToken string, timeout time.Duration) CohortClient {
	return &cohortClient{
		log:        log.With("service", "CohortClient"),
		baseURL:    baseURL,
		authToken:  authToken,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *cohortClient) AddParticipant(ctx context.Context, participantCode, cohort string) bool {
	if c.baseURL == "" {
		c.log.Debug("Cohort API not configured, skipping enrollment", "cohort", cohort)
		return false
	}

	body := map[string]string{
		"participant_id": participantCode,
		"group":          cohort,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		c.log.Warn("Cohort enrollment encode failed", "error", err)
		return false
	}

	url := fmt.Sprintf("%s/groups/%s/participants", c.baseURL, cohort)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		c.log.Warn("Cohort enrollment request build failed", "error", err)
		return false
	}
	req.Header.Set("Authorization", "Bearer "+c.authToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("Cohort enrollment call failed", "cohort", cohort, "error", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusNoContent:
		return true
	case http.StatusConflict:
		// Already a member counts as success.
		return true
	default:
		c.log.Warn("Cohort enrollment rejected", "cohort", cohort, "status", resp.StatusCode)
		return false
	}
}
