package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pisces-api/internal/domain"
	"pisces-api/pkg/logger"
)

// RequestTimeout bounds a single generateContent call
const RequestTimeout = 30 * time.Second

// ErrEmptyResponse is returned when the provider answered but no reply text could be extracted
var ErrEmptyResponse = errors.New("gemini returned empty response")

// StatusError is returned when the provider responds with an HTTP error status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gemini returned status %d: %s", e.StatusCode, e.Body)
}

// Client calls the Gemini generateContent endpoint
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a new Gemini client. The API key is supplied per call.
func NewClient(baseURL, model string, logger *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: RequestTimeout,
		},
		logger: logger,
	}
}

// Model returns the model the client generates with
func (c *Client) Model() string {
	return c.model
}

// GenerateReply sends message as a single text part and returns the first candidate's text.
// It makes exactly one attempt.
func (c *Client) GenerateReply(ctx context.Context, apiKey, message string) (string, error) {
	payload, err := json.Marshal(domain.NewGenerationRequest(message))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(apiKey), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", redactURLError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	log := c.logger.WithFields(map[string]interface{}{
		"model":       c.model,
		"status_code": resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode >= http.StatusBadRequest {
		log.Warn("Gemini returned error status")
		return "", &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.ToValidUTF8(string(body), "�"),
		}
	}

	var envelope domain.GenerationEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		log.WithError(err).Error("Failed to parse Gemini response")
		return "", fmt.Errorf("failed to parse Gemini response: %w", err)
	}

	reply := envelope.ReplyText()
	if reply == "" {
		log.WithField("candidates", len(envelope.Candidates)).Warn("Gemini response had no reply text")
		return "", ErrEmptyResponse
	}

	log.Debug("Gemini reply received")
	return reply, nil
}

func (c *Client) endpoint(apiKey string) string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(c.model), url.QueryEscape(apiKey))
}

// redactURLError drops the request URL from transport errors, since it carries the API key
func redactURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
