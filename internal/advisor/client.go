// Package advisor asks a generative language model for narrative prose that
// accompanies a triage assessment. It never produces or alters a score.
package advisor

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

	"github.com/Ayash-Bera/mediguide/internal/metrics"
	"github.com/Ayash-Bera/mediguide/internal/triage"
	"github.com/Ayash-Bera/mediguide/pkg/utils"
	"github.com/sirupsen/logrus"
)

var (
	ErrDisabled      = errors.New("advisor disabled: no API key configured")
	ErrEmptyResponse = errors.New("advisor returned no text")
)

const (
	defaultModel       = "gemini-2.0-flash"
	defaultTemperature = 0.4
	defaultMaxTokens   = 800
)

type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	retry      utils.RetryConfig
	logger     *logrus.Logger
}

func NewClient(baseURL, apiKey, model string, timeout time.Duration, logger *logrus.Logger) *Client {
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	retry := utils.DefaultRetryConfig()
	retry.MaxRetries = 1

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retry:  retry,
		logger: logger,
	}
}

func (c *Client) WithRetry(cfg utils.RetryConfig) *Client {
	c.retry = cfg
	return c
}

func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// Narrative returns model prose for an assessment
func (c *Client) Narrative(ctx context.Context, text string, a triage.Assessment) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	out, err := c.Generate(ctx, BuildPrompt(text, a))
	switch {
	case err == nil:
		metrics.RecordAdvisorCall("ok")
	case errors.Is(err, ErrEmptyResponse):
		metrics.RecordAdvisorCall("empty")
	default:
		metrics.RecordAdvisorCall("error")
	}
	return out, err
}

// Generate sends a single-turn prompt to generateContent
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	req := GenerateRequest{
		Contents: []Content{{Role: "user", Parts: []Part{{Text: prompt}}}},
		GenerationConfig: &GenerationConfig{
			Temperature:     defaultTemperature,
			MaxOutputTokens: defaultMaxTokens,
		},
	}

	var response GenerateResponse
	err := utils.Retry(ctx, c.retry, c.logger, "advisor_generate", func() error {
		return c.makeRequest(ctx, req, &response)
	})
	if err != nil {
		return "", err
	}

	if response.PromptFeedback != nil && response.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: blocked (%s)", ErrEmptyResponse, response.PromptFeedback.BlockReason)
	}

	text := strings.TrimSpace(response.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (c *Client) makeRequest(ctx context.Context, payload interface{}, result interface{}) error {
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return utils.Permanent(fmt.Errorf("failed to marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return utils.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	c.logger.WithFields(logrus.Fields{
		"model":        c.model,
		"payload_size": len(jsonData),
	}).Debug("Making advisor API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return utils.Permanent(ctx.Err())
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"status_code":   resp.StatusCode,
		"response_size": len(body),
	}).Debug("Advisor API response received")

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return utils.Permanent(fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body)))
	}

	if err := json.Unmarshal(body, result); err != nil {
		return utils.Permanent(fmt.Errorf("failed to unmarshal response: %w", err))
	}
	return nil
}
