// Package azuredi is the OCR collaborator: a minimal client for the Azure
// Document Intelligence prebuilt-receipt model. One analyze request, one
// polling loop, no retries.
package azuredi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/kadoya0703/kakeibo/internal/logger"
)

const (
	apiVersion          = "2023-07-31"
	defaultPollInterval = 2 * time.Second
)

// Client calls the prebuilt-receipt analysis endpoint.
type Client struct {
	endpoint     string
	key          string
	httpClient   *http.Client
	pollInterval time.Duration
}

func NewClient(endpoint, key string) *Client {
	return &Client{
		endpoint:     endpoint,
		key:          key,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		pollInterval: defaultPollInterval,
	}
}

// analyzeOperation is the polling response envelope.
type analyzeOperation struct {
	Status        string         `json:"status"`
	AnalyzeResult map[string]any `json:"analyzeResult"`
	Error         *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Analyze submits one receipt image and blocks until the service finishes,
// returning the raw analyzeResult tree for the normalizer.
func (c *Client) Analyze(ctx context.Context, imagePath string) (map[string]any, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("read receipt image: %w", err)
	}

	opURL, err := c.submit(ctx, data)
	if err != nil {
		return nil, err
	}

	return c.poll(ctx, opURL)
}

func (c *Client) submit(ctx context.Context, data []byte) (string, error) {
	url := fmt.Sprintf(
		"%s/formrecognizer/documentModels/prebuilt-receipt:analyze?api-version=%s",
		c.endpoint, apiVersion,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit analyze request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("analyze request rejected: %s: %s", resp.Status, body)
	}

	opURL := resp.Header.Get("Operation-Location")
	if opURL == "" {
		return "", fmt.Errorf("analyze response missing Operation-Location header")
	}
	return opURL, nil
}

func (c *Client) poll(ctx context.Context, opURL string) (map[string]any, error) {
	log := logger.FromContext(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("analyze polling: %w", ctx.Err())
		case <-time.After(c.pollInterval):
		}

		op, err := c.fetchOperation(ctx, opURL)
		if err != nil {
			return nil, err
		}

		switch op.Status {
		case "succeeded":
			if op.AnalyzeResult == nil {
				return nil, fmt.Errorf("analyze succeeded with empty result")
			}
			return op.AnalyzeResult, nil
		case "failed":
			if op.Error != nil {
				return nil, fmt.Errorf("analyze failed: %s: %s", op.Error.Code, op.Error.Message)
			}
			return nil, fmt.Errorf("analyze failed")
		default:
			log.Debug().Str("status", op.Status).Msg("analyze still running")
		}
	}
}

func (c *Client) fetchOperation(ctx context.Context, opURL string) (*analyzeOperation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build poll request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll analyze operation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("poll rejected: %s: %s", resp.Status, body)
	}

	var op analyzeOperation
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return nil, fmt.Errorf("decode poll response: %w", err)
	}
	return &op, nil
}
