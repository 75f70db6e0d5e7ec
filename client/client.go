package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	natspkg "github.com/brojonat/burnwatch/service/nats"
	"github.com/brojonat/burnwatch/service/signing"
)

// Health is the payload returned by GET /health.
type Health struct {
	Status     string `json:"status"`
	Timestamp  string `json:"timestamp"`
	Monitoring string `json:"monitoring"`
	Program    string `json:"program"`
	CacheSize  int    `json:"cacheSize"`
}

// Info is the payload returned by GET /.
type Info struct {
	Name       string            `json:"name"`
	Version    string            `json:"version"`
	Status     string            `json:"status"`
	Endpoints  map[string]string `json:"endpoints"`
	Monitoring struct {
		Program     string `json:"program"`
		Description string `json:"description"`
	} `json:"monitoring"`
}

// Client is the HTTP client for a burnwatch server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new burnwatch client.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Health fetches the server health report.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.getJSON(ctx, "/health", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Info fetches the service description.
func (c *Client) Info(ctx context.Context) (*Info, error) {
	var info Info
	if err := c.getJSON(ctx, "/", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// WebhookAuth holds the credentials SendWebhook attaches. Empty fields are
// skipped.
type WebhookAuth struct {
	Secret string // HMAC key for the signature header
	Token  string // sent as the Authorization header
}

// SendWebhook posts a raw webhook body to the server with the given
// credentials. It is meant for replaying captured deliveries.
func (c *Client) SendWebhook(ctx context.Context, body []byte, auth WebhookAuth) error {
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/webhook", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if auth.Secret != "" {
		req.Header.Set(signing.DefaultHeader, signing.Sign(body, auth.Secret))
	}
	if auth.Token != "" {
		req.Header.Set(signing.AuthorizationHeader, auth.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse(resp)
	}

	c.logger.Debug("webhook delivered", "bytes", len(body), "signed", auth.Secret != "", "token", auth.Token != "")
	return nil
}

// StreamBurns subscribes to the server's burn stream and calls fn for each
// event until ctx is cancelled, the server closes the stream, or fn returns
// an error. An empty program streams every monitored program.
func (c *Client) StreamBurns(ctx context.Context, program string, fn func(*natspkg.BurnMessage) error) error {
	u := c.baseURL + "/api/v1/stream/burns"
	if program != "" {
		u += "?program=" + url.QueryEscape(program)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	// The configured client timeout would cut the stream short
	streamClient := *c.httpClient
	streamClient.Timeout = 0

	resp, err := streamClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to SSE endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	var currentEvent, currentData string

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			event, data := currentEvent, currentData
			currentEvent, currentData = "", ""

			switch event {
			case "burn":
				var msg natspkg.BurnMessage
				if err := json.Unmarshal([]byte(data), &msg); err != nil {
					c.logger.Warn("failed to decode burn event", "error", err)
					continue
				}
				if err := fn(&msg); err != nil {
					return err
				}
			case "error":
				return fmt.Errorf("stream error: %s", data)
			case "connected":
				c.logger.Debug("burn stream connected", "data", data)
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "event:"):
			currentEvent = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			currentData = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("error reading SSE stream: %w", err)
	}
	return nil
}

// parseErrorResponse attempts to parse an error response from the server.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errResp struct {
		Error string `json:"error"`
	}

	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return fmt.Errorf("request failed: %s", errResp.Error)
}
