package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"rockstar/internal/domain"
)

// Options configures the transactional email API client.
type Options struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client sends messages through a Resend-compatible HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://api.resend.com"
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient: client,
		baseURL:    base,
		token:      strings.TrimSpace(opts.APIKey),
	}
}

// Attachment content is base64-encoded file data.
type Attachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// Message is one outbound email.
type Message struct {
	From        string       `json:"from"`
	To          []string     `json:"to"`
	Subject     string       `json:"subject"`
	HTML        string       `json:"html"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type sendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
}

// Send submits one message and returns the provider's message id.
func (c *Client) Send(ctx context.Context, msg Message) (string, error) {
	if c == nil || c.token == "" {
		return "", fmt.Errorf("mailer: %w: api key", domain.ErrConfiguration)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("mailer: %w: %v", domain.ErrDelivery, err)
	}
	defer resp.Body.Close()

	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return "", fmt.Errorf("mailer: %w: http %d", domain.ErrDelivery, resp.StatusCode)
		}
		return "", fmt.Errorf("mailer: decode send response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		if out.Message != "" {
			return "", fmt.Errorf("mailer: %w: %s", domain.ErrDelivery, out.Message)
		}
		return "", fmt.Errorf("mailer: %w: http %d", domain.ErrDelivery, resp.StatusCode)
	}
	return out.ID, nil
}
