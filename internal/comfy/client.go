package comfy

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

// Options configures a ComfyDeploy API client.
type Options struct {
	BaseURL      string
	APIKey       string
	DeploymentID string
	HTTPClient   *http.Client
	Timeout      time.Duration
}

// Client talks to the ComfyDeploy run API: queue a deployment, then poll the
// resulting run until it settles.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	token        string
	deploymentID string
}

func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://api.comfydeploy.com/api"
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
		httpClient:   client,
		baseURL:      base,
		token:        strings.TrimSpace(opts.APIKey),
		deploymentID: strings.TrimSpace(opts.DeploymentID),
	}
}

// Inputs carries the workflow fields forwarded to the deployment. Imagen is
// the transportable encoded selfie payload (data URL or base64).
type Inputs struct {
	Nombre   string `json:"nombre,omitempty"`
	Apellido string `json:"apellido,omitempty"`
	Imagen   string `json:"imagen"`
	Escena   string `json:"escena,omitempty"`
}

type queueRequest struct {
	DeploymentID string `json:"deployment_id"`
	Inputs       Inputs `json:"inputs"`
}

type queueResponse struct {
	RunID   string `json:"run_id"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// QueueDeployment submits a new run and returns the upstream run id.
func (c *Client) QueueDeployment(ctx context.Context, inputs Inputs) (string, error) {
	if c == nil || c.token == "" {
		return "", fmt.Errorf("comfy: %w: api key", domain.ErrConfiguration)
	}
	if c.deploymentID == "" {
		return "", fmt.Errorf("comfy: %w: deployment id", domain.ErrConfiguration)
	}

	body, err := json.Marshal(queueRequest{DeploymentID: c.deploymentID, Inputs: inputs})
	if err != nil {
		return "", err
	}
	endpoint := c.baseURL + "/run/deployment/queue"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("comfy: queue: %w", err)
	}
	defer resp.Body.Close()

	var out queueResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return "", fmt.Errorf("comfy: queue http %d", resp.StatusCode)
		}
		return "", fmt.Errorf("comfy: decode queue response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		if out.Error != "" {
			return "", fmt.Errorf("comfy: queue rejected: %s", out.Error)
		}
		return "", fmt.Errorf("comfy: queue http %d", resp.StatusCode)
	}
	if strings.TrimSpace(out.RunID) == "" {
		return "", fmt.Errorf("comfy: %w: response missing run_id", domain.ErrUpstreamProtocol)
	}
	return out.RunID, nil
}

// GetRun fetches the raw state of a run. Transport errors and non-200
// answers wrap domain.ErrTransientUpstream so sweeps can keep the run
// pending and retry later.
func (c *Client) GetRun(ctx context.Context, runID string) (RunState, error) {
	var state RunState
	if c == nil || c.token == "" {
		return state, fmt.Errorf("comfy: %w: api key", domain.ErrConfiguration)
	}
	if strings.TrimSpace(runID) == "" {
		return state, fmt.Errorf("comfy: %w: run id required", domain.ErrValidation)
	}

	endpoint := c.baseURL + "/run/" + runID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return state, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return state, fmt.Errorf("comfy: get run %s: %w: %v", runID, domain.ErrTransientUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return state, fmt.Errorf("comfy: get run %s: %w: http %d", runID, domain.ErrTransientUpstream, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return state, fmt.Errorf("comfy: get run %s: decode: %w", runID, err)
	}
	return state, nil
}
