// Package client is the HTTP client the CLI uses to talk to the daemon.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/apprun/apprun/pkg/models"
)

// Client manages communication with the apprun daemon
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the daemon at baseURL. The HTTP client carries
// no timeout: a run request stays open for as long as the run itself.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

// NewWithTimeout creates a client with a request timeout, for the short
// admin calls where hanging forever is worse than failing.
func NewWithTimeout(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Run launches an application and blocks until the run resolves
func (c *Client) Run(req *models.RunRequest) (*models.RunResponse, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run request: %w", err)
	}

	resp, err := c.httpClient.Post(c.baseURL+"/runs", "application/json", bytes.NewBuffer(data))
	if err != nil {
		return nil, fmt.Errorf("failed to send run request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("run", resp)
	}

	var result models.RunResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode run response: %w", err)
	}
	return &result, nil
}

// Cancel requests termination of a running launch by correlation id
func (c *Client) Cancel(correlationID string) (*models.CancelResponse, error) {
	resp, err := c.httpClient.Post(
		fmt.Sprintf("%s/runs/%s/cancel", c.baseURL, correlationID),
		"application/json", nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send cancel request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("cancel", resp)
	}

	var result models.CancelResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode cancel response: %w", err)
	}
	return &result, nil
}

// CreateApplication registers a new application with the daemon
func (c *Client) CreateApplication(req *models.ApplicationRequest) (*models.Application, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal application: %w", err)
	}

	resp, err := c.httpClient.Post(c.baseURL+"/applications", "application/json", bytes.NewBuffer(data))
	if err != nil {
		return nil, fmt.Errorf("failed to send application: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, statusError("create application", resp)
	}

	var app models.Application
	if err := json.NewDecoder(resp.Body).Decode(&app); err != nil {
		return nil, fmt.Errorf("failed to decode application: %w", err)
	}
	return &app, nil
}

// GetReport fetches a run report by id
func (c *Client) GetReport(id string) (*models.Report, error) {
	resp, err := c.httpClient.Get(fmt.Sprintf("%s/reports/%s", c.baseURL, id))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("get report", resp)
	}

	var report models.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &report, nil
}

func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("%s failed with status %d: %s", op, resp.StatusCode, bytes.TrimSpace(body))
}
