// Package license talks to the license server: activation and validation
// keyed by a hardware fingerprint.
package license

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseBytes = 1 << 20

// Client calls the license server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a license client. HTTPS URLs pointing at localhost are
// downgraded to plain HTTP — local license servers run without TLS.
func NewClient(baseURL string) *Client {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme == "https" && isLocalhost(u.Hostname()) {
		u.Scheme = "http"
		baseURL = u.String()
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func isLocalhost(host string) bool {
	switch host {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

// request is the body sent to both /api/validate and /api/activate.
type request struct {
	LicenseKey string `json:"license_key"`
	HardwareID string `json:"hardware_id"`
}

// Validation is the outcome of a validate call.
type Validation struct {
	Valid          bool   `json:"valid"`
	Message        string `json:"message"`
	ExpirationDate string `json:"expiration_date,omitempty"`
	LicenseType    string `json:"license_type,omitempty"`
}

// Activation is the outcome of an activate call.
type Activation struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	AuthKey string `json:"auth_key,omitempty"`
}

// Active reports whether the activation succeeded.
func (a Activation) Active() bool { return a.Status == "active" }

// post sends a JSON POST and decodes the response into out. Non-2xx
// responses are decoded too — the server reports failures in the body.
func (c *Client) post(ctx context.Context, path string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("license: marshal %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("license: create %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("license: %s request failed: %w", path, err)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()
	if err != nil {
		return fmt.Errorf("license: read %s response: %w", path, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("license: server error: %d", resp.StatusCode)
		}
		return fmt.Errorf("license: decode %s response: %w", path, err)
	}
	return nil
}

// Validate checks the license key against the server.
func (c *Client) Validate(ctx context.Context, licenseKey, hardwareID string) (*Validation, error) {
	var v Validation
	if err := c.post(ctx, "/api/validate", request{LicenseKey: licenseKey, HardwareID: hardwareID}, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Activate binds the license key to this machine's hardware ID.
func (c *Client) Activate(ctx context.Context, licenseKey, hardwareID string) (*Activation, error) {
	var a Activation
	if err := c.post(ctx, "/api/activate", request{LicenseKey: licenseKey, HardwareID: hardwareID}, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
