// Package telegram implements the HTTP client for the account-API gateway
// that holds the user session. The gateway speaks a Bot-API-shaped envelope
// ({ok, result, error_code, description, parameters}) over per-session
// endpoints; MTProto itself lives on the other side of it.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxResponseBytes = 1 << 20 // 1 MiB — prevent unbounded reads from API responses.

// Client is a thin HTTP wrapper around the account-API gateway.
type Client struct {
	session string
	baseURL string
	http    *http.Client
}

// NewClient creates a gateway client bound to the given session name.
func NewClient(session, baseURL string) *Client {
	return &Client{
		session: session,
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// do sends a JSON POST request to the given gateway method and decodes the
// response envelope. Gateway-reported failures come back as *APIError; the
// caller decides whether to honor flood waits.
func do[T any](ctx context.Context, c *Client, method string, payload any) (*T, error) {
	url := fmt.Sprintf("%s/session/%s/%s", c.baseURL, c.session, method)

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("telegram: marshal %s request: %w", method, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("telegram: create %s request: %w", method, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram: %s request failed: %w", method, err)
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("telegram: read %s response: %w", method, err)
	}

	var apiResp APIResponse[T]
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("telegram: decode %s response: %w", method, err)
	}

	if !apiResp.OK {
		apiErr := &APIError{
			Code:        apiResp.ErrorCode,
			Description: apiResp.Description,
		}
		if apiResp.Parameters != nil {
			apiErr.RetryAfter = apiResp.Parameters.RetryAfter
		}
		return nil, apiErr
	}

	return &apiResp.Result, nil
}

// joinChannelRequest is the request body for the joinChannel method.
type joinChannelRequest struct {
	Username string `json:"username"`
}

// importChatInviteRequest is the request body for the importChatInvite method.
type importChatInviteRequest struct {
	Hash string `json:"hash"`
}

// getChatRequest is the request body for the getChat method.
type getChatRequest struct {
	Username string `json:"username"`
}

// GetMe returns the account behind the session. A failure here means the
// session is not usable.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	return do[User](ctx, c, "getMe", nil)
}

// JoinChannel joins a public group or channel by username.
func (c *Client) JoinChannel(ctx context.Context, username string) (*Chat, error) {
	return do[Chat](ctx, c, "joinChannel", joinChannelRequest{Username: username})
}

// ImportChatInvite joins a private group or channel via its invite hash.
func (c *Client) ImportChatInvite(ctx context.Context, hash string) (*Chat, error) {
	return do[Chat](ctx, c, "importChatInvite", importChatInviteRequest{Hash: hash})
}

// GetChat returns extended information about a public chat, including the
// member count. Private chats cannot be inspected before joining.
func (c *Client) GetChat(ctx context.Context, username string) (*ChatFull, error) {
	return do[ChatFull](ctx, c, "getChat", getChatRequest{Username: username})
}
