// Package stream owns the live server-push connection to the notification
// hub. One Handle is one SSE connection; retry policy deliberately lives with
// the caller, not here.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"weddinghub/internal/common"
)

const streamPath = "/api/v1/notifications/stream"

// Client opens push connections and fetches notification history from the
// hub. The credential callback is read at open time so a refreshed token is
// picked up on the next connection, not mid-stream.
type Client struct {
	baseURL    string
	httpClient *http.Client
	credential func() string
}

func NewClient(baseURL string, httpClient *http.Client, credential func() string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		credential: credential,
	}
}

// Open establishes the long-lived SSE connection for the given identity. The
// returned handle emits raw event payloads until the transport fails or the
// handle is closed. A non-200 response is an open failure, not a handle.
func (c *Client) Open(ctx context.Context, identity common.Identity) (common.StreamHandle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+streamPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if c.credential != nil {
		req.Header.Set("Authorization", "Bearer "+c.credential())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("stream rejected with status %s", resp.Status)
	}

	log.Printf("stream: connection open for user=%d role=%s", identity.UserID, identity.Role)

	h := newHandle(resp.Body)
	go h.run()
	return h, nil
}

var _ common.StreamOpener = (*Client)(nil)

// History performs the one-shot fetch of past notifications. It is invoked
// once per session start by the presentation layer; the result is handed to
// the store's merge.
func (c *Client) History(ctx context.Context, limit int) ([]common.Notification, error) {
	url := fmt.Sprintf("%s/api/v1/notifications?limit=%d", c.baseURL, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build history request: %w", err)
	}
	if c.credential != nil {
		req.Header.Set("Authorization", "Bearer "+c.credential())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history fetch rejected with status %s", resp.Status)
	}

	var notifications []common.Notification
	if err := json.NewDecoder(resp.Body).Decode(&notifications); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return notifications, nil
}

// MarkRead asks the hub to mark one notification read for the current
// identity. The store copy is only updated after this succeeds.
func (c *Client) MarkRead(ctx context.Context, notificationID uint64) error {
	url := fmt.Sprintf("%s/api/v1/notifications/%d/read", c.baseURL, notificationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build mark-read request: %w", err)
	}
	if c.credential != nil {
		req.Header.Set("Authorization", "Bearer "+c.credential())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to mark read: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mark-read rejected with status %s", resp.Status)
	}
	return nil
}
