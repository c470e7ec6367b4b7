// Package daemonctl talks to a running Valier daemon through its status API
// and process id file.
package daemonctl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"valier/internal/api"
	"valier/internal/config"
)

// ErrNotRunning reports that no daemon answered on the configured address.
var ErrNotRunning = errors.New("valier daemon is not running")

// Client queries the daemon's HTTP status API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a client for the API address in cfg.
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	base, err := BaseURL(cfg.Paths.APIBind)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		token:   strings.TrimSpace(cfg.Paths.APIToken),
		http:    &http.Client{Timeout: 5 * time.Second},
	}, nil
}

// BaseURL converts a listen address into a URL reachable from this host.
// Wildcard hosts are dialled on loopback.
func BaseURL(bind string) (string, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return "", errors.New("status api is disabled (paths.api_bind is empty)")
	}
	host, port, err := net.SplitHostPort(bind)
	if err != nil {
		return "", fmt.Errorf("parse api bind %q: %w", bind, err)
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port), nil
}

// Status fetches /api/status.
func (c *Client) Status(ctx context.Context) (*api.DaemonStatus, error) {
	var out api.DaemonStatus
	if err := c.get(ctx, "/api/status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Sessions fetches the rooms currently monitored.
func (c *Client) Sessions(ctx context.Context) ([]api.Session, error) {
	var out api.SessionListResponse
	if err := c.get(ctx, "/api/sessions", &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) && opErr.Op == "dial" {
			return ErrNotRunning
		}
		return fmt.Errorf("query daemon: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("daemon returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
