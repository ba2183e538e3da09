// Package qbittorrent implements the download client contract against the
// qBittorrent WebUI API.
package qbittorrent

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shelfarr/shelfarr/internal/config"
	"github.com/shelfarr/shelfarr/internal/dlclient"
	"github.com/shelfarr/shelfarr/internal/models"
)

// Client talks to one qBittorrent instance. The WebUI session cookie is
// established lazily on first use and invalidated whenever the API reports
// it stale, so a credential change never requires a process restart.
type Client struct {
	name    string
	baseURL string
	user    string
	pass    string
	http    *http.Client

	mu  sync.Mutex
	sid string // session cookie, empty until login
}

// New creates a client from its configuration record.
func New(cfg config.ClientConfig) *Client {
	return &Client{
		name:    cfg.Name,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		user:    cfg.Username,
		pass:    cfg.Password,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Name() string                { return c.name }
func (c *Client) Transport() models.Transport { return models.TransportTorrent }

// Submit adds a torrent by URL. qBittorrent accepts magnet URIs, .torrent
// links and (as a documented limitation of the deferred-resolution path)
// arbitrary direct links. The add acknowledgement carries no id, so an
// empty handle is returned; magnet handles are extracted by the caller.
func (c *Client) Submit(ctx context.Context, ref string) (string, error) {
	form := url.Values{"urls": {ref}}
	body, err := c.post(ctx, "/api/v2/torrents/add", form)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(body) == "Fails." {
		return "", fmt.Errorf("qbittorrent %s refused reference: %w", c.name, dlclient.ErrConnection)
	}
	return "", nil
}

// Remove deletes a torrent by info-hash, keeping downloaded files.
func (c *Client) Remove(ctx context.Context, externalID string) error {
	form := url.Values{"hashes": {externalID}, "deleteFiles": {"false"}}
	_, err := c.post(ctx, "/api/v2/torrents/delete", form)
	return err
}

// Status verifies the WebUI is reachable and the session is valid.
func (c *Client) Status(ctx context.Context) error {
	_, err := c.post(ctx, "/api/v2/app/version", url.Values{})
	return err
}

// post performs an authenticated form POST, logging in on demand and
// retrying once after a session rejection.
func (c *Client) post(ctx context.Context, path string, form url.Values) (string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		sid, err := c.session(ctx)
		if err != nil {
			return "", err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(&http.Cookie{Name: "SID", Value: sid})

		resp, err := c.http.Do(req)
		if err != nil {
			return "", fmt.Errorf("qbittorrent %s: %w: %v", c.name, dlclient.ErrConnection, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusForbidden {
			// Session expired; drop it and retry with a fresh login.
			c.invalidate()
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("qbittorrent %s returned status %d: %w", c.name, resp.StatusCode, dlclient.ErrConnection)
		}
		return string(body), nil
	}
	return "", fmt.Errorf("qbittorrent %s: %w", c.name, dlclient.ErrAuthentication)
}

// session returns the current session cookie, logging in if needed.
func (c *Client) session(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sid != "" {
		return c.sid, nil
	}

	form := url.Values{"username": {c.user}, "password": {c.pass}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v2/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("qbittorrent %s: %w: %v", c.name, dlclient.ErrConnection, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) == "Fails." {
		return "", fmt.Errorf("qbittorrent %s login: %w", c.name, dlclient.ErrAuthentication)
	}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "SID" {
			c.sid = cookie.Value
			return c.sid, nil
		}
	}
	return "", fmt.Errorf("qbittorrent %s login returned no session cookie: %w", c.name, dlclient.ErrAuthentication)
}

func (c *Client) invalidate() {
	c.mu.Lock()
	c.sid = ""
	c.mu.Unlock()
}
