// Package sabnzbd implements the download client contract against the
// SABnzbd JSON API.
package sabnzbd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shelfarr/shelfarr/internal/config"
	"github.com/shelfarr/shelfarr/internal/dlclient"
	"github.com/shelfarr/shelfarr/internal/models"
)

// Client talks to one SABnzbd instance using its api-key scheme.
type Client struct {
	name    string
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a client from its configuration record.
func New(cfg config.ClientConfig) *Client {
	return &Client{
		name:    cfg.Name,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Name() string                { return c.name }
func (c *Client) Transport() models.Transport { return models.TransportUsenet }

type apiResponse struct {
	Status bool     `json:"status"`
	Error  string   `json:"error"`
	NzoIDs []string `json:"nzo_ids"`
}

// Submit queues an NZB by URL and returns the assigned queue id (nzo_id).
func (c *Client) Submit(ctx context.Context, ref string) (string, error) {
	resp, err := c.call(ctx, url.Values{"mode": {"addurl"}, "name": {ref}})
	if err != nil {
		return "", err
	}
	if len(resp.NzoIDs) == 0 {
		return "", fmt.Errorf("sabnzbd %s acknowledged without a queue id: %w", c.name, dlclient.ErrConnection)
	}
	return resp.NzoIDs[0], nil
}

// Remove deletes a queue entry by nzo_id.
func (c *Client) Remove(ctx context.Context, externalID string) error {
	_, err := c.call(ctx, url.Values{"mode": {"queue"}, "name": {"delete"}, "value": {externalID}})
	return err
}

// Status verifies the API is reachable and the key is accepted.
func (c *Client) Status(ctx context.Context) error {
	_, err := c.call(ctx, url.Values{"mode": {"queue"}, "limit": {"1"}})
	return err
}

func (c *Client) call(ctx context.Context, params url.Values) (*apiResponse, error) {
	params.Set("output", "json")
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sabnzbd %s: %w: %v", c.name, dlclient.ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("sabnzbd %s: %w", c.name, dlclient.ErrAuthentication)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sabnzbd %s returned status %d: %w", c.name, resp.StatusCode, dlclient.ErrConnection)
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("sabnzbd %s sent invalid response: %w", c.name, dlclient.ErrConnection)
	}
	if !parsed.Status && parsed.Error != "" {
		if strings.Contains(strings.ToLower(parsed.Error), "api key") {
			return nil, fmt.Errorf("sabnzbd %s: %s: %w", c.name, parsed.Error, dlclient.ErrAuthentication)
		}
		return nil, fmt.Errorf("sabnzbd %s: %s: %w", c.name, parsed.Error, dlclient.ErrConnection)
	}
	return &parsed, nil
}
