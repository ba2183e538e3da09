// Package fakeclient provides an in-memory download client for the test
// environment.
package fakeclient

import (
	"context"
	"sync"

	"github.com/shelfarr/shelfarr/internal/models"
)

// Client records submissions instead of performing them. Tests set
// SubmitID/SubmitErr before driving the submission stage and inspect
// Submitted afterwards.
type Client struct {
	mu        sync.Mutex
	name      string
	transport models.Transport

	SubmitID  string
	SubmitErr error
	StatusErr error

	Submitted []string
	Removed   []string
}

// New returns a fake client with the given name and transport capability.
func New(name string, transport models.Transport) *Client {
	return &Client{name: name, transport: transport}
}

func (c *Client) Name() string                { return c.name }
func (c *Client) Transport() models.Transport { return c.transport }

func (c *Client) Submit(ctx context.Context, ref string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SubmitErr != nil {
		return "", c.SubmitErr
	}
	c.Submitted = append(c.Submitted, ref)
	return c.SubmitID, nil
}

func (c *Client) Remove(ctx context.Context, externalID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Removed = append(c.Removed, externalID)
	return nil
}

func (c *Client) Status(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.StatusErr
}
