// Package dlclient defines the download client capability contract and the
// priority-ordered selector over configured clients.
package dlclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/shelfarr/shelfarr/internal/models"
)

// Failure modes shared by all client adapters.
var (
	ErrAuthentication    = errors.New("download client rejected credentials")
	ErrConnection        = errors.New("could not reach download client")
	ErrNoClientAvailable = errors.New("no enabled download client for transport")
)

// Client is the capability contract a download client backend implements.
// One implementation exists per vendor; the selector picks among them at
// runtime.
type Client interface {
	Name() string
	Transport() models.Transport

	// Submit hands a fetchable reference (magnet URI, torrent link, NZB
	// link) to the client and returns the client's acknowledgement id,
	// which may be empty for backends that do not echo one.
	Submit(ctx context.Context, ref string) (string, error)

	// Remove deletes a previously submitted job by its external id.
	Remove(ctx context.Context, externalID string) error

	// Status verifies the client is reachable and accepting commands.
	Status(ctx context.Context) error
}

// Entry pairs a constructed client with its selection metadata.
type Entry struct {
	Client   Client
	Priority int // Lower number = higher priority
	Enabled  bool
}

// Selector chooses one configured, enabled client capable of a transport.
type Selector struct {
	entries []Entry
}

// NewSelector builds a selector from pre-constructed entries. Production
// wiring uses FromConfig; tests construct entries with fake clients.
func NewSelector(entries ...Entry) *Selector {
	return &Selector{entries: entries}
}

// Select returns the highest-priority enabled client advertising the
// transport, or ErrNoClientAvailable. The condition is a configuration
// gap: it is reported, never retried.
func (s *Selector) Select(transport models.Transport) (Client, error) {
	var best Client
	bestPriority := 0
	for _, e := range s.entries {
		if !e.Enabled || e.Client.Transport() != transport {
			continue
		}
		if best == nil || e.Priority < bestPriority {
			best = e.Client
			bestPriority = e.Priority
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w %q", ErrNoClientAvailable, transport)
	}
	return best, nil
}

// All returns every configured client, enabled or not.
func (s *Selector) All() []Client {
	clients := make([]Client, 0, len(s.entries))
	for _, e := range s.entries {
		clients = append(clients, e.Client)
	}
	return clients
}

// Enabled returns every enabled client, for status polling.
func (s *Selector) Enabled() []Client {
	var clients []Client
	for _, e := range s.entries {
		if e.Enabled {
			clients = append(clients, e.Client)
		}
	}
	return clients
}
