package hcloud

import (
	"fmt"
	"strconv"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/instancectl/internal/config"
	"github.com/imamik/instancectl/internal/provisioning"
)

// Client implements the instance and floating IP operations using the
// Hetzner Cloud API.
type Client struct {
	client   *hcloud.Client
	timeouts *config.Timeouts
}

var (
	_ provisioning.ComputeClient    = (*Client)(nil)
	_ provisioning.FloatingIPClient = (*Client)(nil)
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeouts sets custom timeouts for the client.
func WithTimeouts(t *config.Timeouts) ClientOption {
	return func(c *Client) {
		c.timeouts = t
	}
}

// WithHCloudClient sets a custom hcloud client (useful for testing).
func WithHCloudClient(hc *hcloud.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}

// NewClient creates a Client from the given settings.
func NewClient(settings *config.HCloudSettings, opts ...ClientOption) *Client {
	hopts := []hcloud.ClientOption{
		hcloud.WithToken(settings.Token),
		hcloud.WithApplication("instancectl", ""),
	}
	if settings.Endpoint != "" {
		hopts = append(hopts, hcloud.WithEndpoint(settings.Endpoint))
	}

	c := &Client{
		client:   hcloud.NewClient(hopts...),
		timeouts: config.LoadTimeouts(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HCloudClient returns the underlying hcloud.Client.
func (c *Client) HCloudClient() *hcloud.Client {
	return c.client
}

func parseID(id provisioning.ProviderID) (int64, error) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid server id %q", id)
	}
	return n, nil
}

func formatID(id int64) provisioning.ProviderID {
	return provisioning.ProviderID(strconv.FormatInt(id, 10))
}
