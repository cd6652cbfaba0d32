package openstack

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack"

	"github.com/imamik/instancectl/internal/config"
	"github.com/imamik/instancectl/internal/provisioning"
)

// Client implements the instance operations using the Nova compute API and
// the floating IP operations using the Neutron layer-3 API.
type Client struct {
	compute  *gophercloud.ServiceClient
	network  *gophercloud.ServiceClient
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

// NewClientWithServices creates a Client over already authenticated service
// clients. network may be nil, in which case template networks must be
// given as UUIDs and floating IPs are unavailable.
func NewClientWithServices(compute, network *gophercloud.ServiceClient, opts ...ClientOption) *Client {
	c := &Client{
		compute:  compute,
		network:  network,
		timeouts: config.LoadTimeouts(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClient authenticates against Keystone with the OS_* environment
// variables and creates the compute and network service clients.
func NewClient(ctx context.Context, settings *config.OpenStackSettings, opts ...ClientOption) (*Client, error) {
	authOpts, err := openstack.AuthOptionsFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to read OpenStack credentials: %w", err)
	}
	authOpts.AllowReauth = true

	provider, err := openstack.NewClient(settings.AuthURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenStack client: %w", err)
	}

	httpClient, err := newHTTPClient(settings.CACertFile, settings.Insecure)
	if err != nil {
		return nil, err
	}
	provider.HTTPClient = httpClient

	if err := openstack.Authenticate(ctx, provider, authOpts); err != nil {
		return nil, fmt.Errorf("failed to authenticate with OpenStack: %w", err)
	}

	endpoint := gophercloud.EndpointOpts{Region: settings.Region}
	compute, err := openstack.NewComputeV2(provider, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create compute client: %w", err)
	}
	// Without Neutron, template networks must be UUIDs.
	network, err := openstack.NewNetworkV2(provider, endpoint)
	if err != nil {
		network = nil
	}
	return NewClientWithServices(compute, network, opts...), nil
}

// newHTTPClient builds the transport for a custom CA bundle or insecure TLS.
func newHTTPClient(caCertFile string, insecure bool) (http.Client, error) {
	if caCertFile == "" && !insecure {
		return http.Client{}, nil
	}

	tlsConfig := &tls.Config{
		InsecureSkipVerify: insecure, //nolint:gosec // opt-in via OS_INSECURE
	}
	if caCertFile != "" {
		pem, err := os.ReadFile(caCertFile)
		if err != nil {
			return http.Client{}, fmt.Errorf("failed to read CA certificate %s: %w", caCertFile, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return http.Client{}, fmt.Errorf("no certificates found in %s", caCertFile)
		}
		tlsConfig.RootCAs = pool
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig
	return http.Client{Transport: transport}, nil
}
