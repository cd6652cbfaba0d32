package hcloud

import (
	"context"
	"fmt"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/instancectl/internal/provisioning"
	"github.com/imamik/instancectl/internal/util/labels"
	"github.com/imamik/instancectl/internal/util/retry"
)

// CreateInstance creates a server for req. It returns as soon as the API has
// accepted the request; the server boots asynchronously.
func (c *Client) CreateInstance(ctx context.Context, req provisioning.CreateRequest) (provisioning.ProviderID, error) {
	opts, err := c.buildServerCreateOpts(ctx, req)
	if err != nil {
		return "", err
	}

	var result hcloud.ServerCreateResult
	err = retry.WithExponentialBackoff(ctx, func() error {
		res, _, err := c.client.Server.Create(ctx, opts)
		if err != nil {
			if isInvalidParameter(err) {
				return retry.Fatal(err)
			}
			return err
		}
		result = res
		return nil
	}, retry.WithMaxRetries(c.timeouts.RetryMaxAttempts), retry.WithInitialDelay(c.timeouts.RetryInitialDelay))
	if err != nil {
		return "", fmt.Errorf("failed to create server %s: %w", req.Name, err)
	}
	if result.Server == nil {
		return "", nil
	}
	return formatID(result.Server.ID), nil
}

// buildServerCreateOpts resolves all dependencies and builds server creation options.
func (c *Client) buildServerCreateOpts(ctx context.Context, req provisioning.CreateRequest) (hcloud.ServerCreateOpts, error) {
	serverType, _, err := c.client.ServerType.Get(ctx, req.Flavor)
	if err != nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("failed to get server type: %w", err)
	}
	if serverType == nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("server type not found: %s", req.Flavor)
	}

	image, _, err := c.client.Image.GetForArchitecture(ctx, req.Image, serverType.Architecture)
	if err != nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("failed to get image: %w", err)
	}
	if image == nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("image not found: %s (%s)", req.Image, serverType.Architecture)
	}

	location, err := c.resolveLocation(ctx, req.AvailabilityZone)
	if err != nil {
		return hcloud.ServerCreateOpts{}, err
	}

	opts := hcloud.ServerCreateOpts{
		Name:       req.Name,
		ServerType: serverType,
		Image:      image,
		Location:   location,
		Labels:     req.Tags,
	}

	if req.KeyName != "" {
		key, _, err := c.client.SSHKey.Get(ctx, req.KeyName)
		if err != nil {
			return hcloud.ServerCreateOpts{}, fmt.Errorf("failed to get ssh key %s: %w", req.KeyName, err)
		}
		if key == nil {
			return hcloud.ServerCreateOpts{}, fmt.Errorf("ssh key not found: %s", req.KeyName)
		}
		opts.SSHKeys = []*hcloud.SSHKey{key}
	}

	for _, name := range req.Networks {
		network, _, err := c.client.Network.Get(ctx, name)
		if err != nil {
			return hcloud.ServerCreateOpts{}, fmt.Errorf("failed to get network %s: %w", name, err)
		}
		if network == nil {
			return hcloud.ServerCreateOpts{}, fmt.Errorf("network not found: %s", name)
		}
		opts.Networks = append(opts.Networks, network)
	}

	for _, name := range req.SecurityGroups {
		fw, _, err := c.client.Firewall.Get(ctx, name)
		if err != nil {
			return hcloud.ServerCreateOpts{}, fmt.Errorf("failed to get firewall %s: %w", name, err)
		}
		if fw == nil {
			return hcloud.ServerCreateOpts{}, fmt.Errorf("firewall not found: %s", name)
		}
		opts.Firewalls = append(opts.Firewalls, &hcloud.ServerCreateFirewall{Firewall: *fw})
	}

	return opts, nil
}

// resolveLocation resolves a location name to a location object.
func (c *Client) resolveLocation(ctx context.Context, location string) (*hcloud.Location, error) {
	if location == "" {
		return nil, nil
	}

	loc, _, err := c.client.Location.Get(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to get location %s: %w", location, err)
	}
	if loc == nil {
		return nil, fmt.Errorf("location not found: %s", location)
	}
	return loc, nil
}

// GetInstance returns the server with the given id.
func (c *Client) GetInstance(ctx context.Context, id provisioning.ProviderID) (*provisioning.Server, error) {
	n, err := parseID(id)
	if err != nil {
		return nil, err
	}

	server, _, err := c.client.Server.GetByID(ctx, n)
	if err != nil {
		if isHCloudErrorCode(err, hcloud.ErrorCodeNotFound) {
			return nil, serverNotFound(id)
		}
		return nil, fmt.Errorf("failed to get server %s: %w", id, err)
	}
	if server == nil {
		return nil, serverNotFound(id)
	}
	return c.toServer(ctx, server)
}

// DeleteInstance deletes the server. A server that no longer exists counts as
// deleted.
func (c *Client) DeleteInstance(ctx context.Context, id provisioning.ProviderID) (bool, error) {
	if _, err := parseID(id); err != nil {
		return false, err
	}

	err := (&DeleteOperation[*hcloud.Server]{
		Key:          string(id),
		ResourceType: "server",
		Get:          c.client.Server.Get,
		Delete: func(ctx context.Context, server *hcloud.Server) (*hcloud.Response, error) {
			_, resp, err := c.client.Server.DeleteWithResult(ctx, server)
			return resp, err
		},
	}).Execute(ctx, c)
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListInstancesByNameTag lists the servers labeled with the virtual id name.
func (c *Client) ListInstancesByNameTag(ctx context.Context, name string) ([]*provisioning.Server, error) {
	servers, err := c.client.Server.AllWithOpts(ctx, hcloud.ServerListOpts{
		ListOpts: hcloud.ListOpts{LabelSelector: labels.SelectorForVirtualID(name)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}

	out := make([]*provisioning.Server, 0, len(servers))
	for _, s := range servers {
		server, err := c.toServer(ctx, s)
		if err != nil {
			return nil, err
		}
		out = append(out, server)
	}
	return out, nil
}

// toServer converts s, looking up the addresses of assigned floating IPs
// that the server record only references by id.
func (c *Client) toServer(ctx context.Context, s *hcloud.Server) (*provisioning.Server, error) {
	var floating []string
	for _, ref := range s.PublicNet.FloatingIPs {
		if ref == nil {
			continue
		}
		fip := ref
		if fip.IP == nil {
			got, _, err := c.client.FloatingIP.GetByID(ctx, ref.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to get floating IP %d: %w", ref.ID, err)
			}
			if got == nil {
				continue
			}
			fip = got
		}
		if fip.IP != nil {
			floating = append(floating, fip.IP.String())
		}
	}
	return convertServer(s, floating), nil
}

// convertServer narrows s. The fixed address is the first private network
// address, or the public IPv4 address for servers without a network.
// Floating addresses follow the fixed one.
func convertServer(s *hcloud.Server, floating []string) *provisioning.Server {
	out := &provisioning.Server{
		ID:      formatID(s.ID),
		Name:    s.Name,
		Status:  string(s.Status),
		Tags:    s.Labels,
		Created: s.Created,
	}
	if fixed := fixedAddress(s); fixed != "" {
		out.Addresses = append([]string{fixed}, floating...)
	}
	return out
}

func fixedAddress(s *hcloud.Server) string {
	for _, pn := range s.PrivateNet {
		if pn.IP != nil && !pn.IP.IsUnspecified() {
			return pn.IP.String()
		}
	}
	if ip := s.PublicNet.IPv4.IP; ip != nil && !ip.IsUnspecified() {
		return ip.String()
	}
	return ""
}
