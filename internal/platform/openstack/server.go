package openstack

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/google/uuid"
	"github.com/gophercloud/gophercloud/v2/openstack/compute/v2/keypairs"
	"github.com/gophercloud/gophercloud/v2/openstack/compute/v2/servers"
	"github.com/gophercloud/gophercloud/v2/openstack/networking/v2/networks"

	"github.com/imamik/instancectl/internal/provisioning"
	"github.com/imamik/instancectl/internal/util/labels"
	"github.com/imamik/instancectl/internal/util/naming"
	"github.com/imamik/instancectl/internal/util/retry"
)

// CreateInstance boots a server for req. Nova assigns the id synchronously;
// the server builds asynchronously.
func (c *Client) CreateInstance(ctx context.Context, req provisioning.CreateRequest) (provisioning.ProviderID, error) {
	nets, err := c.resolveNetworks(ctx, req.Networks)
	if err != nil {
		return "", err
	}

	opts := keypairs.CreateOptsExt{
		CreateOptsBuilder: servers.CreateOpts{
			Name:             req.Name,
			ImageRef:         req.Image,
			FlavorRef:        req.Flavor,
			AvailabilityZone: req.AvailabilityZone,
			SecurityGroups:   req.SecurityGroups,
			Networks:         nets,
			Metadata:         req.Tags,
		},
		KeyName: req.KeyName,
	}

	var server *servers.Server
	err = retry.WithExponentialBackoff(ctx, func() error {
		s, err := servers.Create(ctx, c.compute, opts, nil).Extract()
		if err != nil {
			if isRetryable(err) {
				return err
			}
			return retry.Fatal(err)
		}
		server = s
		return nil
	}, retry.WithMaxRetries(c.timeouts.RetryMaxAttempts), retry.WithInitialDelay(c.timeouts.RetryInitialDelay))
	if err != nil {
		return "", fmt.Errorf("failed to create server %s: %w", req.Name, err)
	}
	return provisioning.ProviderID(server.ID), nil
}

// resolveNetworks maps network names to UUIDs. UUIDs are used as given.
func (c *Client) resolveNetworks(ctx context.Context, names []string) ([]servers.Network, error) {
	out := make([]servers.Network, 0, len(names))
	for _, name := range names {
		id, err := c.resolveNetwork(ctx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, servers.Network{UUID: id})
	}
	return out, nil
}

func (c *Client) resolveNetwork(ctx context.Context, name string) (string, error) {
	if _, err := uuid.Parse(name); err == nil {
		return name, nil
	}
	if c.network == nil {
		return "", fmt.Errorf("network %q must be a UUID: no network service available", name)
	}

	pages, err := networks.List(c.network, networks.ListOpts{Name: name}).AllPages(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list networks: %w", err)
	}
	found, err := networks.ExtractNetworks(pages)
	if err != nil {
		return "", fmt.Errorf("failed to list networks: %w", err)
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("network not found: %s", name)
	case 1:
		return found[0].ID, nil
	default:
		return "", fmt.Errorf("network name %s is ambiguous: %d matches", name, len(found))
	}
}

// GetInstance returns the server with the given id.
func (c *Client) GetInstance(ctx context.Context, id provisioning.ProviderID) (*provisioning.Server, error) {
	server, err := servers.Get(ctx, c.compute, string(id)).Extract()
	if err != nil {
		if isNotFound(err) {
			return nil, serverNotFound(id)
		}
		return nil, fmt.Errorf("failed to get server %s: %w", id, err)
	}
	return convertServer(server), nil
}

// DeleteInstance deletes the server. A server that no longer exists counts as
// deleted. Conflicts (a task in progress) are retried until the delete
// timeout expires.
func (c *Client) DeleteInstance(ctx context.Context, id provisioning.ProviderID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Delete)
	defer cancel()

	err := retry.WithExponentialBackoff(ctx, func() error {
		err := servers.Delete(ctx, c.compute, string(id)).ExtractErr()
		switch {
		case err == nil, isNotFound(err):
			return nil
		case isRetryable(err):
			return err
		default:
			return retry.Fatal(err)
		}
	}, retry.WithMaxRetries(c.timeouts.RetryMaxAttempts), retry.WithInitialDelay(c.timeouts.RetryInitialDelay))
	if err != nil {
		return false, fmt.Errorf("failed to delete server %s: %w", id, err)
	}
	return true, nil
}

// ListInstancesByNameTag lists servers whose name ends in -<name> and keeps
// those whose virtual-id metadata matches. Servers without that metadata
// are matched by the name suffix alone.
func (c *Client) ListInstancesByNameTag(ctx context.Context, name string) ([]*provisioning.Server, error) {
	pages, err := servers.List(c.compute, servers.ListOpts{
		Name: regexp.QuoteMeta("-"+name) + "$",
	}).AllPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	found, err := servers.ExtractServers(pages)
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}

	var out []*provisioning.Server
	for i := range found {
		s := &found[i]
		if vid, ok := s.Metadata[labels.KeyVirtualID]; ok {
			if vid != name {
				continue
			}
		} else if !naming.HasVirtualIDSuffix(s.Name, name) {
			continue
		}
		out = append(out, convertServer(s))
	}
	return out, nil
}

func convertServer(s *servers.Server) *provisioning.Server {
	return &provisioning.Server{
		ID:        provisioning.ProviderID(s.ID),
		Name:      s.Name,
		Status:    s.Status,
		Addresses: flattenAddresses(s.Addresses),
		Tags:      s.Metadata,
		Created:   s.Created,
	}
}

// flattenAddresses orders the addresses map by network name and lists every
// fixed address before any floating one.
func flattenAddresses(addresses map[string]any) []string {
	names := make([]string, 0, len(addresses))
	for name := range addresses {
		names = append(names, name)
	}
	sort.Strings(names)

	var fixed, floating []string
	for _, name := range names {
		entries, ok := addresses[name].([]any)
		if !ok {
			continue
		}
		for _, e := range entries {
			entry, ok := e.(map[string]any)
			if !ok {
				continue
			}
			addr, _ := entry["addr"].(string)
			if addr == "" {
				continue
			}
			if kind, _ := entry["OS-EXT-IPS:type"].(string); kind == "floating" {
				floating = append(floating, addr)
			} else {
				fixed = append(fixed, addr)
			}
		}
	}
	return append(fixed, floating...)
}
