package openstack

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/gophercloud/gophercloud/v2/openstack/networking/v2/extensions/layer3/floatingips"
	"github.com/gophercloud/gophercloud/v2/openstack/networking/v2/ports"

	"github.com/imamik/instancectl/internal/provisioning"
)

const floatingIPDescription = "instancectl"

var errNoNetworkService = errors.New("floating IPs require the network service")

// AllocateFromPool allocates a floating IP on the external network named
// (or identified) by pool.
func (c *Client) AllocateFromPool(ctx context.Context, pool string) (*provisioning.FloatingIP, error) {
	if c.network == nil {
		return nil, errNoNetworkService
	}
	networkID, err := c.resolveNetwork(ctx, pool)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate floating IP from %s: %w", pool, err)
	}

	fip, err := floatingips.Create(ctx, c.network, floatingips.CreateOpts{
		FloatingNetworkID: networkID,
		Description:       floatingIPDescription,
	}).Extract()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate floating IP from %s: %w", pool, err)
	}
	out := toFloatingIP(fip, "")
	out.Pool = pool
	return &out, nil
}

// Associate points the address at the first port of the server.
func (c *Client) Associate(ctx context.Context, address string, id provisioning.ProviderID) error {
	fip, err := c.floatingIPByAddress(ctx, address)
	if err != nil {
		return fmt.Errorf("failed to associate floating IP %s: %w", address, err)
	}
	if fip == nil {
		return fmt.Errorf("failed to associate floating IP %s: not allocated", address)
	}

	serverPorts, err := c.serverPorts(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to associate floating IP %s: %w", address, err)
	}
	if len(serverPorts) == 0 {
		return fmt.Errorf("failed to associate floating IP %s: server %s has no port", address, id)
	}

	portID := serverPorts[0].ID
	if _, err := floatingips.Update(ctx, c.network, fip.ID, floatingips.UpdateOpts{PortID: &portID}).Extract(); err != nil {
		return fmt.Errorf("failed to associate floating IP %s: %w", address, err)
	}
	return nil
}

// Disassociate detaches the address from the server. An address that is
// gone, or not bound to one of the server's ports, has nothing to detach.
func (c *Client) Disassociate(ctx context.Context, address string, id provisioning.ProviderID) error {
	fip, err := c.floatingIPByAddress(ctx, address)
	if err != nil {
		return fmt.Errorf("failed to disassociate floating IP %s: %w", address, err)
	}
	if fip == nil || fip.PortID == "" {
		return nil
	}

	serverPorts, err := c.serverPorts(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to disassociate floating IP %s: %w", address, err)
	}
	if !slices.ContainsFunc(serverPorts, func(p ports.Port) bool { return p.ID == fip.PortID }) {
		return nil
	}

	_, err = floatingips.Update(ctx, c.network, fip.ID, floatingips.UpdateOpts{PortID: new(string)}).Extract()
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to disassociate floating IP %s: %w", address, err)
	}
	return nil
}

// ReleaseByID deletes the floating IP. A floating IP that no longer exists
// counts as released.
func (c *Client) ReleaseByID(ctx context.Context, id string) error {
	if c.network == nil {
		return errNoNetworkService
	}
	err := floatingips.Delete(ctx, c.network, id).ExtractErr()
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to release floating IP %s: %w", id, err)
	}
	return nil
}

// ListAllocated lists the floating IPs allocated to the project. The bound
// server is resolved through the port each address points at.
func (c *Client) ListAllocated(ctx context.Context) ([]provisioning.FloatingIP, error) {
	if c.network == nil {
		return nil, errNoNetworkService
	}
	fips, err := c.listFloatingIPs(ctx, floatingips.ListOpts{})
	if err != nil {
		return nil, err
	}

	devices := map[string]string{}
	if slices.ContainsFunc(fips, func(f floatingips.FloatingIP) bool { return f.PortID != "" }) {
		all, err := c.listPorts(ctx, ports.ListOpts{})
		if err != nil {
			return nil, err
		}
		for _, p := range all {
			devices[p.ID] = p.DeviceID
		}
	}

	out := make([]provisioning.FloatingIP, 0, len(fips))
	for i := range fips {
		out = append(out, toFloatingIP(&fips[i], devices[fips[i].PortID]))
	}
	return out, nil
}

func (c *Client) floatingIPByAddress(ctx context.Context, address string) (*floatingips.FloatingIP, error) {
	if c.network == nil {
		return nil, errNoNetworkService
	}
	fips, err := c.listFloatingIPs(ctx, floatingips.ListOpts{FloatingIP: address})
	if err != nil {
		return nil, err
	}
	if len(fips) == 0 {
		return nil, nil
	}
	return &fips[0], nil
}

func (c *Client) serverPorts(ctx context.Context, id provisioning.ProviderID) ([]ports.Port, error) {
	return c.listPorts(ctx, ports.ListOpts{DeviceID: string(id)})
}

func (c *Client) listFloatingIPs(ctx context.Context, opts floatingips.ListOpts) ([]floatingips.FloatingIP, error) {
	pages, err := floatingips.List(c.network, opts).AllPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list floating IPs: %w", err)
	}
	fips, err := floatingips.ExtractFloatingIPs(pages)
	if err != nil {
		return nil, fmt.Errorf("failed to list floating IPs: %w", err)
	}
	return fips, nil
}

func (c *Client) listPorts(ctx context.Context, opts ports.ListOpts) ([]ports.Port, error) {
	pages, err := ports.List(c.network, opts).AllPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list ports: %w", err)
	}
	found, err := ports.ExtractPorts(pages)
	if err != nil {
		return nil, fmt.Errorf("failed to list ports: %w", err)
	}
	return found, nil
}

func toFloatingIP(f *floatingips.FloatingIP, device string) provisioning.FloatingIP {
	return provisioning.FloatingIP{
		ID:         f.ID,
		Address:    f.FloatingIP,
		Pool:       f.FloatingNetworkID,
		InstanceID: provisioning.ProviderID(device),
	}
}
