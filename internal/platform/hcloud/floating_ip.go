package hcloud

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/instancectl/internal/provisioning"
	"github.com/imamik/instancectl/internal/util/labels"
)

// AllocateFromPool creates an IPv4 floating IP homed in the location named
// by pool. A floating IP whose creation action fails is deleted again.
func (c *Client) AllocateFromPool(ctx context.Context, pool string) (*provisioning.FloatingIP, error) {
	if pool == "" {
		return nil, fmt.Errorf("floating IP pool (home location) is required")
	}
	loc, err := c.resolveLocation(ctx, pool)
	if err != nil {
		return nil, err
	}

	res, _, err := c.client.FloatingIP.Create(ctx, hcloud.FloatingIPCreateOpts{
		Type:         hcloud.FloatingIPTypeIPv4,
		HomeLocation: loc,
		Description:  hcloud.Ptr("instancectl"),
		Labels:       labels.NewLabelBuilder().WithPool(pool).Build(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create floating IP in %s: %w", pool, err)
	}
	if err := waitForActions(ctx, c.client, res.Action); err != nil {
		err = fmt.Errorf("failed to wait for floating IP creation: %w", err)
		id := strconv.FormatInt(res.FloatingIP.ID, 10)
		if relErr := c.ReleaseByID(context.WithoutCancel(ctx), id); relErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to release floating IP %s: %w", id, relErr))
		}
		return nil, err
	}

	fip := toFloatingIP(res.FloatingIP)
	return &fip, nil
}

// Associate assigns the floating IP with the given address to the server.
func (c *Client) Associate(ctx context.Context, address string, id provisioning.ProviderID) error {
	serverID, err := parseID(id)
	if err != nil {
		return err
	}
	fip, err := c.floatingIPByAddress(ctx, address)
	if err != nil {
		return err
	}

	action, _, err := c.client.FloatingIP.Assign(ctx, fip, &hcloud.Server{ID: serverID})
	if err != nil {
		return fmt.Errorf("failed to assign floating IP %s: %w", address, err)
	}
	if err := waitForActions(ctx, c.client, action); err != nil {
		return fmt.Errorf("failed to wait for floating IP assignment: %w", err)
	}
	return nil
}

// Disassociate unassigns the floating IP. It is a no-op when the address is
// no longer assigned to the server.
func (c *Client) Disassociate(ctx context.Context, address string, id provisioning.ProviderID) error {
	serverID, err := parseID(id)
	if err != nil {
		return err
	}
	fip, err := c.floatingIPByAddress(ctx, address)
	if err != nil {
		return err
	}
	if fip.Server == nil || fip.Server.ID != serverID {
		return nil
	}

	action, _, err := c.client.FloatingIP.Unassign(ctx, fip)
	if err != nil {
		return fmt.Errorf("failed to unassign floating IP %s: %w", address, err)
	}
	if err := waitForActions(ctx, c.client, action); err != nil {
		return fmt.Errorf("failed to wait for floating IP unassignment: %w", err)
	}
	return nil
}

// ReleaseByID deletes the floating IP. A floating IP that no longer exists
// counts as released.
func (c *Client) ReleaseByID(ctx context.Context, id string) error {
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return fmt.Errorf("invalid floating IP id %q", id)
	}
	return (&DeleteOperation[*hcloud.FloatingIP]{
		Key:          id,
		ResourceType: "floating IP",
		Get:          c.client.FloatingIP.Get,
		Delete:       c.client.FloatingIP.Delete,
	}).Execute(ctx, c)
}

// ListAllocated lists the floating IPs created by instancectl.
func (c *Client) ListAllocated(ctx context.Context) ([]provisioning.FloatingIP, error) {
	fips, err := c.client.FloatingIP.AllWithOpts(ctx, hcloud.FloatingIPListOpts{
		ListOpts: hcloud.ListOpts{LabelSelector: labels.SelectorManaged()},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list floating IPs: %w", err)
	}
	out := make([]provisioning.FloatingIP, 0, len(fips))
	for _, f := range fips {
		out = append(out, toFloatingIP(f))
	}
	return out, nil
}

func (c *Client) floatingIPByAddress(ctx context.Context, address string) (*hcloud.FloatingIP, error) {
	fips, err := c.client.FloatingIP.AllWithOpts(ctx, hcloud.FloatingIPListOpts{
		ListOpts: hcloud.ListOpts{LabelSelector: labels.SelectorManaged()},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list floating IPs: %w", err)
	}
	for _, f := range fips {
		if f.IP != nil && f.IP.String() == address {
			return f, nil
		}
	}
	return nil, fmt.Errorf("floating IP %s not found", address)
}

func toFloatingIP(f *hcloud.FloatingIP) provisioning.FloatingIP {
	out := provisioning.FloatingIP{
		ID:   strconv.FormatInt(f.ID, 10),
		Pool: f.Labels[labels.KeyPool],
	}
	if f.IP != nil {
		out.Address = f.IP.String()
	}
	if out.Pool == "" && f.HomeLocation != nil {
		out.Pool = f.HomeLocation.Name
	}
	if f.Server != nil {
		out.InstanceID = formatID(f.Server.ID)
	}
	return out
}
