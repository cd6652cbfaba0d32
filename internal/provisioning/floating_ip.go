package provisioning

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// FloatingIPManager attaches floating addresses to instances and releases
// them again on teardown.
type FloatingIPManager struct {
	compute ComputeClient
	fips    FloatingIPClient
}

// NewFloatingIPManager creates a manager over the context's capabilities.
func NewFloatingIPManager(ctx *Context) *FloatingIPManager {
	return &FloatingIPManager{compute: ctx.Compute, fips: ctx.FloatingIPs}
}

// Enabled reports whether the backend supports floating IPs.
func (m *FloatingIPManager) Enabled() bool {
	return m.fips != nil
}

// Attach allocates an address from pool and associates it with the
// instance. It is a no-op returning nil, nil when pool is empty or the
// backend has no floating IPs. It is not idempotent: each call consumes an
// address. When association fails the allocated address is released again,
// even if ctx has ended.
func (m *FloatingIPManager) Attach(ctx context.Context, pool string, id ProviderID) (*FloatingIP, error) {
	pool = strings.TrimSpace(pool)
	if pool == "" || m.fips == nil {
		return nil, nil
	}

	fip, err := m.fips.AllocateFromPool(ctx, pool)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate floating IP from pool %s: %w", pool, err)
	}

	if err := m.fips.Associate(ctx, fip.Address, id); err != nil {
		err = fmt.Errorf("failed to associate floating IP %s with %s: %w", fip.Address, id, err)
		if relErr := m.fips.ReleaseByID(context.WithoutCancel(ctx), fip.ID); relErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to release floating IP %s: %w", fip.Address, relErr))
		}
		return nil, err
	}

	fip.InstanceID = id
	return fip, nil
}

// DetachAndRelease disassociates and releases the instance's floating
// address, if it has one. The second entry of the address list is taken as
// the floating address and matched exactly against the allocated addresses.
// A missing instance, or one with fewer than two addresses, is a no-op.
func (m *FloatingIPManager) DetachAndRelease(ctx context.Context, id ProviderID) (string, error) {
	server, err := m.compute.GetInstance(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get instance %s: %w", id, err)
	}

	address := server.FloatingAddress()
	if address == "" || m.fips == nil {
		return "", nil
	}

	allocated, err := m.fips.ListAllocated(ctx)
	if err != nil {
		return address, fmt.Errorf("failed to list floating IPs: %w", err)
	}

	var fipID string
	for _, fip := range allocated {
		if fip.Address == address {
			fipID = fip.ID
			break
		}
	}
	if fipID == "" {
		return address, fmt.Errorf("floating IP %s of instance %s not found among allocated addresses", address, id)
	}

	if err := m.fips.Disassociate(ctx, address, id); err != nil {
		return address, fmt.Errorf("failed to disassociate floating IP %s from %s: %w", address, id, err)
	}
	if err := m.fips.ReleaseByID(ctx, fipID); err != nil {
		return address, fmt.Errorf("failed to release floating IP %s: %w", address, err)
	}
	return address, nil
}
