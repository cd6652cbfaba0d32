package provisioning

import (
	"context"
)

// TeardownResult describes the teardown of one instance.
type TeardownResult struct {
	VirtualID     VirtualID
	ProviderID    ProviderID
	FloatingIP    string // released floating address, if any
	FloatingIPErr error  // floating IP cleanup failure; does not prevent deletion
	Deleted       bool
	DeleteErr     error
}

// Errors returns the failures of the teardown, floating IP first.
func (r TeardownResult) Errors() []error {
	var errs []error
	if r.FloatingIPErr != nil {
		errs = append(errs, r.FloatingIPErr)
	}
	if r.DeleteErr != nil {
		errs = append(errs, r.DeleteErr)
	}
	return errs
}

// TeardownInstance releases the instance's floating IP and then deletes the
// instance. A floating IP failure is recorded but deletion still runs. Each
// teardown is bounded by ctx.Timeouts.Delete.
func TeardownInstance(ctx *Context, id VirtualID, pid ProviderID) TeardownResult {
	result := TeardownResult{VirtualID: id, ProviderID: pid}

	var c context.Context = ctx
	if ctx.Timeouts != nil && ctx.Timeouts.Delete > 0 {
		var cancel context.CancelFunc
		c, cancel = context.WithTimeout(ctx, ctx.Timeouts.Delete)
		defer cancel()
	}

	address, err := NewFloatingIPManager(ctx).DetachAndRelease(c, pid)
	result.FloatingIP = address
	if err != nil {
		result.FloatingIPErr = &InstanceError{VirtualID: id, Op: "release floating IP", Err: err}
		result.FloatingIP = ""
	}

	ok, err := ctx.Compute.DeleteInstance(c, pid)
	switch {
	case err != nil:
		result.DeleteErr = &InstanceError{VirtualID: id, Op: "delete", Err: err}
	case !ok:
		result.DeleteErr = &InstanceError{VirtualID: id, Op: "delete", Err: ErrDeleteDeclined}
	default:
		result.Deleted = true
	}
	return result
}
