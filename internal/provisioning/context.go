package provisioning

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/imamik/instancectl/internal/config"
)

// Context wraps all dependencies needed for a provisioning operation.
type Context struct {
	context.Context
	Compute     ComputeClient
	FloatingIPs FloatingIPClient // nil when the backend has no floating IPs
	Observer    Observer
	Timeouts    *config.Timeouts
	Statuses    StatusTable
}

// NewContext creates a provisioning context with a discarding observer,
// timeouts from the environment and the Nova status table. Callers replace
// fields as needed.
func NewContext(ctx context.Context, compute ComputeClient, fips FloatingIPClient) *Context {
	return &Context{
		Context:     ctx,
		Compute:     compute,
		FloatingIPs: fips,
		Observer:    NewObserver(logr.Discard()),
		Timeouts:    config.LoadTimeouts(),
		Statuses:    NovaStatuses,
	}
}

// WithContext returns a shallow copy of c bound to ctx.
func (c *Context) WithContext(ctx context.Context) *Context {
	cp := *c
	cp.Context = ctx
	return &cp
}

// WithObserver returns a shallow copy of c using observer.
func (c *Context) WithObserver(observer Observer) *Context {
	cp := *c
	cp.Observer = observer
	return &cp
}

func (c *Context) workers() int {
	if c.Timeouts == nil {
		return 0
	}
	return c.Timeouts.Workers
}
