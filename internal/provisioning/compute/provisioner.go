package compute

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/imamik/instancectl/internal/config"
	"github.com/imamik/instancectl/internal/provisioning"
	"github.com/imamik/instancectl/internal/util/async"
	"github.com/imamik/instancectl/internal/util/retry"
)

const phase = "allocate"

// Provisioner allocates batches of instances.
type Provisioner struct{}

// NewProvisioner creates a new compute provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{}
}

// Allocate creates one instance per virtual id from tmpl and waits until at
// least minCount of them have a fixed address.
//
// Invalid input is rejected with a *provisioning.PreconditionError before
// any instance is created. On success, instances that did not become ready
// in time are left in place. On shortfall the whole batch is rolled back and
// a *provisioning.ShortfallError lists every rollback failure.
func (p *Provisioner) Allocate(ctx *provisioning.Context, tmpl *config.Template, ids []provisioning.VirtualID, minCount int) error {
	if err := validate(tmpl, ids, minCount); err != nil {
		provisioning.RecordAllocate("invalid", 0)
		return err
	}

	start := time.Now()
	provisioning.LogPhaseStart(ctx.Observer, phase)
	ctx.Observer.Printf("[%s] Requesting %d instances from template %q (minimum %d)", phase, len(ids), tmpl.Name, minCount)

	t := newTracker(ids)
	p.createAll(ctx, tmpl, ids, t)

	p.waitReady(ctx, tmpl, t)

	ready := t.readyCount()
	if ready >= minCount {
		if pending := t.snapshot(); len(pending) > 0 {
			for _, e := range pending {
				ctx.Observer.Printf("[%s] Instance %s did not become ready in time and is left in place", phase, e.id)
			}
		}
		provisioning.RecordAllocate("success", time.Since(start).Seconds())
		provisioning.LogPhaseComplete(ctx.Observer, phase, time.Since(start))
		return nil
	}

	shortfall := &provisioning.ShortfallError{
		Requested:      len(ids),
		Ready:          ready,
		Minimum:        minCount,
		CreateFailures: t.createFailures(),
	}
	if ctx.Err() != nil {
		shortfall.Cause = ctx.Err()
	}

	ctx.Observer.Event(provisioning.Event{
		Type:    provisioning.EventRollback,
		Phase:   phase,
		Message: fmt.Sprintf("only %d of %d instances ready, %d required: rolling back", ready, len(ids), minCount),
	})
	shortfall.RollbackFailures = p.rollback(ctx, ids)

	provisioning.RecordAllocate("shortfall", time.Since(start).Seconds())
	provisioning.LogPhaseFailed(ctx.Observer, phase, shortfall)
	return shortfall
}

// createAll submits one create request per virtual id. Failures are
// recorded in the tracker and do not stop the batch.
func (p *Provisioner) createAll(ctx *provisioning.Context, tmpl *config.Template, ids []provisioning.VirtualID, t *tracker) {
	tasks := make([]async.Task, len(ids))
	for i, id := range ids {
		req := buildRequest(tmpl, id)
		tasks[i] = async.Task{
			Name: req.Name,
			Func: func(c context.Context) error {
				provisioning.LogResourceCreating(ctx.Observer, phase, id, req.Name)
				pid, err := ctx.Compute.CreateInstance(c, req)
				provisioning.RecordInstanceCreated(err == nil)
				if err != nil {
					t.failed(&provisioning.InstanceError{VirtualID: id, Op: "create", Err: err})
					provisioning.LogResourceFailed(ctx.Observer, phase, string(id), "failed to create instance", err)
					return nil
				}
				t.created(id, req.Name, pid)
				provisioning.LogResourceCreated(ctx.Observer, phase, id, pid)
				return nil
			},
		}
	}
	_ = async.RunParallel(ctx, tasks, ctx.Timeouts.Workers)
}

// waitReady polls the pending instances every PollInterval until all are
// ready, the ReadyTimeout budget is spent or the caller's context ends.
// Running out of time is not an error; the outcome is read from the tracker.
func (p *Provisioner) waitReady(ctx *provisioning.Context, tmpl *config.Template, t *tracker) {
	waitCtx, cancel := context.WithTimeout(ctx, ctx.Timeouts.ReadyTimeout)
	defer cancel()

	fips := provisioning.NewFloatingIPManager(ctx)
	total := t.pendingCount()

	err := retry.Until(waitCtx, ctx.Timeouts.PollInterval, func(c context.Context) (bool, error) {
		pending := t.snapshot()
		if len(pending) == 0 {
			return true, nil
		}
		async.ForEach(c, pending, ctx.Timeouts.Workers, func(c context.Context, e entry) error {
			p.check(ctx, c, tmpl, fips, t, e)
			return nil
		})
		ctx.Observer.Progress(phase, total-t.pendingCount(), total)
		return t.pendingCount() == 0, nil
	})
	if errors.Is(err, retry.ErrPollTimeout) {
		ctx.Observer.Printf("[%s] Stopped waiting with %d instances pending: %v", phase, t.pendingCount(), err)
	}
}

// check inspects one pending instance. An instance without a provider id is
// looked up by its name tag first. Lookup errors are transient: the instance
// stays pending and is checked again on the next tick.
func (p *Provisioner) check(ctx *provisioning.Context, c context.Context, tmpl *config.Template, fips *provisioning.FloatingIPManager, t *tracker, e entry) {
	if e.pid == "" {
		servers, err := ctx.Compute.ListInstancesByNameTag(c, string(e.id))
		if err != nil {
			ctx.Observer.Printf("[%s] Looking up id of %s failed: %v", phase, e.id, err)
			return
		}
		for _, s := range servers {
			if s != nil && s.ID != "" {
				e.pid = s.ID
				break
			}
		}
		if e.pid == "" {
			return
		}
		t.setProviderID(e.id, e.pid)
	}

	server, err := ctx.Compute.GetInstance(c, e.pid)
	if err != nil {
		ctx.Observer.Printf("[%s] Checking %s (%s) failed: %v", phase, e.id, e.pid, err)
		return
	}
	if !server.AddressState().HasPrivate() {
		return
	}
	if !t.claimReady(e.id) {
		return
	}

	provisioning.RecordInstanceReady()
	ctx.Observer.Event(provisioning.Event{
		Type:     provisioning.EventResourceReady,
		Phase:    phase,
		Resource: string(e.id),
		Message:  "instance has a fixed address",
		Fields:   map[string]string{"provider_id": string(e.pid), "address": server.PrivateAddress()},
	})

	if !tmpl.HasFloatingIPPool() || !fips.Enabled() {
		return
	}
	// The attach outlives the poll deadline, bounded by the delete timeout.
	attachCtx, cancel := context.WithTimeout(context.WithoutCancel(c), ctx.Timeouts.Delete)
	defer cancel()
	fip, err := fips.Attach(attachCtx, tmpl.FloatingIPPool, e.pid)
	provisioning.RecordFloatingIPAttach(err == nil)
	if err != nil {
		provisioning.LogResourceFailed(ctx.Observer, phase, string(e.id), "failed to attach floating IP", err)
		return
	}
	ctx.Observer.Printf("[%s] Attached floating IP %s to %s", phase, fip.Address, e.id)
}

// rollback resolves every requested id afresh and tears it down. It runs on
// a context detached from cancellation when the caller's context is done.
func (p *Provisioner) rollback(ctx *provisioning.Context, ids []provisioning.VirtualID) []error {
	if ctx.Err() != nil {
		ctx = ctx.WithContext(context.WithoutCancel(ctx))
	}

	mapping, err := provisioning.Resolve(ctx, ids)
	if err != nil {
		return []error{fmt.Errorf("rollback: %w", err)}
	}

	var failures []error
	results := make([]provisioning.TeardownResult, mapping.Len())
	resolved := mapping.VirtualIDs()
	indexes := make([]int, len(resolved))
	for i := range indexes {
		indexes[i] = i
	}
	async.ForEach(ctx, indexes, ctx.Timeouts.Workers, func(_ context.Context, i int) error {
		pid, _ := mapping.ProviderID(resolved[i])
		provisioning.LogResourceDeleting(ctx.Observer, phase, "instance", string(resolved[i]))
		results[i] = provisioning.TeardownInstance(ctx, resolved[i], pid)
		return nil
	})

	for _, r := range results {
		provisioning.RecordRollback(r.Deleted)
		if r.Deleted {
			provisioning.LogResourceDeleted(ctx.Observer, phase, "instance", string(r.VirtualID))
		}
		for _, err := range r.Errors() {
			provisioning.LogResourceFailed(ctx.Observer, phase, string(r.VirtualID), "rollback failed", err)
			failures = append(failures, err)
		}
	}
	return failures
}
