package orchestration

import (
	"context"
	"errors"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/imamik/instancectl/internal/config"
	"github.com/imamik/instancectl/internal/provisioning"
	"github.com/imamik/instancectl/internal/provisioning/compute"
	"github.com/imamik/instancectl/internal/provisioning/destroy"
)

// Provider exposes the instance operations over one backend.
type Provider struct {
	compute  provisioning.ComputeClient
	fips     provisioning.FloatingIPClient
	observer provisioning.Observer
	timeouts *config.Timeouts
	statuses provisioning.StatusTable
	backend  string
	reports  ReportStore
	newID    func() string
	now      func() time.Time

	computeProvisioner *compute.Provisioner
	destroyProvisioner *destroy.Provisioner
	projector          *provisioning.StatusProjector
	finder             *provisioning.Finder
}

// Option configures a Provider.
type Option func(*Provider)

// WithFloatingIPs enables floating IP handling.
func WithFloatingIPs(fips provisioning.FloatingIPClient) Option {
	return func(p *Provider) {
		p.fips = fips
	}
}

// WithObserver sets the observer.
func WithObserver(observer provisioning.Observer) Option {
	return func(p *Provider) {
		p.observer = observer
	}
}

// WithTimeouts overrides the timeouts loaded from the environment.
func WithTimeouts(t *config.Timeouts) Option {
	return func(p *Provider) {
		p.timeouts = t
	}
}

// WithStatusTable sets the backend's native status table.
func WithStatusTable(table provisioning.StatusTable) Option {
	return func(p *Provider) {
		p.statuses = table
	}
}

// WithBackendName sets the backend name reported in logs and reports.
func WithBackendName(name string) Option {
	return func(p *Provider) {
		p.backend = name
	}
}

// WithReportStore enables upload of operation reports.
func WithReportStore(store ReportStore) Option {
	return func(p *Provider) {
		p.reports = store
	}
}

// WithOperationIDFunc overrides the operation id generator.
func WithOperationIDFunc(fn func() string) Option {
	return func(p *Provider) {
		p.newID = fn
	}
}

// NewProvider creates a provider over compute.
func NewProvider(client provisioning.ComputeClient, opts ...Option) *Provider {
	p := &Provider{
		compute:  client,
		observer: provisioning.NewObserver(logr.Discard()),
		statuses: provisioning.NovaStatuses,
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.timeouts == nil {
		p.timeouts = config.LoadTimeouts()
	}

	p.computeProvisioner = compute.NewProvisioner()
	p.destroyProvisioner = destroy.NewProvisioner()
	p.projector = provisioning.NewStatusProjector()
	p.finder = provisioning.NewFinder()
	return p
}

// newContext builds the per-call provisioning context.
func (p *Provider) newContext(ctx context.Context, operation string) (*provisioning.Context, string) {
	id := p.newID()
	fields := map[string]string{
		"operation":    operation,
		"operation_id": id,
	}
	if p.backend != "" {
		fields["backend"] = p.backend
	}

	timeouts := *p.timeouts
	return &provisioning.Context{
		Context:     ctx,
		Compute:     p.compute,
		FloatingIPs: p.fips,
		Observer:    p.observer.WithFields(fields),
		Timeouts:    &timeouts,
		Statuses:    p.statuses,
	}, id
}

// Allocate creates one instance per virtual id and fails with a
// *provisioning.ShortfallError when fewer than minCount become ready.
func (p *Provider) Allocate(ctx context.Context, tmpl *config.Template, ids []provisioning.VirtualID, minCount int) error {
	pctx, opID := p.newContext(ctx, "allocate")
	err := p.computeProvisioner.Allocate(pctx, tmpl, ids, minCount)

	var shortfall *provisioning.ShortfallError
	if errors.As(err, &shortfall) {
		p.upload(pctx, &OperationReport{
			OperationID: opID,
			Operation:   "allocate",
			Template:    tmpl,
			VirtualIDs:  ids,
			Error:       err.Error(),
			Shortfall:   newShortfallSummary(shortfall),
		})
	}
	return err
}

// Delete tears down the virtual ids. Teardown failures are reported, not
// returned.
func (p *Provider) Delete(ctx context.Context, ids []provisioning.VirtualID) (*destroy.Report, error) {
	pctx, opID := p.newContext(ctx, "delete")
	report, err := p.destroyProvisioner.Delete(pctx, ids)
	if err == nil && report.HasFailures() {
		p.upload(pctx, &OperationReport{
			OperationID: opID,
			Operation:   "delete",
			VirtualIDs:  ids,
			Delete:      report,
		})
	}
	return report, err
}

// Find returns the records of the virtual ids that currently exist.
func (p *Provider) Find(ctx context.Context, tmpl *config.Template, ids []provisioning.VirtualID) ([]provisioning.Record, error) {
	pctx, opID := p.newContext(ctx, "find")
	records, err := p.finder.Find(pctx, tmpl, ids)
	if err == nil {
		p.upload(pctx, &OperationReport{
			OperationID: opID,
			Operation:   "find",
			VirtualIDs:  ids,
			Records:     records,
		})
	}
	return records, err
}

// GetInstanceState returns the state of every virtual id.
func (p *Provider) GetInstanceState(ctx context.Context, ids []provisioning.VirtualID) (map[provisioning.VirtualID]provisioning.InstanceState, error) {
	pctx, _ := p.newContext(ctx, "status")
	return p.projector.GetInstanceState(pctx, ids)
}
