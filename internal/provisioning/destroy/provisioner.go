package destroy

import (
	"context"
	"time"

	"github.com/imamik/instancectl/internal/provisioning"
	"github.com/imamik/instancectl/internal/util/async"
)

const phase = "delete"

// Report summarizes a delete call.
type Report struct {
	Deleted  []provisioning.VirtualID `yaml:"deleted,omitempty"`
	Skipped  []provisioning.VirtualID `yaml:"skipped,omitempty"`
	Released []string                 `yaml:"released_floating_ips,omitempty"`
	Failures []Failure                `yaml:"failures,omitempty"`
}

// Failure is a teardown error attributed to one virtual id.
type Failure struct {
	VirtualID  provisioning.VirtualID  `yaml:"virtual_id"`
	ProviderID provisioning.ProviderID `yaml:"provider_id"`
	Error      string                  `yaml:"error"`
	Err        error                   `yaml:"-"`
}

// HasFailures reports whether any teardown step failed.
func (r *Report) HasFailures() bool {
	return len(r.Failures) > 0
}

// Provisioner handles instance teardown.
type Provisioner struct{}

// NewProvisioner creates a new destroy provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{}
}

// Delete tears down every virtual id that currently resolves to an
// instance. Only a resolution failure is returned as an error.
func (p *Provisioner) Delete(ctx *provisioning.Context, ids []provisioning.VirtualID) (*Report, error) {
	report := &Report{}
	if len(ids) == 0 {
		return report, nil
	}

	start := time.Now()
	provisioning.LogPhaseStart(ctx.Observer, phase)

	mapping, err := provisioning.Resolve(ctx, ids)
	if err != nil {
		provisioning.LogPhaseFailed(ctx.Observer, phase, err)
		return nil, err
	}

	seen := make(map[provisioning.VirtualID]bool, len(ids))
	for _, id := range ids {
		if _, ok := mapping.ProviderID(id); !ok && !seen[id] {
			report.Skipped = append(report.Skipped, id)
			provisioning.RecordTeardown("skipped")
			ctx.Observer.Event(provisioning.Event{
				Type:     provisioning.EventResourceSkipped,
				Phase:    phase,
				Resource: string(id),
				Message:  "no instance found",
			})
		}
		seen[id] = true
	}

	resolved := mapping.VirtualIDs()
	results := make([]provisioning.TeardownResult, len(resolved))
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
		if r.FloatingIP != "" {
			report.Released = append(report.Released, r.FloatingIP)
		}
		for _, err := range r.Errors() {
			provisioning.LogResourceFailed(ctx.Observer, phase, string(r.VirtualID), "teardown failed", err)
			report.Failures = append(report.Failures, Failure{
				VirtualID:  r.VirtualID,
				ProviderID: r.ProviderID,
				Error:      err.Error(),
				Err:        err,
			})
		}
		if r.Deleted {
			report.Deleted = append(report.Deleted, r.VirtualID)
			provisioning.RecordTeardown("deleted")
			provisioning.LogResourceDeleted(ctx.Observer, phase, "instance", string(r.VirtualID))
		} else {
			provisioning.RecordTeardown("failed")
		}
	}

	ctx.Observer.Printf("[%s] Deleted %d, skipped %d, %d failures", phase, len(report.Deleted), len(report.Skipped), len(report.Failures))
	provisioning.LogPhaseComplete(ctx.Observer, phase, time.Since(start))
	return report, nil
}
