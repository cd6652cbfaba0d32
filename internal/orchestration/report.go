package orchestration

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/imamik/instancectl/internal/config"
	"github.com/imamik/instancectl/internal/provisioning"
	"github.com/imamik/instancectl/internal/provisioning/destroy"
)

// ReportStore persists operation reports, e.g. in object storage.
type ReportStore interface {
	PutReport(ctx context.Context, name string, data []byte) error
}

// OperationReport records the outcome of one operation so that resources
// left behind by best-effort cleanup can be reconciled out of band.
type OperationReport struct {
	OperationID string                   `yaml:"operation_id"`
	Operation   string                   `yaml:"operation"`
	Backend     string                   `yaml:"backend,omitempty"`
	Time        time.Time                `yaml:"time"`
	Template    *config.Template         `yaml:"template,omitempty"`
	VirtualIDs  []provisioning.VirtualID `yaml:"virtual_ids"`
	Error       string                   `yaml:"error,omitempty"`
	Shortfall   *ShortfallSummary        `yaml:"shortfall,omitempty"`
	Delete      *destroy.Report          `yaml:"delete,omitempty"`
	Records     []provisioning.Record    `yaml:"records,omitempty"`
}

// ShortfallSummary is the serializable form of a ShortfallError.
type ShortfallSummary struct {
	Requested        int      `yaml:"requested"`
	Ready            int      `yaml:"ready"`
	Minimum          int      `yaml:"minimum"`
	CreateFailures   []string `yaml:"create_failures,omitempty"`
	RollbackFailures []string `yaml:"rollback_failures,omitempty"`
}

func newShortfallSummary(e *provisioning.ShortfallError) *ShortfallSummary {
	s := &ShortfallSummary{Requested: e.Requested, Ready: e.Ready, Minimum: e.Minimum}
	for _, err := range e.CreateFailures {
		s.CreateFailures = append(s.CreateFailures, err.Error())
	}
	for _, err := range e.RollbackFailures {
		s.RollbackFailures = append(s.RollbackFailures, err.Error())
	}
	return s
}

// Name returns the object name of the report.
func (r *OperationReport) Name() string {
	return fmt.Sprintf("%s/%s-%s.yaml", r.Operation, r.Time.UTC().Format("20060102T150405Z"), r.OperationID)
}

// upload stores the report. Upload failures are logged and never fail the
// operation.
func (p *Provider) upload(ctx *provisioning.Context, report *OperationReport) {
	if p.reports == nil {
		return
	}
	report.Backend = p.backend
	report.Time = p.now()

	data, err := yaml.Marshal(report)
	if err != nil {
		provisioning.LogResourceFailed(ctx.Observer, report.Operation, report.OperationID, "failed to encode report", err)
		return
	}
	if err := p.reports.PutReport(context.WithoutCancel(ctx), report.Name(), data); err != nil {
		provisioning.LogResourceFailed(ctx.Observer, report.Operation, report.OperationID, "failed to upload report", err)
		return
	}
	ctx.Observer.Printf("[%s] Uploaded report %s", report.Operation, report.Name())
}
