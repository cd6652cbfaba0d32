package handlers

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/imamik/instancectl/internal/provisioning"
	"github.com/imamik/instancectl/internal/provisioning/destroy"
)

// Output formats.
const (
	OutputTable = "table"
	OutputYAML  = "yaml"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f9fafb"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444"))
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#3b82f6"))
)

func validateOutput(format string) error {
	switch format {
	case "", OutputTable, OutputYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (want %s or %s)", format, OutputTable, OutputYAML)
	}
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return enc.Close()
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...)
}

func stateStyle(state provisioning.InstanceState) lipgloss.Style {
	switch state {
	case provisioning.StateRunning:
		return okStyle
	case provisioning.StateFailed, provisioning.StateUnknown:
		return errStyle
	case provisioning.StateDeleted:
		return dimStyle
	default:
		return infoStyle
	}
}

func renderRecords(w io.Writer, records []provisioning.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No instances found."))
		return
	}
	t := newTable("VIRTUAL ID", "PROVIDER ID", "NAME", "STATUS", "PRIVATE", "FLOATING")
	for _, r := range records {
		t.Row(
			string(r.VirtualID),
			string(r.Server.ID),
			r.Server.Name,
			r.Server.Status,
			orDash(r.Server.PrivateAddress()),
			orDash(r.Server.FloatingAddress()),
		)
	}
	fmt.Fprintln(w, t.Render())
}

// stateRow is one line of status output.
type stateRow struct {
	VirtualID provisioning.VirtualID     `yaml:"virtual_id"`
	State     provisioning.InstanceState `yaml:"state"`
}

// sortedStates orders states by virtual id.
func sortedStates(states map[provisioning.VirtualID]provisioning.InstanceState) []stateRow {
	rows := make([]stateRow, 0, len(states))
	for id, state := range states {
		rows = append(rows, stateRow{VirtualID: id, State: state})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].VirtualID < rows[j].VirtualID })
	return rows
}

func renderStates(w io.Writer, rows []stateRow) {
	t := newTable("VIRTUAL ID", "STATE")
	for _, r := range rows {
		t.Row(string(r.VirtualID), stateStyle(r.State).Render(string(r.State)))
	}
	fmt.Fprintln(w, t.Render())
}

func renderDeleteReport(w io.Writer, report *destroy.Report) {
	fmt.Fprintf(w, "%s %d deleted, %d not found, %d floating IPs released\n",
		okStyle.Render("✓"), len(report.Deleted), len(report.Skipped), len(report.Released))
	if len(report.Skipped) > 0 {
		fmt.Fprintln(w, dimStyle.Render("  not found: "+joinIDs(report.Skipped)))
	}
	if !report.HasFailures() {
		return
	}
	t := newTable("VIRTUAL ID", "PROVIDER ID", "ERROR")
	for _, f := range report.Failures {
		t.Row(string(f.VirtualID), string(f.ProviderID), errStyle.Render(f.Error))
	}
	fmt.Fprintln(w, t.Render())
}

func renderShortfall(w io.Writer, e *provisioning.ShortfallError) {
	fmt.Fprintf(w, "%s %d of %d instances ready, %d required; batch rolled back\n",
		errStyle.Render("✗"), e.Ready, e.Requested, e.Minimum)
	for _, err := range e.CreateFailures {
		fmt.Fprintln(w, dimStyle.Render("  create: "+err.Error()))
	}
	for _, err := range e.RollbackFailures {
		fmt.Fprintln(w, errStyle.Render("  rollback: "+err.Error()))
	}
}

func joinIDs(ids []provisioning.VirtualID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
