package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/imamik/instancectl/internal/provisioning"
)

// ErrTeardownIncomplete is returned when delete finished with failures.
var ErrTeardownIncomplete = errors.New("teardown incomplete")

// DeleteOptions are the flags of the delete command.
type DeleteOptions struct {
	IDs []string
	Yes bool
}

// Delete tears down the instances backing the given virtual ids. Without
// --yes it asks for confirmation on a terminal and refuses otherwise.
func Delete(ctx context.Context, opts *Options, d DeleteOptions) error {
	if err := validateOutput(opts.Output); err != nil {
		return err
	}
	if len(d.IDs) == 0 {
		return errors.New("no virtual ids given")
	}

	if !d.Yes {
		if !isInteractive() {
			return errors.New("refusing to delete without --yes in a non-interactive session")
		}
		ok, err := confirm(ctx,
			fmt.Sprintf("Delete %d instances?", len(d.IDs)),
			"Instances and their floating IPs are released. This cannot be undone.")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(opts.stdout(), dimStyle.Render("Aborted."))
			return nil
		}
	}

	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	report, err := s.provider.Delete(ctx, provisioning.VirtualIDs(d.IDs...))
	if err != nil {
		return err
	}

	if opts.Output == OutputYAML {
		if err := writeYAML(opts.stdout(), report); err != nil {
			return err
		}
	} else {
		renderDeleteReport(opts.stdout(), report)
	}

	if report.HasFailures() {
		return fmt.Errorf("%w: %d failures", ErrTeardownIncomplete, len(report.Failures))
	}
	return nil
}
