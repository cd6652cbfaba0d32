package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/imamik/instancectl/internal/config"
	"github.com/imamik/instancectl/internal/provisioning"
)

// AllocateOptions are the flags of the allocate command.
type AllocateOptions struct {
	TemplatePath string
	IDs          []string
	// Count generates that many virtual ids when IDs is empty.
	Count int
	// MinCount is the number of instances that must become ready. A
	// negative value requires all of them.
	MinCount int
}

// newVirtualID generates a virtual id for --count. Replaced in tests.
var newVirtualID = func() string {
	return uuid.NewString()[:8]
}

// Allocate creates a batch of instances from a template and prints the
// resulting inventory. A shortfall is rendered and returned as an error.
func Allocate(ctx context.Context, opts *Options, a AllocateOptions) error {
	if err := validateOutput(opts.Output); err != nil {
		return err
	}
	if a.TemplatePath == "" {
		return errors.New("a template is required (--template)")
	}
	tmpl, err := config.LoadTemplate(a.TemplatePath)
	if err != nil {
		return err
	}

	ids, err := allocationIDs(a)
	if err != nil {
		return err
	}
	minCount := a.MinCount
	if minCount < 0 {
		minCount = len(ids)
	}

	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	if err := s.provider.Allocate(ctx, tmpl, ids, minCount); err != nil {
		var shortfall *provisioning.ShortfallError
		if errors.As(err, &shortfall) && opts.Output != OutputYAML {
			renderShortfall(opts.stderr(), shortfall)
		}
		return err
	}

	records, err := s.provider.Find(ctx, tmpl, ids)
	if err != nil {
		return fmt.Errorf("instances allocated but inventory failed: %w", err)
	}
	if opts.Output == OutputYAML {
		return writeYAML(opts.stdout(), records)
	}
	fmt.Fprintf(opts.stdout(), "%s %d instances allocated\n", okStyle.Render("✓"), len(records))
	renderRecords(opts.stdout(), records)
	return nil
}

func allocationIDs(a AllocateOptions) ([]provisioning.VirtualID, error) {
	switch {
	case len(a.IDs) > 0 && a.Count > 0:
		return nil, errors.New("pass virtual ids or --count, not both")
	case len(a.IDs) > 0:
		return provisioning.VirtualIDs(a.IDs...), nil
	case a.Count > 0:
		ids := make([]provisioning.VirtualID, a.Count)
		for i := range ids {
			ids[i] = provisioning.VirtualID(newVirtualID())
		}
		return ids, nil
	default:
		return nil, errors.New("no virtual ids given (pass ids or --count)")
	}
}
