package handlers

import (
	"context"
	"errors"

	"github.com/imamik/instancectl/internal/provisioning"
)

// Status prints the projected state of each virtual id.
func Status(ctx context.Context, opts *Options, ids []string) error {
	if err := validateOutput(opts.Output); err != nil {
		return err
	}
	if len(ids) == 0 {
		return errors.New("no virtual ids given")
	}

	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	states, err := s.provider.GetInstanceState(ctx, provisioning.VirtualIDs(ids...))
	if err != nil {
		return err
	}
	rows := sortedStates(states)
	if opts.Output == OutputYAML {
		return writeYAML(opts.stdout(), rows)
	}
	renderStates(opts.stdout(), rows)
	return nil
}
