package handlers

import (
	"context"
	"errors"

	"github.com/imamik/instancectl/internal/config"
	"github.com/imamik/instancectl/internal/provisioning"
)

// FindOptions are the flags of the find command.
type FindOptions struct {
	TemplatePath string
	IDs          []string
}

// Find prints the instances currently backing the given virtual ids.
func Find(ctx context.Context, opts *Options, f FindOptions) error {
	if err := validateOutput(opts.Output); err != nil {
		return err
	}
	if len(f.IDs) == 0 {
		return errors.New("no virtual ids given")
	}

	var tmpl *config.Template
	if f.TemplatePath != "" {
		var err error
		if tmpl, err = config.LoadTemplate(f.TemplatePath); err != nil {
			return err
		}
	}

	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	records, err := s.provider.Find(ctx, tmpl, provisioning.VirtualIDs(f.IDs...))
	if err != nil {
		return err
	}
	if opts.Output == OutputYAML {
		return writeYAML(opts.stdout(), records)
	}
	renderRecords(opts.stdout(), records)
	return nil
}
