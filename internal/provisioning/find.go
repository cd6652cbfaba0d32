package provisioning

import (
	"context"

	"github.com/imamik/instancectl/internal/config"
	"github.com/imamik/instancectl/internal/util/async"
)

// Finder looks up the provider records of virtual instances.
type Finder struct{}

// NewFinder creates a finder.
func NewFinder() *Finder {
	return &Finder{}
}

// Find returns a record for every requested id that currently resolves to
// an instance, in request order. Missing ids are omitted.
func (f *Finder) Find(ctx *Context, tmpl *config.Template, ids []VirtualID) ([]Record, error) {
	mapping, err := Resolve(ctx, ids)
	if err != nil {
		return nil, err
	}

	resolved := mapping.VirtualIDs()
	servers := make([]*Server, len(resolved))
	indexes := make([]int, len(resolved))
	for i := range indexes {
		indexes[i] = i
	}

	errs := async.ForEach(ctx, indexes, ctx.workers(), func(c context.Context, i int) error {
		pid, _ := mapping.ProviderID(resolved[i])
		server, err := ctx.Compute.GetInstance(c, pid)
		if err != nil {
			if IsNotFound(err) {
				return nil
			}
			return &ResolutionError{VirtualID: resolved[i], Err: err}
		}
		servers[i] = server
		return nil
	})
	if len(errs) > 0 {
		return nil, errs[0]
	}

	// Records pair back through the mapping; one whose id is not the
	// resolved one is stale.
	records := make([]Record, 0, len(resolved))
	for _, s := range servers {
		if s == nil {
			continue
		}
		vid, ok := mapping.VirtualID(s.ID)
		if !ok {
			continue
		}
		records = append(records, Record{VirtualID: vid, Template: tmpl, Server: s})
	}
	return records, nil
}
