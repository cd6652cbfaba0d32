package provisioning

import (
	"context"
	"sync"

	"github.com/imamik/instancectl/internal/util/async"
)

// StatusProjector reports backend-independent instance states.
type StatusProjector struct{}

// NewStatusProjector creates a status projector.
func NewStatusProjector() *StatusProjector {
	return &StatusProjector{}
}

// GetInstanceState returns the state of every requested virtual id. Ids that
// do not resolve, or whose instance vanished after resolution, are
// StateDeleted. Native statuses are mapped through ctx.Statuses.
func (p *StatusProjector) GetInstanceState(ctx *Context, ids []VirtualID) (map[VirtualID]InstanceState, error) {
	mapping, err := Resolve(ctx, ids)
	if err != nil {
		return nil, err
	}

	states := make(map[VirtualID]InstanceState, len(ids))
	for _, id := range ids {
		states[id] = StateDeleted
	}

	var mu sync.Mutex
	errs := async.ForEach(ctx, mapping.VirtualIDs(), ctx.workers(), func(c context.Context, id VirtualID) error {
		pid, _ := mapping.ProviderID(id)
		server, err := ctx.Compute.GetInstance(c, pid)
		if err != nil {
			if IsNotFound(err) {
				return nil
			}
			return &ResolutionError{VirtualID: id, Err: err}
		}

		state := ctx.Statuses.Project(server.Status)
		mu.Lock()
		states[id] = state
		mu.Unlock()
		return nil
	})
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return states, nil
}
