package provisioning

import (
	"context"

	"github.com/imamik/instancectl/internal/util/async"
)

// IdentityMapping is an immutable two-way mapping between virtual and
// provider ids, built for a single operation.
type IdentityMapping struct {
	order      []VirtualID
	toProvider map[VirtualID]ProviderID
	toVirtual  map[ProviderID]VirtualID
}

// ProviderID returns the provider id for a virtual id.
func (m *IdentityMapping) ProviderID(id VirtualID) (ProviderID, bool) {
	pid, ok := m.toProvider[id]
	return pid, ok
}

// VirtualID returns the virtual id for a provider id.
func (m *IdentityMapping) VirtualID(id ProviderID) (VirtualID, bool) {
	vid, ok := m.toVirtual[id]
	return vid, ok
}

// VirtualIDs returns the resolved virtual ids in request order.
func (m *IdentityMapping) VirtualIDs() []VirtualID {
	return append([]VirtualID(nil), m.order...)
}

// Len returns the number of resolved ids.
func (m *IdentityMapping) Len() int {
	return len(m.order)
}

// Resolve looks up every virtual id by its name tag, one provider query per
// id. Ids without a match are omitted. When several instances match, the
// first one with an assigned id wins. Any lookup error aborts the whole
// resolution with a *ResolutionError.
func Resolve(ctx *Context, ids []VirtualID) (*IdentityMapping, error) {
	ids = uniqueIDs(ids)
	found := make([]*Server, len(ids))

	indexes := make([]int, len(ids))
	for i := range indexes {
		indexes[i] = i
	}

	errs := async.ForEach(ctx, indexes, ctx.workers(), func(c context.Context, i int) error {
		servers, err := ctx.Compute.ListInstancesByNameTag(c, string(ids[i]))
		if err != nil {
			return &ResolutionError{VirtualID: ids[i], Err: err}
		}
		for _, s := range servers {
			if s != nil && s.ID != "" {
				found[i] = s
				break
			}
		}
		return nil
	})
	if len(errs) > 0 {
		return nil, errs[0]
	}

	m := &IdentityMapping{
		toProvider: make(map[VirtualID]ProviderID),
		toVirtual:  make(map[ProviderID]VirtualID),
	}
	for i, s := range found {
		if s == nil {
			continue
		}
		m.order = append(m.order, ids[i])
		m.toProvider[ids[i]] = s.ID
		m.toVirtual[s.ID] = ids[i]
	}
	return m, nil
}
