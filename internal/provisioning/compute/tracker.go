package compute

import (
	"sync"

	"github.com/imamik/instancectl/internal/provisioning"
)

// entry is the per-instance state of one allocate call.
type entry struct {
	id   provisioning.VirtualID
	pid  provisioning.ProviderID
	name string
}

// tracker owns the pending set of one allocate call. Workers report into it
// concurrently; a ready transition can be claimed only once.
type tracker struct {
	mu       sync.Mutex
	pending  map[provisioning.VirtualID]*entry
	order    []provisioning.VirtualID
	ready    map[provisioning.VirtualID]provisioning.ProviderID
	failures []error
}

func newTracker(ids []provisioning.VirtualID) *tracker {
	return &tracker{
		pending: make(map[provisioning.VirtualID]*entry, len(ids)),
		order:   append([]provisioning.VirtualID(nil), ids...),
		ready:   make(map[provisioning.VirtualID]provisioning.ProviderID, len(ids)),
	}
}

// created adds a created instance to the pending set. pid may be empty.
func (t *tracker) created(id provisioning.VirtualID, name string, pid provisioning.ProviderID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[id] = &entry{id: id, pid: pid, name: name}
}

// failed records a creation failure. The instance never enters the pending set.
func (t *tracker) failed(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures = append(t.failures, err)
}

// setProviderID records a provider id discovered after creation.
func (t *tracker) setProviderID(id provisioning.VirtualID, pid provisioning.ProviderID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.pending[id]; ok && e.pid == "" {
		e.pid = pid
	}
}

// claimReady moves id from pending to ready. It returns false if id was not
// pending, so the caller that gets true is the only one to act on the
// transition.
func (t *tracker) claimReady(id provisioning.VirtualID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.pending[id]
	if !ok {
		return false
	}
	delete(t.pending, id)
	t.ready[id] = e.pid
	return true
}

// snapshot returns copies of the pending entries in request order.
func (t *tracker) snapshot() []entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]entry, 0, len(t.pending))
	for _, id := range t.order {
		if e, ok := t.pending[id]; ok {
			out = append(out, *e)
		}
	}
	return out
}

func (t *tracker) pendingCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

func (t *tracker) readyCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ready)
}

func (t *tracker) createFailures() []error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]error(nil), t.failures...)
}
