package provisioning

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/imamik/instancectl/internal/util/labels"
)

// FakeBehavior configures how FakeCloud treats the instance of one virtual id.
type FakeBehavior struct {
	ReadyAfter     time.Duration // fixed address appears after this long
	NeverReady     bool          // fixed address never appears
	DeferID        bool          // CreateInstance returns an empty id
	CreateErr      error
	DeleteErr      error
	DeleteDeclined bool // DeleteInstance reports false without an error
}

type fakeServer struct {
	server     Server
	readyAt    time.Time
	neverReady bool
	fixed      string
	floating   []string
}

// FakeCloud is an in-memory backend implementing ComputeClient and
// FloatingIPClient. Instances boot asynchronously: the fixed address and
// the ACTIVE status appear once their FakeBehavior.ReadyAfter has elapsed.
type FakeCloud struct {
	mu           sync.Mutex
	behaviors    map[VirtualID]FakeBehavior
	servers      map[ProviderID]*fakeServer
	order        []ProviderID
	fips         map[string]*FloatingIP
	fipOrder     []string
	nextServer   int
	nextFIP      int
	createCalls  int
	associations map[ProviderID]int

	// AllocateErr, when set, fails every AllocateFromPool call.
	AllocateErr error
	// AssociateErr, when set, fails every Associate call.
	AssociateErr error
}

var (
	_ ComputeClient    = (*FakeCloud)(nil)
	_ FloatingIPClient = (*FakeCloud)(nil)
)

// NewFakeCloud creates an empty fake cloud.
func NewFakeCloud() *FakeCloud {
	return &FakeCloud{
		behaviors:    make(map[VirtualID]FakeBehavior),
		servers:      make(map[ProviderID]*fakeServer),
		fips:         make(map[string]*FloatingIP),
		associations: make(map[ProviderID]int),
	}
}

// SetBehavior configures the behavior for instances created for id.
func (f *FakeCloud) SetBehavior(id VirtualID, b FakeBehavior) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.behaviors[id] = b
}

// Seed adds a running instance for id with the given fixed address and,
// when floating is non-empty, an allocated floating IP attached to it.
func (f *FakeCloud) Seed(id VirtualID, fixed, floating string) ProviderID {
	f.mu.Lock()
	defer f.mu.Unlock()

	pid := f.addServer(CreateRequest{
		Name: "seed-" + string(id),
		Tags: labels.NewLabelBuilder().WithVirtualID(string(id)).Build(),
	}, FakeBehavior{})
	f.servers[pid].fixed = fixed
	if floating != "" {
		fip := f.addFloatingIP("seed", floating)
		fip.InstanceID = pid
		f.servers[pid].floating = append(f.servers[pid].floating, floating)
	}
	return pid
}

func (f *FakeCloud) addServer(req CreateRequest, b FakeBehavior) ProviderID {
	f.nextServer++
	pid := ProviderID(fmt.Sprintf("srv-%d", f.nextServer))
	tags := make(map[string]string, len(req.Tags))
	for k, v := range req.Tags {
		tags[k] = v
	}
	now := time.Now()
	f.servers[pid] = &fakeServer{
		server:     Server{ID: pid, Name: req.Name, Tags: tags, Created: now},
		readyAt:    now.Add(b.ReadyAfter),
		neverReady: b.NeverReady,
		fixed:      fmt.Sprintf("10.0.0.%d", f.nextServer),
	}
	f.order = append(f.order, pid)
	return pid
}

func (f *FakeCloud) addFloatingIP(pool, address string) *FloatingIP {
	f.nextFIP++
	if address == "" {
		address = fmt.Sprintf("203.0.113.%d", f.nextFIP)
	}
	fip := &FloatingIP{ID: fmt.Sprintf("fip-%d", f.nextFIP), Address: address, Pool: pool}
	f.fips[fip.ID] = fip
	f.fipOrder = append(f.fipOrder, fip.ID)
	return fip
}

func (s *fakeServer) snapshot() *Server {
	out := s.server
	out.Tags = make(map[string]string, len(s.server.Tags))
	for k, v := range s.server.Tags {
		out.Tags[k] = v
	}
	out.Status = "BUILD"
	out.Addresses = nil
	if !s.neverReady && !time.Now().Before(s.readyAt) {
		out.Status = "ACTIVE"
		out.Addresses = append([]string{s.fixed}, s.floating...)
	}
	return &out
}

// CreateInstance implements ComputeClient.
func (f *FakeCloud) CreateInstance(_ context.Context, req CreateRequest) (ProviderID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++

	b := f.behaviors[VirtualID(req.Tags[labels.KeyVirtualID])]
	if b.CreateErr != nil {
		return "", b.CreateErr
	}
	pid := f.addServer(req, b)
	if b.DeferID {
		return "", nil
	}
	return pid, nil
}

// GetInstance implements ComputeClient.
func (f *FakeCloud) GetInstance(_ context.Context, id ProviderID) (*Server, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.servers[id]
	if !ok {
		return nil, fmt.Errorf("server %s: %w", id, ErrInstanceNotFound)
	}
	return s.snapshot(), nil
}

// DeleteInstance implements ComputeClient.
func (f *FakeCloud) DeleteInstance(_ context.Context, id ProviderID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.servers[id]
	if !ok {
		return true, nil
	}
	b := f.behaviors[VirtualID(s.server.Tags[labels.KeyVirtualID])]
	if b.DeleteErr != nil {
		return false, b.DeleteErr
	}
	if b.DeleteDeclined {
		return false, nil
	}

	for _, fip := range f.fips {
		if fip.InstanceID == id {
			fip.InstanceID = ""
		}
	}
	delete(f.servers, id)
	for i, pid := range f.order {
		if pid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// ListInstancesByNameTag implements ComputeClient.
func (f *FakeCloud) ListInstancesByNameTag(_ context.Context, name string) ([]*Server, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Server
	for _, pid := range f.order {
		s := f.servers[pid]
		if s.server.Tags[labels.KeyVirtualID] == name {
			out = append(out, s.snapshot())
		}
	}
	return out, nil
}

// AllocateFromPool implements FloatingIPClient.
func (f *FakeCloud) AllocateFromPool(_ context.Context, pool string) (*FloatingIP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AllocateErr != nil {
		return nil, f.AllocateErr
	}
	fip := *f.addFloatingIP(pool, "")
	return &fip, nil
}

// Associate implements FloatingIPClient.
func (f *FakeCloud) Associate(_ context.Context, address string, id ProviderID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AssociateErr != nil {
		return f.AssociateErr
	}
	fip := f.fipByAddress(address)
	if fip == nil {
		return fmt.Errorf("floating IP %s not allocated", address)
	}
	s, ok := f.servers[id]
	if !ok {
		return fmt.Errorf("server %s: %w", id, ErrInstanceNotFound)
	}
	fip.InstanceID = id
	s.floating = append(s.floating, address)
	f.associations[id]++
	return nil
}

// Disassociate implements FloatingIPClient.
func (f *FakeCloud) Disassociate(_ context.Context, address string, id ProviderID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	fip := f.fipByAddress(address)
	if fip == nil || fip.InstanceID != id {
		return fmt.Errorf("floating IP %s is not associated with %s", address, id)
	}
	fip.InstanceID = ""
	if s, ok := f.servers[id]; ok {
		s.floating = removeString(s.floating, address)
	}
	return nil
}

// ReleaseByID implements FloatingIPClient.
func (f *FakeCloud) ReleaseByID(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	fip, ok := f.fips[id]
	if !ok {
		return fmt.Errorf("floating IP %s not found", id)
	}
	if s, ok := f.servers[fip.InstanceID]; ok {
		s.floating = removeString(s.floating, fip.Address)
	}
	delete(f.fips, id)
	f.fipOrder = removeString(f.fipOrder, id)
	return nil
}

// ListAllocated implements FloatingIPClient.
func (f *FakeCloud) ListAllocated(_ context.Context) ([]FloatingIP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FloatingIP, 0, len(f.fipOrder))
	for _, id := range f.fipOrder {
		out = append(out, *f.fips[id])
	}
	return out, nil
}

// InstanceCount returns the number of existing instances.
func (f *FakeCloud) InstanceCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.servers)
}

// FloatingIPCount returns the number of allocated floating IPs.
func (f *FakeCloud) FloatingIPCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fips)
}

// CreateCalls returns the number of CreateInstance calls.
func (f *FakeCloud) CreateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls
}

// Associations returns how often a floating IP was associated with id.
func (f *FakeCloud) Associations(id ProviderID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.associations[id]
}

func (f *FakeCloud) fipByAddress(address string) *FloatingIP {
	for _, fip := range f.fips {
		if fip.Address == address {
			return fip
		}
	}
	return nil
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
