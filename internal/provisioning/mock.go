package provisioning

import (
	"context"
	"fmt"
	"sync"
)

// MockCompute is a mock implementation of ComputeClient.
type MockCompute struct {
	CreateInstanceFunc         func(ctx context.Context, req CreateRequest) (ProviderID, error)
	GetInstanceFunc            func(ctx context.Context, id ProviderID) (*Server, error)
	DeleteInstanceFunc         func(ctx context.Context, id ProviderID) (bool, error)
	ListInstancesByNameTagFunc func(ctx context.Context, name string) ([]*Server, error)
}

var _ ComputeClient = (*MockCompute)(nil)

// CreateInstance mocks instance creation.
func (m *MockCompute) CreateInstance(ctx context.Context, req CreateRequest) (ProviderID, error) {
	if m.CreateInstanceFunc != nil {
		return m.CreateInstanceFunc(ctx, req)
	}
	return "mock-id", nil
}

// GetInstance mocks instance lookup.
func (m *MockCompute) GetInstance(ctx context.Context, id ProviderID) (*Server, error) {
	if m.GetInstanceFunc != nil {
		return m.GetInstanceFunc(ctx, id)
	}
	return &Server{ID: id, Status: "ACTIVE", Addresses: []string{"10.0.0.2"}}, nil
}

// DeleteInstance mocks instance deletion.
func (m *MockCompute) DeleteInstance(ctx context.Context, id ProviderID) (bool, error) {
	if m.DeleteInstanceFunc != nil {
		return m.DeleteInstanceFunc(ctx, id)
	}
	return true, nil
}

// ListInstancesByNameTag mocks the name tag listing.
func (m *MockCompute) ListInstancesByNameTag(ctx context.Context, name string) ([]*Server, error) {
	if m.ListInstancesByNameTagFunc != nil {
		return m.ListInstancesByNameTagFunc(ctx, name)
	}
	return nil, nil
}

// MockFloatingIPs is a mock implementation of FloatingIPClient.
type MockFloatingIPs struct {
	AllocateFromPoolFunc func(ctx context.Context, pool string) (*FloatingIP, error)
	AssociateFunc        func(ctx context.Context, address string, id ProviderID) error
	DisassociateFunc     func(ctx context.Context, address string, id ProviderID) error
	ReleaseByIDFunc      func(ctx context.Context, id string) error
	ListAllocatedFunc    func(ctx context.Context) ([]FloatingIP, error)
}

var _ FloatingIPClient = (*MockFloatingIPs)(nil)

// AllocateFromPool mocks floating IP allocation.
func (m *MockFloatingIPs) AllocateFromPool(ctx context.Context, pool string) (*FloatingIP, error) {
	if m.AllocateFromPoolFunc != nil {
		return m.AllocateFromPoolFunc(ctx, pool)
	}
	return &FloatingIP{ID: "mock-fip", Address: "203.0.113.10", Pool: pool}, nil
}

// Associate mocks floating IP association.
func (m *MockFloatingIPs) Associate(ctx context.Context, address string, id ProviderID) error {
	if m.AssociateFunc != nil {
		return m.AssociateFunc(ctx, address, id)
	}
	return nil
}

// Disassociate mocks floating IP disassociation.
func (m *MockFloatingIPs) Disassociate(ctx context.Context, address string, id ProviderID) error {
	if m.DisassociateFunc != nil {
		return m.DisassociateFunc(ctx, address, id)
	}
	return nil
}

// ReleaseByID mocks floating IP release.
func (m *MockFloatingIPs) ReleaseByID(ctx context.Context, id string) error {
	if m.ReleaseByIDFunc != nil {
		return m.ReleaseByIDFunc(ctx, id)
	}
	return nil
}

// ListAllocated mocks the floating IP listing.
func (m *MockFloatingIPs) ListAllocated(ctx context.Context) ([]FloatingIP, error) {
	if m.ListAllocatedFunc != nil {
		return m.ListAllocatedFunc(ctx)
	}
	return nil, nil
}

// RecordingObserver captures events for assertions in tests.
type RecordingObserver struct {
	mu     sync.Mutex
	events []Event
	lines  []string
	fields map[string]string
}

// NewRecordingObserver creates an empty recording observer.
func NewRecordingObserver() *RecordingObserver {
	return &RecordingObserver{fields: map[string]string{}}
}

// Printf records a formatted line.
func (o *RecordingObserver) Printf(format string, v ...interface{}) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lines = append(o.lines, fmt.Sprintf(format, v...))
}

// Event records an event, merged with the observer's fields.
func (o *RecordingObserver) Event(event Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.fields) > 0 {
		merged := make(map[string]string, len(o.fields)+len(event.Fields))
		for k, v := range o.fields {
			merged[k] = v
		}
		for k, v := range event.Fields {
			merged[k] = v
		}
		event.Fields = merged
	}
	o.events = append(o.events, event)
}

// Progress is ignored.
func (o *RecordingObserver) Progress(string, int, int) {}

// WithFields returns the same recorder so that child observers record into
// one event list; the fields are merged into subsequent events.
func (o *RecordingObserver) WithFields(fields map[string]string) Observer {
	o.mu.Lock()
	defer o.mu.Unlock()
	for k, v := range fields {
		o.fields[k] = v
	}
	return o
}

// Events returns the recorded events.
func (o *RecordingObserver) Events() []Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Event(nil), o.events...)
}

// EventsOfType returns the recorded events of type t.
func (o *RecordingObserver) EventsOfType(t EventType) []Event {
	var out []Event
	for _, e := range o.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
