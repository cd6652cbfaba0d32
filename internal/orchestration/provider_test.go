package orchestration

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/imamik/instancectl/internal/config"
	"github.com/imamik/instancectl/internal/provisioning"
)

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func (s *memoryStore) PutReport(_ context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.objects == nil {
		s.objects = map[string][]byte{}
	}
	s.objects[name] = data
	return nil
}

func (s *memoryStore) only(t *testing.T) (string, OperationReport) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.Len(t, s.objects, 1)
	for name, data := range s.objects {
		var r OperationReport
		require.NoError(t, yaml.Unmarshal(data, &r))
		return name, r
	}
	return "", OperationReport{}
}

func testTemplate() *config.Template {
	return &config.Template{Name: "web", Prefix: "web", Image: "img", Flavor: "small", Network: "net", KeyName: "key"}
}

func newTestProvider(cloud *provisioning.FakeCloud, opts ...Option) (*Provider, *provisioning.RecordingObserver) {
	obs := provisioning.NewRecordingObserver()
	base := []Option{
		WithFloatingIPs(cloud),
		WithObserver(obs),
		WithTimeouts(config.TestTimeouts()),
		WithBackendName("fake"),
		WithOperationIDFunc(func() string { return "op-1" }),
	}
	p := NewProvider(cloud, append(base, opts...)...)
	p.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return p, obs
}

func TestProvider_Lifecycle(t *testing.T) {
	t.Parallel()

	cloud := provisioning.NewFakeCloud()
	p, obs := newTestProvider(cloud)
	ctx := context.Background()
	tmpl := testTemplate()
	tmpl.FloatingIPPool = "public"
	ids := provisioning.VirtualIDs("a", "b")

	require.NoError(t, p.Allocate(ctx, tmpl, ids, 2))

	states, err := p.GetInstanceState(ctx, provisioning.VirtualIDs("a", "b", "c"))
	require.NoError(t, err)
	assert.Equal(t, map[provisioning.VirtualID]provisioning.InstanceState{
		"a": provisioning.StateRunning,
		"b": provisioning.StateRunning,
		"c": provisioning.StateDeleted,
	}, states)

	records, err := p.Find(ctx, tmpl, ids)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "web-a", records[0].Server.Name)
	assert.Len(t, records[0].Server.Addresses, 2)

	report, err := p.Delete(ctx, ids)
	require.NoError(t, err)
	assert.ElementsMatch(t, ids, report.Deleted)
	assert.Len(t, report.Released, 2)

	records, err = p.Find(ctx, tmpl, ids)
	require.NoError(t, err)
	assert.Empty(t, records)

	for _, e := range obs.Events() {
		assert.Equal(t, "op-1", e.Fields["operation_id"])
		assert.Equal(t, "fake", e.Fields["backend"])
	}
}

func TestProvider_UsesStatusTable(t *testing.T) {
	t.Parallel()

	compute := &provisioning.MockCompute{
		ListInstancesByNameTagFunc: func(context.Context, string) ([]*provisioning.Server, error) {
			return []*provisioning.Server{{ID: "1"}}, nil
		},
		GetInstanceFunc: func(_ context.Context, id provisioning.ProviderID) (*provisioning.Server, error) {
			return &provisioning.Server{ID: id, Status: "running"}, nil
		},
	}
	p := NewProvider(compute, WithTimeouts(config.TestTimeouts()), WithStatusTable(provisioning.HCloudStatuses))

	states, err := p.GetInstanceState(context.Background(), provisioning.VirtualIDs("a"))
	require.NoError(t, err)
	assert.Equal(t, provisioning.StateRunning, states["a"])
}

func TestProvider_ShortfallUploadsReport(t *testing.T) {
	t.Parallel()

	cloud := provisioning.NewFakeCloud()
	cloud.SetBehavior("b", provisioning.FakeBehavior{NeverReady: true})
	store := &memoryStore{}
	p, _ := newTestProvider(cloud, WithReportStore(store))

	err := p.Allocate(context.Background(), testTemplate(), provisioning.VirtualIDs("a", "b"), 2)
	require.ErrorIs(t, err, provisioning.ErrProvisioningShortfall)

	name, r := store.only(t)
	assert.Equal(t, "allocate/20260301T120000Z-op-1.yaml", name)
	assert.Equal(t, "allocate", r.Operation)
	assert.Equal(t, "fake", r.Backend)
	require.NotNil(t, r.Shortfall)
	assert.Equal(t, 2, r.Shortfall.Requested)
	assert.Equal(t, 1, r.Shortfall.Ready)
	assert.Equal(t, "web", r.Template.Prefix)
}

func TestProvider_SuccessfulAllocateUploadsNothing(t *testing.T) {
	t.Parallel()

	store := &memoryStore{}
	p, _ := newTestProvider(provisioning.NewFakeCloud(), WithReportStore(store))
	require.NoError(t, p.Allocate(context.Background(), testTemplate(), provisioning.VirtualIDs("a"), 1))
	assert.Empty(t, store.objects)
}

func TestProvider_DeleteFailuresUploadReport(t *testing.T) {
	t.Parallel()

	cloud := provisioning.NewFakeCloud()
	cloud.SetBehavior("a", provisioning.FakeBehavior{DeleteErr: errors.New("locked")})
	cloud.Seed("a", "10.0.0.1", "")
	store := &memoryStore{}
	p, _ := newTestProvider(cloud, WithReportStore(store))

	report, err := p.Delete(context.Background(), provisioning.VirtualIDs("a"))
	require.NoError(t, err)
	require.True(t, report.HasFailures())

	_, r := store.only(t)
	require.NotNil(t, r.Delete)
	require.Len(t, r.Delete.Failures, 1)
	assert.True(t, strings.Contains(r.Delete.Failures[0].Error, "locked"))
}

func TestProvider_FindUploadsInventory(t *testing.T) {
	t.Parallel()

	cloud := provisioning.NewFakeCloud()
	cloud.Seed("a", "10.0.0.1", "")
	store := &memoryStore{}
	p, _ := newTestProvider(cloud, WithReportStore(store))

	_, err := p.Find(context.Background(), nil, provisioning.VirtualIDs("a"))
	require.NoError(t, err)

	_, r := store.only(t)
	require.Len(t, r.Records, 1)
	assert.Equal(t, provisioning.VirtualID("a"), r.Records[0].VirtualID)
}

func TestProvider_UploadFailureDoesNotFailOperation(t *testing.T) {
	t.Parallel()

	cloud := provisioning.NewFakeCloud()
	store := &memoryStore{err: errors.New("access denied")}
	p, obs := newTestProvider(cloud, WithReportStore(store))

	_, err := p.Find(context.Background(), nil, provisioning.VirtualIDs("a"))
	require.NoError(t, err)

	failed := obs.EventsOfType(provisioning.EventResourceFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, "failed to upload report", failed[0].Message)
}

func TestProvider_PreconditionErrorPassesThrough(t *testing.T) {
	t.Parallel()

	cloud := provisioning.NewFakeCloud()
	p, _ := newTestProvider(cloud)
	err := p.Allocate(context.Background(), testTemplate(), provisioning.VirtualIDs("a"), 2)
	require.ErrorIs(t, err, provisioning.ErrPrecondition)
	assert.Zero(t, cloud.CreateCalls())
}

func TestNewProvider_Defaults(t *testing.T) {
	p := NewProvider(&provisioning.MockCompute{})
	assert.NotNil(t, p.timeouts)
	assert.NotNil(t, p.observer)
	assert.Equal(t, provisioning.NovaStatuses, p.statuses)
	assert.Len(t, p.newID(), 36, "operation ids are uuids")
}
