package provisioning

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusProjector_GetInstanceState(t *testing.T) {
	t.Parallel()

	compute := &MockCompute{
		ListInstancesByNameTagFunc: listByTag(map[string][]*Server{
			"a":      {{ID: "srv-a"}},
			"b":      {{ID: "srv-b"}},
			"gone":   {{ID: "srv-gone"}},
			"exotic": {{ID: "srv-exotic"}},
		}),
		GetInstanceFunc: func(_ context.Context, id ProviderID) (*Server, error) {
			switch id {
			case "srv-a":
				return &Server{ID: id, Status: "ACTIVE"}, nil
			case "srv-b":
				return &Server{ID: id, Status: "BUILD"}, nil
			case "srv-exotic":
				return &Server{ID: id, Status: "HIBERNATING"}, nil
			default:
				return nil, fmt.Errorf("server %s: %w", id, ErrInstanceNotFound)
			}
		},
	}
	ctx := newTestContext(t, compute, nil)

	states, err := NewStatusProjector().GetInstanceState(ctx, VirtualIDs("a", "b", "missing", "gone", "exotic"))
	require.NoError(t, err)
	assert.Equal(t, map[VirtualID]InstanceState{
		"a":       StateRunning,
		"b":       StatePending,
		"missing": StateDeleted,
		"gone":    StateDeleted,
		"exotic":  StateUnknown,
	}, states)
}

func TestStatusProjector_MissingIDsAreNotQueried(t *testing.T) {
	t.Parallel()

	compute := &MockCompute{
		GetInstanceFunc: func(context.Context, ProviderID) (*Server, error) {
			t.Error("GetInstance must not be called for unresolved ids")
			return nil, nil
		},
	}
	ctx := newTestContext(t, compute, nil)

	states, err := NewStatusProjector().GetInstanceState(ctx, VirtualIDs("y"))
	require.NoError(t, err)
	assert.Equal(t, map[VirtualID]InstanceState{"y": StateDeleted}, states)
}

func TestStatusProjector_UsesContextTable(t *testing.T) {
	t.Parallel()

	compute := &MockCompute{
		ListInstancesByNameTagFunc: listByTag(map[string][]*Server{"a": {{ID: "1"}}}),
		GetInstanceFunc: func(_ context.Context, id ProviderID) (*Server, error) {
			return &Server{ID: id, Status: "off"}, nil
		},
	}
	ctx := newTestContext(t, compute, nil)
	ctx.Statuses = HCloudStatuses

	states, err := NewStatusProjector().GetInstanceState(ctx, VirtualIDs("a"))
	require.NoError(t, err)
	assert.Equal(t, StateStopped, states["a"])
}

func TestStatusProjector_LookupError(t *testing.T) {
	t.Parallel()

	boom := errors.New("503")
	compute := &MockCompute{
		ListInstancesByNameTagFunc: listByTag(map[string][]*Server{"a": {{ID: "1"}}}),
		GetInstanceFunc: func(context.Context, ProviderID) (*Server, error) {
			return nil, boom
		},
	}
	ctx := newTestContext(t, compute, nil)

	_, err := NewStatusProjector().GetInstanceState(ctx, VirtualIDs("a"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResolution)
	assert.ErrorIs(t, err, boom)
}
