package provisioning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewContext(t *testing.T) {
	compute := &MockCompute{}
	fips := &MockFloatingIPs{}

	ctx := NewContext(context.Background(), compute, fips)

	assert.Same(t, compute, ctx.Compute)
	assert.Same(t, fips, ctx.FloatingIPs)
	assert.NotNil(t, ctx.Observer)
	assert.NotNil(t, ctx.Timeouts)
	assert.Equal(t, NovaStatuses, ctx.Statuses)
}

func TestContext_WithContext(t *testing.T) {
	t.Parallel()
	parent, cancel := context.WithCancel(context.Background())
	ctx := NewContext(parent, &MockCompute{}, nil)
	cancel()

	detached := ctx.WithContext(context.WithoutCancel(parent))
	assert.Error(t, ctx.Err())
	assert.NoError(t, detached.Err())
	assert.Same(t, ctx.Compute, detached.Compute)
}

func TestContext_WithObserver(t *testing.T) {
	t.Parallel()
	ctx := NewContext(context.Background(), &MockCompute{}, nil)
	obs := NewRecordingObserver()
	assert.Same(t, obs, ctx.WithObserver(obs).Observer)
	assert.NotSame(t, obs, ctx.Observer)
}
