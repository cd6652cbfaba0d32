package provisioning

import (
	"context"
	"testing"

	"github.com/imamik/instancectl/internal/config"
)

func newTestContext(t *testing.T, compute ComputeClient, fips FloatingIPClient) *Context {
	t.Helper()
	ctx := NewContext(context.Background(), compute, fips)
	ctx.Timeouts = config.TestTimeouts()
	ctx.Observer = NewRecordingObserver()
	return ctx
}

func listByTag(servers map[string][]*Server) func(context.Context, string) ([]*Server, error) {
	return func(_ context.Context, name string) ([]*Server, error) {
		return servers[name], nil
	}
}
