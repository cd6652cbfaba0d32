package openstack

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/instancectl/internal/config"
)

// newTestClient serves the compute API at / and the network API at /v2.0/.
func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	provider := &gophercloud.ProviderClient{TokenID: "test-token"}
	compute := &gophercloud.ServiceClient{ProviderClient: provider, Endpoint: srv.URL + "/"}
	network := &gophercloud.ServiceClient{
		ProviderClient: provider,
		Endpoint:       srv.URL + "/",
		ResourceBase:   srv.URL + "/v2.0/",
	}
	return NewClientWithServices(compute, network, WithTimeouts(&config.Timeouts{
		Delete:            5 * time.Second,
		RetryMaxAttempts:  3,
		RetryInitialDelay: time.Millisecond,
	}))
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = fmt.Fprint(w, body)
}

func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	t.Run("default transport", func(t *testing.T) {
		t.Parallel()
		hc, err := newHTTPClient("", false)
		require.NoError(t, err)
		assert.Nil(t, hc.Transport)
	})

	t.Run("insecure", func(t *testing.T) {
		t.Parallel()
		hc, err := newHTTPClient("", true)
		require.NoError(t, err)
		transport, ok := hc.Transport.(*http.Transport)
		require.True(t, ok)
		assert.True(t, transport.TLSClientConfig.InsecureSkipVerify)
	})

	t.Run("missing CA file", func(t *testing.T) {
		t.Parallel()
		_, err := newHTTPClient(filepath.Join(t.TempDir(), "missing.pem"), false)
		require.Error(t, err)
	})

	t.Run("CA file without certificates", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "empty.pem")
		require.NoError(t, os.WriteFile(path, []byte("not a certificate"), 0o600))
		_, err := newHTTPClient(path, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no certificates")
	})
}

func TestClient_StalledAPIHonoursContext(t *testing.T) {
	t.Parallel()

	stall := func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/servers/srv-1", stall)
	mux.HandleFunc("/v2.0/networks", stall)
	mux.HandleFunc("/v2.0/floatingips", stall)
	c := newTestClient(t, mux)

	calls := map[string]func(ctx context.Context) error{
		"get server": func(ctx context.Context) error {
			_, err := c.GetInstance(ctx, "srv-1")
			return err
		},
		"allocate floating IP": func(ctx context.Context) error {
			_, err := c.AllocateFromPool(ctx, "public")
			return err
		},
		"list floating IPs": func(ctx context.Context) error {
			_, err := c.ListAllocated(ctx)
			return err
		},
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			start := time.Now()
			err := call(ctx)
			require.Error(t, err)
			assert.ErrorIs(t, err, context.DeadlineExceeded)
			assert.Less(t, time.Since(start), 5*time.Second)
		})
	}
}
