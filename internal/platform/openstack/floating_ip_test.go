package openstack

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/instancectl/internal/provisioning"
)

const publicUUID = "8d2f6c1b-4a3e-4b7c-9e5d-1f0a2b3c4d5e"

type floatingIPUpdate struct {
	FloatingIP struct {
		PortID *string `json:"port_id"`
	} `json:"floatingip"`
}

func TestClient_FloatingIPLifecycle(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		updates []*string
		portID  string
	)
	fipJSON := func() string {
		mu.Lock()
		defer mu.Unlock()
		port := "null"
		if portID != "" {
			port = `"` + portID + `"`
		}
		return `{"id": "fip-1", "floating_ip_address": "203.0.113.9", "floating_network_id": "` + publicUUID + `", "port_id": ` + port + `}`
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v2.0/networks", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "public", r.URL.Query().Get("name"))
		writeJSON(w, http.StatusOK, `{"networks": [{"id": "`+publicUUID+`", "name": "public"}]}`)
	})
	mux.HandleFunc("POST /v2.0/floatingips", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			FloatingIP struct {
				NetworkID   string `json:"floating_network_id"`
				Description string `json:"description"`
			} `json:"floatingip"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, publicUUID, body.FloatingIP.NetworkID)
		assert.Equal(t, "instancectl", body.FloatingIP.Description)
		writeJSON(w, http.StatusCreated, `{"floatingip": `+fipJSON()+`}`)
	})
	mux.HandleFunc("GET /v2.0/floatingips", func(w http.ResponseWriter, r *http.Request) {
		if addr := r.URL.Query().Get("floating_ip_address"); addr != "" && addr != "203.0.113.9" {
			writeJSON(w, http.StatusOK, `{"floatingips": []}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"floatingips": [`+fipJSON()+`]}`)
	})
	mux.HandleFunc("PUT /v2.0/floatingips/fip-1", func(w http.ResponseWriter, r *http.Request) {
		var body floatingIPUpdate
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		updates = append(updates, body.FloatingIP.PortID)
		portID = ""
		if body.FloatingIP.PortID != nil {
			portID = *body.FloatingIP.PortID
		}
		mu.Unlock()
		writeJSON(w, http.StatusOK, `{"floatingip": `+fipJSON()+`}`)
	})
	mux.HandleFunc("GET /v2.0/ports", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("device_id") {
		case "srv-1", "":
			writeJSON(w, http.StatusOK, `{"ports": [{"id": "port-1", "device_id": "srv-1"}]}`)
		default:
			writeJSON(w, http.StatusOK, `{"ports": []}`)
		}
	})
	mux.HandleFunc("DELETE /v2.0/floatingips/fip-1", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("DELETE /v2.0/floatingips/fip-gone", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"NeutronError": {"type": "FloatingIPNotFound"}}`)
	})

	c := newTestClient(t, mux)
	ctx := context.Background()

	fip, err := c.AllocateFromPool(ctx, "public")
	require.NoError(t, err)
	assert.Equal(t, provisioning.FloatingIP{ID: "fip-1", Address: "203.0.113.9", Pool: "public"}, *fip)

	require.NoError(t, c.Associate(ctx, fip.Address, "srv-1"))

	allocated, err := c.ListAllocated(ctx)
	require.NoError(t, err)
	assert.Equal(t, []provisioning.FloatingIP{
		{ID: "fip-1", Address: "203.0.113.9", Pool: publicUUID, InstanceID: "srv-1"},
	}, allocated)

	// Not bound to any port of "gone": nothing to detach.
	require.NoError(t, c.Disassociate(ctx, fip.Address, "gone"))
	require.NoError(t, c.Disassociate(ctx, fip.Address, "srv-1"))
	require.NoError(t, c.Disassociate(ctx, "198.51.100.1", "srv-1"))

	mu.Lock()
	require.Len(t, updates, 2)
	require.NotNil(t, updates[0])
	assert.Equal(t, "port-1", *updates[0])
	assert.Nil(t, updates[1])
	mu.Unlock()

	require.NoError(t, c.ReleaseByID(ctx, "fip-1"))
	require.NoError(t, c.ReleaseByID(ctx, "fip-gone"))
}

func TestClient_Associate_Error(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v2.0/floatingips", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"floatingips": [{"id": "fip-1", "floating_ip_address": "203.0.113.9", "port_id": null}]}`)
	})
	mux.HandleFunc("GET /v2.0/ports", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"ports": [{"id": "port-1", "device_id": "srv-1"}]}`)
	})
	mux.HandleFunc("PUT /v2.0/floatingips/fip-1", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusConflict, `{"NeutronError": {"type": "FloatingIPPortAlreadyAssociated"}}`)
	})

	err := newTestClient(t, mux).Associate(context.Background(), "203.0.113.9", "srv-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "203.0.113.9")
}

func TestClient_Associate_ServerWithoutPort(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v2.0/floatingips", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"floatingips": [{"id": "fip-1", "floating_ip_address": "203.0.113.9", "port_id": null}]}`)
	})
	mux.HandleFunc("GET /v2.0/ports", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"ports": []}`)
	})
	mux.HandleFunc("PUT /v2.0/floatingips/fip-1", func(w http.ResponseWriter, _ *http.Request) {
		t.Error("address must not be updated without a port")
	})

	err := newTestClient(t, mux).Associate(context.Background(), "203.0.113.9", "srv-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no port")
}

func TestClient_FloatingIPsWithoutNetworkService(t *testing.T) {
	t.Parallel()

	c := NewClientWithServices(nil, nil)
	ctx := context.Background()

	_, err := c.AllocateFromPool(ctx, "public")
	require.ErrorIs(t, err, errNoNetworkService)
	require.ErrorIs(t, c.ReleaseByID(ctx, "fip-1"), errNoNetworkService)
	_, err = c.ListAllocated(ctx)
	require.ErrorIs(t, err, errNoNetworkService)
}
