package openstack

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/instancectl/internal/provisioning"
	"github.com/imamik/instancectl/internal/util/labels"
)

const networkUUID = "3f1c2a9e-6b7d-4e2f-9a1b-0c5d8e7f6a42"

func createRequest(network string) provisioning.CreateRequest {
	return provisioning.CreateRequest{
		Name:             "web-a",
		Image:            "image-ref",
		Flavor:           "m1.small",
		Networks:         []string{network},
		AvailabilityZone: "nova",
		SecurityGroups:   []string{"default", "web"},
		KeyName:          "deploy",
		Tags:             labels.NewLabelBuilder().WithVirtualID("a").Build(),
	}
}

type createBody struct {
	Server struct {
		Name             string            `json:"name"`
		ImageRef         string            `json:"imageRef"`
		FlavorRef        string            `json:"flavorRef"`
		KeyName          string            `json:"key_name"`
		AvailabilityZone string            `json:"availability_zone"`
		Metadata         map[string]string `json:"metadata"`
		Networks         []struct {
			UUID string `json:"uuid"`
		} `json:"networks"`
		SecurityGroups []struct {
			Name string `json:"name"`
		} `json:"security_groups"`
	} `json:"server"`
}

func TestClient_CreateInstance(t *testing.T) {
	t.Parallel()

	var captured createBody
	mux := http.NewServeMux()
	mux.HandleFunc("/servers", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		writeJSON(w, http.StatusAccepted, `{"server": {"id": "srv-1", "adminPass": "secret"}}`)
	})

	id, err := newTestClient(t, mux).CreateInstance(context.Background(), createRequest(networkUUID))
	require.NoError(t, err)
	assert.Equal(t, provisioning.ProviderID("srv-1"), id)

	s := captured.Server
	assert.Equal(t, "web-a", s.Name)
	assert.Equal(t, "image-ref", s.ImageRef)
	assert.Equal(t, "m1.small", s.FlavorRef)
	assert.Equal(t, "deploy", s.KeyName)
	assert.Equal(t, "nova", s.AvailabilityZone)
	assert.Equal(t, "a", s.Metadata[labels.KeyVirtualID])
	require.Len(t, s.Networks, 1)
	assert.Equal(t, networkUUID, s.Networks[0].UUID)
	require.Len(t, s.SecurityGroups, 2)
	assert.Equal(t, "web", s.SecurityGroups[1].Name)
}

func TestClient_CreateInstance_ResolvesNetworkName(t *testing.T) {
	t.Parallel()

	var captured createBody
	mux := http.NewServeMux()
	mux.HandleFunc("/v2.0/networks", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "backend", r.URL.Query().Get("name"))
		writeJSON(w, http.StatusOK, `{"networks": [{"id": "`+networkUUID+`", "name": "backend"}]}`)
	})
	mux.HandleFunc("/servers", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		writeJSON(w, http.StatusAccepted, `{"server": {"id": "srv-1"}}`)
	})

	_, err := newTestClient(t, mux).CreateInstance(context.Background(), createRequest("backend"))
	require.NoError(t, err)
	require.Len(t, captured.Server.Networks, 1)
	assert.Equal(t, networkUUID, captured.Server.Networks[0].UUID)
}

func TestClient_CreateInstance_UnknownNetwork(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/v2.0/networks", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"networks": []}`)
	})
	mux.HandleFunc("/servers", func(w http.ResponseWriter, _ *http.Request) {
		t.Error("server must not be created without a network")
	})

	_, err := newTestClient(t, mux).CreateInstance(context.Background(), createRequest("backend"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network not found: backend")
}

func TestClient_CreateInstance_BadRequestIsNotRetried(t *testing.T) {
	t.Parallel()

	var posts atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/servers", func(w http.ResponseWriter, _ *http.Request) {
		posts.Add(1)
		writeJSON(w, http.StatusBadRequest, `{"badRequest": {"code": 400, "message": "Invalid flavorRef"}}`)
	})

	_, err := newTestClient(t, mux).CreateInstance(context.Background(), createRequest(networkUUID))
	require.Error(t, err)
	assert.Equal(t, int32(1), posts.Load())
}

func TestClient_CreateInstance_RetriesUnavailable(t *testing.T) {
	t.Parallel()

	var posts atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/servers", func(w http.ResponseWriter, _ *http.Request) {
		if posts.Add(1) == 1 {
			writeJSON(w, http.StatusServiceUnavailable, `{}`)
			return
		}
		writeJSON(w, http.StatusAccepted, `{"server": {"id": "srv-1"}}`)
	})

	id, err := newTestClient(t, mux).CreateInstance(context.Background(), createRequest(networkUUID))
	require.NoError(t, err)
	assert.Equal(t, provisioning.ProviderID("srv-1"), id)
	assert.Equal(t, int32(2), posts.Load())
}

func TestClient_GetInstance(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/servers/srv-1", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"server": {
			"id": "srv-1",
			"name": "web-a",
			"status": "ACTIVE",
			"created": "2026-01-02T03:04:05Z",
			"metadata": {"instancectl.io/virtual-id": "a"},
			"addresses": {
				"public": [
					{"addr": "203.0.113.9", "version": 4, "OS-EXT-IPS:type": "floating"}
				],
				"backend": [
					{"addr": "10.0.0.5", "version": 4, "OS-EXT-IPS:type": "fixed"}
				]
			}
		}}`)
	})
	mux.HandleFunc("/servers/gone", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"itemNotFound": {"code": 404, "message": "Instance could not be found"}}`)
	})

	c := newTestClient(t, mux)
	server, err := c.GetInstance(context.Background(), "srv-1")
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", server.Status)
	assert.Equal(t, []string{"10.0.0.5", "203.0.113.9"}, server.Addresses)
	assert.Equal(t, "a", server.Tags[labels.KeyVirtualID])
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), server.Created.UTC())

	_, err = c.GetInstance(context.Background(), "gone")
	require.Error(t, err)
	assert.True(t, provisioning.IsNotFound(err))
}

func TestClient_DeleteInstance(t *testing.T) {
	t.Parallel()

	var conflicts atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/servers/srv-1", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/servers/gone", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"itemNotFound": {"code": 404}}`)
	})
	mux.HandleFunc("/servers/busy", func(w http.ResponseWriter, _ *http.Request) {
		if conflicts.Add(1) == 1 {
			writeJSON(w, http.StatusConflict, `{"conflictingRequest": {"code": 409}}`)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/servers/forbidden", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusForbidden, `{"forbidden": {"code": 403}}`)
	})

	c := newTestClient(t, mux)
	ctx := context.Background()

	for _, id := range []provisioning.ProviderID{"srv-1", "gone", "busy"} {
		ok, err := c.DeleteInstance(ctx, id)
		require.NoError(t, err, id)
		assert.True(t, ok, id)
	}
	assert.Equal(t, int32(2), conflicts.Load())

	ok, err := c.DeleteInstance(ctx, "forbidden")
	require.Error(t, err)
	assert.False(t, ok)
}

func TestClient_ListInstancesByNameTag(t *testing.T) {
	t.Parallel()

	var nameFilter string
	mux := http.NewServeMux()
	mux.HandleFunc("/servers/detail", func(w http.ResponseWriter, r *http.Request) {
		nameFilter = r.URL.Query().Get("name")
		writeJSON(w, http.StatusOK, `{"servers": [
			{"id": "1", "name": "web-a", "status": "ACTIVE", "metadata": {"instancectl.io/virtual-id": "a"}, "addresses": {}},
			{"id": "2", "name": "db-a", "status": "ACTIVE", "metadata": {"instancectl.io/virtual-id": "other"}, "addresses": {}},
			{"id": "3", "name": "legacy-a", "status": "BUILD", "metadata": {}, "addresses": {}},
			{"id": "4", "name": "legacy-ba", "status": "BUILD", "metadata": {}, "addresses": {}}
		]}`)
	})

	servers, err := newTestClient(t, mux).ListInstancesByNameTag(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "-a$", nameFilter)

	var ids []provisioning.ProviderID
	for _, s := range servers {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []provisioning.ProviderID{"1", "3"}, ids)
}

func TestFlattenAddresses(t *testing.T) {
	t.Parallel()

	entry := func(addr, kind string) map[string]interface{} {
		return map[string]interface{}{"addr": addr, "OS-EXT-IPS:type": kind}
	}

	tests := []struct {
		name      string
		addresses map[string]interface{}
		want      []string
	}{
		{name: "empty", addresses: nil, want: nil},
		{
			name: "networks in name order",
			addresses: map[string]interface{}{
				"zeta":  []interface{}{entry("10.1.0.2", "fixed")},
				"alpha": []interface{}{entry("10.0.0.2", "fixed")},
			},
			want: []string{"10.0.0.2", "10.1.0.2"},
		},
		{
			name: "fixed before floating across networks",
			addresses: map[string]interface{}{
				"alpha": []interface{}{entry("203.0.113.5", "floating")},
				"beta":  []interface{}{entry("10.0.0.2", "fixed")},
			},
			want: []string{"10.0.0.2", "203.0.113.5"},
		},
		{
			name: "missing type counts as fixed",
			addresses: map[string]interface{}{
				"net": []interface{}{map[string]interface{}{"addr": "10.0.0.3"}},
			},
			want: []string{"10.0.0.3"},
		},
		{
			name: "malformed entries are skipped",
			addresses: map[string]interface{}{
				"net":   []interface{}{"garbage", map[string]interface{}{"version": 4}},
				"other": "garbage",
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, flattenAddresses(tt.addresses))
		})
	}
}
