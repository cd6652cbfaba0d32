// Package handlers implements the business logic for CLI commands.
//
// Each handler opens a session against the selected backend, runs one
// instance operation through orchestration.Provider and renders the result.
package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/imamik/instancectl/internal/config"
	"github.com/imamik/instancectl/internal/orchestration"
	"github.com/imamik/instancectl/internal/platform/hcloud"
	"github.com/imamik/instancectl/internal/platform/openstack"
	"github.com/imamik/instancectl/internal/platform/s3"
	"github.com/imamik/instancectl/internal/provisioning"
)

// Options are the global flags shared by all commands.
type Options struct {
	Backend string
	Output  string
	Verbose bool

	Out io.Writer
	Err io.Writer
}

func (o *Options) stdout() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}
	return o.Out
}

func (o *Options) stderr() io.Writer {
	if o.Err == nil {
		return os.Stderr
	}
	return o.Err
}

// Backend bundles the capabilities of one IaaS backend.
type Backend struct {
	Compute     provisioning.ComputeClient
	FloatingIPs provisioning.FloatingIPClient
	Statuses    provisioning.StatusTable
}

// Factory function variables - can be replaced in tests.
var (
	newBackend     = defaultBackend
	newReportStore = func(ctx context.Context, settings *config.ReportSettings) (orchestration.ReportStore, error) {
		client, err := s3.NewClient(ctx, settings)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	loadTimeouts = config.LoadTimeouts
	pushMetrics  = func(ctx context.Context, url string, backend config.Backend, g prometheus.Gatherer) error {
		return push.New(url, "instancectl").
			Gatherer(g).
			Grouping("backend", string(backend)).
			PushContext(ctx)
	}
)

// defaultBackend connects to the named backend with credentials from the
// environment.
func defaultBackend(ctx context.Context, backend config.Backend, timeouts *config.Timeouts) (*Backend, error) {
	switch backend {
	case config.BackendHCloud:
		settings, err := config.LoadHCloudSettings()
		if err != nil {
			return nil, err
		}
		client := hcloud.NewClient(settings, hcloud.WithTimeouts(timeouts))
		return &Backend{Compute: client, FloatingIPs: client, Statuses: provisioning.HCloudStatuses}, nil
	case config.BackendOpenStack:
		settings, err := config.LoadOpenStackSettings()
		if err != nil {
			return nil, err
		}
		client, err := openstack.NewClient(ctx, settings, openstack.WithTimeouts(timeouts))
		if err != nil {
			return nil, err
		}
		return &Backend{Compute: client, FloatingIPs: client, Statuses: provisioning.NovaStatuses}, nil
	default:
		return nil, fmt.Errorf("unsupported backend %q", backend)
	}
}

// session is one CLI invocation's connection to a backend.
type session struct {
	provider *orchestration.Provider
	registry *prometheus.Registry
	backend  config.Backend
	log      logr.Logger
}

func newLogger(w io.Writer, verbose bool) logr.Logger {
	verbosity := 0
	if verbose {
		verbosity = 1
	}
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(w, args)
	}, funcr.Options{Verbosity: verbosity})
}

func openSession(ctx context.Context, opts *Options) (*session, error) {
	backend, err := config.ParseBackend(opts.Backend)
	if err != nil {
		return nil, err
	}
	timeouts := loadTimeouts()
	log := newLogger(opts.stderr(), opts.Verbose).WithName("instancectl")

	clients, err := newBackend(ctx, backend, timeouts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", backend, err)
	}

	registry := prometheus.NewRegistry()
	if err := provisioning.RegisterMetrics(registry); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	providerOpts := []orchestration.Option{
		orchestration.WithObserver(provisioning.NewObserver(log)),
		orchestration.WithTimeouts(timeouts),
		orchestration.WithStatusTable(clients.Statuses),
		orchestration.WithBackendName(string(backend)),
	}
	if clients.FloatingIPs != nil {
		providerOpts = append(providerOpts, orchestration.WithFloatingIPs(clients.FloatingIPs))
	}

	if settings := config.LoadReportSettings(); settings.Enabled() {
		store, err := newReportStore(ctx, settings)
		if err != nil {
			return nil, fmt.Errorf("failed to configure report storage: %w", err)
		}
		providerOpts = append(providerOpts, orchestration.WithReportStore(store))
	}

	return &session{
		provider: orchestration.NewProvider(clients.Compute, providerOpts...),
		registry: registry,
		backend:  backend,
		log:      log,
	}, nil
}

// close pushes the session's metrics when a Pushgateway is configured.
// Push failures are logged only.
func (s *session) close(ctx context.Context) {
	url := config.PushgatewayURL()
	if url == "" {
		return
	}
	if err := pushMetrics(context.WithoutCancel(ctx), url, s.backend, s.registry); err != nil {
		s.log.Error(err, "failed to push metrics", "url", url)
	}
}
