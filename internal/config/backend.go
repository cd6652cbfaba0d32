package config

import (
	"fmt"
	"os"
	"strings"
)

// Backend names an IaaS backend.
type Backend string

const (
	BackendHCloud    Backend = "hcloud"
	BackendOpenStack Backend = "openstack"
)

// Backends lists the supported backends.
var Backends = []Backend{BackendHCloud, BackendOpenStack}

// ParseBackend validates a backend name. The empty string selects hcloud.
func ParseBackend(name string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(name))) {
	case "", BackendHCloud:
		return BackendHCloud, nil
	case BackendOpenStack:
		return BackendOpenStack, nil
	default:
		return "", fmt.Errorf("unknown backend %q: must be one of %v", name, Backends)
	}
}

// HCloudSettings holds Hetzner Cloud credentials.
type HCloudSettings struct {
	Token    string
	Endpoint string
}

// OpenStackSettings holds the transport options that gophercloud does not
// read from OS_* variables itself. Identity settings are read by the
// openstack package via the standard OS_* variables.
type OpenStackSettings struct {
	AuthURL    string
	Region     string
	CACertFile string
	Insecure   bool
}

// LoadHCloudSettings reads HCLOUD_TOKEN and HCLOUD_ENDPOINT.
func LoadHCloudSettings() (*HCloudSettings, error) {
	s := &HCloudSettings{
		Token:    os.Getenv("HCLOUD_TOKEN"),
		Endpoint: os.Getenv("HCLOUD_ENDPOINT"),
	}
	if s.Token == "" {
		return nil, fmt.Errorf("HCLOUD_TOKEN is required for the %s backend", BackendHCloud)
	}
	return s, nil
}

// LoadOpenStackSettings reads OS_AUTH_URL, OS_REGION_NAME, OS_CACERT and
// OS_INSECURE.
func LoadOpenStackSettings() (*OpenStackSettings, error) {
	s := &OpenStackSettings{
		AuthURL:    os.Getenv("OS_AUTH_URL"),
		Region:     os.Getenv("OS_REGION_NAME"),
		CACertFile: os.Getenv("OS_CACERT"),
		Insecure:   parseBool("OS_INSECURE"),
	}
	if s.AuthURL == "" {
		return nil, fmt.Errorf("OS_AUTH_URL is required for the %s backend", BackendOpenStack)
	}
	return s, nil
}

// ReportSettings configures upload of operation reports to S3-compatible
// storage. Reports are disabled when Bucket is empty.
type ReportSettings struct {
	Bucket    string
	Prefix    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// LoadReportSettings reads INSTANCECTL_REPORT_* variables.
func LoadReportSettings() *ReportSettings {
	region := os.Getenv("INSTANCECTL_REPORT_REGION")
	if region == "" {
		region = "us-east-1"
	}
	return &ReportSettings{
		Bucket:    os.Getenv("INSTANCECTL_REPORT_BUCKET"),
		Prefix:    strings.Trim(os.Getenv("INSTANCECTL_REPORT_PREFIX"), "/"),
		Endpoint:  os.Getenv("INSTANCECTL_REPORT_ENDPOINT"),
		Region:    region,
		AccessKey: os.Getenv("INSTANCECTL_REPORT_ACCESS_KEY"),
		SecretKey: os.Getenv("INSTANCECTL_REPORT_SECRET_KEY"),
	}
}

// Enabled reports whether report upload is configured.
func (s *ReportSettings) Enabled() bool {
	return s != nil && s.Bucket != ""
}

// PushgatewayURL returns INSTANCECTL_PUSHGATEWAY_URL, empty when metrics
// pushing is disabled.
func PushgatewayURL() string {
	return os.Getenv("INSTANCECTL_PUSHGATEWAY_URL")
}

func parseBool(envVar string) bool {
	switch strings.ToLower(os.Getenv(envVar)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
