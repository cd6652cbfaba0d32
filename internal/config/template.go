package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template describes the instances requested in a batch. It is shared
// read-only by every instance of the batch.
type Template struct {
	// Name identifies the template in tags and reports.
	Name string `yaml:"name,omitempty"`

	// Prefix is prepended to each virtual id to form the instance name.
	Prefix string `yaml:"prefix"`

	Image  string `yaml:"image"`
	Flavor string `yaml:"flavor"`

	// Network is the network the instance's fixed address is allocated on.
	Network string `yaml:"network"`

	AvailabilityZone string `yaml:"availability_zone,omitempty"`

	// SecurityGroups accepts either a YAML list or a comma separated string.
	SecurityGroups SecurityGroups `yaml:"security_groups,omitempty"`

	KeyName string `yaml:"key_name"`

	// FloatingIPPool enables floating IP attachment when non-empty.
	FloatingIPPool string `yaml:"floating_ip_pool,omitempty"`

	Tags map[string]string `yaml:"tags,omitempty"`
}

// SecurityGroups is a list of security group names.
type SecurityGroups []string

// UnmarshalYAML accepts a sequence of names or a single comma separated
// scalar such as "default, web".
func (s *SecurityGroups) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*s = ParseSecurityGroups(node.Value)
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return err
		}
		*s = names
		return nil
	default:
		return fmt.Errorf("line %d: security_groups must be a list or a comma separated string", node.Line)
	}
}

// ParseSecurityGroups splits a comma separated list of security group
// names, trimming whitespace and dropping empty entries.
func ParseSecurityGroups(csv string) SecurityGroups {
	var groups SecurityGroups
	for _, part := range strings.Split(csv, ",") {
		if name := strings.TrimSpace(part); name != "" {
			groups = append(groups, name)
		}
	}
	return groups
}

// HasFloatingIPPool reports whether floating IPs should be attached.
func (t *Template) HasFloatingIPPool() bool {
	return strings.TrimSpace(t.FloatingIPPool) != ""
}

// LoadTemplate reads, parses and validates a template file.
func LoadTemplate(path string) (*Template, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}
	return ParseTemplate(data)
}

// ParseTemplate parses and validates a YAML template. Unknown fields are
// rejected.
func ParseTemplate(data []byte) (*Template, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var tmpl Template
	if err := dec.Decode(&tmpl); err != nil {
		return nil, fmt.Errorf("failed to unmarshal template: %w", err)
	}

	if err := tmpl.Validate(); err != nil {
		return nil, fmt.Errorf("template validation failed: %w", err)
	}
	return &tmpl, nil
}

// Validate checks the template for missing required fields. All problems
// are reported at once.
func (t *Template) Validate() error {
	var errs []error

	required := []struct {
		field, value string
	}{
		{"prefix", t.Prefix},
		{"image", t.Image},
		{"flavor", t.Flavor},
		{"network", t.Network},
		{"key_name", t.KeyName},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, fmt.Errorf("%s is required", r.field))
		}
	}

	for i, sg := range t.SecurityGroups {
		if strings.TrimSpace(sg) == "" {
			errs = append(errs, fmt.Errorf("security_groups[%d] must not be empty", i))
		}
	}

	for k := range t.Tags {
		if strings.HasPrefix(k, "instancectl.io/") {
			errs = append(errs, fmt.Errorf("tag %q uses the reserved instancectl.io/ prefix", k))
		}
	}

	return errors.Join(errs...)
}
