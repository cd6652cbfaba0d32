package labels

import "strings"

// Standard tag keys for provisioned instances.
const (
	// KeyVirtualID carries the caller-assigned virtual instance id.
	KeyVirtualID = "instancectl.io/virtual-id"

	// KeyInstanceName carries the decorated instance name.
	KeyInstanceName = "instancectl.io/instance-name"

	// KeyTemplate identifies the template the instance was requested from.
	KeyTemplate = "instancectl.io/template"

	// KeyManagedBy identifies the management system.
	KeyManagedBy = "instancectl.io/managed-by"

	// KeyPool marks floating IPs with the pool they were allocated from.
	KeyPool = "instancectl.io/pool"
)

// ManagedByInstancectl is the managed-by value for everything this tool creates.
const ManagedByInstancectl = "instancectl"

// LabelBuilder provides a fluent interface for building instance tags.
type LabelBuilder struct {
	labels map[string]string
}

// NewLabelBuilder creates a builder with the managed-by tag pre-set.
func NewLabelBuilder() *LabelBuilder {
	return &LabelBuilder{
		labels: map[string]string{
			KeyManagedBy: ManagedByInstancectl,
		},
	}
}

// WithVirtualID sets the virtual instance id tag.
func (lb *LabelBuilder) WithVirtualID(id string) *LabelBuilder {
	lb.labels[KeyVirtualID] = id
	return lb
}

// WithInstanceName sets the decorated instance name tag.
func (lb *LabelBuilder) WithInstanceName(name string) *LabelBuilder {
	lb.labels[KeyInstanceName] = name
	return lb
}

// WithTemplateIfSet sets the template tag only if name is non-empty.
func (lb *LabelBuilder) WithTemplateIfSet(name string) *LabelBuilder {
	if name != "" {
		lb.labels[KeyTemplate] = name
	}
	return lb
}

// WithPool sets the floating IP pool tag.
func (lb *LabelBuilder) WithPool(pool string) *LabelBuilder {
	lb.labels[KeyPool] = pool
	return lb
}

// Merge adds all tags from extra. Reserved instancectl.io keys already set
// by the builder are not overwritten.
func (lb *LabelBuilder) Merge(extra map[string]string) *LabelBuilder {
	for k, v := range extra {
		if _, reserved := lb.labels[k]; reserved && strings.HasPrefix(k, "instancectl.io/") {
			continue
		}
		lb.labels[k] = v
	}
	return lb
}

// Build returns a copy of the tags map.
func (lb *LabelBuilder) Build() map[string]string {
	result := make(map[string]string, len(lb.labels))
	for k, v := range lb.labels {
		result[k] = v
	}
	return result
}

// SelectorForVirtualID returns a label selector matching a single virtual id.
func SelectorForVirtualID(id string) string {
	return KeyVirtualID + "=" + id
}

// SelectorManaged returns a label selector for everything instancectl created.
func SelectorManaged() string {
	return KeyManagedBy + "=" + ManagedByInstancectl
}
