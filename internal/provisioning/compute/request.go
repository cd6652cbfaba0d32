package compute

import (
	"fmt"

	"github.com/imamik/instancectl/internal/config"
	"github.com/imamik/instancectl/internal/provisioning"
	"github.com/imamik/instancectl/internal/util/labels"
	"github.com/imamik/instancectl/internal/util/naming"
)

// buildRequest derives the create request for one virtual id.
func buildRequest(tmpl *config.Template, id provisioning.VirtualID) provisioning.CreateRequest {
	name := naming.Instance(tmpl.Prefix, string(id))
	tags := labels.NewLabelBuilder().
		WithVirtualID(string(id)).
		WithInstanceName(name).
		WithTemplateIfSet(tmpl.Name).
		Merge(tmpl.Tags).
		Build()

	return provisioning.CreateRequest{
		Name:             name,
		Image:            tmpl.Image,
		Flavor:           tmpl.Flavor,
		Networks:         []string{tmpl.Network},
		AvailabilityZone: tmpl.AvailabilityZone,
		SecurityGroups:   append([]string(nil), tmpl.SecurityGroups...),
		KeyName:          tmpl.KeyName,
		Tags:             tags,
	}
}

// validate checks the allocate preconditions. It runs before any provider call.
func validate(tmpl *config.Template, ids []provisioning.VirtualID, minCount int) error {
	if tmpl == nil {
		return &provisioning.PreconditionError{Reason: "template is required"}
	}
	if minCount < 0 {
		return &provisioning.PreconditionError{Reason: fmt.Sprintf("minCount %d is negative", minCount)}
	}
	if minCount > len(ids) {
		return &provisioning.PreconditionError{
			Reason: fmt.Sprintf("minCount %d exceeds the %d requested virtual ids", minCount, len(ids)),
		}
	}

	seen := make(map[provisioning.VirtualID]bool, len(ids))
	for i, id := range ids {
		if id == "" {
			return &provisioning.PreconditionError{Reason: fmt.Sprintf("virtual id at index %d is empty", i)}
		}
		if seen[id] {
			return &provisioning.PreconditionError{Reason: fmt.Sprintf("virtual id %q is requested twice", id)}
		}
		seen[id] = true
	}
	return nil
}
