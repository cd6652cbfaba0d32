package provisioning

// InstanceState is the backend-independent instance state reported to callers.
type InstanceState string

const (
	StatePending  InstanceState = "pending"
	StateRunning  InstanceState = "running"
	StateStopping InstanceState = "stopping"
	StateStopped  InstanceState = "stopped"
	StateDeleting InstanceState = "deleting"
	StateDeleted  InstanceState = "deleted"
	StateFailed   InstanceState = "failed"
	StateUnknown  InstanceState = "unknown"
)

// StatusTable maps a backend's native status values to instance states.
type StatusTable map[string]InstanceState

// Project maps a native status. Unrecognized values map to StateUnknown.
func (t StatusTable) Project(native string) InstanceState {
	if state, ok := t[native]; ok {
		return state
	}
	return StateUnknown
}

// NovaStatuses maps OpenStack Nova server statuses.
var NovaStatuses = StatusTable{
	"ACTIVE":            StateRunning,
	"BUILD":             StatePending,
	"REBUILD":           StatePending,
	"SUSPENDED":         StateStopped,
	"PAUSED":            StateStopped,
	"RESIZE":            StatePending,
	"VERIFY_RESIZE":     StateRunning,
	"REVERT_RESIZE":     StatePending,
	"PASSWORD":          StateRunning,
	"REBOOT":            StatePending,
	"HARD_REBOOT":       StatePending,
	"DELETED":           StateDeleted,
	"UNKNOWN":           StateUnknown,
	"ERROR":             StateFailed,
	"STOPPED":           StateStopped,
	"SHUTOFF":           StateStopped,
	"SHELVED":           StateStopped,
	"SHELVED_OFFLOADED": StateStopped,
	"MIGRATING":         StateRunning,
	"RESCUE":            StateUnknown,
	"SOFT_DELETED":      StateDeleting,
}

// HCloudStatuses maps Hetzner Cloud server statuses.
var HCloudStatuses = StatusTable{
	"initializing": StatePending,
	"starting":     StatePending,
	"running":      StateRunning,
	"stopping":     StateStopping,
	"off":          StateStopped,
	"deleting":     StateDeleting,
	"migrating":    StateRunning,
	"rebuilding":   StatePending,
	"unknown":      StateUnknown,
}
