package provisioning

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-logr/logr"
)

// Logger is the minimal printf-style logger.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Observer defines the interface for structured observability during provisioning.
type Observer interface {
	Logger

	// Event emits a structured event
	Event(event Event)

	// Progress reports progress for a phase
	Progress(phase string, current, total int)

	// WithFields returns a new Observer with additional context fields
	WithFields(fields map[string]string) Observer
}

// Event represents a structured provisioning event.
type Event struct {
	Type      EventType         // Type of event
	Phase     string            // Phase name (e.g., "allocate", "delete")
	Message   string            // Human-readable message
	Resource  string            // Virtual id, provider id or address if applicable
	Timestamp time.Time         // When the event occurred
	Fields    map[string]string // Additional contextual fields
	Err       error             // Cause for failure events
}

// EventType represents the type of provisioning event.
type EventType string

const (
	// EventPhaseStarted indicates an operation has started.
	EventPhaseStarted EventType = "phase.started"
	// EventPhaseCompleted indicates an operation completed successfully.
	EventPhaseCompleted EventType = "phase.completed"
	// EventPhaseFailed indicates an operation failed.
	EventPhaseFailed EventType = "phase.failed"

	// EventResourceCreating indicates a resource is being created.
	EventResourceCreating EventType = "resource.creating"
	// EventResourceCreated indicates a resource was created successfully.
	EventResourceCreated EventType = "resource.created"
	// EventResourceReady indicates an instance has a fixed address.
	EventResourceReady EventType = "resource.ready"
	// EventResourceFailed indicates an operation on a resource failed.
	EventResourceFailed EventType = "resource.failed"
	// EventResourceDeleting indicates a resource is being deleted.
	EventResourceDeleting EventType = "resource.deleting"
	// EventResourceDeleted indicates a resource was deleted successfully.
	EventResourceDeleted EventType = "resource.deleted"
	// EventResourceSkipped indicates a resource was not found and skipped.
	EventResourceSkipped EventType = "resource.skipped"

	// EventRollback indicates a batch is being rolled back.
	EventRollback EventType = "rollback"
)

// IsFailure reports whether the event type describes a failure.
func (t EventType) IsFailure() bool {
	return t == EventPhaseFailed || t == EventResourceFailed
}

// LogrObserver implements Observer on top of a logr.Logger.
type LogrObserver struct {
	logger logr.Logger
	fields map[string]string
}

// NewObserver creates an observer that writes to logger.
func NewObserver(logger logr.Logger) *LogrObserver {
	return &LogrObserver{
		logger: logger,
		fields: make(map[string]string),
	}
}

// Printf implements Logger.
func (o *LogrObserver) Printf(format string, v ...interface{}) {
	o.logger.Info(fmt.Sprintf(format, v...))
}

// Event implements Observer.
func (o *LogrObserver) Event(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	kv := []interface{}{"event", string(event.Type)}
	if event.Phase != "" {
		kv = append(kv, "phase", event.Phase)
	}
	if event.Resource != "" {
		kv = append(kv, "resource", event.Resource)
	}
	keys := make([]string, 0, len(event.Fields))
	for k := range event.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		kv = append(kv, k, event.Fields[k])
	}

	if event.Type.IsFailure() {
		o.logger.Error(event.Err, event.Message, kv...)
		return
	}
	o.logger.Info(event.Message, kv...)
}

// Progress implements Observer.
func (o *LogrObserver) Progress(phase string, current, total int) {
	percentage := 0
	if total > 0 {
		percentage = (current * 100) / total
	}
	o.logger.V(1).Info("progress", "phase", phase, "current", current, "total", total, "percent", percentage)
}

// WithFields implements Observer.
func (o *LogrObserver) WithFields(fields map[string]string) Observer {
	newFields := make(map[string]string, len(o.fields)+len(fields))
	for k, v := range o.fields {
		newFields[k] = v
	}

	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		newFields[k] = v
		keys = append(keys, k)
	}
	sort.Strings(keys)
	kv := make([]interface{}, 0, 2*len(keys))
	for _, k := range keys {
		kv = append(kv, k, fields[k])
	}

	return &LogrObserver{
		logger: o.logger.WithValues(kv...),
		fields: newFields,
	}
}

// Fields returns a copy of the observer's context fields.
func (o *LogrObserver) Fields() map[string]string {
	out := make(map[string]string, len(o.fields))
	for k, v := range o.fields {
		out[k] = v
	}
	return out
}

// LogPhaseStart logs a phase start event.
func LogPhaseStart(observer Observer, phase string) {
	observer.Event(Event{
		Type:    EventPhaseStarted,
		Phase:   phase,
		Message: "starting",
	})
}

// LogPhaseComplete logs a phase completion event.
func LogPhaseComplete(observer Observer, phase string, duration time.Duration) {
	observer.Event(Event{
		Type:    EventPhaseCompleted,
		Phase:   phase,
		Message: fmt.Sprintf("completed in %v", duration.Round(time.Millisecond)),
	})
}

// LogPhaseFailed logs a phase failure event.
func LogPhaseFailed(observer Observer, phase string, err error) {
	observer.Event(Event{
		Type:    EventPhaseFailed,
		Phase:   phase,
		Message: "failed",
		Err:     err,
	})
}

// LogResourceCreating logs the start of an instance creation.
func LogResourceCreating(observer Observer, phase string, id VirtualID, name string) {
	observer.Event(Event{
		Type:     EventResourceCreating,
		Phase:    phase,
		Resource: string(id),
		Message:  "creating instance",
		Fields:   map[string]string{"name": name},
	})
}

// LogResourceCreated logs a successful instance creation.
func LogResourceCreated(observer Observer, phase string, id VirtualID, providerID ProviderID) {
	observer.Event(Event{
		Type:     EventResourceCreated,
		Phase:    phase,
		Resource: string(id),
		Message:  "instance created",
		Fields:   map[string]string{"provider_id": string(providerID)},
	})
}

// LogResourceFailed logs a per-resource failure that does not abort the operation.
func LogResourceFailed(observer Observer, phase, resource, message string, err error) {
	observer.Event(Event{
		Type:     EventResourceFailed,
		Phase:    phase,
		Resource: resource,
		Message:  message,
		Err:      err,
	})
}

// LogResourceDeleting logs the start of a deletion.
func LogResourceDeleting(observer Observer, phase, resourceType, resource string) {
	observer.Event(Event{
		Type:     EventResourceDeleting,
		Phase:    phase,
		Resource: resource,
		Message:  fmt.Sprintf("deleting %s", resourceType),
		Fields:   map[string]string{"type": resourceType},
	})
}

// LogResourceDeleted logs a successful deletion.
func LogResourceDeleted(observer Observer, phase, resourceType, resource string) {
	observer.Event(Event{
		Type:     EventResourceDeleted,
		Phase:    phase,
		Resource: resource,
		Message:  fmt.Sprintf("%s deleted", resourceType),
		Fields:   map[string]string{"type": resourceType},
	})
}
