package provisioning

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPrecondition is returned when allocate is called with invalid input.
	// No provider call has been made when it is returned.
	ErrPrecondition = errors.New("precondition violated")

	// ErrResolution is returned when an identity or status lookup failed.
	ErrResolution = errors.New("identity resolution failed")

	// ErrProvisioningShortfall is returned when fewer instances than required
	// became ready.
	ErrProvisioningShortfall = errors.New("provisioning shortfall")

	// ErrInstanceNotFound is returned by backends for instances that do not exist.
	ErrInstanceNotFound = errors.New("instance not found")

	// ErrDeleteDeclined marks a delete the backend reported as not performed.
	ErrDeleteDeclined = errors.New("backend reported instance not deleted")
)

// PreconditionError describes invalid allocate input.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%v: %s", ErrPrecondition, e.Reason)
}

func (e *PreconditionError) Unwrap() error {
	return ErrPrecondition
}

// ResolutionError wraps a failed lookup for a single virtual id.
type ResolutionError struct {
	VirtualID VirtualID
	Err       error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%v for %q: %v", ErrResolution, e.VirtualID, e.Err)
}

func (e *ResolutionError) Unwrap() []error {
	return []error{ErrResolution, e.Err}
}

// InstanceError attributes an error to one instance and operation.
type InstanceError struct {
	VirtualID VirtualID
	Op        string
	Err       error
}

func (e *InstanceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.VirtualID, e.Err)
}

func (e *InstanceError) Unwrap() error {
	return e.Err
}

// ShortfallError is returned by allocate when fewer than Minimum instances
// became ready. RollbackFailures lists every error met while deleting the
// batch; the instances they name may have been left behind.
type ShortfallError struct {
	Requested        int
	Ready            int
	Minimum          int
	CreateFailures   []error
	RollbackFailures []error
	// Cause is set when waiting ended early, e.g. on context cancellation.
	Cause error
}

func (e *ShortfallError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v: %d of %d instances ready, %d required",
		ErrProvisioningShortfall, e.Ready, e.Requested, e.Minimum)
	if e.Cause != nil {
		fmt.Fprintf(&b, " (%v)", e.Cause)
	}
	if len(e.CreateFailures) > 0 {
		fmt.Fprintf(&b, "; %d creation failures: %v", len(e.CreateFailures), errors.Join(e.CreateFailures...))
	}
	if len(e.RollbackFailures) > 0 {
		fmt.Fprintf(&b, "; %d rollback failures: %v", len(e.RollbackFailures), errors.Join(e.RollbackFailures...))
	}
	return b.String()
}

func (e *ShortfallError) Unwrap() []error {
	errs := []error{ErrProvisioningShortfall}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return append(errs, e.RollbackFailures...)
}

// IsNotFound reports whether err marks a missing instance.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrInstanceNotFound)
}
