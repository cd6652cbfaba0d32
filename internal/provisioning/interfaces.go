package provisioning

import "context"

// ComputeClient is the compute capability a backend must provide.
type ComputeClient interface {
	// CreateInstance submits a create request. The returned id may be empty
	// when the backend assigns ids asynchronously.
	CreateInstance(ctx context.Context, req CreateRequest) (ProviderID, error)

	// GetInstance returns the current instance record, or an error wrapping
	// ErrInstanceNotFound when the instance no longer exists.
	GetInstance(ctx context.Context, id ProviderID) (*Server, error)

	// DeleteInstance deletes an instance. Deleting an instance that is
	// already gone succeeds. It reports false without an error when the
	// backend declined the deletion.
	DeleteInstance(ctx context.Context, id ProviderID) (bool, error)

	// ListInstancesByNameTag lists instances tagged with the given virtual id,
	// in provider order.
	ListInstancesByNameTag(ctx context.Context, name string) ([]*Server, error)
}

// FloatingIPClient is the optional floating address capability.
type FloatingIPClient interface {
	AllocateFromPool(ctx context.Context, pool string) (*FloatingIP, error)
	Associate(ctx context.Context, address string, id ProviderID) error
	Disassociate(ctx context.Context, address string, id ProviderID) error
	ReleaseByID(ctx context.Context, id string) error
	ListAllocated(ctx context.Context) ([]FloatingIP, error)
}
