package hcloud

import (
	"context"
	"fmt"
	"reflect"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/instancectl/internal/util/retry"
)

// DeleteOperation encapsulates deletion logic for any hcloud resource.
// It provides consistent retry, timeout, and error handling across all resource types.
//
// Usage example:
//
//	err := (&DeleteOperation[*hcloud.FloatingIP]{
//	    Key:          "4711",
//	    ResourceType: "floating IP",
//	    Get:          c.client.FloatingIP.Get,
//	    Delete:       c.client.FloatingIP.Delete,
//	}).Execute(ctx, c)
type DeleteOperation[T any] struct {
	// Key is the id or name passed to Get.
	Key          string
	ResourceType string

	Get    func(ctx context.Context, idOrName string) (T, *hcloud.Response, error)
	Delete func(ctx context.Context, resource T) (*hcloud.Response, error)
}

// Execute performs the delete operation with retry logic and timeout handling.
// The operation is idempotent - it succeeds if the resource doesn't exist.
// Locked resources are retried with exponential backoff.
func (op *DeleteOperation[T]) Execute(ctx context.Context, client *Client) error {
	ctx, cancel := context.WithTimeout(ctx, client.timeouts.Delete)
	defer cancel()

	return retry.WithExponentialBackoff(ctx, func() error {
		resource, _, err := op.Get(ctx, op.Key)
		if err != nil {
			if isHCloudErrorCode(err, hcloud.ErrorCodeNotFound) {
				return nil
			}
			return retry.Fatal(fmt.Errorf("failed to get %s %s: %w", op.ResourceType, op.Key, err))
		}
		if reflect.ValueOf(resource).IsNil() {
			return nil
		}

		if _, err := op.Delete(ctx, resource); err != nil {
			switch {
			case isHCloudErrorCode(err, hcloud.ErrorCodeNotFound):
				return nil
			case isResourceLocked(err):
				return err
			default:
				return retry.Fatal(fmt.Errorf("failed to delete %s %s: %w", op.ResourceType, op.Key, err))
			}
		}
		return nil
	},
		retry.WithMaxRetries(client.timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(client.timeouts.RetryInitialDelay))
}

// waitForActions waits for the non-nil actions to complete.
func waitForActions(ctx context.Context, client *hcloud.Client, actions ...*hcloud.Action) error {
	pending := make([]*hcloud.Action, 0, len(actions))
	for _, a := range actions {
		if a != nil {
			pending = append(pending, a)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	return client.Action.WaitFor(ctx, pending...)
}
