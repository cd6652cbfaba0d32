package openstack

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gophercloud/gophercloud/v2"

	"github.com/imamik/instancectl/internal/provisioning"
)

// statusCode returns the HTTP status of a gophercloud error, or 0.
func statusCode(err error) int {
	var uce gophercloud.ErrUnexpectedResponseCode
	if errors.As(err, &uce) {
		return uce.Actual
	}
	return 0
}

func isNotFound(err error) bool {
	return statusCode(err) == http.StatusNotFound
}

// isRetryable reports whether a request may succeed when repeated: the
// resource is busy, the API is throttling or the service failed transiently.
func isRetryable(err error) bool {
	switch statusCode(err) {
	case http.StatusConflict, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func serverNotFound(id provisioning.ProviderID) error {
	return fmt.Errorf("server %s: %w", id, provisioning.ErrInstanceNotFound)
}
