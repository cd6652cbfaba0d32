// Package provisioning provides the shared types, provider capabilities and
// identity handling used to provision and tear down virtual instances.
//
// # Subpackages
//
//   - compute/: batch allocation with readiness polling and rollback
//   - destroy/: best-effort teardown of instances and floating IPs
//
// # Core Types
//
// Callers refer to instances by caller-assigned [VirtualID]s. The provider
// assigns its own [ProviderID]s. [Resolve] builds a fresh [IdentityMapping]
// between the two on every operation by listing instances tagged with the
// virtual id; mappings are never cached across calls.
//
// Backends implement [ComputeClient] and, when they support floating
// addresses, [FloatingIPClient]. [Context] carries these capabilities
// together with the observer, timeouts and the backend's [StatusTable].
package provisioning
