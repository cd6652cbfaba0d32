// Package hcloud implements the instance backend on the Hetzner Cloud API.
//
// The Client satisfies both provisioning.ComputeClient and
// provisioning.FloatingIPClient:
//
//   - Instances are servers. The template flavor is the server type, the
//     availability zone is the location, the network is attached at create
//     time and security groups are firewalls.
//   - Instances are tagged with labels; virtual id lookups use a label
//     selector.
//   - A floating IP pool is a home location. Allocated addresses carry the
//     instancectl managed-by label, and only labelled addresses are listed.
//
// # Retries
//
// Server creation is retried with exponential backoff unless the API rejects
// the request as invalid. Deletions are idempotent: a resource that no
// longer exists counts as deleted, and locked resources are retried until
// the delete timeout expires.
package hcloud
