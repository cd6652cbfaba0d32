// Package openstack implements the instance backend on OpenStack.
//
// Instances are Nova servers; bookkeeping tags are stored as server
// metadata. Floating addresses are Neutron floating IPs, so a floating IP
// pool names (or identifies) an external network, and associating an
// address binds it to the server's first port. Every request is bound to
// the caller's context.
//
// Credentials come from the standard OS_* environment variables. A CA
// bundle (OS_CACERT) and OS_INSECURE configure the TLS transport.
package openstack
