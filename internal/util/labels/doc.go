// Package labels provides the bookkeeping tags attached to every instance
// created by instancectl.
//
// Tags use the instancectl.io domain prefix and are built with a fluent
// builder. The virtual-id tag is the lookup key used to map a caller-assigned
// virtual instance id back to the provider's instance.
package labels
