// Package naming provides the naming functions for provisioned resources.
//
// Instances are named {prefix}-{virtualID}; the decorated name is the
// human-readable provider-side name and is also stored as a tag.
package naming
