package naming

import "strings"

// Instance returns the decorated instance name for a virtual instance id.
func Instance(prefix, virtualID string) string {
	return prefix + "-" + virtualID
}

// HasVirtualIDSuffix reports whether name looks like a decorated name for
// virtualID, whatever the prefix.
func HasVirtualIDSuffix(name, virtualID string) bool {
	return virtualID != "" && strings.HasSuffix(name, "-"+virtualID)
}
