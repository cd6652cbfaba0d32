// Package destroy tears down virtual instances.
//
// Teardown is best-effort: each resolved instance has its floating IP
// released and is then deleted, and a failure on one instance never stops
// the rest of the batch. Failures are logged and returned in a [Report]
// rather than as an error. Ids that no longer resolve are skipped, which
// makes repeated deletes of the same ids harmless.
package destroy
