// Package compute allocates batches of instances.
//
// All instances of a batch are created in parallel on a bounded worker pool
// and then polled until they report a fixed address. Instances become ready
// in any order; each ready instance gets exactly one floating IP attach
// attempt when the template names a pool. Waiting for the provider to assign
// an instance id and waiting for the fixed address share one timeout budget.
//
// When fewer instances than the requested minimum became ready, every
// requested virtual id is resolved again and rolled back.
package compute
