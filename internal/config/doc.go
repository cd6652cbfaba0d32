// Package config defines the configuration consumed by instancectl.
//
// An instance [Template] is read from a YAML file and describes what every
// instance in a batch is created from. [Timeouts] control polling and
// retries and are read from INSTANCECTL_* environment variables. Backend
// selection and credentials come from the environment as well, using the
// variable names the respective cloud tooling already uses (HCLOUD_TOKEN,
// OS_AUTH_URL and friends).
package config
