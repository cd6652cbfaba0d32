package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timing values.
// These values can be customized via environment variables.
type Timeouts struct {
	PollInterval      time.Duration // Interval between readiness and id polls
	ReadyTimeout      time.Duration // Budget shared by the provider id wait and the readiness poll
	Delete            time.Duration // Timeout for a single instance teardown
	RetryMaxAttempts  int           // Maximum number of retry attempts for provider calls
	RetryInitialDelay time.Duration // Initial delay between retries
	Workers           int           // Size of the per-instance worker pool
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - INSTANCECTL_POLL_INTERVAL (default: 5s)
//   - INSTANCECTL_READY_TIMEOUT (default: 180s)
//   - INSTANCECTL_TIMEOUT_DELETE (default: 5m)
//   - INSTANCECTL_RETRY_MAX_ATTEMPTS (default: 5)
//   - INSTANCECTL_RETRY_INITIAL_DELAY (default: 1s)
//   - INSTANCECTL_WORKERS (default: 8)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		PollInterval:      parseDuration("INSTANCECTL_POLL_INTERVAL", 5*time.Second),
		ReadyTimeout:      parseDuration("INSTANCECTL_READY_TIMEOUT", 180*time.Second),
		Delete:            parseDuration("INSTANCECTL_TIMEOUT_DELETE", 5*time.Minute),
		RetryMaxAttempts:  parseInt("INSTANCECTL_RETRY_MAX_ATTEMPTS", 5),
		RetryInitialDelay: parseDuration("INSTANCECTL_RETRY_INITIAL_DELAY", 1*time.Second),
		Workers:           parseInt("INSTANCECTL_WORKERS", 8),
	}
}

// TestTimeouts returns timeouts suitable for tests.
func TestTimeouts() *Timeouts {
	return &Timeouts{
		PollInterval:      5 * time.Millisecond,
		ReadyTimeout:      200 * time.Millisecond,
		Delete:            time.Second,
		RetryMaxAttempts:  1,
		RetryInitialDelay: time.Millisecond,
		Workers:           4,
	}
}

// parseDuration parses a positive duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}

	return d
}

// parseInt parses a positive integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil || i <= 0 {
		return defaultVal
	}

	return i
}
