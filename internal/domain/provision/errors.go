package provision

import (
	"errors"
	"fmt"
)

// Provider failure taxonomy. A plain error from Provision is a
// retryable failure: the requirement is marked failed for this run,
// its dependents are blocked, and a later run may try again. An error
// wrapping ErrFatal means the requirement's parameters can never
// succeed without a definition change.
var (
	// ErrFatal marks a provisioning error as not retryable.
	ErrFatal = errors.New("provisioning cannot succeed without a definition change")
	// ErrNetworkDisabled reports that provisioning needed the network
	// while the run disallowed it.
	ErrNetworkDisabled = errors.New("provisioning requires network access, which is disabled for this run")
)

// Fatalf builds a fatal (non-retryable) provisioning error.
func Fatalf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrFatal, fmt.Sprintf(format, args...))
}

// IsFatal reports whether err is a non-retryable provisioning error.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal)
}
