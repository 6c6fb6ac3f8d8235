package enums

import (
	"fmt"
	"strings"
)

// OutboxDLQErrorReason records why the publisher gave up on an order event.
type OutboxDLQErrorReason string

const (
	// OutboxDLQReasonMaxAttempts means every retry failed on a transient error.
	OutboxDLQReasonMaxAttempts OutboxDLQErrorReason = "max_attempts"
	// OutboxDLQReasonNonRetryable means the row can never be relayed as stored.
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

var validOutboxDLQErrorReasons = []OutboxDLQErrorReason{
	OutboxDLQReasonMaxAttempts,
	OutboxDLQReasonNonRetryable,
}

func (r OutboxDLQErrorReason) String() string {
	return string(r)
}

func (r OutboxDLQErrorReason) IsValid() bool {
	for _, candidate := range validOutboxDLQErrorReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseOutboxDLQErrorReason reads a reason column or CLI filter value.
func ParseOutboxDLQErrorReason(value string) (OutboxDLQErrorReason, error) {
	r := OutboxDLQErrorReason(strings.ToLower(strings.TrimSpace(value)))
	if !r.IsValid() {
		return "", fmt.Errorf("invalid dlq reason %q", value)
	}
	return r, nil
}
