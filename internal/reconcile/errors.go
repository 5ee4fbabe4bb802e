package reconcile

import (
	"fmt"
)

// AuthenticationError means the webhook signature did not verify. Nothing was mutated.
type AuthenticationError struct {
	Err error
}

func (e *AuthenticationError) Error() string {
	return "webhook authentication failed: " + e.Err.Error()
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// UnknownEntityError means an event referenced a session or subscription with no local record.
// No record is created speculatively.
type UnknownEntityError struct {
	Entity string
	Ref    string
	Reason string
}

func (e *UnknownEntityError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unknown %s %q: %s", e.Entity, e.Ref, e.Reason)
	}

	return fmt.Sprintf("unknown %s %q", e.Entity, e.Ref)
}

// MissingBillingDateError means an activation could not determine the next billing timestamp.
type MissingBillingDateError struct {
	ProcessorRef string
}

func (e *MissingBillingDateError) Error() string {
	return fmt.Sprintf("subscription %q has no next billing date", e.ProcessorRef)
}
