package enums

import "fmt"

// CheckoutState tracks where a session sits in the checkout flow.
type CheckoutState string

const (
	CheckoutStateEditing    CheckoutState = "editing"
	CheckoutStateSubmitting CheckoutState = "submitting"
	CheckoutStateSuccess    CheckoutState = "success"
	CheckoutStateFailed     CheckoutState = "failed"
)

var validCheckoutStates = []CheckoutState{
	CheckoutStateEditing,
	CheckoutStateSubmitting,
	CheckoutStateSuccess,
	CheckoutStateFailed,
}

// String implements fmt.Stringer.
func (c CheckoutState) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CheckoutState.
func (c CheckoutState) IsValid() bool {
	for _, candidate := range validCheckoutStates {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed for the current order.
func (c CheckoutState) IsTerminal() bool {
	return c == CheckoutStateSuccess
}

// ParseCheckoutState converts raw input into a CheckoutState.
func ParseCheckoutState(value string) (CheckoutState, error) {
	for _, candidate := range validCheckoutStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout state %q", value)
}
