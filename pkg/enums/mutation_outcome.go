package enums

import "fmt"

// MutationOutcome reports what a cart mutation actually did. None of the
// outcomes is an error.
type MutationOutcome string

const (
	MutationOutcomeApplied              MutationOutcome = "applied"
	MutationOutcomeNoopAbsent           MutationOutcome = "noop_absent"
	MutationOutcomeRejectedBelowMinimum MutationOutcome = "rejected_below_minimum"
)

var validMutationOutcomes = []MutationOutcome{
	MutationOutcomeApplied,
	MutationOutcomeNoopAbsent,
	MutationOutcomeRejectedBelowMinimum,
}

// String implements fmt.Stringer.
func (m MutationOutcome) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MutationOutcome.
func (m MutationOutcome) IsValid() bool {
	for _, candidate := range validMutationOutcomes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMutationOutcome converts raw input into a MutationOutcome.
func ParseMutationOutcome(value string) (MutationOutcome, error) {
	for _, candidate := range validMutationOutcomes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid mutation outcome %q", value)
}
