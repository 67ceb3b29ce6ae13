package enums

import "fmt"

// RecoveryStage tracks progress through the password recovery flow.
type RecoveryStage string

const (
	RecoveryStageOTPSent  RecoveryStage = "otp_sent"
	RecoveryStageVerified RecoveryStage = "verified"
)

var validRecoveryStages = []RecoveryStage{
	RecoveryStageOTPSent,
	RecoveryStageVerified,
}

// String implements fmt.Stringer.
func (r RecoveryStage) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RecoveryStage.
func (r RecoveryStage) IsValid() bool {
	for _, candidate := range validRecoveryStages {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRecoveryStage converts raw input into a RecoveryStage.
func ParseRecoveryStage(value string) (RecoveryStage, error) {
	for _, candidate := range validRecoveryStages {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid recovery stage %q", value)
}
