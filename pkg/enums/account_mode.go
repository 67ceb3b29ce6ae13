package enums

import "fmt"

// AccountMode is the operation tag sent to the account endpoint.
type AccountMode string

const (
	AccountModeSignup        AccountMode = "signup"
	AccountModeLogin         AccountMode = "login"
	AccountModeSendOTP       AccountMode = "send_otp"
	AccountModeResetPassword AccountMode = "reset_password"
)

var validAccountModes = []AccountMode{
	AccountModeSignup,
	AccountModeLogin,
	AccountModeSendOTP,
	AccountModeResetPassword,
}

// String implements fmt.Stringer.
func (a AccountMode) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AccountMode.
func (a AccountMode) IsValid() bool {
	for _, candidate := range validAccountModes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAccountMode converts raw input into an AccountMode.
func ParseAccountMode(value string) (AccountMode, error) {
	for _, candidate := range validAccountModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid account mode %q", value)
}
