package auth

type signupRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyOTPRequest struct {
	TicketID string `json:"ticket_id" validate:"required,uuid"`
	OTP      string `json:"otp" validate:"required,numeric,min=4,max=10"`
}

type resetPasswordRequest struct {
	TicketID string `json:"ticket_id" validate:"required,uuid"`
	OTP      string `json:"otp" validate:"required,numeric,min=4,max=10"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}
