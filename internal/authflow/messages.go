package authflow

const (
	MsgNameRequired     = "Full name is required"
	MsgEmailRequired    = "Email is required"
	MsgPasswordRequired = "Password is required"
	MsgPasswordTooShort = "Password must be at least 6 characters"
	MsgInvalidEmail     = "Please enter a valid email"
	MsgOTPRequired      = "OTP is required"
	MsgOTPLength        = "OTP must be 6 digits"
	MsgRegistered       = "Registration successful! Please check your email for OTP."
	MsgVerified         = "Email verified successfully! You can now login."
	MsgRegisterFailed   = "Registration failed"
	MsgVerifyFailed     = "OTP verification failed"
	MsgLoginFailed      = "Login failed"
	MsgNetwork          = "Network error. Please check your connection and try again."
	minPasswordLength   = 6
	otpLength           = 6
)

func fallbackMessage(s State) string {
	switch s {
	case Register:
		return MsgRegisterFailed
	case Verify:
		return MsgVerifyFailed
	default:
		return MsgLoginFailed
	}
}
