package models

type StatusResponse struct {
	Status string `json:"status"`
}

// MessageResponse carries the human-readable outcome of register and verify-otp,
// and the reason of any rejected request.
type MessageResponse struct {
	Message string `json:"message"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	Token   string `json:"token"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse matches rejections from services that report failures in an
// "error" field rather than "message".
type ErrorResponse struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Reason returns the server-provided explanation, if any.
func (e ErrorResponse) Reason() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// ProfileResponse describes the signed-in account.
type ProfileResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}
