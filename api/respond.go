package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Goofygiraffe06/janseva/internal/logging"
	"github.com/Goofygiraffe06/janseva/internal/models"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func respondJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.ErrorLog("JSON encoding failed: %v", err)
	}
}

func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, models.ErrorResponse{Message: message})
}

// decodeJSON reads a single JSON object from the (size limited) body.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON object")
	}
	return nil
}

var fieldMessages = map[string]string{
	"Username": "Full name is required",
	"Email":    "Please enter a valid email address",
	"OTP":      "Please enter a valid 6-digit OTP",
}

// validationMessage turns the first failed struct rule into something a user
// can act on.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation failed"
	}
	fe := verrs[0]
	if fe.Field() == "Password" {
		switch fe.Tag() {
		case "required":
			return "Password is required"
		case "min":
			return "Password must be at least 6 characters"
		default:
			return "Password is too long"
		}
	}
	if msg, ok := fieldMessages[fe.Field()]; ok {
		return msg
	}
	return "Validation failed"
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
