package authflow

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError is a local check that failed before any request was made.
type ValidationError struct {
	Field   Field
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var looseEmail = regexp.MustCompile(`\S+@\S+\.\S+`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("looseemail", func(fl validator.FieldLevel) bool {
		return looseEmail.MatchString(fl.Field().String())
	}); err != nil {
		panic("authflow: register looseemail: " + err.Error())
	}
	return v
}

type rule struct {
	field   Field
	trim    bool
	tag     string
	message string
}

// Presence checks come before length and format checks; the first failing
// rule is reported.
var rules = map[State][]rule{
	Register: {
		{FieldName, true, "required", MsgNameRequired},
		{FieldEmail, true, "required", MsgEmailRequired},
		{FieldPassword, true, "required", MsgPasswordRequired},
		{FieldPassword, false, "min=" + strconv.Itoa(minPasswordLength), MsgPasswordTooShort},
		{FieldEmail, false, "looseemail", MsgInvalidEmail},
	},
	Verify: {
		{FieldEmail, true, "required", MsgEmailRequired},
		{FieldOTP, true, "required", MsgOTPRequired},
		{FieldOTP, false, "len=" + strconv.Itoa(otpLength), MsgOTPLength},
	},
	Login: {
		{FieldEmail, true, "required", MsgEmailRequired},
		{FieldPassword, true, "required", MsgPasswordRequired},
	},
}

// Validate checks d against the rules of s and returns the first violation as
// a *ValidationError, or nil.
func Validate(s State, d Draft) error {
	for _, r := range rules[s] {
		v := d.get(r.field)
		if r.trim {
			v = strings.TrimSpace(v)
		}
		if err := validate.Var(v, r.tag); err != nil {
			return &ValidationError{Field: r.field, Message: r.message}
		}
	}
	return nil
}
