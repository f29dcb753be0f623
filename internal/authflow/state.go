package authflow

// State is the step of the auth flow currently shown.
type State int

const (
	Register State = iota
	Verify
	Login
)

func (s State) String() string {
	switch s {
	case Register:
		return "register"
	case Verify:
		return "verify"
	case Login:
		return "login"
	default:
		return "unknown"
	}
}

// Field names a draft input.
type Field string

const (
	FieldName     Field = "username"
	FieldEmail    Field = "email"
	FieldPassword Field = "password"
	FieldOTP      Field = "otp"
)

// Fields lists the inputs shown in s, in display order.
func Fields(s State) []Field {
	switch s {
	case Register:
		return []Field{FieldName, FieldEmail, FieldPassword}
	case Verify:
		return []Field{FieldEmail, FieldOTP}
	case Login:
		return []Field{FieldEmail, FieldPassword}
	default:
		return nil
	}
}

// Key is a key pressed while an input has focus.
type Key string

const KeyEnter Key = "Enter"

// Draft is the credentials being typed. It is shared by all three states.
type Draft struct {
	DisplayName string
	Email       string
	Password    string
	OTP         string
}

func (d Draft) get(f Field) string {
	switch f {
	case FieldName:
		return d.DisplayName
	case FieldEmail:
		return d.Email
	case FieldPassword:
		return d.Password
	case FieldOTP:
		return d.OTP
	}
	return ""
}

func (d *Draft) set(f Field, v string) bool {
	switch f {
	case FieldName:
		d.DisplayName = v
	case FieldEmail:
		d.Email = v
	case FieldPassword:
		d.Password = v
	case FieldOTP:
		d.OTP = v
	default:
		return false
	}
	return true
}

// Get returns the value of f.
func (d Draft) Get(f Field) string { return d.get(f) }

// View is a snapshot of the flow for rendering. At most one of Error and
// Success is set.
type View struct {
	State   State
	Draft   Draft
	Busy    bool
	Error   string
	Success string
}
