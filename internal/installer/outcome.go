package installer

import "fmt"

// Error codes reported by the coordinator. Codes produced by the installer
// or the activator are passed through verbatim.
const (
	CodeNotAllowed     = "not_allowed"
	CodeInstallError   = "install_error"
	CodeNoPackage      = "no_package"
	CodeDownloadFailed = "download_failed"
	CodeProcessFailed  = "process_failed"
	CodeInternal       = "internal"
)

// Error is a coded platform error, the Go form of a (code, message) pair
type Error struct {
	Code    string
	Message string
}

// NewError creates a coded error
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorCode returns the machine readable code
func (e *Error) ErrorCode() string {
	return e.Code
}

// Outcome is the result of an install-and-activate attempt: either success
// with the installer transcript, or a failure carrying one normalized code.
type Outcome struct {
	ok       bool
	Code     string   `json:"code,omitempty"`
	Message  string   `json:"message,omitempty"`
	Messages []string `json:"messages,omitempty"`
}

// Success builds a successful outcome
func Success(messages []string) Outcome {
	return Outcome{ok: true, Messages: messages}
}

// Failure builds a failed outcome
func Failure(code, message string) Outcome {
	return Outcome{Code: code, Message: message}
}

// FailureFrom converts an error into a failed outcome, keeping its code when it has one
func FailureFrom(err error, fallbackCode string) Outcome {
	if code := codeOf(err); code != "" {
		return Failure(code, messageOf(err))
	}
	return Failure(fallbackCode, err.Error())
}

// OK reports whether the outcome is a success
func (o Outcome) OK() bool {
	return o.ok
}

// Err returns the failure as a coded error, or nil on success
func (o Outcome) Err() error {
	if o.ok {
		return nil
	}
	return NewError(o.Code, o.Message)
}
