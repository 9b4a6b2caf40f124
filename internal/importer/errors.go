package importer

import (
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/gqlerror"
)

const (
	CodeConfig                   = "E_CONFIG"
	CodeBundle                   = "E_BUNDLE"
	CodeConnectivity             = "E_ENDPOINT_UNREACHABLE"
	CodeRequest                  = "E_REQUEST_INVALID"
	CodeTransport                = "E_TRANSPORT"
	CodeParse                    = "E_PARSE"
	CodeApplication              = "E_APPLICATION"
	CodeMalformedResponse        = "E_MALFORMED_RESPONSE"
	CodeIntrospectionUnavailable = "E_INTROSPECTION_UNAVAILABLE"
	CodeValidationFailed         = "E_VALIDATION_FAILED"
)

// Phase names the pipeline step an error was raised in.
type Phase string

const (
	PhaseConfig        Phase = "config"
	PhaseBundle        Phase = "bundle"
	PhaseProbe         Phase = "probe"
	PhaseUpload        Phase = "upload"
	PhaseIntrospection Phase = "introspection"
	PhaseValidation    Phase = "validation"
)

// Error is a classified pipeline failure. Fatal errors end the run in the
// Failed state; non-fatal ones are reported as warnings on a successful run.
type Error struct {
	Code  string
	Phase Phase
	Fatal bool
	Err   error

	// GraphQLErrors holds the server's top-level errors verbatim when the
	// failure was reported by the GraphQL layer.
	GraphQLErrors gqlerror.List
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.Code, e.Phase, e.Err)
	}
	return fmt.Sprintf("%s (%s)", e.Code, e.Phase)
}

func (e *Error) Unwrap() error     { return e.Err }
func (e *Error) CodeValue() string { return e.Code }

func fatalError(code string, phase Phase, err error) *Error {
	return &Error{Code: code, Phase: phase, Fatal: true, Err: err}
}

func warning(code string, phase Phase, err error) *Error {
	return &Error{Code: code, Phase: phase, Err: err}
}

// HasCode reports whether err is, or wraps, an *Error with the given code.
func HasCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
