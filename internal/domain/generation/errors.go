package generation

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a generation failure. Values are stable and sent to clients.
type Kind string

const (
	KindConfiguration         Kind = "configuration_error"
	KindValidation            Kind = "validation_error"
	KindUpstream              Kind = "upstream_error"
	KindEmptyUpstreamResponse Kind = "empty_upstream_response"
	KindNoJSONFound           Kind = "no_json_found"
	KindMalformedJSON         Kind = "malformed_json"
	KindTooManyRequests       Kind = "too_many_requests"
)

// Reason narrows a validation failure.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonMissingIdea         Reason = "missing_idea"
	ReasonTooShort            Reason = "too_short"
	ReasonTooLong             Reason = "too_long"
	ReasonProhibitedContent   Reason = "prohibited_content"
	ReasonInvalidContextField Reason = "invalid_context_field"
	ReasonInvalidBody         Reason = "invalid_body"
)

// ErrNoJSONFound is returned by ExtractJSON when the text holds no object.
var ErrNoJSONFound = errors.New("No JSON object found in response")

// Error is the single error type returned by plan generation.
type Error struct {
	Kind    Kind
	Reason  Reason
	Message string
	// Status is the upstream HTTP status for KindUpstream; 0 for transport failures.
	Status int
	// Details carries parser diagnostics for KindMalformedJSON.
	Details string
	// Raw is the offending model output for KindMalformedJSON and KindNoJSONFound.
	Raw string
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindUpstream && e.Status != 0:
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	case e.Details != "":
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Details)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// IsKind reports whether err is a generation error of the given kind.
func IsKind(err error, kind Kind) bool {
	ge, ok := AsError(err)
	return ok && ge.Kind == kind
}

// ConfigurationError reports a missing credential or generator setting.
func ConfigurationError(msg string) *Error {
	return &Error{Kind: KindConfiguration, Message: msg}
}

// ValidationError converts a failed ValidationResult.
func ValidationError(res ValidationResult) *Error {
	return &Error{Kind: KindValidation, Reason: res.Reason, Message: res.Error}
}

// UpstreamError reports a failed or non-success generator call.
func UpstreamError(status int, err error) *Error {
	msg := "generation service request failed"
	if status != 0 {
		msg = fmt.Sprintf("generation service returned status %d", status)
	}
	return &Error{Kind: KindUpstream, Status: status, Message: msg, Err: err}
}

// TooManyRequests reports a rate limiter rejection.
func TooManyRequests() *Error {
	return &Error{Kind: KindTooManyRequests, Message: "Too many requests. Please try again later."}
}

// HTTPStatus maps the error kind to the status returned to API callers.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	case KindUpstream, KindEmptyUpstreamResponse, KindNoJSONFound, KindMalformedJSON:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
