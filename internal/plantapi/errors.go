package plantapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failed operation. Front-ends choose the user-facing
// message and capability handling from the kind alone.
type Kind int

const (
	KindNone Kind = iota
	KindValidation
	KindTransport
	KindCapabilityUnavailable
	KindQuota
	KindNotFound
	KindBackend
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindCapabilityUnavailable:
		return "capability_unavailable"
	case KindQuota:
		return "quota"
	case KindNotFound:
		return "not_found"
	case KindBackend:
		return "backend"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is returned by every Client operation that fails.
type Error struct {
	Kind       Kind
	StatusCode int
	// Message is the backend supplied explanation, if any.
	Message string
	Err     error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	if e.StatusCode != 0 {
		fmt.Fprintf(&sb, " (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrValidation is wrapped by errors about invalid user input that are
// caught before any request is made.
var ErrValidation = errors.New("invalid input")

// NewValidationError returns a KindValidation error with a user-facing message.
func NewValidationError(msg string) error {
	return &Error{Kind: KindValidation, Message: msg, Err: ErrValidation}
}

// KindOf returns the Kind of err. Errors that did not come from this package
// are treated as transport failures.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	if errors.Is(err, ErrValidation) {
		return KindValidation
	}
	return KindTransport
}

// MessageOf returns the backend message carried by err, if any.
func MessageOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

const imageAnalysisUnavailable = "image_analysis_unavailable"

// errorBody is FastAPI's error envelope. detail is either a string or an
// object with error and message fields.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Error  string          `json:"error"`
}

type errorDetail struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// parseErrorBody extracts the error code and message from a failed response
// body. Unknown shapes yield empty strings.
func parseErrorBody(body []byte) (code, message string) {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return "", ""
	}
	if len(eb.Detail) > 0 {
		var d errorDetail
		if err := json.Unmarshal(eb.Detail, &d); err == nil {
			return d.Error, d.Message
		}
		var s string
		if err := json.Unmarshal(eb.Detail, &s); err == nil {
			return "", s
		}
	}
	return "", eb.Error
}

// classifyStatus maps a non-2xx response to an Error. Capability
// unavailability is only reported by the analyze endpoint, see
// analyzeUnavailable.
func classifyStatus(status int, body []byte) *Error {
	_, msg := parseErrorBody(body)
	e := &Error{StatusCode: status, Message: msg}
	switch {
	case status == http.StatusTooManyRequests || isQuotaMessage(msg):
		e.Kind = KindQuota
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	default:
		e.Kind = KindTransport
	}
	return e
}

// analyzeUnavailable reclassifies a failed analyze response as
// KindCapabilityUnavailable when it is a 503 or carries the
// image_analysis_unavailable code.
func analyzeUnavailable(body []byte, err error) error {
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode == 0 {
		return err
	}
	code, _ := parseErrorBody(body)
	if apiErr.StatusCode == http.StatusServiceUnavailable || code == imageAnalysisUnavailable {
		apiErr.Kind = KindCapabilityUnavailable
	}
	return err
}

// classifyFailure maps a 2xx response with success=false to an Error.
func classifyFailure(msg string) *Error {
	if isQuotaMessage(msg) {
		return &Error{Kind: KindQuota, Message: msg}
	}
	return &Error{Kind: KindBackend, Message: msg}
}

func isQuotaMessage(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "quota") || strings.Contains(msg, "exceeded") || strings.Contains(msg, "429")
}
