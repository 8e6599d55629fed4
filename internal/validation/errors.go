package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/slideshow/server/internal/models"
)

// Code identifies a kind of validation error
type Code string

const (
	CodeInternalServerError     Code = "INTERNAL_SERVER_ERROR"
	CodeInternalValidationError Code = "INTERNAL_VALIDATION_ERROR"
	CodeEmptyList               Code = "EMPTY_LIST"
	CodeInvalidImage            Code = "INVALID_IMAGE"
	CodeImageNotFound           Code = "INVALID_IMAGE_INSTANCE_ID"
	CodeInvalidURL              Code = "INVALID_IMAGE_URL"
	CodeInvalidURLLength        Code = "INVALID_IMAGE_URL_LENGTH"
	CodeInvalidDuration         Code = "INVALID_IMAGE_DURATION"
	CodeInvalidType             Code = "INVALID_IMAGE_TYPE"
	CodeNoValidImages           Code = "NO_VALID_IMAGES"
)

var defaultMessages = map[Code]string{
	CodeInternalServerError:     "Something went wrong.",
	CodeInternalValidationError: "Unexpected error: ",
	CodeEmptyList:               "Images list cannot be empty",
	CodeInvalidImage:            "Image cannot be null",
	CodeImageNotFound:           "Image with specified ID {id} not found.",
	CodeInvalidURL:              "URL must be provided, and URL must not exceed 255 characters",
	CodeInvalidURLLength:        "URL must not exceed 255 characters. Current length {length}",
	CodeInvalidDuration:         "Duration must be between 1 and 300 seconds",
	CodeInvalidType:             "URL must point to a supported image type",
	CodeNoValidImages:           "At least one valid image must be provided",
}

// DefaultMessage returns the message template for the code
func (c Code) DefaultMessage() string {
	return defaultMessages[c]
}

// Context keys
const (
	KeyHash         = "hash"
	KeyID           = "id"
	KeyInvalidValue = "invalidValue"
	KeyException    = "exception"
)

// CorrelationKind tells which field ties an error to its request image
type CorrelationKind int

const (
	CorrelationNone CorrelationKind = iota
	CorrelationHash
	CorrelationID
	CorrelationURL
)

// Correlation associates a validation error with exactly one request image.
// Only the field selected by Kind is meaningful.
type Correlation struct {
	kind CorrelationKind
	hash uint64
	id   int64
	url  string
}

func ByHash(h uint64) Correlation  { return Correlation{kind: CorrelationHash, hash: h} }
func ByID(id int64) Correlation    { return Correlation{kind: CorrelationID, id: id} }
func ByURL(url string) Correlation { return Correlation{kind: CorrelationURL, url: url} }

func (c Correlation) Kind() CorrelationKind { return c.kind }

// Matches reports whether the error correlated by c belongs to img
func (c Correlation) Matches(img *models.ImageDescriptor) bool {
	if img == nil {
		return false
	}
	switch c.kind {
	case CorrelationHash:
		return img.Hash() == c.hash
	case CorrelationID:
		return img.ID != nil && *img.ID == c.id
	case CorrelationURL:
		return img.URL != nil && *img.URL == c.url
	}
	return false
}

// ValidationError is an expected, user-correctable problem with a request.
// It is a value, not a Go error.
type ValidationError struct {
	Code        Code
	Message     string
	Context     map[string]any
	Correlation Correlation
}

func (e ValidationError) String() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ToResponse converts the error to its API shape
func (e ValidationError) ToResponse() models.ValidationErrorResponse {
	return models.ValidationErrorResponse{
		Code:    string(e.Code),
		Message: e.Message,
		Context: e.Context,
	}
}

// ToResponses converts a list of errors, never returning nil
func ToResponses(errs []ValidationError) []models.ValidationErrorResponse {
	out := make([]models.ValidationErrorResponse, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.ToResponse())
	}
	return out
}

func newError(code Code, corr Correlation, ctx map[string]any) ValidationError {
	return ValidationError{
		Code:        code,
		Message:     code.DefaultMessage(),
		Context:     ctx,
		Correlation: corr,
	}
}

// EmptyList is reported when a batch has no images at all
func EmptyList() ValidationError {
	return newError(CodeEmptyList, Correlation{}, map[string]any{})
}

// InvalidImage is reported for a null entry in a batch
func InvalidImage() ValidationError {
	return newError(CodeInvalidImage, Correlation{}, map[string]any{})
}

// ImageNotFound is reported for a referenced id that does not exist
func ImageNotFound(id int64) ValidationError {
	e := newError(CodeImageNotFound, ByID(id), map[string]any{KeyID: id})
	e.Message = strings.Replace(e.Message, "{id}", strconv.FormatInt(id, 10), 1)
	return e
}

// InternalServerError is the generic error for failures outside validation
func InternalServerError() ValidationError {
	return newError(CodeInternalServerError, Correlation{}, map[string]any{})
}

// NoValidImages is reported when every image of a batch was rejected
func NoValidImages() ValidationError {
	return newError(CodeNoValidImages, Correlation{}, map[string]any{})
}

// InternalValidationError converts a fault raised while validating into a
// single error carrying the fault's type name
func InternalValidationError(err error) ValidationError {
	msg := "<nil>"
	if err != nil {
		msg = err.Error()
	}
	e := newError(CodeInternalValidationError, Correlation{}, map[string]any{
		KeyException: FaultName(err),
	})
	e.Message += msg
	return e
}

// FaultName returns the type name of the root cause of err.
// Context cancellation is reported by cause rather than by type.
func FaultName(err error) string {
	switch {
	case err == nil:
		return "nil"
	case errors.Is(err, context.Canceled):
		return "ContextCanceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "DeadlineExceeded"
	}

	var pe *PanicError
	if errors.As(err, &pe) {
		return pe.Name()
	}

	for next := errors.Unwrap(err); next != nil; next = errors.Unwrap(err) {
		err = next
	}

	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// PanicError wraps a value recovered from a panicking validator
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Name returns the type name of a recovered error, or PanicError for other values
func (e *PanicError) Name() string {
	if err, ok := e.Value.(error); ok {
		return FaultName(err)
	}
	return "PanicError"
}
