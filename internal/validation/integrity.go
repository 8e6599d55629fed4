package validation

import (
	"strconv"
	"strings"

	"github.com/slideshow/server/internal/models"
)

// IntegrityChecker validates the fields of a single image descriptor.
// It performs no I/O.
type IntegrityChecker struct{}

// NewIntegrityChecker creates a new IntegrityChecker
func NewIntegrityChecker() *IntegrityChecker {
	return &IntegrityChecker{}
}

// Check validates the URL and duration of a new image.
// Descriptors that reference an existing image by id are not checked.
func (c *IntegrityChecker) Check(img *models.ImageDescriptor) []ValidationError {
	if img == nil {
		return []ValidationError{InvalidImage()}
	}
	if img.ID != nil {
		return nil
	}

	hash := img.Hash()
	var errs []ValidationError
	if e := c.URLError(img.URL); e != nil {
		errs = append(errs, correlate(*e, hash))
	}
	if e := c.DurationError(img.Duration); e != nil {
		errs = append(errs, correlate(*e, hash))
	}
	return errs
}

// URLError returns the error for a missing, blank or too long URL, or nil
func (c *IntegrityChecker) URLError(url *string) *ValidationError {
	if url == nil || strings.TrimSpace(*url) == "" {
		e := newError(CodeInvalidURL, Correlation{}, map[string]any{})
		return &e
	}

	if length := models.URLLength(*url); length > models.MaxURLLength {
		e := newError(CodeInvalidURLLength, Correlation{}, map[string]any{
			KeyInvalidValue: strconv.Itoa(length),
		})
		e.Message = strings.Replace(e.Message, "{length}", strconv.Itoa(length), 1)
		return &e
	}

	return nil
}

// DurationError returns the error for a missing or out of range duration, or nil
func (c *IntegrityChecker) DurationError(d *int16) *ValidationError {
	if d != nil && models.ValidDuration(*d) {
		return nil
	}

	value := "null"
	if d != nil {
		value = strconv.Itoa(int(*d))
	}
	e := newError(CodeInvalidDuration, Correlation{}, map[string]any{
		KeyInvalidValue: value,
	})
	return &e
}

// InvalidType is reported when a URL does not resolve to a supported image type
func InvalidType(url string, hash uint64) ValidationError {
	return correlate(newError(CodeInvalidType, Correlation{}, map[string]any{
		KeyInvalidValue: url,
	}), hash)
}

// InvalidTypeForURL is the single-image form of InvalidType, which has no
// descriptor hash and is correlated by URL instead
func InvalidTypeForURL(url string) ValidationError {
	return newError(CodeInvalidType, ByURL(url), map[string]any{
		KeyInvalidValue: url,
	})
}

func correlate(e ValidationError, hash uint64) ValidationError {
	if e.Context == nil {
		e.Context = map[string]any{}
	}
	e.Context[KeyHash] = hash
	e.Correlation = ByHash(hash)
	return e
}
