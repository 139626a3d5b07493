// Package businessflow contains the core business logic and use cases for the link shortening workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Short link errors
	ErrShortLinkNotFound = errors.New("short link not found")
	ErrLinkAccessDenied  = errors.New("short link access denied")

	// Create/update validation errors
	ErrInvalidOriginalURL = errors.New("original URL must be a valid absolute http(s) URL")
	ErrOriginalURLTooLong = errors.New("original URL must be at most 2048 characters")
	ErrExpiryNotFuture    = errors.New("expiration time must be in the future")
	ErrUpdateRequired     = errors.New("at least one field must be provided for update")

	// Custom slug errors, surfaced as field-level failures on custom_slug
	ErrSlugInvalidFormat = errors.New("slug must be 3-50 characters of letters, digits, hyphen or underscore")
	ErrSlugReserved      = errors.New("slug is reserved")
	ErrSlugTaken         = errors.New("slug is already taken")

	// Allocator errors
	ErrCodeAllocationExhausted = errors.New("short code namespace exhausted, allocation retries spent")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsShortLinkNotFound reports whether err resolves to a missing,
// inactive or expired link. Callers must answer all three with the same
// 404 so probing visitors learn nothing.
func IsShortLinkNotFound(err error) bool {
	return errors.Is(err, ErrShortLinkNotFound)
}

// IsAccessDenied reports whether err is an ownership/role rejection
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrLinkAccessDenied)
}

// SlugRejection maps a custom-slug validation error to its availability
// reason string, empty for unrelated errors.
func SlugRejection(err error) string {
	switch {
	case errors.Is(err, ErrSlugInvalidFormat):
		return "InvalidFormat"
	case errors.Is(err, ErrSlugReserved):
		return "Reserved"
	case errors.Is(err, ErrSlugTaken):
		return "AlreadyTaken"
	default:
		return ""
	}
}
