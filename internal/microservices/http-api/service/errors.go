package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrTitleNotFound    = errors.New("title not found")
	ErrReviewNotFound   = errors.New("review not found")
	ErrCommentNotFound  = errors.New("comment not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrGenreNotFound    = errors.New("genre not found")

	ErrUnauthenticated         = errors.New("authentication credentials were not provided")
	ErrForbidden               = errors.New("you do not have permission to perform this action")
	ErrInvalidToken            = errors.New("invalid token")
	ErrInvalidConfirmationCode = errors.New("invalid confirmation code")
	ErrMailDelivery            = errors.New("confirmation mail could not be delivered")
)

// NonFieldErrors keys validation messages that concern the whole object.
const NonFieldErrors = "non_field_errors"

// ValidationError carries per-field messages, rendered as a 400 response.
type ValidationError struct {
	Fields map[string][]string
}

// NewFieldError builds a ValidationError with a single message.
func NewFieldError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {msg}}}
}

// Add appends msg to field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// OrNil returns nil when no messages were added.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
