package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"yamdb/internal/authz"
)

// ErrNotFound is wrapped by every "X not found" error below.
var ErrNotFound = errors.New("not found")

var (
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("category %w", ErrNotFound)
	ErrGenreNotFound    = fmt.Errorf("genre %w", ErrNotFound)
	ErrTitleNotFound    = fmt.Errorf("title %w", ErrNotFound)
	ErrReviewNotFound   = fmt.Errorf("review %w", ErrNotFound)
	ErrCommentNotFound  = fmt.Errorf("comment %w", ErrNotFound)
)

var (
	// ErrForbidden means the caller is authenticated but lacks permission.
	ErrForbidden = authz.ErrForbidden
	// ErrInvalidToken covers malformed, expired and orphaned bearer tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// ValidationError is a client error tied to one input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

var (
	ErrReviewExists     = newValidationError("", "you have already reviewed this title")
	ErrSelfReview       = newValidationError("", "author and title cannot share an identifier")
	ErrUsernameTaken    = newValidationError("username", "username already taken")
	ErrEmailTaken       = newValidationError("email", "email already taken")
	ErrReservedUsername = newValidationError("username", `username "me" is reserved`)
	ErrInvalidCode      = newValidationError("confirmation_code", "invalid confirmation code")
)

// notFound maps gorm's missing-row error to target and passes others through.
func notFound(err, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}
