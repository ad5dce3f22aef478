package models

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

const (
	MinScore = 1
	MaxScore = 10

	// ReservedUsername is the path segment of the self-service profile.
	ReservedUsername = "me"
)

var (
	ErrBlankText        = errors.New("this field may not be blank")
	ErrYearInFuture     = errors.New("release year cannot be greater than the current year")
	ErrScoreOutOfRange  = errors.New("score must be an integer between 1 and 10")
	ErrReservedUsername = errors.New("username \"me\" is reserved")
	ErrInvalidUsername  = errors.New("username may contain only letters, digits and @/./+/-/_")
	ErrInvalidSlug      = errors.New("slug may contain only letters, digits, hyphens and underscores")
)

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// ValidateNotBlank rejects empty and whitespace-only text.
func ValidateNotBlank(value string) error {
	if strings.TrimSpace(value) == "" {
		return ErrBlankText
	}
	return nil
}

// ValidateYear rejects release years after the calendar year of now.
func ValidateYear(year int, now time.Time) error {
	if year > now.Year() {
		return ErrYearInFuture
	}
	return nil
}

func ValidateScore(score int) error {
	if score < MinScore || score > MaxScore {
		return ErrScoreOutOfRange
	}
	return nil
}

func ValidateUsername(username string) error {
	if username == ReservedUsername {
		return ErrReservedUsername
	}
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

func ValidateSlug(slug string) error {
	if !slugPattern.MatchString(slug) {
		return ErrInvalidSlug
	}
	return nil
}
