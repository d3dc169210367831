// Package common defines shared constants and sentinel errors used across
// the server and the admin CLI. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrStorageUnavailable marks transient infrastructure faults. It is the
	// only category a caller may retry; the services never retry on their own.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrForbidden is returned when an authenticated caller is not an admin.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation reports a missing or malformed e-mail, content id or tier.
	ErrValidation = errors.New("validation error")

	// ErrNotAllowed is returned when the e-mail is unknown to the tier registry.
	ErrNotAllowed = errors.New("user not allowed")

	// ErrInvalidOrExpired collapses every magic-link verification failure
	// (unknown, mismatch, already used, expired) into one kind.
	ErrInvalidOrExpired = errors.New("invalid or expired magic link")

	// ErrConflict is reported when a tier change is a no-op or a downgrade.
	ErrConflict = errors.New("tier change not applied")

	// Session token errors.
	ErrInvalidToken = errors.New("invalid token")
)
