package service

import "errors"

var (
	// ErrNotFound covers lookups for entities that do not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredentials is returned on login with a wrong email or
	// password. Deliberately indistinguishable between the two.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnreachable marks a store that could not be contacted. Retryable
	// by the caller; nothing in the service layer retries implicitly.
	ErrUnreachable = errors.New("record store unreachable")

	// ErrInvalidGrade rejects a grade value outside the allowed scale.
	ErrInvalidGrade = errors.New("invalid grade value")

	// ErrInvalidDate rejects a date that does not parse as YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")

	// ErrBadTransition rejects a journal intent that is not legal in the
	// session's current state.
	ErrBadTransition = errors.New("intent not allowed in current state")

	// ErrSessionClosed rejects intents sent after the session ended.
	ErrSessionClosed = errors.New("session closed")
)
