package identity

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidEmail     = "identity_invalid_email"
	TextCodeStateUnpopulated = "identity_state_unpopulated"
	TextCodeNoActiveSession  = "identity_no_active_session"
	TextCodeUserNotFound     = "identity_user_not_found"
	TextCodeTokenNotFound    = "identity_token_not_found"
)

// ErrInvalidEmail is returned when login is attempted with a string that is
// not a syntactically valid email address. It is raised before any query.
var ErrInvalidEmail = goerrors.New("invalid email address", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidEmail).
	WithCode(goerrors.CodeBadRequest)

// ErrStateNotPopulated is returned by accessors called before a successful
// authentication path populated the corresponding state. Callers hitting this
// have a sequencing bug, not a data problem.
var ErrStateNotPopulated = goerrors.New("identity state not populated, authenticate first", goerrors.CategoryOperation).
	WithTextCode(TextCodeStateUnpopulated).
	WithCode(goerrors.CodeConflict)

// ErrNoActiveSession is returned by Logout when no session identifier exists.
var ErrNoActiveSession = goerrors.New("no active session", goerrors.CategoryConflict).
	WithTextCode(TextCodeNoActiveSession).
	WithCode(goerrors.CodeConflict)

// ErrUserNotFound is returned when a user row that the flow requires is
// missing, e.g. an email token referencing a deleted user.
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

var errTokenNotFound = goerrors.New("token not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeTokenNotFound).
	WithCode(goerrors.CodeNotFound)

// wrapStorage converts a low-level store failure into a StorageError. The
// in-progress operation is aborted; whatever already committed stays.
func wrapStorage(err error, msg string) error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg)
}

// IsValidationError reports whether err is a rejected-input precondition.
func IsValidationError(err error) bool {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.Category == goerrors.CategoryValidation
	}
	return false
}

// IsStateError reports whether err is an accessor-before-population error.
func IsStateError(err error) bool {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.TextCode == TextCodeStateUnpopulated
	}
	return false
}

// IsStorageError reports whether err originated in the credential store.
func IsStorageError(err error) bool {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.Category == goerrors.CategoryInternal
	}
	return false
}
