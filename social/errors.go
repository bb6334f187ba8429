package social

import "github.com/goliatone/go-errors"

const (
	TextCodeProviderNotFound      = "social_provider_not_found"
	TextCodeProviderNotConfigured = "social_provider_not_configured"
	TextCodeInvalidToken          = "social_invalid_token"
	TextCodeClaimMismatch         = "social_claim_mismatch"
	TextCodeMissingEmail          = "social_missing_email"
)

// ErrProviderNotFound is returned when a requested provider is not registered.
var ErrProviderNotFound = errors.New("social provider not found", errors.CategoryNotFound).
	WithTextCode(TextCodeProviderNotFound).
	WithCode(errors.CodeNotFound)

// ErrProviderNotConfigured is returned when a resolver is missing required
// configuration (client id, app id) and therefore refuses to verify anything.
var ErrProviderNotConfigured = errors.New("social provider not configured", errors.CategoryOperation).
	WithTextCode(TextCodeProviderNotConfigured).
	WithCode(errors.CodeConflict)

// ErrInvalidToken is returned when the provider rejects the bearer token or
// its signature cannot be verified.
var ErrInvalidToken = errors.New("invalid provider token", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(errors.CodeForbidden)

// ErrClaimMismatch is returned when a token verifies cryptographically but
// its audience or issuer does not match configured expectations.
var ErrClaimMismatch = errors.New("token claims do not match expectations", errors.CategoryAuth).
	WithTextCode(TextCodeClaimMismatch).
	WithCode(errors.CodeForbidden)

// ErrMissingEmail is returned when verification passed but the provider did
// not share an email claim.
var ErrMissingEmail = errors.New("missing email claim", errors.CategoryAuth).
	WithTextCode(TextCodeMissingEmail).
	WithCode(errors.CodeUnauthorized)
