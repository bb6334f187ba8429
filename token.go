package identity

import (
	"crypto/rand"
	"encoding/hex"

	goerrors "github.com/goliatone/go-errors"
)

// tokenByteLength yields 32 hex characters per token, the same entropy the
// original scheme used for email and remember-me tokens.
const tokenByteLength = 16

// RandomTokenGenerator produces cryptographically random opaque tokens.
type RandomTokenGenerator struct{}

// NewTokenGenerator returns the default TokenGenerator.
func NewTokenGenerator() TokenGenerator {
	return RandomTokenGenerator{}
}

// Generate implements TokenGenerator.
func (RandomTokenGenerator) Generate() (string, error) {
	buf := make([]byte, tokenByteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read random bytes for token")
	}
	return hex.EncodeToString(buf), nil
}
