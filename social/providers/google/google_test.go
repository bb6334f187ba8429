package google_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seablast/go-identity/social"
	"github.com/seablast/go-identity/social/providers/google"
)

const testClientID = "client-123.apps.googleusercontent.com"

func tokenInfoServer(t *testing.T, status int, body map[string]string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.URL.Query().Get("id_token"))
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
}

func TestGoogleResolverName(t *testing.T) {
	resolver := google.New(google.Config{ClientID: testClientID})
	assert.Equal(t, "google", resolver.Name())
}

func TestGoogleRequiresClientID(t *testing.T) {
	resolver := google.New(google.Config{})

	_, err := resolver.AuthTokenToPayload(context.Background(), "some-token")
	assert.ErrorIs(t, err, social.ErrProviderNotConfigured)
}

func TestGoogleTokenInfoSuccess(t *testing.T) {
	server := tokenInfoServer(t, http.StatusOK, map[string]string{
		"aud":            testClientID,
		"iss":            "https://accounts.google.com",
		"sub":            "1093840391",
		"email":          "alice@example.com",
		"email_verified": "true",
		"name":           "Alice",
	})
	defer server.Close()

	resolver := google.New(google.Config{
		ClientID:     testClientID,
		TokenInfoURL: server.URL,
	})

	payload, err := resolver.AuthTokenToPayload(context.Background(), "id-token")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", payload.Email)
	assert.True(t, payload.EmailVerified)
	assert.Equal(t, "1093840391", payload.Subject)
	assert.Equal(t, "Alice", payload.Name)
}

func TestGoogleTokenInfoRejected(t *testing.T) {
	server := tokenInfoServer(t, http.StatusBadRequest, map[string]string{
		"error":             "invalid_token",
		"error_description": "Invalid Value",
	})
	defer server.Close()

	resolver := google.New(google.Config{
		ClientID:     testClientID,
		TokenInfoURL: server.URL,
	})

	_, err := resolver.AuthTokenToPayload(context.Background(), "garbage")
	assert.ErrorIs(t, err, social.ErrInvalidToken)
}

func TestGoogleTokenInfoAudienceMismatch(t *testing.T) {
	server := tokenInfoServer(t, http.StatusOK, map[string]string{
		"aud":   "someone-else.apps.googleusercontent.com",
		"iss":   "https://accounts.google.com",
		"email": "alice@example.com",
	})
	defer server.Close()

	resolver := google.New(google.Config{
		ClientID:     testClientID,
		TokenInfoURL: server.URL,
	})

	_, err := resolver.AuthTokenToPayload(context.Background(), "id-token")
	assert.ErrorIs(t, err, social.ErrClaimMismatch)
}

func TestGoogleTokenInfoIssuerMismatch(t *testing.T) {
	server := tokenInfoServer(t, http.StatusOK, map[string]string{
		"aud":   testClientID,
		"iss":   "https://evil.example.com",
		"email": "alice@example.com",
	})
	defer server.Close()

	resolver := google.New(google.Config{
		ClientID:     testClientID,
		TokenInfoURL: server.URL,
	})

	_, err := resolver.AuthTokenToPayload(context.Background(), "id-token")
	assert.ErrorIs(t, err, social.ErrClaimMismatch)
}

func TestGoogleTokenInfoMissingEmail(t *testing.T) {
	server := tokenInfoServer(t, http.StatusOK, map[string]string{
		"aud": testClientID,
		"iss": "https://accounts.google.com",
		"sub": "1093840391",
	})
	defer server.Close()

	resolver := google.New(google.Config{
		ClientID:     testClientID,
		TokenInfoURL: server.URL,
	})

	_, err := resolver.AuthTokenToPayload(context.Background(), "id-token")
	assert.ErrorIs(t, err, social.ErrMissingEmail)
}

// jwksServer serves the public half of key as a single-entry JWKS.
func jwksServer(t *testing.T, key *rsa.PrivateKey, kid string) *httptest.Server {
	t.Helper()

	jwks := map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"use": "sig",
			"alg": "RS256",
			"kid": kid,
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}},
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(jwks)
	}))
}

func signIDToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid

	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestGoogleLocalVerification(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	server := jwksServer(t, key, "test-key")
	defer server.Close()

	resolver := google.New(google.Config{
		ClientID: testClientID,
		JWKSURL:  server.URL,
	})

	idToken := signIDToken(t, key, "test-key", jwt.MapClaims{
		"aud":            testClientID,
		"iss":            "https://accounts.google.com",
		"sub":            "1093840391",
		"email":          "alice@example.com",
		"email_verified": true,
		"name":           "Alice",
		"exp":            time.Now().Add(time.Hour).Unix(),
		"iat":            time.Now().Unix(),
	})

	payload, err := resolver.AuthTokenToPayload(context.Background(), idToken)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", payload.Email)
	assert.True(t, payload.EmailVerified)
	assert.Equal(t, "1093840391", payload.Subject)
}

func TestGoogleLocalVerificationExpired(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	server := jwksServer(t, key, "test-key")
	defer server.Close()

	resolver := google.New(google.Config{
		ClientID: testClientID,
		JWKSURL:  server.URL,
	})

	idToken := signIDToken(t, key, "test-key", jwt.MapClaims{
		"aud":   testClientID,
		"iss":   "https://accounts.google.com",
		"email": "alice@example.com",
		"exp":   time.Now().Add(-time.Hour).Unix(),
	})

	_, err = resolver.AuthTokenToPayload(context.Background(), idToken)
	assert.ErrorIs(t, err, social.ErrInvalidToken)
}

func TestGoogleLocalVerificationWrongKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	server := jwksServer(t, key, "test-key")
	defer server.Close()

	resolver := google.New(google.Config{
		ClientID: testClientID,
		JWKSURL:  server.URL,
	})

	idToken := signIDToken(t, otherKey, "test-key", jwt.MapClaims{
		"aud":   testClientID,
		"iss":   "https://accounts.google.com",
		"email": "alice@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	_, err = resolver.AuthTokenToPayload(context.Background(), idToken)
	assert.ErrorIs(t, err, social.ErrInvalidToken)
}

func TestGoogleLocalVerificationIssuerMismatch(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	server := jwksServer(t, key, "test-key")
	defer server.Close()

	resolver := google.New(google.Config{
		ClientID: testClientID,
		JWKSURL:  server.URL,
	})

	idToken := signIDToken(t, key, "test-key", jwt.MapClaims{
		"aud":   testClientID,
		"iss":   "https://evil.example.com",
		"email": "alice@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	_, err = resolver.AuthTokenToPayload(context.Background(), idToken)
	assert.ErrorIs(t, err, social.ErrClaimMismatch)
}
