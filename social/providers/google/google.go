// Package google verifies Google ID tokens and resolves them to an email
// claim. Verification runs either against the tokeninfo endpoint (one
// network round-trip per login, the simple default) or locally against
// Google's JWKS when a JWKSURL is configured. Either way the audience and
// issuer must match configured expectations before an email is returned.
package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/seablast/go-identity/social"
)

const (
	defaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
	defaultJWKSURL      = "https://www.googleapis.com/oauth2/v3/certs"
)

func defaultIssuers() []string {
	return []string{"https://accounts.google.com", "accounts.google.com"}
}

// Config holds Google resolver configuration.
type Config struct {
	// ClientID is the OAuth client the ID token must be issued for. Required.
	ClientID string

	// TokenInfoURL overrides the tokeninfo endpoint (tests point it at a
	// local server).
	TokenInfoURL string

	// JWKSURL, when set, switches verification to local signature checks
	// against the JWKS at this URL instead of the tokeninfo round-trip.
	// VerifyLocally selects the well-known Google JWKS.
	JWKSURL       string
	VerifyLocally bool

	// Issuers overrides the accepted issuer values.
	Issuers []string

	HTTPClient *http.Client
}

// Resolver implements social.Resolver for Google.
type Resolver struct {
	config     Config
	httpClient *http.Client

	jwksOnce sync.Once
	jwks     *keyfunc.JWKS
	jwksErr  error
}

var _ social.Resolver = (*Resolver)(nil)

// New creates a Google resolver.
func New(cfg Config) *Resolver {
	if cfg.TokenInfoURL == "" {
		cfg.TokenInfoURL = defaultTokenInfoURL
	}
	if cfg.VerifyLocally && cfg.JWKSURL == "" {
		cfg.JWKSURL = defaultJWKSURL
	}
	if len(cfg.Issuers) == 0 {
		cfg.Issuers = defaultIssuers()
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Resolver{
		config:     cfg,
		httpClient: client,
	}
}

// Name implements social.Resolver.
func (r *Resolver) Name() string {
	return "google"
}

// AuthTokenToPayload implements social.Resolver.
func (r *Resolver) AuthTokenToPayload(ctx context.Context, idToken string) (*social.Payload, error) {
	if r.config.ClientID == "" {
		return nil, social.ErrProviderNotConfigured
	}

	if r.config.JWKSURL != "" {
		return r.verifyLocally(idToken)
	}
	return r.verifyRemotely(ctx, idToken)
}

func (r *Resolver) issuerAccepted(issuer string) bool {
	for _, iss := range r.config.Issuers {
		if issuer == iss {
			return true
		}
	}
	return false
}

type googleClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

func (r *Resolver) keyfunc() (jwt.Keyfunc, error) {
	r.jwksOnce.Do(func() {
		r.jwks, r.jwksErr = keyfunc.Get(r.config.JWKSURL, keyfunc.Options{
			Client:            r.httpClient,
			RefreshInterval:   time.Hour,
			RefreshRateLimit:  time.Minute * 5,
			RefreshTimeout:    time.Second * 10,
			RefreshUnknownKID: true,
		})
	})
	if r.jwksErr != nil {
		return nil, r.jwksErr
	}
	return r.jwks.Keyfunc, nil
}

func (r *Resolver) verifyLocally(idToken string) (*social.Payload, error) {
	kf, err := r.keyfunc()
	if err != nil {
		return nil, social.ErrInvalidToken
	}

	claims := &googleClaims{}
	token, err := jwt.ParseWithClaims(idToken, claims, kf,
		jwt.WithAudience(r.config.ClientID),
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, social.ErrInvalidToken
	}

	if !r.issuerAccepted(claims.Issuer) {
		return nil, social.ErrClaimMismatch
	}

	if claims.Email == "" {
		return nil, social.ErrMissingEmail
	}

	return &social.Payload{
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Subject:       claims.Subject,
		Name:          claims.Name,
		Raw: map[string]any{
			"aud":            r.config.ClientID,
			"iss":            claims.Issuer,
			"sub":            claims.Subject,
			"email":          claims.Email,
			"email_verified": claims.EmailVerified,
			"name":           claims.Name,
		},
	}, nil
}

type tokenInfoResponse struct {
	Aud           string `json:"aud"`
	Iss           string `json:"iss"`
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Error         string `json:"error"`
	ErrorDesc     string `json:"error_description"`
}

func (r *Resolver) verifyRemotely(ctx context.Context, idToken string) (*social.Payload, error) {
	endpoint := r.config.TokenInfoURL + "?" + url.Values{"id_token": {idToken}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, social.ErrInvalidToken
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, social.ErrInvalidToken
	}

	var info tokenInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, social.ErrInvalidToken
	}

	if resp.StatusCode != http.StatusOK || info.Error != "" {
		return nil, social.ErrInvalidToken
	}

	if info.Aud != r.config.ClientID || !r.issuerAccepted(info.Iss) {
		return nil, social.ErrClaimMismatch
	}

	if info.Email == "" {
		return nil, social.ErrMissingEmail
	}

	return &social.Payload{
		Email:         info.Email,
		EmailVerified: info.EmailVerified == "true",
		Subject:       info.Sub,
		Name:          info.Name,
		Raw: map[string]any{
			"aud":            info.Aud,
			"iss":            info.Iss,
			"sub":            info.Sub,
			"email":          info.Email,
			"email_verified": info.EmailVerified,
			"name":           info.Name,
		},
	}, nil
}
