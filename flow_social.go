package identity

import (
	"context"
	"net/http"

	"github.com/seablast/go-identity/social"
)

// SocialLoginResult is what the social login API hands back to its JSON
// layer. StatusCode mirrors the HTTP response the caller should emit.
type SocialLoginResult struct {
	StatusCode int    `json:"httpCode"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// SocialLoginFlow receives a provider discriminator plus a bearer token and
// turns a verified email claim into a local login. A social login overrides
// whatever login is current: if the caller is authenticated it is logged out
// first, and a failed verification leaves the caller logged out.
type SocialLoginFlow struct {
	manager  *Manager
	registry *social.Registry
	logger   Logger
}

// NewSocialLoginFlow wires the social login flow.
func NewSocialLoginFlow(manager *Manager, registry *social.Registry) *SocialLoginFlow {
	return &SocialLoginFlow{
		manager:  manager,
		registry: registry,
		logger:   defLogger{},
	}
}

func (f *SocialLoginFlow) WithLogger(logger Logger) *SocialLoginFlow {
	if logger != nil {
		f.logger = logger
	}
	return f
}

// Resolve verifies the bearer token with the named provider and logs the
// resolved email in. Outcomes that are the caller's fault (missing token,
// unsupported provider, rejected verification) come back as non-200 results,
// not errors; storage failures come back as errors.
func (f *SocialLoginFlow) Resolve(ctx context.Context, sctx SessionContext, provider, authToken string) (*SocialLoginResult, error) {
	authenticated, err := f.manager.IsAuthenticated(ctx, sctx)
	if err != nil {
		return nil, err
	}
	if authenticated {
		if err := f.manager.Logout(ctx, sctx); err != nil {
			return nil, err
		}
	}

	if authToken == "" {
		return &SocialLoginResult{StatusCode: http.StatusUnauthorized, Message: "Missing or invalid auth token"}, nil
	}
	if provider == "" {
		return &SocialLoginResult{StatusCode: http.StatusUnauthorized, Message: "Missing provider"}, nil
	}

	resolver, err := f.registry.Get(provider)
	if err != nil {
		return &SocialLoginResult{StatusCode: http.StatusUnauthorized, Message: "Unsupported provider"}, nil
	}

	payload, err := resolver.AuthTokenToPayload(ctx, authToken)
	if err != nil {
		f.logger.Error("social verification failed for provider %s: %v", provider, err)
		return &SocialLoginResult{StatusCode: http.StatusForbidden, Message: "Invalid ID token"}, nil
	}
	if payload == nil || payload.Email == "" {
		return &SocialLoginResult{StatusCode: http.StatusUnauthorized, Message: "Missing email for ID token"}, nil
	}

	if err := f.manager.LoginWithTrustedEmail(ctx, sctx, payload.Email); err != nil {
		if IsValidationError(err) {
			return &SocialLoginResult{StatusCode: http.StatusUnauthorized, Message: "Missing email for ID token"}, nil
		}
		return nil, err
	}

	return &SocialLoginResult{
		StatusCode: http.StatusOK,
		Message:    "Login successful - " + provider,
		Success:    true,
	}, nil
}
