// Package facebook resolves Facebook access tokens to an email claim via
// the Graph API /me endpoint.
package facebook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/seablast/go-identity/social"
)

const defaultGraphURL = "https://graph.facebook.com/me"

// Config holds Facebook resolver configuration.
type Config struct {
	// AppID is the Facebook application id. Required; without it the
	// resolver refuses to verify anything.
	AppID string

	// GraphURL overrides the Graph API endpoint (tests point it at a local
	// server).
	GraphURL string

	HTTPClient *http.Client
}

// Resolver implements social.Resolver for Facebook.
type Resolver struct {
	config     Config
	httpClient *http.Client
}

var _ social.Resolver = (*Resolver)(nil)

// New creates a Facebook resolver.
func New(cfg Config) *Resolver {
	if cfg.GraphURL == "" {
		cfg.GraphURL = defaultGraphURL
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
	return "facebook"
}

type graphMeResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// AuthTokenToPayload implements social.Resolver.
func (r *Resolver) AuthTokenToPayload(ctx context.Context, accessToken string) (*social.Payload, error) {
	if r.config.AppID == "" {
		return nil, social.ErrProviderNotConfigured
	}

	endpoint := r.config.GraphURL + "?" + url.Values{
		"fields":       {"id,name,email"},
		"access_token": {accessToken},
	}.Encode()

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

	var me graphMeResponse
	if err := json.Unmarshal(body, &me); err != nil {
		return nil, social.ErrInvalidToken
	}

	if resp.StatusCode != http.StatusOK || me.Error != nil {
		return nil, social.ErrInvalidToken
	}

	if me.Email == "" {
		return nil, social.ErrMissingEmail
	}

	return &social.Payload{
		Email: me.Email,
		// Graph only returns addresses Facebook has confirmed
		EmailVerified: true,
		Subject:       me.ID,
		Name:          me.Name,
		Raw: map[string]any{
			"id":    me.ID,
			"name":  me.Name,
			"email": me.Email,
		},
	}, nil
}
