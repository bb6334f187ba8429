// Package social resolves trusted external identities: each provider
// implementation exchanges a provider bearer token for a verified email
// claim, which the identity manager turns into a local login.
package social

import (
	"context"
	"sort"
	"sync"
)

// Payload is the verified identity claim a resolver returns. A resolver
// never returns a partially trusted payload: either verification passed and
// Email is populated, or the resolver errors.
type Payload struct {
	// Email is the provider-verified email address.
	Email string
	// EmailVerified reports whether the provider asserts ownership of the
	// address. Providers that only return verified addresses set it true.
	EmailVerified bool
	// Subject is the provider's stable user identifier.
	Subject string
	// Name is the display name, when the provider shares one.
	Name string
	// Raw carries the full provider response for callers that need more.
	Raw map[string]any
}

// Resolver exchanges a provider bearer token for a verified email claim.
// Implementations call their provider's verification endpoint (or verify
// locally) and must validate provider-specific claims before returning.
type Resolver interface {
	// Name returns the provider discriminator (e.g. "google", "facebook").
	Name() string

	// AuthTokenToPayload verifies the bearer token and returns the identity
	// claim. Any verification failure is an error; no partial payloads.
	AuthTokenToPayload(ctx context.Context, authToken string) (*Payload, error)
}

// Registry selects resolvers by their string discriminator.
type Registry struct {
	mu        sync.RWMutex
	resolvers map[string]Resolver
}

// NewRegistry builds a registry with the given resolvers pre-registered.
func NewRegistry(resolvers ...Resolver) *Registry {
	r := &Registry{resolvers: make(map[string]Resolver)}
	for _, resolver := range resolvers {
		r.Register(resolver)
	}
	return r
}

// Register adds or replaces a resolver under its own name.
func (r *Registry) Register(resolver Resolver) {
	if resolver == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers[resolver.Name()] = resolver
}

// Get returns the resolver for the given provider name.
func (r *Registry) Get(name string) (Resolver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	resolver, ok := r.resolvers[name]
	if !ok {
		return nil, ErrProviderNotFound
	}
	return resolver, nil
}

// Names lists the registered provider names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.resolvers))
	for name := range r.resolvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
