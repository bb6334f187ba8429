// Package fiberctx adapts a Fiber request to the identity.SessionContext
// interface: the session identifier lives in the server-side session store
// behind Fiber's session middleware, the remember-me token lives in a
// persistent cookie on the response.
package fiberctx

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	identity "github.com/seablast/go-identity"
)

// SessionContext implements identity.SessionContext over a Fiber request.
type SessionContext struct {
	ctx    *fiber.Ctx
	store  *session.Store
	logger identity.Logger
}

var _ identity.SessionContext = (*SessionContext)(nil)

// New wraps the given request. The store is the Fiber session middleware
// store the application already uses.
func New(c *fiber.Ctx, store *session.Store) *SessionContext {
	return &SessionContext{
		ctx:    c,
		store:  store,
		logger: identity.DefaultLogger(),
	}
}

func (s *SessionContext) WithLogger(logger identity.Logger) *SessionContext {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// SessionID implements identity.SessionContext.
func (s *SessionContext) SessionID() (string, bool) {
	sess, err := s.store.Get(s.ctx)
	if err != nil {
		s.logger.Error("session store get: %v", err)
		return "", false
	}

	id, ok := sess.Get(identity.SessionIdentifierKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// SetSessionID implements identity.SessionContext.
func (s *SessionContext) SetSessionID(id string) {
	sess, err := s.store.Get(s.ctx)
	if err != nil {
		s.logger.Error("session store get: %v", err)
		return
	}

	sess.Set(identity.SessionIdentifierKey, id)
	if err := sess.Save(); err != nil {
		s.logger.Error("session store save: %v", err)
	}
}

// ClearSessionID implements identity.SessionContext.
func (s *SessionContext) ClearSessionID() {
	sess, err := s.store.Get(s.ctx)
	if err != nil {
		s.logger.Error("session store get: %v", err)
		return
	}

	sess.Delete(identity.SessionIdentifierKey)
	if err := sess.Save(); err != nil {
		s.logger.Error("session store save: %v", err)
	}
}

// RememberMeToken implements identity.SessionContext.
func (s *SessionContext) RememberMeToken() (string, bool) {
	token := s.ctx.Cookies(identity.RememberMeCookieName)
	if token == "" {
		return "", false
	}
	return token, true
}

// SetRememberMeToken implements identity.SessionContext.
func (s *SessionContext) SetRememberMeToken(token string, ttl time.Duration) {
	s.ctx.Cookie(&fiber.Cookie{
		Name:     identity.RememberMeCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		Secure:   true,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearRememberMeToken implements identity.SessionContext.
func (s *SessionContext) ClearRememberMeToken() {
	s.ctx.Cookie(&fiber.Cookie{
		Name:     identity.RememberMeCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		Secure:   true,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Secure implements identity.SessionContext. It trusts the request scheme
// as Fiber reports it, which honors trusted-proxy configuration.
func (s *SessionContext) Secure() bool {
	return s.ctx.Secure()
}
