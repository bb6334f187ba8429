package identity

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// TokenGenerator produces opaque, unguessable credentials: email login
// tokens, session tokens, and remember-me tokens.
type TokenGenerator interface {
	Generate() (string, error)
}

// SessionContext is the per-request session and cookie access the Manager
// operates on. Implementations are request scoped; nothing here survives the
// request except what the implementation itself persists (a server-side
// session entry, a Set-Cookie header).
type SessionContext interface {
	// SessionID returns the caller-managed session identifier, if any.
	SessionID() (string, bool)
	SetSessionID(id string)
	ClearSessionID()

	// RememberMeToken returns the remember-me cookie value, if present.
	RememberMeToken() (string, bool)
	// SetRememberMeToken sets the persistent remember-me cookie. The cookie
	// carries path "/", the host-default domain, Secure, HttpOnly and the
	// given lifetime.
	SetRememberMeToken(token string, ttl time.Duration)
	// ClearRememberMeToken expires the remember-me cookie immediately.
	ClearRememberMeToken()

	// Secure reports whether the surrounding transport is confirmed secure.
	// Remember-me tokens are only honored when this is true.
	Secure() bool
}

// MailDispatcher delivers a message. Transport (SMTP, API, queue) is the
// caller's concern; the library only composes login mail through LoginMailer.
type MailDispatcher interface {
	Send(ctx context.Context, to, subject, body string) error
}

// CSRFValidator checks the anti-forgery token posted with the login form.
type CSRFValidator interface {
	Validate(token string) bool
}

// DefaultLogger returns the fallback stdout logger used when no Logger is
// configured.
func DefaultLogger() Logger {
	return defLogger{}
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] IDENTITY "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] IDENTITY "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] IDENTITY "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
