package identity

import "time"

// MemorySessionContext is a SessionContext held entirely in memory. It backs
// tests and non-HTTP callers (CLIs, workers) that drive the Manager without
// a cookie transport. The zero value is usable and reports an insecure
// transport; set TransportSecure to model HTTPS.
type MemorySessionContext struct {
	TransportSecure bool

	sessionID    string
	hasSessionID bool
	rememberMe   string
	hasRemember  bool

	// RememberMeTTL records the lifetime of the last remember-me cookie set,
	// so tests can assert the 30-day expiry contract.
	RememberMeTTL time.Duration
}

var _ SessionContext = (*MemorySessionContext)(nil)

func (c *MemorySessionContext) SessionID() (string, bool) {
	return c.sessionID, c.hasSessionID
}

func (c *MemorySessionContext) SetSessionID(id string) {
	c.sessionID = id
	c.hasSessionID = true
}

func (c *MemorySessionContext) ClearSessionID() {
	c.sessionID = ""
	c.hasSessionID = false
}

func (c *MemorySessionContext) RememberMeToken() (string, bool) {
	return c.rememberMe, c.hasRemember
}

func (c *MemorySessionContext) SetRememberMeToken(token string, ttl time.Duration) {
	c.rememberMe = token
	c.hasRemember = true
	c.RememberMeTTL = ttl
}

func (c *MemorySessionContext) ClearRememberMeToken() {
	c.rememberMe = ""
	c.hasRemember = false
	c.RememberMeTTL = 0
}

func (c *MemorySessionContext) Secure() bool {
	return c.TransportSecure
}
