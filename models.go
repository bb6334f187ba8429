package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	// RoleAdmin is the seeded administrator role id.
	RoleAdmin int64 = 1
	// RoleEditor is the seeded editor role id.
	RoleEditor int64 = 2
	// RoleUser is the seeded baseline role id, assigned to every new user.
	RoleUser int64 = 3
)

// DefaultRoleID is the role given to users created on first login attempt.
var DefaultRoleID = RoleUser

const (
	// DefaultEmailTokenTTL is the validity window of a one-time email token,
	// measured from its creation.
	DefaultEmailTokenTTL = 15 * time.Minute
	// DefaultSessionWindowDays is the sliding validity window of a session
	// token, measured from its last successful use.
	DefaultSessionWindowDays = 1
	// DefaultRememberWindowDays is the sliding validity window of a
	// remember-me token, measured from its last successful use.
	DefaultRememberWindowDays = 30
)

// SessionIdentifierKey is the session-context key under which the session
// identifier is stored by callers that namespace their session values.
const SessionIdentifierKey = "sbSessionToken"

// RememberMeCookieName is the name of the persistent remember-me cookie.
const RememberMeCookieName = "sbRememberMe"

// Role is static reference data seeded once (admin/editor/user). Read-only
// from this library's perspective.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:rol"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// User is created on the first login attempt for an unseen email and never
// deleted by this library. Email is unique; the role is always resolvable.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	RoleID        int64      `bun:"role_id,notnull" json:"role_id,omitempty"`
	Role          *Role      `bun:"rel:belongs-to,join:role_id=id" json:"role,omitempty"`
	LastLoginAt   *time.Time `bun:"last_login,nullzero" json:"last_login,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// EmailToken is the one-time credential embedded in a login URL. It is
// consumed by deletion on successful redemption; expired rows are left to
// external cleanup (EmailTokens.PurgeExpired).
type EmailToken struct {
	bun.BaseModel `bun:"table:email_token,alias:etk"`
	ID            uuid.UUID  `bun:"id,pk,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	Token         string     `bun:"token,notnull" json:"token,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// SessionToken is one row of the session_user table. Short-lived session
// tokens and long-lived remember-me tokens share the table and are
// distinguished only by how they are used; both rows are created together at
// login. UpdatedAt slides forward on every successful validation.
type SessionToken struct {
	bun.BaseModel `bun:"table:session_user,alias:ses"`
	ID            uuid.UUID  `bun:"id,pk,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	Token         string     `bun:"token,notnull,unique" json:"token,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Group is reference data managed outside this library.
type Group struct {
	bun.BaseModel `bun:"table:groups,alias:grp"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	NamePublic    string     `bun:"name_public,notnull" json:"name_public,omitempty"`
	InternalNotes *string    `bun:"internal_notes" json:"internal_notes,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// GroupMembership links a user to a group. The schema does not enforce
// uniqueness, so duplicate rows are structurally possible; reads dedupe.
type GroupMembership struct {
	bun.BaseModel `bun:"table:user_group,alias:ugr"`
	ID            uuid.UUID  `bun:"id,pk,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	GroupID       int64      `bun:"group_id,notnull" json:"group_id,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// GroupActivationToken is a redeemable code that joins a user to a group
// while now is within [ValidFrom, ValidTo]. Read-only here.
type GroupActivationToken struct {
	bun.BaseModel `bun:"table:group_activation_tokens,alias:gat"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	GroupID       int64      `bun:"group_id,notnull" json:"group_id,omitempty"`
	Token         string     `bun:"token,notnull,unique" json:"token,omitempty"`
	ValidFrom     time.Time  `bun:"valid_from,notnull" json:"valid_from,omitempty"`
	ValidTo       time.Time  `bun:"valid_to,notnull" json:"valid_to,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
