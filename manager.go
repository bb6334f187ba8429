package identity

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Manager is the identity/session state machine. One instance handles one
// logical authentication flow per inbound request; it owns no cross-request
// state, all durable state lives in the RepositoryManager.
//
// State fields (email, role, user id, flags) are populated as a side effect
// of successful operations, never before. Accessors fail until then.
type Manager struct {
	repo           RepositoryManager
	tokens         TokenGenerator
	logger         Logger
	emailTokenTTL  time.Duration
	sessionWindow  int
	rememberWindow int
	firstLoginHook func(ctx context.Context, user *User) error

	authenticated bool
	newUser       *bool
	populated     bool
	email         string
	roleID        int64
	userID        uuid.UUID
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger overrides the default logger.
func WithLogger(logger Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithTokenGenerator overrides the default crypto/rand token generator.
func WithTokenGenerator(gen TokenGenerator) ManagerOption {
	return func(m *Manager) {
		if gen != nil {
			m.tokens = gen
		}
	}
}

// WithEmailTokenTTL overrides the 15-minute email token window.
func WithEmailTokenTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		if ttl > 0 {
			m.emailTokenTTL = ttl
		}
	}
}

// WithSessionWindow overrides the 1-day session sliding window.
func WithSessionWindow(days int) ManagerOption {
	return func(m *Manager) {
		if days > 0 {
			m.sessionWindow = days
		}
	}
}

// WithRememberWindow overrides the 30-day remember-me sliding window.
func WithRememberWindow(days int) ManagerOption {
	return func(m *Manager) {
		if days > 0 {
			m.rememberWindow = days
		}
	}
}

// WithFirstLoginHook registers a callback invoked right after a user row is
// created for a never-seen email, inside the same transaction scope as the
// creation. Products use it to seed per-user starter records.
func WithFirstLoginHook(hook func(ctx context.Context, user *User) error) ManagerOption {
	return func(m *Manager) {
		m.firstLoginHook = hook
	}
}

// NewManager returns a request-scoped identity Manager.
func NewManager(repo RepositoryManager, opts ...ManagerOption) *Manager {
	m := &Manager{
		repo:           repo,
		tokens:         NewTokenGenerator(),
		logger:         defLogger{},
		emailTokenTTL:  DefaultEmailTokenTTL,
		sessionWindow:  DefaultSessionWindowDays,
		rememberWindow: DefaultRememberWindowDays,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

func validEmail(email string) error {
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

// Login validates the email, resolves or creates the user, and returns a
// fresh one-time email token bound to that email. The email validation is a
// hard precondition: nothing is written for a malformed address. User
// creation and token insertion run in one transaction. No session is created.
func (m *Manager) Login(ctx context.Context, email string) (string, error) {
	if err := validEmail(email); err != nil {
		return "", err
	}

	token, err := m.tokens.Generate()
	if err != nil {
		return "", err
	}

	var created bool
	err = m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, wasCreated, err := m.repo.Users().GetOrCreateByEmailTx(ctx, tx, email)
		if err != nil {
			return err
		}
		created = wasCreated

		if created && m.firstLoginHook != nil {
			if err := m.firstLoginHook(ctx, user); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "first login hook failed")
			}
		}

		return m.repo.EmailTokens().InsertTx(ctx, tx, &EmailToken{
			Email: email,
			Token: token,
		})
	})
	if err != nil {
		return "", err
	}

	// only a committed transaction populates state
	m.newUser = &created

	m.logger.Debug("login token issued for %s (new user: %v)", email, created)
	return token, nil
}

// LoginWithTrustedEmail performs the same user resolution as Login but skips
// the email token roundtrip and creates the session immediately. The caller
// is responsible for having verified the email upstream (social resolver);
// no re-validation of trust happens here.
func (m *Manager) LoginWithTrustedEmail(ctx context.Context, sctx SessionContext, email string) error {
	if err := validEmail(email); err != nil {
		return err
	}

	var user *User
	var created bool
	err := m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, created, err = m.repo.Users().GetOrCreateByEmailTx(ctx, tx, email)
		if err != nil {
			return err
		}

		if created && m.firstLoginHook != nil {
			if err := m.firstLoginHook(ctx, user); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "first login hook failed")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	m.newUser = &created

	if err := m.repo.Users().TrackSuccessfulLogin(ctx, email); err != nil {
		return err
	}

	if err := m.populateAndCreateSession(ctx, sctx, user); err != nil {
		return err
	}

	m.authenticated = true
	return nil
}

// IsTokenValid redeems a one-time email token. A missing or expired token
// returns false with no side effect. A matched token is consumed, the user's
// last login refreshed, session state populated, and a session / remember-me
// pair created.
func (m *Manager) IsTokenValid(ctx context.Context, sctx SessionContext, emailToken string) (bool, error) {
	row, err := m.repo.EmailTokens().Redeem(ctx, emailToken, m.emailTokenTTL)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	if err := m.repo.Users().TrackSuccessfulLogin(ctx, row.Email); err != nil {
		return false, err
	}

	user, err := m.repo.Users().GetByEmail(ctx, row.Email)
	if err != nil {
		// the token referenced a user that no longer exists
		return false, err
	}

	if err := m.populateAndCreateSession(ctx, sctx, user); err != nil {
		return false, err
	}

	m.authenticated = true
	return true, nil
}

// IsAuthenticated resolves the caller's session identifier against the
// sliding 1-day window. Success populates email, role and user id from the
// user row and refreshes the session's updated_at; no new session is created.
func (m *Manager) IsAuthenticated(ctx context.Context, sctx SessionContext) (bool, error) {
	sid, ok := sctx.SessionID()
	if !ok {
		m.authenticated = false
		return false, nil
	}

	row, err := m.repo.Sessions().ResolveToken(ctx, sid, m.sessionWindow)
	if err != nil {
		m.authenticated = false
		if goerrors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	user, err := m.repo.Users().GetByID(ctx, row.UserID)
	if err != nil {
		m.authenticated = false
		return false, err
	}

	m.populate(user)
	m.authenticated = true
	return true, nil
}

// DoYouRememberMe attempts auto re-login from the remember-me cookie. It
// fails closed when the transport is not confirmed secure, regardless of
// cookie validity. On success the old remember-me row is deleted and a brand
// new session / remember-me pair created, so a stolen cookie is good for at
// most one use.
func (m *Manager) DoYouRememberMe(ctx context.Context, sctx SessionContext) (bool, error) {
	if !sctx.Secure() {
		return false, nil
	}

	token, ok := sctx.RememberMeToken()
	if !ok {
		return false, nil
	}

	row, err := m.repo.Sessions().ResolveToken(ctx, token, m.rememberWindow)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	// rotate: the old token must never resolve again
	if err := m.repo.Sessions().DeleteUserToken(ctx, row.UserID, token); err != nil {
		return false, err
	}

	user, err := m.repo.Users().GetByID(ctx, row.UserID)
	if err != nil {
		return false, err
	}

	if err := m.populateAndCreateSession(ctx, sctx, user); err != nil {
		return false, err
	}

	m.authenticated = true
	return true, nil
}

// Logout deletes the current session row, clears the session identifier, and
// removes the remember-me token from both store and cookie. Calling Logout
// without a session identifier is a precondition error; check
// IsAuthenticated first or accept ErrNoActiveSession.
func (m *Manager) Logout(ctx context.Context, sctx SessionContext) error {
	sid, ok := sctx.SessionID()
	if !ok {
		return ErrNoActiveSession
	}

	if err := m.repo.Sessions().DeleteToken(ctx, sid); err != nil {
		return err
	}
	sctx.ClearSessionID()

	if remember, ok := sctx.RememberMeToken(); ok {
		if err := m.repo.Sessions().DeleteToken(ctx, remember); err != nil {
			return err
		}
		sctx.ClearRememberMeToken()
	}

	m.authenticated = false
	return nil
}

// Email returns the authenticated user's email. It reflects only what the
// last successful operation populated; nothing is lazy loaded.
func (m *Manager) Email() (string, error) {
	if !m.populated {
		return "", ErrStateNotPopulated
	}
	return m.email, nil
}

// RoleID returns the authenticated user's role id.
func (m *Manager) RoleID() (int64, error) {
	if !m.populated {
		return 0, ErrStateNotPopulated
	}
	return m.roleID, nil
}

// UserID returns the authenticated user's id.
func (m *Manager) UserID() (uuid.UUID, error) {
	if !m.populated {
		return uuid.Nil, ErrStateNotPopulated
	}
	return m.userID, nil
}

// IsNewUser reports whether the user attempting to authenticate was created
// by this flow. It is tri-state: before any login resolution it errors.
func (m *Manager) IsNewUser() (bool, error) {
	if m.newUser == nil {
		return false, ErrStateNotPopulated
	}
	return *m.newUser, nil
}

// Groups returns the ids of the groups the authenticated user belongs to.
func (m *Manager) Groups(ctx context.Context) ([]int64, error) {
	if !m.populated {
		return nil, ErrStateNotPopulated
	}
	return m.repo.Groups().GetGroupsByUserID(ctx, m.userID)
}

func (m *Manager) populate(user *User) {
	m.email = user.Email
	m.roleID = user.RoleID
	m.userID = user.ID
	m.populated = true
}

func (m *Manager) populateAndCreateSession(ctx context.Context, sctx SessionContext, user *User) error {
	m.populate(user)

	sessionToken, err := m.tokens.Generate()
	if err != nil {
		return err
	}
	rememberToken, err := m.tokens.Generate()
	if err != nil {
		return err
	}

	if err := m.repo.Sessions().InsertPair(ctx, user.ID, sessionToken, rememberToken); err != nil {
		return err
	}

	sctx.SetSessionID(sessionToken)
	sctx.SetRememberMeToken(rememberToken, time.Duration(m.rememberWindow)*24*time.Hour)
	return nil
}
