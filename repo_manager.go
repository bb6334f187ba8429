package identity

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories backing the credential store.
// The configured table prefix is applied to every query issued by every
// repository, supporting multi-tenant schema isolation.
type RepositoryManager interface {
	Validate() error
	MustValidate()
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
	Users() Users
	EmailTokens() EmailTokens
	Sessions() Sessions
	Groups() GroupAuthority
}

type mngr struct {
	db          *bun.DB
	prefix      string
	users       Users
	emailTokens EmailTokens
	sessions    Sessions
	groups      GroupAuthority
}

// RepositoryOption configures the repository manager.
type RepositoryOption func(*mngr)

// WithTablePrefix prefixes every table name in every query, e.g.
// WithTablePrefix("acme_") makes the users repository read acme_users.
func WithTablePrefix(prefix string) RepositoryOption {
	return func(m *mngr) {
		m.prefix = prefix
	}
}

func NewRepositoryManager(db *bun.DB, opts ...RepositoryOption) RepositoryManager {
	m := &mngr{db: db}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	m.users = newUsersRepository(db, m.prefix)
	m.emailTokens = newEmailTokensRepository(db, m.prefix)
	m.sessions = newSessionsRepository(db, m.prefix)
	m.groups = NewGroupAuthority(db, m.prefix)

	return m
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.emailTokens == nil {
		return errors.New("repository emailTokens should be initialized")
	}

	if m.sessions == nil {
		return errors.New("repository sessions should be initialized")
	}

	if m.groups == nil {
		return errors.New("repository groups should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) EmailTokens() EmailTokens {
	return m.emailTokens
}

func (m mngr) Sessions() Sessions {
	return m.sessions
}

func (m mngr) Groups() GroupAuthority {
	return m.groups
}
