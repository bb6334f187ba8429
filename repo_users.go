package identity

import (
	"context"
	"database/sql"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the persistence contract for user records.
type Users interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetOrCreateByEmail resolves the user for an email, creating the row
	// with the baseline role on first sight. The second return value reports
	// whether the row was created by this call.
	GetOrCreateByEmail(ctx context.Context, email string) (*User, bool, error)
	GetOrCreateByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, bool, error)

	// TrackSuccessfulLogin refreshes last_login for the given email.
	TrackSuccessfulLogin(ctx context.Context, email string) error
}

type users struct {
	db     *bun.DB
	prefix string
}

var _ Users = (*users)(nil)

func newUsersRepository(db *bun.DB, prefix string) Users {
	return &users{db: db, prefix: prefix}
}

func (r *users) table() bun.Ident {
	return bun.Ident(r.prefix + "users")
}

func (r *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getByEmail(ctx, r.db, email)
}

func (r *users) getByEmail(ctx context.Context, idb bun.IDB, email string) (*User, error) {
	user := &User{}
	err := idb.NewSelect().
		Model(user).
		ModelTableExpr("? AS usr", r.table()).
		Where("usr.email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, wrapStorage(err, "failed to query user by email")
	}
	return user, nil
}

func (r *users) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	user := &User{}
	err := r.db.NewSelect().
		Model(user).
		ModelTableExpr("? AS usr", r.table()).
		Where("usr.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, wrapStorage(err, "failed to query user by id")
	}
	return user, nil
}

func (r *users) GetOrCreateByEmail(ctx context.Context, email string) (*User, bool, error) {
	return r.GetOrCreateByEmailTx(ctx, r.db, email)
}

func (r *users) GetOrCreateByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, bool, error) {
	user, err := r.getByEmail(ctx, tx, email)
	if err == nil {
		return user, false, nil
	}
	if !goerrors.IsNotFound(err) {
		return nil, false, err
	}

	// The id derives deterministically from the email so a retried creation
	// lands on the same row instead of a duplicate.
	id, err := hashid.NewUUID(email)
	if err != nil {
		id = uuid.New()
	}

	now := time.Now()
	user = &User{
		ID:        id,
		Email:     email,
		RoleID:    DefaultRoleID,
		CreatedAt: &now,
	}

	if _, err := tx.NewInsert().
		Model(user).
		ModelTableExpr("?", r.table()).
		Exec(ctx); err != nil {
		return nil, false, wrapStorage(err, "failed to create user")
	}

	return user, true, nil
}

func (r *users) TrackSuccessfulLogin(ctx context.Context, email string) error {
	_, err := r.db.NewUpdate().
		Model((*User)(nil)).
		ModelTableExpr("?", r.table()).
		Set("last_login = ?", time.Now()).
		Where("email = ?", email).
		Exec(ctx)
	if err != nil {
		return wrapStorage(err, "failed to track successful login")
	}
	return nil
}
