package identity

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Sessions is the persistence contract for session and remember-me tokens.
type Sessions interface {
	// InsertPair creates the session token row and the remember-me token row
	// together, the way every login does.
	InsertPair(ctx context.Context, userID uuid.UUID, sessionToken, rememberToken string) error

	// ResolveToken returns the session row matching the token whose last use
	// falls within the sliding window, refreshing updated_at on success. The
	// cutoff is truncated to the top of the hour to stay cache friendly.
	ResolveToken(ctx context.Context, token string, windowDays int) (*SessionToken, error)

	DeleteToken(ctx context.Context, token string) error
	DeleteUserToken(ctx context.Context, userID uuid.UUID, token string) error
}

type sessions struct {
	db     *bun.DB
	prefix string
}

var _ Sessions = (*sessions)(nil)

func newSessionsRepository(db *bun.DB, prefix string) Sessions {
	return &sessions{db: db, prefix: prefix}
}

func (r *sessions) table() bun.Ident {
	return bun.Ident(r.prefix + "session_user")
}

func (r *sessions) InsertPair(ctx context.Context, userID uuid.UUID, sessionToken, rememberToken string) error {
	now := time.Now()
	rows := []*SessionToken{
		{ID: uuid.New(), UserID: userID, Token: sessionToken, CreatedAt: &now, UpdatedAt: &now},
		{ID: uuid.New(), UserID: userID, Token: rememberToken, CreatedAt: &now, UpdatedAt: &now},
	}

	if _, err := r.db.NewInsert().
		Model(&rows).
		ModelTableExpr("?", r.table()).
		Exec(ctx); err != nil {
		return wrapStorage(err, "failed to insert session token pair")
	}
	return nil
}

func (r *sessions) ResolveToken(ctx context.Context, token string, windowDays int) (*SessionToken, error) {
	row := &SessionToken{}
	cutoff := slidingWindowCutoff(time.Now(), windowDays)

	err := r.db.NewSelect().
		Model(row).
		ModelTableExpr("? AS ses", r.table()).
		Where("ses.token = ?", token).
		Where("ses.updated_at > ?", cutoff).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errTokenNotFound
		}
		return nil, wrapStorage(err, "failed to query session token")
	}

	// Refresh on every successful validation. Refreshing only when the prior
	// update is older than some threshold would cut write load; deferred.
	if _, err := r.db.NewUpdate().
		Model((*SessionToken)(nil)).
		ModelTableExpr("?", r.table()).
		Set("updated_at = ?", time.Now()).
		Where("token = ?", token).
		Exec(ctx); err != nil {
		return nil, wrapStorage(err, "failed to refresh session token")
	}

	return row, nil
}

func (r *sessions) DeleteToken(ctx context.Context, token string) error {
	if _, err := r.db.NewDelete().
		Model((*SessionToken)(nil)).
		ModelTableExpr("?", r.table()).
		Where("token = ?", token).
		Exec(ctx); err != nil {
		return wrapStorage(err, "failed to delete session token")
	}
	return nil
}

func (r *sessions) DeleteUserToken(ctx context.Context, userID uuid.UUID, token string) error {
	if _, err := r.db.NewDelete().
		Model((*SessionToken)(nil)).
		ModelTableExpr("?", r.table()).
		Where("user_id = ?", userID).
		Where("token = ?", token).
		Exec(ctx); err != nil {
		return wrapStorage(err, "failed to delete user session token")
	}
	return nil
}
