package identity

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// EmailTokens is the persistence contract for one-time email login tokens.
type EmailTokens interface {
	InsertTx(ctx context.Context, tx bun.IDB, token *EmailToken) error

	// Redeem resolves an unexpired token and consumes it. Consumption is a
	// conditional delete checked by affected-row count, so of two concurrent
	// redemptions exactly one wins; the loser sees a not-found error.
	Redeem(ctx context.Context, token string, ttl time.Duration) (*EmailToken, error)

	// PurgeExpired removes tokens older than the validity window. The core
	// never calls this; it exists for operational cleanup.
	PurgeExpired(ctx context.Context, ttl time.Duration) (int64, error)
}

type emailTokens struct {
	db     *bun.DB
	prefix string
}

var _ EmailTokens = (*emailTokens)(nil)

func newEmailTokensRepository(db *bun.DB, prefix string) EmailTokens {
	return &emailTokens{db: db, prefix: prefix}
}

func (r *emailTokens) table() bun.Ident {
	return bun.Ident(r.prefix + "email_token")
}

func (r *emailTokens) InsertTx(ctx context.Context, tx bun.IDB, token *EmailToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	if token.CreatedAt == nil {
		now := time.Now()
		token.CreatedAt = &now
	}

	if _, err := tx.NewInsert().
		Model(token).
		ModelTableExpr("?", r.table()).
		Exec(ctx); err != nil {
		return wrapStorage(err, "failed to insert email token")
	}
	return nil
}

func (r *emailTokens) Redeem(ctx context.Context, token string, ttl time.Duration) (*EmailToken, error) {
	row := &EmailToken{}

	err := r.db.NewSelect().
		Model(row).
		ModelTableExpr("? AS etk", r.table()).
		Where("etk.token = ?", token).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errTokenNotFound
		}
		return nil, wrapStorage(err, "failed to query email token")
	}

	// an expired token reads as absent; the row stays for PurgeExpired
	if row.CreatedAt == nil {
		return nil, errTokenNotFound
	}
	expired, err := IsOutsideThresholdPeriod(*row.CreatedAt, ttl.String())
	if err != nil {
		return nil, wrapStorage(err, "failed to evaluate email token window")
	}
	if expired {
		return nil, errTokenNotFound
	}

	res, err := r.db.NewDelete().
		Model((*EmailToken)(nil)).
		ModelTableExpr("?", r.table()).
		Where("id = ?", row.ID).
		Exec(ctx)
	if err != nil {
		return nil, wrapStorage(err, "failed to consume email token")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, wrapStorage(err, "failed to confirm email token consumption")
	}
	if affected != 1 {
		// a concurrent redemption got there first
		return nil, errTokenNotFound
	}

	return row, nil
}

func (r *emailTokens) PurgeExpired(ctx context.Context, ttl time.Duration) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*EmailToken)(nil)).
		ModelTableExpr("?", r.table()).
		Where("created_at <= ?", time.Now().Add(-ttl)).
		Exec(ctx)
	if err != nil {
		return 0, wrapStorage(err, "failed to purge expired email tokens")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, wrapStorage(err, "failed to count purged email tokens")
	}
	return affected, nil
}
