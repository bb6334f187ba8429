package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ActivationResult is the four-way outcome of redeeming a group activation
// code. The values mirror HTTP response codes so API layers can pass them
// through directly.
type ActivationResult int

const (
	// ActivationNew means a membership row was created.
	ActivationNew ActivationResult = 200
	// ActivationAlready means the user already belongs to the group.
	ActivationAlready ActivationResult = 304
	// ActivationWrongToken means no activation token matched within its
	// validity window.
	ActivationWrongToken ActivationResult = 401
	// ActivationFailed means the membership insert did not succeed.
	ActivationFailed ActivationResult = 500
)

func (a ActivationResult) String() string {
	switch a {
	case ActivationNew:
		return "new_activation"
	case ActivationAlready:
		return "already_activated"
	case ActivationWrongToken:
		return "wrong_token"
	case ActivationFailed:
		return "activation_failed"
	}
	return fmt.Sprintf("ActivationResult(%d)", int(a))
}

// GroupAuthority answers group-membership queries and redeems activation
// codes. It keeps no state between calls; every answer is a pure function of
// current database contents, so two rapid calls may race.
type GroupAuthority interface {
	// GetGroupsByUserID returns the ids of the groups the user belongs to,
	// deduplicated and sorted. Duplicate membership rows are structurally
	// possible, so membership is treated as a set on read.
	GetGroupsByUserID(ctx context.Context, userID uuid.UUID) ([]int64, error)

	// AddUserToGroup inserts a membership row and reports whether the insert
	// succeeded. It does not check for an existing duplicate.
	AddUserToGroup(ctx context.Context, userID uuid.UUID, groupID int64) (bool, error)

	// RemoveUserFromGroup deletes matching membership rows. Deleting zero
	// rows is not an error.
	RemoveUserFromGroup(ctx context.Context, userID uuid.UUID, groupID int64) error

	// ActivateGroupByToken redeems an activation code for the user.
	ActivateGroupByToken(ctx context.Context, userID uuid.UUID, token string) (ActivationResult, error)
}

type groupAuthority struct {
	db     *bun.DB
	prefix string
	logger Logger
}

var _ GroupAuthority = (*groupAuthority)(nil)

// NewGroupAuthority builds a GroupAuthority over the given database. The
// prefix is applied to every table name, matching the repository manager.
func NewGroupAuthority(db *bun.DB, prefix string) GroupAuthority {
	return &groupAuthority{db: db, prefix: prefix, logger: defLogger{}}
}

func (g *groupAuthority) table(name string) bun.Ident {
	return bun.Ident(g.prefix + name)
}

func (g *groupAuthority) GetGroupsByUserID(ctx context.Context, userID uuid.UUID) ([]int64, error) {
	var ids []int64
	err := g.db.NewSelect().
		ColumnExpr("DISTINCT ugr.group_id").
		TableExpr("? AS grp", g.table("groups")).
		Join("INNER JOIN ? AS ugr ON grp.id = ugr.group_id", g.table("user_group")).
		Where("ugr.user_id = ?", userID).
		Scan(ctx, &ids)
	if err != nil {
		return nil, wrapStorage(err, "failed to query group memberships")
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}

func (g *groupAuthority) AddUserToGroup(ctx context.Context, userID uuid.UUID, groupID int64) (bool, error) {
	now := time.Now()
	row := &GroupMembership{
		ID:        uuid.New(),
		UserID:    userID,
		GroupID:   groupID,
		CreatedAt: &now,
	}

	res, err := g.db.NewInsert().
		Model(row).
		ModelTableExpr("?", g.table("user_group")).
		Exec(ctx)
	if err != nil {
		return false, wrapStorage(err, "failed to insert group membership")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, wrapStorage(err, "failed to confirm group membership insert")
	}
	return affected == 1, nil
}

func (g *groupAuthority) RemoveUserFromGroup(ctx context.Context, userID uuid.UUID, groupID int64) error {
	if _, err := g.db.NewDelete().
		Model((*GroupMembership)(nil)).
		ModelTableExpr("?", g.table("user_group")).
		Where("user_id = ?", userID).
		Where("group_id = ?", groupID).
		Exec(ctx); err != nil {
		return wrapStorage(err, "failed to remove group membership")
	}
	return nil
}

func (g *groupAuthority) ActivateGroupByToken(ctx context.Context, userID uuid.UUID, token string) (ActivationResult, error) {
	activation := &GroupActivationToken{}
	now := time.Now()

	err := g.db.NewSelect().
		Model(activation).
		ModelTableExpr("? AS gat", g.table("group_activation_tokens")).
		Where("gat.token = ?", token).
		Where("gat.valid_from <= ?", now).
		Where("gat.valid_to >= ?", now).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ActivationWrongToken, nil
		}
		return ActivationFailed, wrapStorage(err, "failed to query group activation token")
	}

	exists, err := g.db.NewSelect().
		Model((*GroupMembership)(nil)).
		ModelTableExpr("? AS ugr", g.table("user_group")).
		Where("ugr.user_id = ?", userID).
		Where("ugr.group_id = ?", activation.GroupID).
		Exists(ctx)
	if err != nil {
		return ActivationFailed, wrapStorage(err, "failed to check existing membership")
	}
	if exists {
		return ActivationAlready, nil
	}

	created, err := g.AddUserToGroup(ctx, userID, activation.GroupID)
	if err != nil {
		return ActivationFailed, err
	}
	if !created {
		return ActivationFailed, nil
	}

	g.logger.Debug("group activation user=%s group=%d", userID, activation.GroupID)
	return ActivationNew, nil
}
