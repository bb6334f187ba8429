package identity_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identity "github.com/seablast/go-identity"
)

func TestUsersGetOrCreateDeterministicID(t *testing.T) {
	repoA, _, cleanupA := setupRepo(t)
	defer cleanupA()
	repoB, _, cleanupB := setupRepo(t)
	defer cleanupB()

	ctx := context.Background()

	userA, created, err := repoA.Users().GetOrCreateByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, created)

	userB, created, err := repoB.Users().GetOrCreateByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, created)

	// the id derives from the email, so independent stores agree
	assert.Equal(t, userA.ID, userB.ID)
}

func TestUsersGetByEmailNotFound(t *testing.T) {
	repo, _, cleanup := setupRepo(t)
	defer cleanup()

	_, err := repo.Users().GetByEmail(context.Background(), "ghost@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, identity.ErrUserNotFound)
}

func TestEmailTokensPurgeExpired(t *testing.T) {
	repo, bunDB, cleanup := setupRepo(t)
	defer cleanup()

	ctx := context.Background()

	fresh := time.Now()
	stale := time.Now().Add(-time.Hour)

	require.NoError(t, repo.EmailTokens().InsertTx(ctx, bunDB, &identity.EmailToken{
		Email: "alice@example.com", Token: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", CreatedAt: &fresh,
	}))
	require.NoError(t, repo.EmailTokens().InsertTx(ctx, bunDB, &identity.EmailToken{
		Email: "alice@example.com", Token: "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", CreatedAt: &stale,
	}))
	require.NoError(t, repo.EmailTokens().InsertTx(ctx, bunDB, &identity.EmailToken{
		Email: "bob@example.com", Token: "cccccccccccccccccccccccccccccccc", CreatedAt: &stale,
	}))

	purged, err := repo.EmailTokens().PurgeExpired(ctx, identity.DefaultEmailTokenTTL)
	require.NoError(t, err)
	assert.Equal(t, int64(2), purged)
	assert.Equal(t, 1, countRows(t, bunDB, "email_token"))
}

func TestRepositoryManagerTablePrefix(t *testing.T) {
	bunDB, cleanup := setupDB(t)
	defer cleanup()

	// a second tenant schema next to the unprefixed one
	for _, stmt := range []string{
		sqliteCreateRoles,
		sqliteCreateUsers,
		sqliteCreateEmailToken,
		sqliteCreateSessionUser,
		sqliteCreateGroups,
		sqliteCreateUserGroup,
		sqliteCreateGroupActivationTokens,
	} {
		_, err := bunDB.Exec(strings.Replace(stmt, "CREATE TABLE ", "CREATE TABLE acme_", 1))
		require.NoError(t, err)
	}

	ctx := context.Background()
	repo := identity.NewRepositoryManager(bunDB, identity.WithTablePrefix("acme_"))
	require.NoError(t, repo.Validate())

	mgr := identity.NewManager(repo)
	sctx := &identity.MemorySessionContext{TransportSecure: true}

	token, err := mgr.Login(ctx, "tenant@example.com")
	require.NoError(t, err)

	valid, err := mgr.IsTokenValid(ctx, sctx, token)
	require.NoError(t, err)
	assert.True(t, valid)

	// every write landed in the prefixed tables
	assert.Equal(t, 1, countRows(t, bunDB, "acme_users"))
	assert.Equal(t, 2, countRows(t, bunDB, "acme_session_user"))
	assert.Equal(t, 0, countRows(t, bunDB, "users"))
	assert.Equal(t, 0, countRows(t, bunDB, "session_user"))
}
