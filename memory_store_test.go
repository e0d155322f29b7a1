package auth_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-auth-session"
)

// userStoreContract runs the behaviour every UserStore must share.
func userStoreContract(t *testing.T, newStore func(t *testing.T) auth.UserStore) {
	ctx := context.Background()

	t.Run("create assigns id and timestamps", func(t *testing.T) {
		store := newStore(t)
		user, err := store.Create(ctx, &auth.User{Email: " A@B.com ", PasswordHash: "hash"})
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, user.ID)
		assert.Equal(t, "a@b.com", user.Email)
		assert.False(t, user.CreatedAt.IsZero())
		assert.Equal(t, user.CreatedAt, user.UpdatedAt)
	})

	t.Run("find by email and id", func(t *testing.T) {
		store := newStore(t)
		created, err := store.Create(ctx, &auth.User{Email: "a@b.com", PasswordHash: "hash"})
		require.NoError(t, err)

		byEmail, err := store.FindByEmail(ctx, "A@b.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byEmail.ID)
		assert.Equal(t, "hash", byEmail.PasswordHash)

		byID, err := store.FindByID(ctx, created.ID.String())
		require.NoError(t, err)
		assert.Equal(t, "a@b.com", byID.Email)
	})

	t.Run("duplicate email", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Create(ctx, &auth.User{Email: "a@b.com", PasswordHash: "hash"})
		require.NoError(t, err)

		_, err = store.Create(ctx, &auth.User{Email: "A@B.COM", PasswordHash: "other"})
		assert.ErrorIs(t, err, auth.ErrDuplicateEmail)
	})

	t.Run("not found", func(t *testing.T) {
		store := newStore(t)

		_, err := store.FindByEmail(ctx, "missing@b.com")
		assert.ErrorIs(t, err, auth.ErrUserNotFound)

		_, err = store.FindByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, auth.ErrUserNotFound)

		_, err = store.FindByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})

	t.Run("concurrent registrations of one email", func(t *testing.T) {
		store := newStore(t)

		const n = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
			dupes     int
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.Create(ctx, &auth.User{Email: "race@b.com", PasswordHash: "hash"})
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					successes++
				case assert.ErrorIs(t, err, auth.ErrDuplicateEmail):
					dupes++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, successes)
		assert.Equal(t, n-1, dupes)
	})
}

func TestMemoryUserStore(t *testing.T) {
	userStoreContract(t, func(t *testing.T) auth.UserStore {
		return auth.NewMemoryUserStore()
	})
}

func TestMemoryUserStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := auth.NewMemoryUserStore()

	created, err := store.Create(ctx, &auth.User{Email: "a@b.com", PasswordHash: "hash"})
	require.NoError(t, err)
	created.PasswordHash = "mutated"

	found, err := store.FindByID(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "hash", found.PasswordHash)
}
