package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"liblend/internal/database"
	"liblend/internal/domain"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Connect(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.User{},
		&domain.Book{},
		&domain.BorrowedBook{},
		&domain.RefreshToken{},
		&domain.BlacklistedToken{},
	))
	return db
}

func TestRefreshTokenRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewRefreshTokenRepository(openTestDB(t))

	jti := uuid.NewString()
	rec := &domain.RefreshToken{
		JTI:       jti,
		UserID:    1,
		ExpiresAt: time.Now().Add(time.Hour).UTC(),
	}
	require.NoError(t, repo.Insert(ctx, rec))

	t.Run("find returns the stored record", func(t *testing.T) {
		got, err := repo.FindByJTI(ctx, jti)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.UserID)
		assert.False(t, got.Revoked)
	})

	t.Run("double insert is a no-op", func(t *testing.T) {
		dup := &domain.RefreshToken{JTI: jti, UserID: 99, ExpiresAt: rec.ExpiresAt}
		require.NoError(t, repo.Insert(ctx, dup))

		got, err := repo.FindByJTI(ctx, jti)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.UserID)
	})

	t.Run("revoke sticks", func(t *testing.T) {
		require.NoError(t, repo.Revoke(ctx, jti))
		require.NoError(t, repo.Revoke(ctx, jti))

		got, err := repo.FindByJTI(ctx, jti)
		require.NoError(t, err)
		assert.True(t, got.Revoked)
	})

	t.Run("unknown jti", func(t *testing.T) {
		_, err := repo.FindByJTI(ctx, uuid.NewString())
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

		assert.NoError(t, repo.Revoke(ctx, uuid.NewString()))
	})

	t.Run("delete expired keeps live tokens", func(t *testing.T) {
		expired := &domain.RefreshToken{
			JTI:       uuid.NewString(),
			UserID:    2,
			ExpiresAt: time.Now().Add(-time.Minute).UTC(),
		}
		require.NoError(t, repo.Insert(ctx, expired))

		n, err := repo.DeleteExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		_, err = repo.FindByJTI(ctx, expired.JTI)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

		_, err = repo.FindByJTI(ctx, jti)
		assert.NoError(t, err)
	})
}

func TestBlacklistRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewBlacklistRepository(openTestDB(t))

	jti := uuid.NewString()
	exp := time.Now().Add(5 * time.Minute).UTC()

	ok, err := repo.Contains(ctx, jti)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Insert(ctx, jti, exp))
	require.NoError(t, repo.Insert(ctx, jti, exp))

	ok, err = repo.Contains(ctx, jti)
	require.NoError(t, err)
	assert.True(t, ok)

	t.Run("delete expired", func(t *testing.T) {
		stale := uuid.NewString()
		require.NoError(t, repo.Insert(ctx, stale, time.Now().Add(-time.Second).UTC()))

		n, err := repo.DeleteExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		ok, err := repo.Contains(ctx, stale)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = repo.Contains(ctx, jti)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestBookRepository_AdjustAvailable(t *testing.T) {
	ctx := context.Background()
	repo := NewBookRepository(openTestDB(t))

	book := &domain.Book{BookKey: "gatsby", Title: "The Great Gatsby", Quantity: 2, Available: 1}
	require.NoError(t, repo.Create(ctx, book))

	require.NoError(t, repo.AdjustAvailable(ctx, book.ID, -1))

	// Shelf is empty now; the guard blocks a second decrement.
	err := repo.AdjustAvailable(ctx, book.ID, -1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.AdjustAvailable(ctx, book.ID, 1))

	got, err := repo.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Available)
}

func TestBookRepository_DuplicateKeyIsUniqueViolation(t *testing.T) {
	ctx := context.Background()
	repo := NewBookRepository(openTestDB(t))

	require.NoError(t, repo.Create(ctx, &domain.Book{BookKey: "dup", Title: "first", Quantity: 1, Available: 1}))

	err := repo.Create(ctx, &domain.Book{BookKey: "dup", Title: "second", Quantity: 1, Available: 1})
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))

	assert.False(t, database.IsUniqueViolation(gorm.ErrRecordNotFound))
	assert.False(t, database.IsUniqueViolation(nil))
}

func TestBorrowRepository_UserScoping(t *testing.T) {
	ctx := context.Background()
	repo := NewBorrowRepository(openTestDB(t))

	rec := &domain.BorrowedBook{UserID: 1, BookID: 10, BookKey: "moby", Title: "Moby Dick"}
	require.NoError(t, repo.Create(ctx, rec))

	_, err := repo.GetByIDForUser(ctx, rec.ID, 2)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	got, err := repo.GetByIDForUser(ctx, rec.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "moby", got.BookKey)

	ok, err := repo.ExistsByUserAndKey(ctx, 1, "moby")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ExistsByUserAndKey(ctx, 2, "moby")
	require.NoError(t, err)
	assert.False(t, ok)
}
