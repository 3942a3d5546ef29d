package repo

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/openlibro/library-api/internal/models"
)

func newTestRepo(t *testing.T) GormRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Book{}, &models.Loan{}))
	return GormRepo{DB: db}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	u1 := &models.User{Name: "A", Email: "same@test.com", PasswordHash: "h", Role: "user"}
	require.NoError(t, r.CreateUser(ctx, u1))

	u2 := &models.User{Name: "B", Email: "same@test.com", PasswordHash: "h", Role: "user"}
	err := r.CreateUser(ctx, u2)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestIncrementTokenVersion(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	user := &models.User{Name: "A", Email: "a@test.com", PasswordHash: "h", Role: "user"}
	require.NoError(t, r.CreateUser(ctx, user))
	require.Equal(t, 0, user.TokenVersion)

	v, err := r.IncrementTokenVersion(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = r.IncrementTokenVersion(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = r.IncrementTokenVersion(ctx, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAdminExists(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	exists, err := r.AdminExists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	admin := &models.User{Name: "Boss", Email: "admin@test.com", PasswordHash: "h", Role: "admin"}
	require.NoError(t, r.CreateUser(ctx, admin))

	exists, err = r.AdminExists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestListDeleteAndRoleChange(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	u1 := &models.User{Name: "A", Email: "a@test.com", PasswordHash: "h", Role: "user"}
	u2 := &models.User{Name: "B", Email: "b@test.com", PasswordHash: "h", Role: "user"}
	require.NoError(t, r.CreateUser(ctx, u1))
	require.NoError(t, r.CreateUser(ctx, u2))

	users, err := r.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	promoted, err := r.UpdateUserRole(ctx, u2.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", promoted.Role)

	_, err = r.UpdateUserRole(ctx, 9999, "admin")
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, r.DeleteUser(ctx, u1.ID))
	_, err = r.FindUserByID(ctx, u1.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	err = r.DeleteUser(ctx, u1.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCheckoutAndReturn(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	user := &models.User{Name: "Reader", Email: "r@test.com", PasswordHash: "h", Role: "user"}
	require.NoError(t, r.CreateUser(ctx, user))

	book := &models.Book{Title: "Go 101", Author: "Jane", IsAvailable: true}
	require.NoError(t, r.CreateBook(ctx, book))

	loan, err := r.CheckoutBook(ctx, book.ID, user.ID)
	require.NoError(t, err)
	require.NotZero(t, loan.LoanID)
	assert.Nil(t, loan.ReturnDate)

	got, err := r.FindBookByID(ctx, book.ID)
	require.NoError(t, err)
	assert.False(t, got.IsAvailable)

	_, err = r.CheckoutBook(ctx, book.ID, user.ID)
	assert.ErrorIs(t, err, ErrBookUnavailable)

	returned, err := r.ReturnBook(ctx, loan.LoanID)
	require.NoError(t, err)
	require.NotNil(t, returned.ReturnDate)

	got, err = r.FindBookByID(ctx, book.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAvailable)

	_, err = r.ReturnBook(ctx, loan.LoanID)
	assert.ErrorIs(t, err, ErrAlreadyReturned)
}

func TestCheckout_MissingBook(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	user := &models.User{Name: "Reader", Email: "r@test.com", PasswordHash: "h", Role: "user"}
	require.NoError(t, r.CreateUser(ctx, user))

	_, err := r.CheckoutBook(ctx, 12345, user.ID)
	assert.ErrorIs(t, err, ErrBookNotFound)
}
