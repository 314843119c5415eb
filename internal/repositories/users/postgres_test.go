package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/tastetracker-backend/internal/models"
)

var userColumns = []string{"id", "email", "password_hash", "fcm_token", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewPostgresRepository(db), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+users\s*\(id,\s*email,\s*password_hash,\s*created_at,\s*updated_at\)`).
		WithArgs("u-1", "a@b.co", "hash", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.User{ID: "u-1", Email: "a@b.co", PasswordHash: "hash", CreatedAt: now, UpdatedAt: now})
	assert.NoError(t, err)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Create(context.Background(), &models.User{ID: "u-1", Email: "a@b.co"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`INSERT INTO users`).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &models.User{ID: "u-1"})
	assert.ErrorContains(t, err, "db error: db down")
}

func TestGetByID(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*email.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow("u-1", "a@b.co", "hash", "fcm-1", now, now))

	u, err := repo.GetByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "a@b.co", u.Email)
	assert.Equal(t, "fcm-1", u.PushToken())
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`WHERE\s+LOWER\(email\)\s*=\s*LOWER\(\$1\)`).
		WithArgs("missing@b.co").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "missing@b.co")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_NullTokens(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`ORDER BY created_at`).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u-1", "a@b.co", "h", nil, now, now).
			AddRow("u-2", "c@d.co", "h", "fcm-2", now, now))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Nil(t, got[0].FCMToken)
	assert.Equal(t, "fcm-2", got[1].PushToken())
}

func TestSetPushToken(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	token := "fcm-new"

	mock.ExpectExec(`UPDATE users SET fcm_token`).
		WithArgs("u-1", "fcm-new").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET fcm_token`).
		WithArgs("ghost", nil).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.SetPushToken(context.Background(), "u-1", &token))
	assert.ErrorIs(t, repo.SetPushToken(context.Background(), "ghost", nil), ErrNotFound)
}

func TestConsumeResetToken(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	q := `(?s)^UPDATE\s+password_reset_tokens\s+SET\s+used\s*=\s*TRUE.*RETURNING\s+user_id$`
	mock.ExpectQuery(q).
		WithArgs("tok", now).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("u-1"))
	mock.ExpectQuery(q).
		WithArgs("tok", now).
		WillReturnError(sql.ErrNoRows)

	userID, err := repo.ConsumeResetToken(context.Background(), "tok", now)
	require.NoError(t, err)
	assert.Equal(t, "u-1", userID)

	_, err = repo.ConsumeResetToken(context.Background(), "tok", now)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestCreateResetToken(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	exp := time.Now().Add(time.Hour).UTC()

	mock.ExpectExec(`INSERT INTO password_reset_tokens`).
		WithArgs("tok", "u-1", exp).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.CreateResetToken(context.Background(), models.PasswordResetToken{Token: "tok", UserID: "u-1", ExpiresAt: exp}))
}
