package auth_test

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ClassTrack/CT-Backend/internal/auth"
	"github.com/ClassTrack/CT-Backend/internal/db"
)

// newMockDB swaps the global gorm handle for a sqlmock-backed one.
func newMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	prev := db.DB
	db.DB = gdb
	t.Cleanup(func() {
		db.DB = prev
		sqlDB.Close()
	})
	return mock
}

const tokenQuery = `SELECT (.+) FROM "app_auth"\."auth_tokens" WHERE digest = (.+)`
const userQuery = `SELECT (.+) FROM "app_auth"\."users" WHERE id = (.+)`

func TestFindTokenByValue(t *testing.T) {
	mock := newMockDB(t)

	value := "some-bearer-token"
	digest := auth.TokenDigest(value)
	expiry := time.Now().Add(time.Hour)

	mock.ExpectQuery(tokenQuery).WillReturnRows(
		sqlmock.NewRows([]string{"digest", "user_id", "created_at", "expires_at"}).
			AddRow(digest, 7, time.Now(), expiry))
	mock.ExpectQuery(userQuery).WillReturnRows(
		sqlmock.NewRows([]string{"id", "role", "is_active"}).
			AddRow(7, "lecturer", true))

	data, err := auth.TokenInfo{}.FindTokenByValue(value)
	require.NoError(t, err)
	assert.Equal(t, uint(7), data.UserID)
	assert.Equal(t, "lecturer", data.Role)
	assert.Equal(t, digest, data.Digest)
	assert.WithinDuration(t, expiry, data.ExpiresAt, time.Second)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindTokenByValue_UnknownToken(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery(tokenQuery).WillReturnRows(
		sqlmock.NewRows([]string{"digest", "user_id", "created_at", "expires_at"}))

	_, err := auth.TokenInfo{}.FindTokenByValue("unknown")
	assert.ErrorIs(t, err, auth.ErrTokenNotFound)
}

func TestFindTokenByValue_InactiveOwner(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery(tokenQuery).WillReturnRows(
		sqlmock.NewRows([]string{"digest", "user_id", "created_at", "expires_at"}).
			AddRow("d", 7, time.Now(), time.Now().Add(time.Hour)))
	mock.ExpectQuery(userQuery).WillReturnRows(
		sqlmock.NewRows([]string{"id", "role", "is_active"}).
			AddRow(7, "student", false))

	_, err := auth.TokenInfo{}.FindTokenByValue("whatever")
	assert.ErrorIs(t, err, auth.ErrTokenNotFound)
}
