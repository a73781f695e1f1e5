package persist

import (
	"context"
	"errors"
	"io"
	"testing"

	"test-manifest/core/database"
	"test-manifest/core/manifest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	return db
}

func TestDatabaseBackend_RoundTrip(t *testing.T) {
	ctx := context.Background()
	b := NewDatabaseBackend(setupSQLite(t), "main")
	require.NoError(t, b.Prepare())

	_, err := b.Open(ctx)
	assert.ErrorIs(t, err, manifest.ErrUnavailable)

	require.NoError(t, Write(ctx, b, sampleStore(t, "/base/")))
	require.NoError(t, Write(ctx, b, sampleStore(t, "/")))

	rc, err := b.Open(ctx)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	want, err := sampleStore(t, "/").ToDocument()
	require.NoError(t, err)
	assert.Equal(t, string(want), string(data))

	docs, err := b.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "main", docs[0].Name)
	assert.Equal(t, manifest.CurrentVersion, docs[0].Version)
	assert.Equal(t, "/", docs[0].URLBase)
	assert.Empty(t, docs[0].Content)
}

func TestDatabaseBackend_QueryError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectQuery("SELECT .* FROM `manifest_documents`").WillReturnError(errors.New("connection reset"))

	_, err = NewDatabaseBackend(db, "main").Open(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, manifest.ErrUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseBackend_MissingRowWithMySQL(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectQuery("SELECT .* FROM `manifest_documents`").
		WillReturnRows(sqlmock.NewRows([]string{"name", "version", "url_base", "content", "updated_at"}))

	_, err = NewDatabaseBackend(db, "main").Open(context.Background())
	assert.ErrorIs(t, err, manifest.ErrUnavailable)
}
