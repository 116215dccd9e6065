package ebooks

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hubpessoal/hub/internal/common"
	"github.com/hubpessoal/hub/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

var columns = []string{"id", "user_id", "remote_file_id", "title", "author", "thumbnail_url", "file_type", "file_size_bytes",
	"total_pages", "reading_progress", "status", "last_read_at", "created_at"}

func TestGet(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)FROM\s+ebooks\s+WHERE\s+id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2`).
		WithArgs("e1", "u1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("e1", "u1", "ebooks/abc.pdf", "Duna", "Frank Herbert", nil, "pdf",
			int64(1024), nil, []byte(`{"page": 12, "percentage": 4.5}`), "reading", now, now))

	got, err := repo.Get(context.Background(), "u1", "e1")
	require.NoError(t, err)
	assert.Equal(t, models.EbookPDF, got.FileType)
	assert.Equal(t, int64(1024), *got.SizeBytes)
	assert.Equal(t, models.ReadingProgress{Page: 12, Percentage: 4.5}, got.ReadingProgress)
	assert.Equal(t, models.EbookReading, got.Status)
	require.NotNil(t, got.LastReadAt)
}

func TestGet_NotOwned(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+ebooks`).WithArgs("e1", "u2").WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "u2", "e1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestCreateIfAbsent(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)INSERT\s+INTO\s+ebooks.*ON\s+CONFLICT\s+\(user_id,\s*remote_file_id\)\s+DO\s+NOTHING`
	mock.ExpectExec(q).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WillReturnResult(sqlmock.NewResult(0, 0))

	e := &models.Ebook{UserID: "u1", RemoteFileID: "ebooks/a.epub", Title: "a", Author: "Desconhecido", FileType: models.EbookEPUB}

	inserted, err := repo.CreateIfAbsent(context.Background(), e)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.CreateIfAbsent(context.Background(), e)
	require.NoError(t, err)
	assert.False(t, inserted)
}

func TestRemoteFileIDs(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+remote_file_id\s+FROM\s+ebooks\s+WHERE\s+user_id\s*=\s*\$1`).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"remote_file_id"}).AddRow("a").AddRow("b"))

	ids, err := repo.RemoteFileIDs(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestUpdateProgress(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	at := time.Now()
	q := `(?s)UPDATE\s+ebooks\s+SET\s+reading_progress\s*=\s*\$3::jsonb,\s*status\s*=\s*\$4,\s*last_read_at\s*=\s*\$5`
	mock.ExpectExec(q).
		WithArgs("e1", "u1", `{"page":300,"percentage":100}`, models.EbookFinished, at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateProgress(context.Background(), "u1", "e1", models.ReadingProgress{Page: 300, Percentage: 100}, models.EbookFinished, at)
	require.NoError(t, err)

	err = repo.UpdateProgress(context.Background(), "u2", "e1", models.ReadingProgress{Page: 1}, models.EbookReading, at)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
