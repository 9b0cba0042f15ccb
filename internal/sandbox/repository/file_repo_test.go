package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hecopilot/copilot-backend/internal/sandbox/domain"
)

var fileCols = []string{"id", "owner_uid", "object_key", "filename", "content_type", "size_bytes", "created_at", "expires_at", "deleted_at"}

func newMock(t *testing.T) (*FileRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewFileRepository(db), mock
}

func TestFileRepository_Create(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()
	f := &domain.File{
		ID: "f1", OwnerUID: "u1", ObjectKey: "sandbox/u1/f1/a.pdf", Filename: "a.pdf",
		ContentType: "application/pdf", SizeBytes: 12, ExpiresAt: now.Add(time.Hour),
	}

	mock.ExpectQuery("insert into sandbox_files").
		WithArgs("f1", "u1", "sandbox/u1/f1/a.pdf", "a.pdf", "application/pdf", int64(12), f.ExpiresAt).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	require.NoError(t, repo.Create(context.Background(), f))
	assert.Equal(t, now, f.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFileRepository_ListByOwner(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("where owner_uid = $1 and deleted_at is null and expires_at > $2")).
		WithArgs("u1", now).
		WillReturnRows(sqlmock.NewRows(fileCols).
			AddRow("f2", "u1", "k2", "b.txt", "text/plain", int64(3), now, now.Add(time.Hour), nil).
			AddRow("f1", "u1", "k1", "a.txt", "text/plain", int64(1), now, now.Add(time.Hour), nil))

	files, err := repo.ListByOwner(context.Background(), "u1", now)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "f2", files[0].ID)
	assert.Nil(t, files[0].DeletedAt)
}

func TestFileRepository_Get(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery("from sandbox_files where id = ").
		WithArgs("f1").
		WillReturnRows(sqlmock.NewRows(fileCols).
			AddRow("f1", "u1", "k1", "a.txt", "text/plain", int64(1), now, now, now))

	f, err := repo.Get(context.Background(), "f1")
	require.NoError(t, err)
	require.NotNil(t, f.DeletedAt)

	mock.ExpectQuery("from sandbox_files where id = ").WithArgs("nope").WillReturnError(sql.ErrNoRows)
	_, err = repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
}

func TestFileRepository_ListExpired(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("expires_at <= $1")).
		WithArgs(now, domain.SweepBatchSize).
		WillReturnRows(sqlmock.NewRows(fileCols).
			AddRow("f1", "u1", "k1", "a.txt", "text/plain", int64(1), now, now.Add(-time.Minute), nil))

	files, err := repo.ListExpired(context.Background(), now, domain.SweepBatchSize)
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFileRepository_MarkDeleted(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("where id = any($1) and deleted_at is null")).
		WithArgs(pq.Array([]string{"f1", "f2"}), now).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.MarkDeleted(context.Background(), []string{"f1", "f2"}, now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = repo.MarkDeleted(context.Background(), nil, now)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
