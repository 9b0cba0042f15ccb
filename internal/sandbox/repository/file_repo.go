package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/hecopilot/copilot-backend/internal/sandbox/domain"
)

const fileColumns = `id, owner_uid, object_key, filename, content_type, size_bytes, created_at, expires_at, deleted_at`

type FileRepository struct {
	db *sql.DB
}

func NewFileRepository(db *sql.DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) Create(ctx context.Context, f *domain.File) error {
	const q = `
insert into sandbox_files (id, owner_uid, object_key, filename, content_type, size_bytes, expires_at)
values ($1, $2, $3, $4, $5, $6, $7)
returning created_at`

	return r.db.QueryRowContext(ctx, q,
		f.ID, f.OwnerUID, f.ObjectKey, f.Filename, f.ContentType, f.SizeBytes, f.ExpiresAt,
	).Scan(&f.CreatedAt)
}

// ListByOwner returns the owner's files that are neither deleted nor expired,
// newest first.
func (r *FileRepository) ListByOwner(ctx context.Context, owner string, now time.Time) ([]domain.File, error) {
	q := `select ` + fileColumns + ` from sandbox_files
where owner_uid = $1 and deleted_at is null and expires_at > $2
order by created_at desc`

	rows, err := r.db.QueryContext(ctx, q, owner, now)
	if err != nil {
		return nil, err
	}
	return scanFiles(rows)
}

func (r *FileRepository) Get(ctx context.Context, id string) (*domain.File, error) {
	q := `select ` + fileColumns + ` from sandbox_files where id = $1`

	var f domain.File
	var deletedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&f.ID, &f.OwnerUID, &f.ObjectKey, &f.Filename, &f.ContentType,
		&f.SizeBytes, &f.CreatedAt, &f.ExpiresAt, &deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		f.DeletedAt = &deletedAt.Time
	}
	return &f, nil
}

// ListExpired returns up to limit live rows whose expiry has passed, oldest first.
func (r *FileRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]domain.File, error) {
	q := `select ` + fileColumns + ` from sandbox_files
where deleted_at is null and expires_at <= $1
order by expires_at
limit $2`

	rows, err := r.db.QueryContext(ctx, q, now, limit)
	if err != nil {
		return nil, err
	}
	return scanFiles(rows)
}

// MarkDeleted soft-deletes the given rows and reports how many changed.
func (r *FileRepository) MarkDeleted(ctx context.Context, ids []string, now time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	const q = `update sandbox_files set deleted_at = $2 where id = any($1) and deleted_at is null`
	res, err := r.db.ExecContext(ctx, q, pq.Array(ids), now)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func scanFiles(rows *sql.Rows) ([]domain.File, error) {
	defer rows.Close()

	out := []domain.File{}
	for rows.Next() {
		var f domain.File
		var deletedAt sql.NullTime
		if err := rows.Scan(
			&f.ID, &f.OwnerUID, &f.ObjectKey, &f.Filename, &f.ContentType,
			&f.SizeBytes, &f.CreatedAt, &f.ExpiresAt, &deletedAt,
		); err != nil {
			return nil, err
		}
		if deletedAt.Valid {
			f.DeletedAt = &deletedAt.Time
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
