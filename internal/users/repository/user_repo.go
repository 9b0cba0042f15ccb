package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/hecopilot/copilot-backend/internal/users/domain"
)

const userColumns = `id, email, full_name, institution, role, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert registers a user in one statement keyed by lower(email). Existing
// values survive when the request leaves a field blank.
func (r *UserRepository) Upsert(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	const q = `
insert into users (email, full_name, institution, role)
values (lower($1), nullif($2, ''), nullif($3, ''), nullif($4, ''))
on conflict ((lower(email))) do update
set
  full_name = coalesce(excluded.full_name, users.full_name),
  institution = coalesce(excluded.institution, users.institution),
  role = coalesce(excluded.role, users.role),
  updated_at = now()
returning ` + userColumns

	row := r.db.QueryRowContext(ctx, q, req.Email, req.FullName, req.Institution, req.Role)
	return scanUser(row)
}

// GetByEmail retrieves a user by email, ignoring case.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	q := `select ` + userColumns + ` from users where lower(email) = lower($1)`
	return scanUser(r.db.QueryRowContext(ctx, q, email))
}

// Update applies the non-nil fields of req.
func (r *UserRepository) Update(ctx context.Context, email string, req domain.UpdateUserRequest) (*domain.User, error) {
	const q = `
update users
set
  full_name = coalesce($2, full_name),
  institution = coalesce($3, institution),
  role = coalesce($4, role),
  updated_at = now()
where lower(email) = lower($1)
returning ` + userColumns

	row := r.db.QueryRowContext(ctx, q, email, req.FullName, req.Institution, req.Role)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	var fullName, institution, role sql.NullString

	err := row.Scan(&u.ID, &u.Email, &fullName, &institution, &role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if fullName.Valid {
		u.FullName = &fullName.String
	}
	if institution.Valid {
		u.Institution = &institution.String
	}
	if role.Valid {
		u.Role = &role.String
	}
	return &u, nil
}
