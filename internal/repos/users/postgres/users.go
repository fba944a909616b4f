package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sarrafio/api/internal/infra/pgutils"
	"github.com/sarrafio/api/internal/repos/users"
)

var _ users.Users = (*usersRepo)(nil)

type usersRepo struct{ db *sql.DB }

func New(db *sql.DB) *usersRepo {
	return &usersRepo{db: db}
}

// Roles live in a TEXT[] column; they cross database/sql as a comma-joined
// string via array_to_string/string_to_array.
const selectColumns = `
	id, phone, array_to_string(roles, ','), national_id,
	phone_verified_at, identity_verified_at, login_attempts, lock_until, created_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*users.User, error) {
	var (
		u     users.User
		roles string
	)

	err := row.Scan(&u.ID, &u.Phone, &roles, &u.NationalID,
		&u.PhoneVerifiedAt, &u.IdentityVerifiedAt, &u.LoginAttempts, &u.LockUntil, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, users.ErrUserNotFound
		}

		return nil, fmt.Errorf("scan user: %w", err)
	}

	if roles != "" {
		u.Roles = strings.Split(roles, ",")
	}

	return &u, nil
}

func (r *usersRepo) Create(ctx context.Context, u *users.User) error {
	if len(u.Roles) == 0 {
		u.Roles = []string{users.RoleUser}
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, phone, roles)
		VALUES ($1, $2, string_to_array($3, ','))
		RETURNING created_at
	`, u.ID, u.Phone, strings.Join(u.Roles, ",")).Scan(&u.CreatedAt)
	if err != nil {
		if pgutils.IsUniqueViolation(err) {
			return users.ErrPhoneTaken
		}

		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM users
		WHERE id = $1
	`, id)

	return scanUser(row)
}

func (r *usersRepo) GetByPhone(ctx context.Context, phone string) (*users.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM users
		WHERE phone = $1
	`, phone)

	return scanUser(row)
}

func (r *usersRepo) MarkPhoneVerified(ctx context.Context, id string) error {
	return r.exec(ctx, `
		UPDATE users
		SET phone_verified_at = COALESCE(phone_verified_at, now())
		WHERE id = $1
	`, id)
}

func (r *usersRepo) MarkIdentityVerified(ctx context.Context, id, nationalID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET national_id = $2, identity_verified_at = now()
		WHERE id = $1
	`, id, nationalID)
	if err != nil {
		return fmt.Errorf("mark identity verified: %w", err)
	}

	return requireFound(res)
}

func (r *usersRepo) IncLoginAttempts(ctx context.Context, id string) (int, error) {
	var attempts int

	err := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET login_attempts = login_attempts + 1
		WHERE id = $1
		RETURNING login_attempts
	`, id).Scan(&attempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, users.ErrUserNotFound
		}

		return 0, fmt.Errorf("inc login attempts: %w", err)
	}

	return attempts, nil
}

func (r *usersRepo) ResetLoginAttempts(ctx context.Context, id string) error {
	return r.exec(ctx, `
		UPDATE users
		SET login_attempts = 0, lock_until = NULL
		WHERE id = $1
	`, id)
}

func (r *usersRepo) Lock(ctx context.Context, id string, until time.Time) error {
	return r.exec(ctx, `
		UPDATE users
		SET lock_until = $2
		WHERE id = $1
	`, id, until)
}

func (r *usersRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec: %w", err)
	}

	return requireFound(res)
}

func requireFound(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return users.ErrUserNotFound
	}

	return nil
}
