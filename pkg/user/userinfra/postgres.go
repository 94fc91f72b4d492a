package userinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/poacpm/api/pkg/errx"
	"github.com/poacpm/api/pkg/logx"
	"github.com/poacpm/api/pkg/user"
)

const uniqueViolation = "23505"

// PostgresUserRepository is the Postgres implementation of user.Repository.
type PostgresUserRepository struct {
	db *sqlx.DB
}

// NewPostgresUserRepository creates a new repository instance.
func NewPostgresUserRepository(db *sqlx.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// EnsureSchema creates the users table if it does not exist.
func (r *PostgresUserRepository) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS users (
			id         BIGSERIAL PRIMARY KEY,
			name       TEXT NOT NULL,
			user_name  TEXT NOT NULL UNIQUE,
			avatar_url TEXT NOT NULL,
			email      TEXT NOT NULL,
			status     TEXT NOT NULL DEFAULT 'active'
		)`
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return errx.Wrap(err, "failed to ensure users schema", errx.TypeInternal)
	}
	return nil
}

// FindByUserName busca una cuenta por su handle estable.
func (r *PostgresUserRepository) FindByUserName(ctx context.Context, userName string) (*user.User, error) {
	var row userRow
	query := `SELECT id, name, user_name, avatar_url, email, status FROM users WHERE user_name = $1`
	err := r.db.GetContext(ctx, &row, query, userName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrUserNotFound().WithDetail("user_name", userName)
		}
		return nil, user.ErrStorageFailed(err)
	}
	domainUser := row.toDomain()
	return &domainUser, nil
}

// Create inserts a new active account.
//
// Two first-time logins for the same handle may race here. The unique
// constraint on user_name decides the winner; the loser falls back to
// reading the winning row so the login still succeeds. Callers never
// see the conflict.
func (r *PostgresUserRepository) Create(ctx context.Context, nu user.NewUser) (*user.User, error) {
	var row userRow
	query := `
		INSERT INTO users (name, user_name, avatar_url, email, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, user_name, avatar_url, email, status`
	err := r.db.GetContext(ctx, &row, query, nu.Name, nu.UserName, nu.AvatarURL, nu.Email, user.StatusActive)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			logx.WithField("user_name", nu.UserName).
				Info("creation race lost, resolving to existing account")
			return r.FindByUserName(ctx, nu.UserName)
		}
		return nil, user.ErrStorageFailed(err).WithDetail("user_name", nu.UserName)
	}
	domainUser := row.toDomain()
	return &domainUser, nil
}

// UpdateProfile writes both display fields filtered by handle and returns
// the post-update row.
func (r *PostgresUserRepository) UpdateProfile(ctx context.Context, userName, name, avatarURL string) (*user.User, error) {
	var row userRow
	query := `
		UPDATE users
		SET name = $1, avatar_url = $2
		WHERE user_name = $3
		RETURNING id, name, user_name, avatar_url, email, status`
	err := r.db.GetContext(ctx, &row, query, name, avatarURL, userName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrUserNotFound().WithDetail("user_name", userName)
		}
		return nil, user.ErrStorageFailed(err).WithDetail("user_name", userName)
	}
	domainUser := row.toDomain()
	return &domainUser, nil
}

// userRow is the persistence shape of an account.
type userRow struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	UserName  string `db:"user_name"`
	AvatarURL string `db:"avatar_url"`
	Email     string `db:"email"`
	Status    string `db:"status"`
}

func (row userRow) toDomain() user.User {
	return user.User{
		ID:        row.ID,
		Name:      row.Name,
		UserName:  row.UserName,
		AvatarURL: row.AvatarURL,
		Email:     row.Email,
		Status:    user.Status(row.Status),
	}
}
