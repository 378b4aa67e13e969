package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mutiara-bangsa/storefront/internal/platform/db"
	"github.com/mutiara-bangsa/storefront/internal/shared"
)

const pgUniqueViolation = "23505"

// Repository defines persistence operations for auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	Create(ctx context.Context, user User, profile Profile) error
}

// Pool is the subset of pgxpool.Pool used by PGRepository.
type Pool interface {
	db.TxBeginner
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches a user and profile by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	var acc Account
	err := r.pool.QueryRow(ctx, `SELECT u.id, u.email, u.password_hash, u.is_active, u.created_at,
		       p.full_name, COALESCE(p.no_telpon, ''), p.role, p.created_at
		FROM users u JOIN profiles p ON p.id = u.id
		WHERE lower(u.email) = lower($1)`, strings.TrimSpace(email)).Scan(
		&acc.User.ID, &acc.User.Email, &acc.User.PasswordHash, &acc.User.IsActive, &acc.User.CreatedAt,
		&acc.Profile.FullName, &acc.Profile.NoTelpon, &acc.Profile.Role, &acc.Profile.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	acc.Profile.ID = acc.User.ID
	return &acc, nil
}

// Create inserts the user and its profile in one transaction.
func (r *PGRepository) Create(ctx context.Context, user User, profile Profile) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO users (id, email, password_hash, is_active) VALUES ($1, $2, $3, TRUE)`,
			user.ID, user.Email, user.PasswordHash); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `INSERT INTO profiles (id, full_name, no_telpon, role) VALUES ($1, $2, NULLIF($3, ''), $4)`,
			profile.ID, profile.FullName, profile.NoTelpon, profile.Role)
		return err
	})
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return shared.ErrEmailTaken
	}
	return err
}

var _ Repository = (*PGRepository)(nil)
