package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound indicates that the requested record does not exist.
var ErrNotFound = errors.New("rbac: not found")

// PrincipalLoader resolves a session user into a Principal.
type PrincipalLoader interface {
	PrincipalByUserID(ctx context.Context, userID string) (Principal, error)
}

// RowQuerier is the subset of pgxpool.Pool used by Service.
type RowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service reads profiles to build principals.
type Service struct {
	db RowQuerier
}

// NewService constructs a Service backed by the provided pool.
func NewService(db RowQuerier) *Service {
	return &Service{db: db}
}

// PrincipalByUserID loads the profile joined with the account email.
func (s *Service) PrincipalByUserID(ctx context.Context, userID string) (Principal, error) {
	var p Principal
	err := s.db.QueryRow(ctx, `SELECT p.id, p.full_name, u.email, p.role
		FROM profiles p JOIN users u ON u.id = p.id
		WHERE p.id = $1`, userID).Scan(&p.UserID, &p.FullName, &p.Email, &p.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Principal{}, ErrNotFound
		}
		return Principal{}, err
	}
	return p, nil
}
