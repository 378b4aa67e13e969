package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mutiara-bangsa/storefront/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
	cost int
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, cost: bcrypt.DefaultCost}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	acc, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !acc.User.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.User.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return acc, nil
}

// Register creates a customer account.
func (s *Service) Register(ctx context.Context, reg Registration) (*Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.cost)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	user := User{ID: id, Email: strings.ToLower(strings.TrimSpace(reg.Email)), PasswordHash: string(hash), IsActive: true}
	profile := Profile{ID: id, FullName: strings.TrimSpace(reg.FullName), NoTelpon: strings.TrimSpace(reg.NoTelpon), Role: shared.RoleCustomer}
	if err := s.repo.Create(ctx, user, profile); err != nil {
		return nil, err
	}
	return &Account{User: user, Profile: profile}, nil
}
