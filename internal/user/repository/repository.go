package repository

import (
	"context"

	"auth-core/internal/user/domain"
)

// Repository is the persistence boundary for user identity and hashed
// credentials. Implementations must enforce case-insensitive email uniqueness
// atomically at the store and return the failure kinds from internal/store.
type Repository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	UpdateStatus(ctx context.Context, id string, status domain.UserStatus) (*domain.User, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error)
	SetPushToken(ctx context.Context, id, token string) error
}
