package user

import (
	"context"
	"strings"
)

//go:generate mockgen -destination=../store/mocks/mock_user_repository.go -package=mocks -mock_names=Repository=MockUserRepository bookshelf/internal/user Repository

// Repository is the credential store. Implementations report missing users
// with apperr.NotFound and duplicate emails with apperr.Conflict.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	UpdateBio(ctx context.Context, id, bio string) error
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
